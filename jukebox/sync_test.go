package jukebox

import (
	"context"
	"github.com/callebjorkell/rfid-jukebox/nfc"
	"github.com/callebjorkell/rfid-jukebox/yx5300"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestExchangeReturnsReply(t *testing.T) {
	p := newFakePlayer()
	p.script(yx5300.QueryTotalFolders(), yx5300.Status{Code: yx5300.StatusTotFolders, Data: 12})
	s := NewSynchronizer(p, time.Millisecond)

	st := s.Exchange(yx5300.QueryTotalFolders())
	assert.Equal(t, yx5300.Status{Code: yx5300.StatusTotFolders, Data: 12}, st)
}

func TestExchangeTimesOut(t *testing.T) {
	p := newFakePlayer()
	s := NewSynchronizer(p, 2*time.Millisecond)

	start := time.Now()
	st := s.Exchange(yx5300.QueryStatus())
	assert.Equal(t, yx5300.StatusTimeout, st.Code)
	assert.GreaterOrEqual(t, time.Since(start), 2*time.Millisecond)
	assert.Len(t, p.sent, 1, "exchange never retries")
}

func TestExchangeSendError(t *testing.T) {
	p := newFakePlayer()
	p.sendErr = errors.New("port gone")
	s := NewSynchronizer(p, time.Millisecond)

	assert.Equal(t, yx5300.StatusTimeout, s.Exchange(yx5300.WakeUp()).Code)
	assert.Empty(t, p.sent)
}

func TestConfirmRetriesSendErrors(t *testing.T) {
	p := newFakePlayer()
	p.sendErr = errors.New("port gone")
	s := NewSynchronizer(p, time.Millisecond)

	st := s.Confirm(yx5300.WakeUp())
	assert.Equal(t, yx5300.StatusAckOK, st.Code)
	assert.Equal(t, []yx5300.Command{yx5300.WakeUp()}, p.sent)
}

func TestConfirmDiscardsStaleStatus(t *testing.T) {
	p := newFakePlayer()
	p.emit(fileEnd, tfInsert)
	p.script(yx5300.Sleep(), yx5300.Status{Code: yx5300.StatusOK})
	s := NewSynchronizer(p, time.Millisecond)

	st := s.Confirm(yx5300.Sleep())
	assert.Equal(t, yx5300.StatusOK, st.Code)
	assert.Empty(t, p.pending)
}

func TestConfirmAcceptsAnyNonTimeout(t *testing.T) {
	p := newFakePlayer()
	p.script(yx5300.WakeUp(), timeout, errFile)
	s := NewSynchronizer(p, time.Millisecond)

	assert.Equal(t, errFile, s.Confirm(yx5300.WakeUp()))
	assert.Len(t, p.sent, 2)
}

func TestFireDoesNotWait(t *testing.T) {
	p := newFakePlayer()
	p.script(yx5300.Stop(), ack)
	s := NewSynchronizer(p, time.Hour)

	assert.NoError(t, s.Fire(yx5300.Stop()))
	assert.Equal(t, []yx5300.Status{ack}, p.pending, "the reply is left for the control loop")
}

func TestFolderFor(t *testing.T) {
	tests := []struct {
		token  nfc.Token
		folder int
	}{
		{nfc.Token{0x00, 0x05, 0xff, 0xff}, 5},
		{nfc.Token{0xff, 0x00, 0x00, 0x00}, 0},
		{nfc.Token{0x01, 99, 0x02, 0x03}, 99},
		{nfc.Token{0x01, 100, 0x02, 0x03}, 0},
		{nfc.Token{0x01, 0xff, 0x02, 0x03}, 55},
		{nfc.Token{0xaa, 0xc8, 0xbb, 0xcc}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.token.String(), func(t *testing.T) {
			assert.Equal(t, tc.folder, FolderFor(tc.token))
			assert.Equal(t, FolderFor(tc.token), FolderFor(tc.token))
		})
	}
}

func TestFolderForAllBytes(t *testing.T) {
	for b := 0; b < 256; b++ {
		tok := nfc.Token{0x12, byte(b), 0x34, 0x56}
		f := FolderFor(tok)
		assert.Equal(t, b%100, f)
		assert.True(t, f >= 0 && f < Folders)
	}
}

func TestAwaitWithoutSending(t *testing.T) {
	p := newFakePlayer()
	p.emit(tfInsert)
	s := NewSynchronizer(p, time.Millisecond)

	assert.Equal(t, tfInsert, s.Await())
	assert.Equal(t, yx5300.StatusTimeout, s.Await().Code)
	assert.Empty(t, p.sent)
}

func TestConfirmContextStopsResending(t *testing.T) {
	p := newFakePlayer()
	p.script(yx5300.Sleep(), silent)
	s := NewSynchronizer(p, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st, err := s.ConfirmContext(ctx, yx5300.Sleep())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, yx5300.StatusTimeout, st.Code)
	assert.Len(t, p.sent, 1)
}

func TestConfirmContextReturnsReply(t *testing.T) {
	p := newFakePlayer()
	p.script(yx5300.WakeUp(), timeout, ack)
	s := NewSynchronizer(p, time.Millisecond)

	st, err := s.ConfirmContext(context.Background(), yx5300.WakeUp())
	assert.NoError(t, err)
	assert.Equal(t, ack, st)
}
