package jukebox

import (
	"github.com/callebjorkell/rfid-jukebox/nfc"
	"github.com/callebjorkell/rfid-jukebox/yx5300"
	"github.com/cockroachdb/errors"
)

// silent is a scripted reply that makes the fake module say nothing.
var silent = yx5300.Status{Code: 0xFF}

var (
	ack      = yx5300.Status{Code: yx5300.StatusAckOK}
	timeout  = yx5300.Status{Code: yx5300.StatusTimeout}
	fileEnd  = yx5300.Status{Code: yx5300.StatusFileEnd, Data: 1}
	errFile  = yx5300.Status{Code: yx5300.StatusErrFile, Data: 6}
	tfInsert = yx5300.Status{Code: yx5300.StatusTFInsert, Data: 2}
)

type fakePlayer struct {
	sent    []yx5300.Command
	replies map[byte][]yx5300.Status
	pending []yx5300.Status
	polls   int
	sendErr error
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{replies: map[byte][]yx5300.Status{
		yx5300.WakeUp().Code: {ack},
		yx5300.Sleep().Code:  {ack},
	}}
}

// script queues replies for the command, one per send. Commands without a script get no reply.
func (p *fakePlayer) script(c yx5300.Command, replies ...yx5300.Status) {
	p.replies[c.Code] = replies
}

func (p *fakePlayer) Send(c yx5300.Command) error {
	if p.sendErr != nil {
		err := p.sendErr
		p.sendErr = nil
		return err
	}
	p.sent = append(p.sent, c)
	q := p.replies[c.Code]
	if len(q) == 0 {
		return nil
	}
	// the last scripted reply sticks, so that repeated wake ups keep working
	if len(q) > 1 {
		p.replies[c.Code] = q[1:]
	}
	if q[0] != silent {
		p.pending = append(p.pending, q[0])
	}
	return nil
}

func (p *fakePlayer) Poll() (yx5300.Status, bool, error) {
	p.polls++
	if len(p.pending) == 0 {
		return yx5300.Status{}, false, nil
	}
	s := p.pending[0]
	p.pending = p.pending[1:]
	return s, true, nil
}

func (p *fakePlayer) emit(s ...yx5300.Status) {
	p.pending = append(p.pending, s...)
}

type fakeReader struct {
	card    *nfc.Token
	readErr error
	ended   int
	closed  bool
}

func (r *fakeReader) present(t nfc.Token) {
	r.card = &t
}

func (r *fakeReader) remove() {
	r.card = nil
}

func (r *fakeReader) TokenPresent() bool {
	return r.card != nil
}

func (r *fakeReader) ReadToken() (nfc.Token, error) {
	if r.readErr != nil {
		return nfc.Token{}, r.readErr
	}
	if r.card == nil {
		return nfc.Token{}, errors.New("no card")
	}
	return *r.card, nil
}

func (r *fakeReader) EndSession() {
	r.ended++
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type fakeIndicator struct {
	states []PowerState
}

func (i *fakeIndicator) Awake()  { i.states = append(i.states, Awake) }
func (i *fakeIndicator) Asleep() { i.states = append(i.states, Asleep) }

type record struct {
	token  nfc.Token
	folder int
}

type fakeHistory struct {
	records []record
	err     error
}

func (h *fakeHistory) Record(t nfc.Token, folder int) error {
	h.records = append(h.records, record{t, folder})
	return h.err
}
