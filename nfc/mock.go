//go:build !pi
// +build !pi

package nfc

import (
	log "github.com/sirupsen/logrus"
	"sync"
	"time"
)

// CreateReader returns a reader that puts cfg.MockCard on the reader for MockPresent, takes it away for
// MockAbsent, and repeats.
func CreateReader(cfg ReaderConfig) (Reader, error) {
	log.Infof("Using mock reader with card %v", cfg.MockCard)
	return newMockReader(cfg.MockCard, cfg.MockPresent, cfg.MockAbsent, time.Now), nil
}

type mockReader struct {
	mu      sync.Mutex
	card    Token
	present time.Duration
	absent  time.Duration
	start   time.Time
	now     func() time.Time
	// cycle in which the card was last halted, -1 when never
	halted int64
}

func newMockReader(card Token, present, absent time.Duration, now func() time.Time) *mockReader {
	if present <= 0 {
		present = 30 * time.Second
	}
	if absent <= 0 {
		absent = 10 * time.Second
	}
	return &mockReader{
		card:    card,
		present: present,
		absent:  absent,
		start:   now(),
		now:     now,
		halted:  -1,
	}
}

func (m *mockReader) cycle() (int64, bool) {
	period := m.present + m.absent
	elapsed := m.now().Sub(m.start)
	n := int64(elapsed / period)
	return n, elapsed%period < m.present
}

func (m *mockReader) TokenPresent() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, onReader := m.cycle()
	return onReader && n != m.halted
}

func (m *mockReader) ReadToken() (Token, error) {
	return m.card, nil
}

func (m *mockReader) EndSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halted, _ = m.cycle()
}

func (m *mockReader) Close() error {
	return nil
}
