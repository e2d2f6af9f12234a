package jukebox

import (
	"context"
	"github.com/callebjorkell/rfid-jukebox/yx5300"
	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
	"time"
)

// Player is the serial link to the MP3 module.
type Player interface {
	Send(yx5300.Command) error
	// Poll returns the next status from the module, if there is one.
	Poll() (yx5300.Status, bool, error)
}

var timedOut = yx5300.Status{Code: yx5300.StatusTimeout}

// Synchronizer turns the fire-and-forget serial link into request/reply exchanges.
type Synchronizer struct {
	player   Player
	timeout  time.Duration
	interval time.Duration
}

func NewSynchronizer(p Player, timeout time.Duration) *Synchronizer {
	interval := 5 * time.Millisecond
	if timeout < interval {
		interval = timeout
	}
	return &Synchronizer{player: p, timeout: timeout, interval: interval}
}

// Confirm sends c until the module answers with anything but STS_TIMEOUT, and returns that answer. There is no
// retry limit: the module is the only thing that can make progress here. Statuses already queued before the
// command are discarded so that they are not mistaken for the reply.
func (s *Synchronizer) Confirm(c yx5300.Command) yx5300.Status {
	st, _ := s.ConfirmContext(context.Background(), c)
	return st
}

// ConfirmContext is Confirm that stops resending once ctx is done. The last STS_TIMEOUT is returned along with the
// context error.
func (s *Synchronizer) ConfirmContext(ctx context.Context, c yx5300.Command) (yx5300.Status, error) {
	s.drain()
	for attempt := 1; ; attempt++ {
		st := s.Exchange(c)
		if st.Code != yx5300.StatusTimeout {
			return st, nil
		}
		if err := ctx.Err(); err != nil {
			return st, errors.Wrapf(err, "gave up on %v after %d attempts", c, attempt)
		}
		log.Debugf("%v timed out, resending (attempt %d)", c, attempt)
	}
}

// Exchange sends c once and waits for a single reply. No reply within the timeout is reported as STS_TIMEOUT.
func (s *Synchronizer) Exchange(c yx5300.Command) yx5300.Status {
	if err := s.player.Send(c); err != nil {
		log.Warn(err)
		time.Sleep(s.timeout)
		return timedOut
	}
	return s.Await()
}

// Fire sends c without waiting. The reply shows up later through Poll.
func (s *Synchronizer) Fire(c yx5300.Command) error {
	return s.player.Send(c)
}

// Await waits for the next status without sending anything.
func (s *Synchronizer) Await() yx5300.Status {
	deadline := time.Now().Add(s.timeout)
	for {
		st, ok, err := s.player.Poll()
		if err != nil {
			log.Warn(err)
		}
		if ok {
			return st
		}
		if !time.Now().Before(deadline) {
			return timedOut
		}
		time.Sleep(s.interval)
	}
}

func (s *Synchronizer) drain() {
	for {
		st, ok, err := s.player.Poll()
		if err != nil {
			log.Warn(err)
			return
		}
		if !ok {
			return
		}
		log.Debugf("discarding stale status %v", st)
	}
}
