// Package jukebox turns scanned cards into playback on the MP3 module.
//
// Everything runs from one loop: Step polls the module for status messages while it is awake, then checks the
// reader for a card. Only waking the module up and putting it to sleep block the loop, until the module has
// acknowledged the command.
package jukebox

import (
	"context"
	"github.com/callebjorkell/rfid-jukebox/nfc"
	"github.com/callebjorkell/rfid-jukebox/yx5300"
	log "github.com/sirupsen/logrus"
	"time"
)

const (
	// MaxTrack is the highest file number the module can address in a folder.
	MaxTrack = 255

	// maxStatusPerStep keeps a chatty module from starving the reader.
	maxStatusPerStep = 16

	DefaultReplyTimeout = 1000 * time.Millisecond
	DefaultLoopInterval = 20 * time.Millisecond
)

type PowerState int

const (
	Asleep PowerState = iota
	Awake
)

func (p PowerState) String() string {
	if p == Awake {
		return "awake"
	}
	return "asleep"
}

// Cursor is the folder and 1 based track that is playing.
type Cursor struct {
	Folder int
	Track  int
}

// Indicator shows the power state, for instance on an LED.
type Indicator interface {
	Awake()
	Asleep()
}

// History is told about every card that starts a session.
type History interface {
	Record(t nfc.Token, folder int) error
}

type Option func(*Controller)

func WithIndicator(i Indicator) Option {
	return func(c *Controller) {
		c.indicator = i
	}
}

func WithHistory(h History) Option {
	return func(c *Controller) {
		c.history = h
	}
}

func WithReplyTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.timeout = d
	}
}

func WithLoopInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.interval = d
	}
}

// Controller owns the playback session. It is not safe for concurrent use, it is meant to be driven from a
// single loop.
type Controller struct {
	reader    nfc.Reader
	sync      *Synchronizer
	debouncer nfc.Debouncer

	power  PowerState
	cursor Cursor
	// The module reports the end of a track twice, so only every second STS_FILE_END moves on.
	swallowFileEnd bool

	indicator Indicator
	history   History
	timeout   time.Duration
	interval  time.Duration
}

func New(reader nfc.Reader, player Player, opts ...Option) *Controller {
	c := &Controller{
		reader:         reader,
		power:          Asleep,
		cursor:         Cursor{Folder: 1, Track: 1},
		swallowFileEnd: true,
		timeout:        DefaultReplyTimeout,
		interval:       DefaultLoopInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.sync = NewSynchronizer(player, c.timeout)
	return c
}

func (c *Controller) Power() PowerState {
	return c.power
}

func (c *Controller) Cursor() Cursor {
	return c.cursor
}

// Boot selects the TF card, turns the volume all the way up and puts the module to sleep until the first card
// shows up. It returns early with an error if ctx is done before the module has confirmed the sleep.
func (c *Controller) Boot(ctx context.Context) error {
	if st := c.sync.Exchange(yx5300.SelectTF()); st.Code == yx5300.StatusTimeout {
		log.Debug("No reply to the TF card selection")
	}
	log.Info("Setting volume to max")
	if st := c.sync.Exchange(yx5300.SetVolume(yx5300.MaxVolume)); st.Code == yx5300.StatusTimeout {
		log.Warn("No reply to the volume command, is the module connected?")
	}

	log.Info("Sleeping")
	st, err := c.sync.ConfirmContext(ctx, yx5300.Sleep())
	if err != nil {
		return err
	}
	log.Debugf("Sleep confirmed with %v", st)
	c.setPower(Asleep)
	return nil
}

// Run steps the controller until ctx is done. A wake up or sleep in progress is always finished first.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debugln("Controller stopped")
			return
		case <-ticker.C:
			c.Step()
		}
	}
}

// Step is one pass of the control loop.
func (c *Controller) Step() {
	if c.power == Awake {
		c.pollStatus()
	}

	if !c.reader.TokenPresent() {
		return
	}
	t, err := c.reader.ReadToken()
	if err != nil {
		log.Debugf("Could not read card: %v", err)
		return
	}
	defer c.reader.EndSession()

	if !c.debouncer.Accept(t) {
		log.Debugf("Card %v read previously", t)
		return
	}

	folder := FolderFor(t)
	log.Infof("A new card has been detected: %v", t)
	if c.history != nil {
		if err := c.history.Record(t, folder); err != nil {
			log.Warnf("Could not record card %v: %v", t, err)
		}
	}
	c.Play(folder, 1)
}

// Play wakes the module if needed and starts the given track. The alternation of STS_FILE_END starts over.
func (c *Controller) Play(folder, track int) {
	c.wake()
	c.cursor = Cursor{Folder: folder, Track: track}
	// every session starts over on the first end of track, even if the last one ended on a half pair
	c.swallowFileEnd = true
	c.playCursor()
}

// Sleep puts the module to sleep and blocks until it has confirmed.
func (c *Controller) Sleep() {
	log.Info("Sleeping")
	st := c.sync.Confirm(yx5300.Sleep())
	log.Debugf("Sleep confirmed with %v", st)
	c.setPower(Asleep)
}

func (c *Controller) wake() {
	if c.power == Awake {
		return
	}
	log.Info("Waking up")
	st := c.sync.Confirm(yx5300.WakeUp())
	log.Debugf("Wake up confirmed with %v", st)
	c.setPower(Awake)
}

func (c *Controller) setPower(p PowerState) {
	c.power = p
	if c.indicator == nil {
		return
	}
	if p == Awake {
		c.indicator.Awake()
	} else {
		c.indicator.Asleep()
	}
}

func (c *Controller) playCursor() {
	log.Infof("Playing folder %d, file %d", c.cursor.Folder, c.cursor.Track)
	cmd := yx5300.PlayFolderFile(uint8(c.cursor.Folder), uint8(c.cursor.Track))
	if err := c.sync.Fire(cmd); err != nil {
		log.Warn(err)
	}
}

func (c *Controller) pollStatus() {
	for i := 0; i < maxStatusPerStep && c.power == Awake; i++ {
		st, ok, err := c.sync.player.Poll()
		if err != nil {
			log.Warn(err)
			return
		}
		if !ok {
			return
		}
		c.handleStatus(st)
	}
}

func (c *Controller) handleStatus(st yx5300.Status) {
	switch st.Code {
	case yx5300.StatusFileEnd:
		log.Debugf("%v", st)
		c.fileEnd()
	case yx5300.StatusErrFile:
		log.Infof("%v: file not found so stopping", st)
		c.stop()
	case yx5300.StatusOK, yx5300.StatusTimeout, yx5300.StatusAckOK, yx5300.StatusVersion,
		yx5300.StatusChecksum, yx5300.StatusTFInsert, yx5300.StatusTFRemove, yx5300.StatusInit,
		yx5300.StatusStatus, yx5300.StatusEqualizer, yx5300.StatusVolume, yx5300.StatusTotFiles,
		yx5300.StatusPlaying, yx5300.StatusFldrFiles, yx5300.StatusTotFolders:
		log.Debugf("%v", st)
	default:
		log.Warnf("Ignoring unknown status %v", st)
	}
}

func (c *Controller) fileEnd() {
	if c.swallowFileEnd {
		c.swallowFileEnd = false
		return
	}
	c.swallowFileEnd = true

	if c.cursor.Track >= MaxTrack {
		log.Infof("Reached the last addressable file in folder %d", c.cursor.Folder)
		c.stop()
		return
	}
	log.Info("Play next song of folder")
	c.cursor.Track++
	c.playCursor()
}

// stop ends the session. The card that started it counts as new the next time it is scanned.
func (c *Controller) stop() {
	if err := c.sync.Fire(yx5300.Stop()); err != nil {
		log.Warn(err)
	}
	c.Sleep()
	c.debouncer.Reset()
}
