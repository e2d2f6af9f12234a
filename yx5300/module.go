package yx5300

import (
	"bytes"
	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
	"io"
	"time"
)

// readTimeout keeps Poll from blocking the control loop when the module has nothing to say.
const readTimeout = 10 * time.Millisecond

// Module is a YX5300 connected to a serial port.
type Module struct {
	port io.ReadWriteCloser
	name string
	buf  []byte
}

// Open opens the serial port at the fixed 9600 8N1 the module speaks.
func Open(portName string) (*Module, error) {
	p, err := serial.Open(portName, &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %v", portName)
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		p.Close()
		return nil, errors.Wrap(err, "could not set read timeout")
	}
	if err := p.ResetInputBuffer(); err != nil {
		log.Debugf("could not flush %v: %v", portName, err)
	}
	log.Infof("YX5300 opened on %v", portName)
	return newModule(p, portName), nil
}

func newModule(p io.ReadWriteCloser, name string) *Module {
	return &Module{port: p, name: name, buf: make([]byte, 0, 4*FrameSize)}
}

func (m *Module) Close() error {
	return m.port.Close()
}

func (m *Module) Send(c Command) error {
	log.Debugf("-> %v", c)
	if _, err := m.port.Write(Encode(c)); err != nil {
		return errors.Wrapf(err, "could not send %v to %v", c, m.name)
	}
	return nil
}

// Poll returns the next status from the module if a complete frame has arrived. It does not wait longer than
// the port read timeout.
func (m *Module) Poll() (Status, bool, error) {
	if s, ok := m.nextFrame(); ok {
		return s, true, nil
	}

	chunk := make([]byte, 2*FrameSize)
	n, err := m.port.Read(chunk)
	if err != nil && !errors.Is(err, io.EOF) {
		return Status{}, false, errors.Wrapf(err, "could not read from %v", m.name)
	}
	m.buf = append(m.buf, chunk[:n]...)

	s, ok := m.nextFrame()
	return s, ok, nil
}

// nextFrame pulls one frame out of the buffer, skipping anything that does not line up with a frame.
func (m *Module) nextFrame() (Status, bool) {
	for {
		start := bytes.IndexByte(m.buf, frameStart)
		if start < 0 {
			m.buf = m.buf[:0]
			return Status{}, false
		}
		m.buf = m.buf[start:]
		if len(m.buf) < FrameSize {
			return Status{}, false
		}

		s, err := Decode(m.buf[:FrameSize])
		if errors.Is(err, ErrFraming) {
			log.Debugf("resyncing after bad frame: %v", err)
			m.buf = m.buf[1:]
			continue
		}
		m.buf = m.buf[FrameSize:]
		if err != nil {
			log.Warnf("<- %v", err)
		} else {
			log.Debugf("<- %v", s)
		}
		return s, true
	}
}
