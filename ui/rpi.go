//go:build pi
// +build pi

package ui

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

type statusLed struct {
	pin gpio.PinIO
}

// GetStatusLED sets up the LED on the named pin, e.g. "GPIO21". The LED is wired active low.
func GetStatusLED(pinName string) (Indicator, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "unable to initialize periph")
	}
	logrus.Infof("Initializing status LED on %v", pinName)

	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, errors.Newf("no such pin %v", pinName)
	}
	l := &statusLed{pin: pin}
	l.Off()
	return l, nil
}

func (l *statusLed) Awake() {
	l.set(gpio.Low)
}

func (l *statusLed) Asleep() {
	l.set(gpio.High)
}

func (l *statusLed) Off() {
	l.set(gpio.High)
}

func (l *statusLed) set(level gpio.Level) {
	if err := l.pin.Out(level); err != nil {
		logrus.Warnf("Could not set %v: %v", l.pin.Name(), err)
	}
}
