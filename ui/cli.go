//go:build !pi
// +build !pi

package ui

import (
	"github.com/sirupsen/logrus"
)

func GetStatusLED(pinName string) (Indicator, error) {
	return cliLed{pin: pinName}, nil
}

type cliLed struct {
	pin string
}

func (l cliLed) Awake() {
	logrus.Printf("LED %v: on", l.pin)
}

func (l cliLed) Asleep() {
	logrus.Printf("LED %v: asleep", l.pin)
}

func (l cliLed) Off() {
	logrus.Printf("LED %v: off", l.pin)
}
