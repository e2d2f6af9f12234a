//go:build !pi
// +build !pi

package ui

import (
	"bytes"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestCliLed(t *testing.T) {
	var out bytes.Buffer
	orig := logrus.StandardLogger().Out
	logrus.SetOutput(&out)
	defer logrus.SetOutput(orig)

	led, err := GetStatusLED("GPIO21")
	require.NoError(t, err)

	led.Awake()
	led.Asleep()
	led.Off()

	assert.Contains(t, out.String(), "LED GPIO21: on")
	assert.Contains(t, out.String(), "LED GPIO21: asleep")
	assert.Contains(t, out.String(), "LED GPIO21: off")
}
