package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/callebjorkell/rfid-jukebox/nfc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jukebox.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/dev/serial0", cfg.Player.Port)
	assert.Equal(t, time.Second, cfg.Player.ReplyTimeout)
	assert.Equal(t, 22, cfg.Reader.ResetPin)
	assert.Equal(t, 100000, cfg.Reader.MaxSpeedHz)
	assert.Equal(t, "GPIO21", cfg.LED.Pin)
	assert.False(t, cfg.LED.Disabled)
	assert.Equal(t, "cards.db", cfg.History.Path)
	assert.Equal(t, 20*time.Millisecond, cfg.Loop.Interval)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
player:
  port: /dev/ttyUSB1
  reply_timeout: 500ms
reader:
  bus: 1
  mock_card: 0a0b0c0d
led:
  disabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB1", cfg.Player.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Player.ReplyTimeout)
	assert.Equal(t, 1, cfg.Reader.Bus)
	assert.Equal(t, 22, cfg.Reader.ResetPin, "missing values get defaults")
	assert.True(t, cfg.LED.Disabled)

	r, err := cfg.NFC()
	require.NoError(t, err)
	assert.Equal(t, nfc.Token{0x0a, 0x0b, 0x0c, 0x0d}, r.MockCard)
	assert.Equal(t, 1, r.Bus)
	assert.Equal(t, 30*time.Second, r.MockPresent)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "player: [port"},
		{"bad duration", "player:\n  reply_timeout: soon\n"},
		{"negative timeout", "player:\n  reply_timeout: -1s\n"},
		{"bad mock card", "reader:\n  mock_card: xyz\n"},
		{"spi too fast", "reader:\n  max_speed_hz: 20000000\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
