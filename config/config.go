// Package config loads the device wiring from an optional YAML file.
package config

import (
	"github.com/callebjorkell/rfid-jukebox/nfc"
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
	"os"
	"time"
)

type Config struct {
	Player  PlayerConfig  `yaml:"player"`
	Reader  ReaderConfig  `yaml:"reader"`
	LED     LEDConfig     `yaml:"led"`
	History HistoryConfig `yaml:"history"`
	Loop    LoopConfig    `yaml:"loop"`
}

// PlayerConfig is the serial link to the YX5300.
type PlayerConfig struct {
	Port         string        `yaml:"port" default:"/dev/serial0" validate:"required"`
	ReplyTimeout time.Duration `yaml:"reply_timeout" default:"1s" validate:"gt=0"`
}

// ReaderConfig is the SPI wiring of the RC522, plus the card the mock reader presents on other builds.
type ReaderConfig struct {
	Bus         int           `yaml:"bus" default:"0" validate:"gte=0"`
	Device      int           `yaml:"device" default:"0" validate:"gte=0"`
	MaxSpeedHz  int           `yaml:"max_speed_hz" default:"100000" validate:"gt=0,lte=10000000"`
	ResetPin    int           `yaml:"reset_pin" default:"22" validate:"gte=0"`
	MockCard    string        `yaml:"mock_card" default:"de05be7f" validate:"hexadecimal,len=8"`
	MockPresent time.Duration `yaml:"mock_present" default:"30s"`
	MockAbsent  time.Duration `yaml:"mock_absent" default:"10s"`
}

type LEDConfig struct {
	Disabled bool   `yaml:"disabled"`
	Pin      string `yaml:"pin" default:"GPIO21" validate:"required"`
}

// HistoryConfig is the card scan log.
type HistoryConfig struct {
	Disabled bool   `yaml:"disabled"`
	Path     string `yaml:"path" default:"cards.db" validate:"required"`
}

type LoopConfig struct {
	Interval time.Duration `yaml:"interval" default:"20ms" validate:"gt=0"`
}

// Default returns the configuration used when no file is given.
func Default() (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	return &cfg, nil
}

// Load reads a YAML file. Anything the file leaves out gets its default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// NFC converts the reader section to what nfc.CreateReader needs.
func (c *Config) NFC() (nfc.ReaderConfig, error) {
	card, err := nfc.ParseToken(c.Reader.MockCard)
	if err != nil {
		return nfc.ReaderConfig{}, err
	}
	return nfc.ReaderConfig{
		Bus:         c.Reader.Bus,
		Device:      c.Reader.Device,
		MaxSpeedHz:  c.Reader.MaxSpeedHz,
		ResetPin:    c.Reader.ResetPin,
		MockCard:    card,
		MockPresent: c.Reader.MockPresent,
		MockAbsent:  c.Reader.MockAbsent,
	}, nil
}
