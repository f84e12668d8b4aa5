// Package config loads the node configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/exepirit/loratext/internal/log"
	"github.com/exepirit/loratext/pkg/loratext"
)

// DefaultRadio is the radio URL used when the file names none.
const DefaultRadio = "udp://239.0.0.69:4403"

// Config is the YAML node file.
type Config struct {
	Name       string   `yaml:"name"`
	PeerRoster []string `yaml:"peerRoster"`

	AckTimeoutMs    int `yaml:"ackTimeoutMs"`
	ResendTimeoutMs int `yaml:"resendTimeoutMs"`
	MaxJitterMs     int `yaml:"maxJitterMs"`
	MaxAttempts     int `yaml:"maxAttempts"`

	SyncWord  uint8  `yaml:"syncWord"`
	Frequency uint32 `yaml:"frequency"`
	Radio     string `yaml:"radio"`
	Storage   string `yaml:"storage"`

	TickIntervalMs int `yaml:"tickIntervalMs"`
	IdleTimeoutMs  int `yaml:"idleTimeoutMs"`
	BuzzerMs       int `yaml:"buzzerMs"`

	LogFile  string `yaml:"logFile"`
	LogLevel string `yaml:"logLevel"`
}

// Default returns the firmware settings. Name and roster are left empty.
func Default() Config {
	radio := loratext.DefaultRadioSettings()
	return Config{
		AckTimeoutMs:    int(loratext.DefaultAckTimeout / time.Millisecond),
		ResendTimeoutMs: int(loratext.DefaultResendTimeout / time.Millisecond),
		MaxJitterMs:     int(loratext.DefaultMaxJitter / time.Millisecond),
		SyncWord:        radio.SyncWord,
		Frequency:       radio.Frequency,
		Radio:           DefaultRadio,
		Storage:         "loranode.db",
		TickIntervalMs:  int(loratext.DefaultTickInterval / time.Millisecond),
		BuzzerMs:        int(loratext.DefaultBuzzerDuration / time.Millisecond),
		LogLevel:        "info",
	}
}

// Load reads the file at path over Default. Keys missing from the file keep their default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if err := loratext.ValidateName(c.Name); err != nil {
		errs = append(errs, fmt.Errorf("name: %w", err))
	}
	for _, peer := range c.PeerRoster {
		if err := loratext.ValidateName(peer); err != nil {
			errs = append(errs, fmt.Errorf("peerRoster: %w", err))
		}
	}
	if c.AckTimeoutMs <= 0 {
		errs = append(errs, errors.New("ackTimeoutMs must be positive"))
	}
	if c.ResendTimeoutMs <= 0 {
		errs = append(errs, errors.New("resendTimeoutMs must be positive"))
	}
	if c.MaxJitterMs < 0 {
		errs = append(errs, errors.New("maxJitterMs must not be negative"))
	}
	if c.MaxAttempts < 0 {
		errs = append(errs, errors.New("maxAttempts must not be negative"))
	}
	if c.Frequency == 0 {
		errs = append(errs, errors.New("frequency is required"))
	}
	if c.Radio == "" {
		errs = append(errs, errors.New("radio is required"))
	}
	if c.TickIntervalMs < 0 || c.IdleTimeoutMs < 0 || c.BuzzerMs < 0 {
		errs = append(errs, errors.New("tickIntervalMs, idleTimeoutMs and buzzerMs must not be negative"))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("logLevel: %w", err))
	}
	return errors.Join(errs...)
}

// RadioSettings returns the channel to tune to.
func (c Config) RadioSettings() loratext.RadioSettings {
	return loratext.RadioSettings{Frequency: c.Frequency, SyncWord: c.SyncWord}
}

// Engine returns the engine configuration.
func (c Config) Engine() loratext.Config {
	return loratext.Config{
		Name:          c.Name,
		Roster:        c.PeerRoster,
		AckTimeout:    millis(c.AckTimeoutMs),
		ResendTimeout: millis(c.ResendTimeoutMs),
		MaxJitter:     millis(c.MaxJitterMs),
		MaxAttempts:   c.MaxAttempts,
		Radio:         c.RadioSettings(),
	}
}

func (c Config) TickInterval() time.Duration   { return millis(c.TickIntervalMs) }
func (c Config) IdleTimeout() time.Duration    { return millis(c.IdleTimeoutMs) }
func (c Config) BuzzerDuration() time.Duration { return millis(c.BuzzerMs) }

func millis(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }
