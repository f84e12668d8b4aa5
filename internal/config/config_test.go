package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exepirit/loratext/pkg/loratext"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "node.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
name: alice
peerRoster: [alice, bob, carol]
ackTimeoutMs: 1500
maxAttempts: 5
syncWord: 0x12
frequency: 433175000
radio: mqtt://localhost:1883/lab
idleTimeoutMs: 60000
logLevel: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "alice", cfg.Name)
	assert.Equal(t, []string{"alice", "bob", "carol"}, cfg.PeerRoster)
	assert.Equal(t, "mqtt://localhost:1883/lab", cfg.Radio)
	assert.Equal(t, time.Minute, cfg.IdleTimeout())
	assert.Equal(t, 50*time.Millisecond, cfg.TickInterval(), "defaults fill missing keys")
	assert.Equal(t, 200*time.Millisecond, cfg.BuzzerDuration())

	engine := cfg.Engine()
	assert.Equal(t, 1500*time.Millisecond, engine.AckTimeout)
	assert.Equal(t, loratext.DefaultResendTimeout, engine.ResendTimeout)
	assert.Equal(t, loratext.DefaultMaxJitter, engine.MaxJitter)
	assert.Equal(t, 5, engine.MaxAttempts)
	assert.Equal(t, loratext.RadioSettings{Frequency: 433_175_000, SyncWord: 0x12}, engine.Radio)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "name: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "syncWord: 300"))
	assert.Error(t, err, "sync word is one byte")
}

func TestDefaultMatchesEngineDefaults(t *testing.T) {
	cfg := Default()
	cfg.Name = "alice"
	require.NoError(t, cfg.Validate())

	want := loratext.DefaultConfig("alice")
	got := cfg.Engine()
	assert.Equal(t, want.AckTimeout, got.AckTimeout)
	assert.Equal(t, want.ResendTimeout, got.ResendTimeout)
	assert.Equal(t, want.MaxJitter, got.MaxJitter)
	assert.Equal(t, want.Radio, got.Radio)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing name", mutate: func(c *Config) { c.Name = "" }},
		{name: "separator in roster", mutate: func(c *Config) { c.PeerRoster = []string{"b\x1fob"} }},
		{name: "zero ack timeout", mutate: func(c *Config) { c.AckTimeoutMs = 0 }},
		{name: "negative jitter", mutate: func(c *Config) { c.MaxJitterMs = -1 }},
		{name: "negative attempts", mutate: func(c *Config) { c.MaxAttempts = -1 }},
		{name: "no radio", mutate: func(c *Config) { c.Radio = "" }},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Name = "alice"
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
