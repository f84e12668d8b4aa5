package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exepirit/loratext/pkg/loratext"
)

func TestRecipients(t *testing.T) {
	got := recipients("alice", []string{"alice", "bob", "carol", "bob"})
	assert.Equal(t, []string{loratext.Broadcast, "bob", "carol"}, got)
}

func TestBell(t *testing.T) {
	var buf bytes.Buffer
	b := &bell{out: &buf}
	b.On()
	b.Off()
	assert.Equal(t, "\a", buf.String())
}

type blankRecorder struct{ calls int }

func (r *blankRecorder) ShowLines(lines ...string) { r.calls++ }

func TestScreenSaver(t *testing.T) {
	screen := &blankRecorder{}
	saver := &screenSaver{display: screen, nap: time.Millisecond}
	require.NoError(t, saver.Sleep(context.Background()))
	assert.Equal(t, 1, screen.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	saver.nap = time.Hour
	assert.ErrorIs(t, saver.Sleep(ctx), context.Canceled)
}

func TestRosterCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.db")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"roster", "--storage", path, "--set", "alice,bob"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "alice\nbob\n", out.String())

	out.Reset()
	rootCmd.SetArgs([]string{"logs", "--storage", path})
	require.NoError(t, rootCmd.Execute())
	assert.Empty(t, out.String())
}
