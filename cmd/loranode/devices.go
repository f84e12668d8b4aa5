package main

import (
	"context"
	"io"
	"time"

	"github.com/exepirit/loratext/pkg/loratext"
)

// bell rings the terminal bell in place of the piezo buzzer.
type bell struct {
	out io.Writer
}

func (b *bell) On()  { _, _ = io.WriteString(b.out, "\a") }
func (b *bell) Off() {}

// screenSaver blanks the display for a short nap in place of light sleep.
type screenSaver struct {
	display loratext.Display
	nap     time.Duration
}

func (s *screenSaver) Sleep(ctx context.Context) error {
	s.display.ShowLines()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.nap):
		return nil
	}
}
