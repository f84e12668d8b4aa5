// Package display renders node screens on a character display emulated in a terminal.
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/exepirit/loratext/pkg/loratext"
)

// Geometry of the 128x32 OLED in text mode.
const (
	Rows    = 4
	Columns = 21
)

var _ loratext.Display = &Terminal{}

// Terminal draws every screen as a bordered box of Rows x Columns characters.
type Terminal struct {
	out   io.Writer
	mu    sync.Mutex
	style lipgloss.Style
}

// NewTerminal creates a display writing to w. Colours are used only when w is a terminal.
func NewTerminal(w io.Writer) *Terminal {
	renderer := lipgloss.NewRenderer(w)
	return &Terminal{
		out: w,
		style: renderer.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("2")).
			Width(Columns),
	}
}

// ShowLines replaces the screen. Extra lines are dropped and long lines are cut at the right edge.
func (t *Terminal) ShowLines(lines ...string) {
	screen := Fit(lines)
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintln(t.out, t.style.Render(strings.Join(screen, "\n")))
}

// Fit clips lines to the display geometry, always returning Rows lines.
func Fit(lines []string) []string {
	screen := make([]string, Rows)
	for i := 0; i < Rows && i < len(lines); i++ {
		line := []rune(strings.ReplaceAll(lines[i], "\n", " "))
		if len(line) > Columns {
			line = line[:Columns]
		}
		screen[i] = string(line)
	}
	return screen
}

// Wrap splits text into chunks of at most width characters.
func Wrap(text string, width int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	var out []string
	for len(runes) > width {
		out = append(out, string(runes[:width]))
		runes = runes[width:]
	}
	return append(out, string(runes))
}
