// Package keypad decodes the node's 6x5 matrix keyboard and composes messages from key presses.
package keypad

import (
	"time"
)

// Key is a decoded key press. Printable keys are their rune.
type Key rune

const (
	KeyNone      Key = 0
	KeyBackspace Key = 8
	KeyEnter     Key = 13
	// KeyMod switches the layer. It is consumed by the Scanner and never returned.
	KeyMod Key = 0xff
)

// Matrix size.
const (
	Rows = 6
	Cols = 5
)

// Default timings of the firmware keyboard.
const (
	DefaultDebounce       = 20 * time.Millisecond
	DefaultInitialDelay   = 500 * time.Millisecond
	DefaultRepeatInterval = 10 * time.Millisecond
)

// Layout holds the letter layer followed by the digit/symbol layer.
var Layout = [2][Rows][Cols]Key{
	{
		{'Q', 'W', 'E', 'R', 'T'}, {'Y', 'U', 'I', 'O', 'P'},
		{'A', 'S', 'D', 'F', 'G'}, {'H', 'J', 'K', 'L', KeyBackspace},
		{'Z', 'X', 'C', 'V', 'B'}, {'N', 'M', ' ', KeyMod, KeyEnter},
	},
	{
		{'1', '2', '3', '4', '5'}, {'6', '7', '8', '9', '0'},
		{'!', '@', '#', '$', '%'}, {'(', ')', ',', '"', KeyBackspace},
		{'+', '-', '/', '*', '='}, {'?', ':', '.', KeyMod, KeyEnter},
	},
}

// Position is a matrix cell. NoKey means nothing is pressed.
type Position struct {
	Row, Col int
}

var NoKey = Position{Row: -1, Col: -1}

func (p Position) valid() bool {
	return p.Row >= 0 && p.Row < Rows && p.Col >= 0 && p.Col < Cols
}

// Scanner turns periodic matrix samples into key presses with debounce and auto-repeat.
// A MOD press switches the layer for the next key, holding MOD locks the layer until it is held again.
type Scanner struct {
	Debounce       time.Duration
	InitialDelay   time.Duration
	RepeatInterval time.Duration

	candidate      Position
	candidateSince time.Time

	pressed   Position
	pressedAt time.Time
	repeating bool

	layer  int
	locked bool
}

// NewScanner creates a scanner with the firmware timings.
func NewScanner() *Scanner {
	return &Scanner{
		Debounce:       DefaultDebounce,
		InitialDelay:   DefaultInitialDelay,
		RepeatInterval: DefaultRepeatInterval,
		candidate:      NoKey,
		pressed:        NoKey,
	}
}

// Layer returns the active layer and whether it is locked.
func (s *Scanner) Layer() (int, bool) { return s.layer, s.locked }

// Scan feeds one sample taken at now. It returns the key to emit, if any.
func (s *Scanner) Scan(pos Position, now time.Time) (Key, bool) {
	if !pos.valid() {
		s.candidate, s.pressed = NoKey, NoKey
		s.repeating = false
		return KeyNone, false
	}

	if pos != s.candidate {
		s.candidate, s.candidateSince = pos, now
	}
	if now.Sub(s.candidateSince) < s.Debounce {
		return KeyNone, false
	}
	mod := Layout[0][pos.Row][pos.Col] == KeyMod

	switch {
	case pos != s.pressed:
		s.pressed, s.pressedAt = pos, now
		s.repeating = false
		if mod {
			s.toggleLayer()
			return KeyNone, false
		}
		return s.emit(pos), true

	case !s.repeating && now.Sub(s.pressedAt) >= s.InitialDelay:
		s.pressedAt = now
		s.repeating = true
		if mod {
			s.toggleLock()
			return KeyNone, false
		}
		return s.emit(pos), true

	case s.repeating && now.Sub(s.pressedAt) >= s.RepeatInterval:
		s.pressedAt = now
		if mod {
			return KeyNone, false
		}
		return s.emit(pos), true
	}
	return KeyNone, false
}

func (s *Scanner) emit(pos Position) Key {
	key := Layout[s.layer][pos.Row][pos.Col]
	if !s.locked {
		s.layer = 0
	}
	return key
}

func (s *Scanner) toggleLayer() {
	s.layer = 1 - s.layer
	s.locked = false
}

func (s *Scanner) toggleLock() {
	if s.locked {
		s.locked = false
		s.layer = 0
		return
	}
	s.locked = true
}
