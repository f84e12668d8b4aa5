package keypad

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	t0     = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	keyQ   = Position{Row: 0, Col: 0}
	keyW   = Position{Row: 0, Col: 1}
	keyMod = Position{Row: 5, Col: 3}
)

type sample struct {
	pos  Position
	at   time.Duration
	want Key
}

func run(t *testing.T, s *Scanner, samples []sample) {
	t.Helper()
	for _, smp := range samples {
		key, ok := s.Scan(smp.pos, t0.Add(smp.at))
		if smp.want == KeyNone {
			assert.False(t, ok, "sample at %s", smp.at)
			continue
		}
		if assert.True(t, ok, "sample at %s", smp.at) {
			assert.Equal(t, smp.want, key, "sample at %s", smp.at)
		}
	}
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestScannerDebounce(t *testing.T) {
	run(t, NewScanner(), []sample{
		{pos: keyQ, at: 0, want: KeyNone},
		{pos: keyQ, at: ms(10), want: KeyNone},
		{pos: keyQ, at: ms(20), want: 'Q'},
		{pos: keyQ, at: ms(30), want: KeyNone},
		{pos: NoKey, at: ms(40), want: KeyNone},
	})
}

func TestScannerIgnoresBounce(t *testing.T) {
	run(t, NewScanner(), []sample{
		{pos: keyQ, at: 0, want: KeyNone},
		{pos: keyW, at: ms(5), want: KeyNone},
		{pos: keyW, at: ms(20), want: KeyNone},
		{pos: keyW, at: ms(25), want: 'W'},
	})
}

func TestScannerRepeat(t *testing.T) {
	run(t, NewScanner(), []sample{
		{pos: keyQ, at: 0, want: KeyNone},
		{pos: keyQ, at: ms(20), want: 'Q'},
		{pos: keyQ, at: ms(300), want: KeyNone},
		{pos: keyQ, at: ms(520), want: 'Q'},
		{pos: keyQ, at: ms(525), want: KeyNone},
		{pos: keyQ, at: ms(530), want: 'Q'},
		{pos: keyQ, at: ms(540), want: 'Q'},
		{pos: NoKey, at: ms(550), want: KeyNone},
		{pos: keyQ, at: ms(560), want: KeyNone},
		{pos: keyQ, at: ms(580), want: 'Q'},
	})
}

func TestScannerModSwitchesOneKey(t *testing.T) {
	s := NewScanner()
	run(t, s, []sample{
		{pos: keyMod, at: 0, want: KeyNone},
		{pos: keyMod, at: ms(20), want: KeyNone},
		{pos: NoKey, at: ms(50), want: KeyNone},
	})
	layer, locked := s.Layer()
	assert.Equal(t, 1, layer)
	assert.False(t, locked)

	run(t, s, []sample{
		{pos: keyQ, at: ms(100), want: KeyNone},
		{pos: keyQ, at: ms(120), want: '1'},
		{pos: NoKey, at: ms(150), want: KeyNone},
		{pos: keyQ, at: ms(200), want: KeyNone},
		{pos: keyQ, at: ms(220), want: 'Q'},
	})
}

func TestScannerModHoldLocksLayer(t *testing.T) {
	s := NewScanner()
	run(t, s, []sample{
		{pos: keyMod, at: 0, want: KeyNone},
		{pos: keyMod, at: ms(20), want: KeyNone},
		{pos: keyMod, at: ms(520), want: KeyNone},
		{pos: keyMod, at: ms(600), want: KeyNone},
		{pos: NoKey, at: ms(650), want: KeyNone},
	})
	layer, locked := s.Layer()
	assert.Equal(t, 1, layer)
	assert.True(t, locked)

	run(t, s, []sample{
		{pos: keyW, at: ms(700), want: KeyNone},
		{pos: keyW, at: ms(720), want: '2'},
		{pos: NoKey, at: ms(750), want: KeyNone},
		{pos: keyW, at: ms(800), want: KeyNone},
		{pos: keyW, at: ms(820), want: '2'},
		{pos: NoKey, at: ms(850), want: KeyNone},
		// A MOD tap leaves the locked layer.
		{pos: keyMod, at: ms(900), want: KeyNone},
		{pos: keyMod, at: ms(920), want: KeyNone},
		{pos: NoKey, at: ms(950), want: KeyNone},
		{pos: keyW, at: ms(1000), want: KeyNone},
		{pos: keyW, at: ms(1020), want: 'W'},
	})
}

func TestScannerRejectsOutOfRange(t *testing.T) {
	s := NewScanner()
	_, ok := s.Scan(Position{Row: Rows, Col: 0}, t0)
	assert.False(t, ok)
	_, ok = s.Scan(Position{Row: Rows, Col: 0}, t0.Add(time.Second))
	assert.False(t, ok)
}
