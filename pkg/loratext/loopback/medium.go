// Package loopback is an in-memory radio medium. Every radio joined to a Medium hears the
// transmissions of the others that are tuned to the same channel, never its own.
package loopback

import (
	"context"
	"sync"

	"github.com/exepirit/loratext/pkg/loratext"
)

const inboxSize = 64

// Medium is a shared radio channel.
type Medium struct {
	// Drop, when set, is consulted for every delivery; returning true loses the frame.
	Drop func(from, to *Radio, data []byte) bool

	mu     sync.Mutex
	radios []*Radio
}

func NewMedium() *Medium { return &Medium{} }

// Join attaches a new radio to the medium.
func (m *Medium) Join() *Radio {
	r := &Radio{
		medium: m,
		inbox:  make(chan []byte, inboxSize),
	}
	m.mu.Lock()
	m.radios = append(m.radios, r)
	m.mu.Unlock()
	return r
}

func (m *Medium) deliver(from *Radio, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, to := range m.radios {
		if to == from || !to.tunedTo(from.channel()) {
			continue
		}
		if m.Drop != nil && m.Drop(from, to, data) {
			continue
		}
		to.Inject(data)
	}
}

// Radio is one transceiver on a Medium.
type Radio struct {
	medium *Medium
	inbox  chan []byte

	mu         sync.Mutex
	settings   loratext.RadioSettings
	configured bool
	txLog      [][]byte
}

var _ loratext.Radio = &Radio{}

func (r *Radio) Configure(_ context.Context, settings loratext.RadioSettings) error {
	r.mu.Lock()
	r.settings = settings
	r.configured = true
	r.mu.Unlock()
	return nil
}

func (r *Radio) Transmit(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	frame := clone(data)
	r.mu.Lock()
	r.txLog = append(r.txLog, frame)
	r.mu.Unlock()
	if r.medium != nil {
		r.medium.deliver(r, frame)
	}
	return nil
}

func (r *Radio) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data := <-r.inbox:
		return data, nil
	}
}

// Inject queues data as if it had been received over the air. A full inbox drops the frame.
func (r *Radio) Inject(data []byte) {
	select {
	case r.inbox <- clone(data):
	default:
	}
}

// Transmitted returns copies of every frame sent so far.
func (r *Radio) Transmitted() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.txLog))
	for i, frame := range r.txLog {
		out[i] = clone(frame)
	}
	return out
}

// ClearTransmitted forgets the transmit log.
func (r *Radio) ClearTransmitted() {
	r.mu.Lock()
	r.txLog = nil
	r.mu.Unlock()
}

// Settings returns the channel the radio is tuned to and whether Configure was called.
func (r *Radio) Settings() (loratext.RadioSettings, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings, r.configured
}

func (r *Radio) channel() loratext.RadioSettings {
	s, _ := r.Settings()
	return s
}

func (r *Radio) tunedTo(settings loratext.RadioSettings) bool {
	s, ok := r.Settings()
	return ok && s == settings
}

func clone(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	return out
}
