package loratext

import (
	"context"
)

// Radio sends and receives raw frames over a half-duplex link.
type Radio interface {
	// Configure tunes the radio. It is called once before the first Transmit.
	Configure(ctx context.Context, settings RadioSettings) error
	// Transmit sends one frame.
	Transmit(ctx context.Context, data []byte) error
	// Receive blocks until a frame arrives or ctx is done.
	Receive(ctx context.Context) ([]byte, error)
}

// Display accepts lines of text to show. It is fire-and-forget.
type Display interface {
	ShowLines(lines ...string)
}

// Buzzer is an on/off tone generator.
type Buzzer interface {
	On()
	Off()
}

// Sleeper puts the platform into a low-power state and returns on wake-up.
type Sleeper interface {
	Sleep(ctx context.Context) error
}

// LogStore keeps human-readable logs and small preferences.
type LogStore interface {
	Append(line string) error
	GetOrDefault(key, def string) (string, error)
}

// SendRequest asks the node to send Text to Recipient.
type SendRequest struct {
	Recipient string
	Text      string
}
