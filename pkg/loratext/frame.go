package loratext

import (
	"bytes"
	"fmt"
	"strings"
)

// Wire layout: To | From | ID | Payload, joined by Separator.
// The payload is the remainder after the third separator and is taken verbatim.
const (
	// Separator delimits frame fields. It is the ASCII unit separator and is rejected in names and ids.
	Separator byte = 0x1f

	// Broadcast is the reserved To address accepted by every node.
	Broadcast = "\x01"
)

// Control is a reserved single-byte payload value.
type Control byte

const (
	ControlNone Control = 0x00
	ControlAck  Control = 0x03
	ControlPing Control = 0x04
	ControlPong Control = 0x05
)

func (c Control) String() string {
	switch c {
	case ControlAck:
		return "ACK"
	case ControlPing:
		return "PING"
	case ControlPong:
		return "PONG"
	default:
		return "NONE"
	}
}

func isControlByte(b byte) bool {
	switch Control(b) {
	case ControlAck, ControlPing, ControlPong:
		return true
	}
	return false
}

// Payload is either a control value or opaque application bytes.
type Payload struct {
	Control Control
	Data    []byte
}

// ControlPayload builds a control payload.
func ControlPayload(c Control) Payload { return Payload{Control: c} }

// ApplicationPayload builds an application payload carrying data.
func ApplicationPayload(data []byte) Payload { return Payload{Data: data} }

// IsControl reports whether p carries a control value.
func (p Payload) IsControl() bool { return p.Control != ControlNone }

// Frame is one transmission on the radio link.
type Frame struct {
	To      string
	From    string
	ID      string
	Payload Payload
}

// Encode serialises f into on-air bytes.
func (f Frame) Encode() ([]byte, error) {
	for _, field := range []string{f.To, f.From, f.ID} {
		if strings.IndexByte(field, Separator) >= 0 {
			return nil, fmt.Errorf("%w: %q", ErrSeparatorInField, field)
		}
	}

	var payload []byte
	if f.Payload.IsControl() {
		payload = []byte{byte(f.Payload.Control)}
	} else {
		payload = f.Payload.Data
		if len(payload) == 1 && isControlByte(payload[0]) {
			return nil, ErrControlCollision
		}
	}

	buf := make([]byte, 0, len(f.To)+len(f.From)+len(f.ID)+len(payload)+3)
	buf = append(buf, f.To...)
	buf = append(buf, Separator)
	buf = append(buf, f.From...)
	buf = append(buf, Separator)
	buf = append(buf, f.ID...)
	buf = append(buf, Separator)
	buf = append(buf, payload...)
	return buf, nil
}

// DecodeFrame parses on-air bytes. Input with fewer than three separators yields ErrMalformedFrame.
func DecodeFrame(data []byte) (Frame, error) {
	parts := bytes.SplitN(data, []byte{Separator}, 4)
	if len(parts) < 4 {
		return Frame{}, ErrMalformedFrame
	}

	f := Frame{
		To:   string(parts[0]),
		From: string(parts[1]),
		ID:   string(parts[2]),
	}
	if raw := parts[3]; len(raw) == 1 && isControlByte(raw[0]) {
		f.Payload = ControlPayload(Control(raw[0]))
	} else {
		f.Payload = ApplicationPayload(bytes.Clone(raw))
	}
	return f, nil
}
