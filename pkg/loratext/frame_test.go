package loratext_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exepirit/loratext/pkg/loratext"
)

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		frame loratext.Frame
	}{
		{
			name: "application text",
			frame: loratext.Frame{
				To: "bob", From: "alice", ID: "m1",
				Payload: loratext.ApplicationPayload([]byte("hello")),
			},
		},
		{
			name: "broadcast",
			frame: loratext.Frame{
				To: loratext.Broadcast, From: "alice", ID: "m2",
				Payload: loratext.ApplicationPayload([]byte("all hands")),
			},
		},
		{
			name: "payload containing separators",
			frame: loratext.Frame{
				To: "bob", From: "alice", ID: "m3",
				Payload: loratext.ApplicationPayload([]byte{'a', loratext.Separator, 'b', loratext.Separator}),
			},
		},
		{
			name: "empty payload",
			frame: loratext.Frame{
				To: "bob", From: "alice", ID: "m4",
				Payload: loratext.ApplicationPayload(nil),
			},
		},
		{
			name: "ack",
			frame: loratext.Frame{
				To: "alice", From: "bob", ID: "m1",
				Payload: loratext.ControlPayload(loratext.ControlAck),
			},
		},
		{
			name: "ping without id",
			frame: loratext.Frame{
				To: loratext.Broadcast, From: "alice",
				Payload: loratext.ControlPayload(loratext.ControlPing),
			},
		},
		{
			name: "pong",
			frame: loratext.Frame{
				To: "alice", From: "bob",
				Payload: loratext.ControlPayload(loratext.ControlPong),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := tt.frame.Encode()
			require.NoError(t, err)

			decoded, err := loratext.DecodeFrame(encoded)
			require.NoError(t, err)

			assert.Equal(t, tt.frame.To, decoded.To)
			assert.Equal(t, tt.frame.From, decoded.From)
			assert.Equal(t, tt.frame.ID, decoded.ID)
			assert.Equal(t, tt.frame.Payload.Control, decoded.Payload.Control)
			assert.Equal(t, tt.frame.Payload.Data, decoded.Payload.Data)
		})
	}
}

func TestFrameEncodingLayout(t *testing.T) {
	encoded, err := loratext.Frame{
		To: "bob", From: "alice", ID: "7",
		Payload: loratext.ControlPayload(loratext.ControlAck),
	}.Encode()
	require.NoError(t, err)

	assert.Equal(t, []byte("bob\x1falice\x1f7\x1f\x03"), encoded)
}

func TestFrameEncodeRejectsSeparator(t *testing.T) {
	sep := string([]byte{loratext.Separator})
	tests := []struct {
		name  string
		frame loratext.Frame
	}{
		{name: "to", frame: loratext.Frame{To: "b" + sep + "ob", From: "alice", ID: "1"}},
		{name: "from", frame: loratext.Frame{To: "bob", From: sep, ID: "1"}},
		{name: "id", frame: loratext.Frame{To: "bob", From: "alice", ID: "1" + sep}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.frame.Encode()
			assert.ErrorIs(t, err, loratext.ErrSeparatorInField)
		})
	}
}

func TestFrameEncodeRejectsControlCollision(t *testing.T) {
	for _, c := range []loratext.Control{loratext.ControlAck, loratext.ControlPing, loratext.ControlPong} {
		t.Run(c.String(), func(t *testing.T) {
			_, err := loratext.Frame{
				To: "bob", From: "alice", ID: "1",
				Payload: loratext.ApplicationPayload([]byte{byte(c)}),
			}.Encode()
			assert.ErrorIs(t, err, loratext.ErrControlCollision)
		})
	}

	// Longer payloads that merely start with a control byte are application data.
	_, err := loratext.Frame{
		To: "bob", From: "alice", ID: "1",
		Payload: loratext.ApplicationPayload([]byte{byte(loratext.ControlAck), 'x'}),
	}.Encode()
	assert.NoError(t, err)
}

func TestDecodeMalformedFrames(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "nil", data: nil},
		{name: "no separator", data: []byte("hello")},
		{name: "one separator", data: []byte("bob\x1falice")},
		{name: "two separators", data: []byte("bob\x1falice\x1fm1")},
		{name: "firmware pipe format", data: []byte("1|0|hello")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				f   loratext.Frame
				err error
			)
			assert.NotPanics(t, func() { f, err = loratext.DecodeFrame(tt.data) })
			assert.ErrorIs(t, err, loratext.ErrMalformedFrame)
			assert.Equal(t, loratext.Frame{}, f)
		})
	}
}

func TestDecodeControlIsExactMatch(t *testing.T) {
	f, err := loratext.DecodeFrame([]byte("bob\x1falice\x1fm1\x1f\x03\x03"))
	require.NoError(t, err)
	assert.False(t, f.Payload.IsControl())
	assert.True(t, bytes.Equal([]byte{0x03, 0x03}, f.Payload.Data))

	f, err = loratext.DecodeFrame([]byte("bob\x1falice\x1fm1\x1f\x05"))
	require.NoError(t, err)
	assert.Equal(t, loratext.ControlPong, f.Payload.Control)
	assert.Empty(t, f.Payload.Data)
}
