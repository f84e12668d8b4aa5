package udp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/exepirit/loratext/pkg/loratext"
)

func TestChannelHeader(t *testing.T) {
	header := channelHeader(loratext.RadioSettings{Frequency: 868_000_000, SyncWord: 0xF0})
	assert.Equal(t, []byte{0x33, 0xbc, 0xa1, 0x00, 0xf0}, header)
}

func TestMatchChannel(t *testing.T) {
	eu := channelHeader(loratext.DefaultRadioSettings())
	other := channelHeader(loratext.RadioSettings{Frequency: 868_000_000, SyncWord: 0x12})

	data, ok := matchChannel(eu, append(eu, "frame"...))
	assert.True(t, ok)
	assert.Equal(t, []byte("frame"), data)

	_, ok = matchChannel(eu, append(other, "frame"...))
	assert.False(t, ok, "different sync word")

	_, ok = matchChannel(eu, eu[:3])
	assert.False(t, ok, "short datagram")

	_, ok = matchChannel(nil, append(eu, "frame"...))
	assert.False(t, ok, "unconfigured radio hears nothing")
}

func TestNewTransportRejectsUnicast(t *testing.T) {
	_, err := NewTransport("127.0.0.1:4403", nil)
	assert.Error(t, err)
}
