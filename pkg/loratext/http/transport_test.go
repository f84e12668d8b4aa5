package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exepirit/loratext/pkg/loratext"
	"github.com/exepirit/loratext/pkg/loratext/serial"
)

type fakeBridge struct {
	mu       sync.Mutex
	received [][]byte
	outbox   [][]byte
}

func (b *fakeBridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case r.Method == "PUT" && r.URL.Path == "/api/v1/toradio":
		body, _ := io.ReadAll(r.Body)
		b.received = append(b.received, body)
	case r.Method == "GET" && r.URL.Path == "/api/v1/fromradio":
		if len(b.outbox) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write(b.outbox[0])
		b.outbox = b.outbox[1:]
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestTransportSendsRecords(t *testing.T) {
	bridge := &fakeBridge{}
	server := httptest.NewServer(bridge)
	defer server.Close()
	ht := &Transport{URL: server.URL}

	settings := loratext.DefaultRadioSettings()
	require.NoError(t, ht.Configure(context.Background(), settings))
	require.NoError(t, ht.Transmit(context.Background(), []byte("frame")))

	bridge.mu.Lock()
	defer bridge.mu.Unlock()
	require.Len(t, bridge.received, 2)
	assert.Equal(t, append([]byte{recordConfig}, serial.MarshalSettings(settings)...), bridge.received[0])
	assert.Equal(t, []byte("\x01frame"), bridge.received[1])
}

func TestTransportPollsForPackets(t *testing.T) {
	bridge := &fakeBridge{outbox: [][]byte{
		{recordConfig, 0x08, 0x01},
		[]byte("\x01hello"),
	}}
	server := httptest.NewServer(bridge)
	defer server.Close()
	ht := &Transport{URL: server.URL, PollInterval: time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, err := ht.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	short, cancelShort := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelShort()
	_, err = ht.Receive(short)
	assert.Error(t, err)
}

func TestTransportReportsBadStatus(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	ht := &Transport{URL: server.URL}

	assert.Error(t, ht.Transmit(context.Background(), []byte("x")))
	_, err := ht.Receive(context.Background())
	assert.Error(t, err)
}
