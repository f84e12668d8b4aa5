package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/exepirit/loratext/pkg/loratext"
	"github.com/exepirit/loratext/pkg/loratext/serial"
)

// DefaultPollInterval is the pause between fromradio polls when the bridge has nothing queued.
const DefaultPollInterval = 100 * time.Millisecond

const (
	recordPacket byte = 0x01
	recordConfig byte = 0x02
)

var _ loratext.Radio = &Transport{}

// Transport talks to a radio bridge exposing the toradio / fromradio HTTP API.
// Request and response bodies are single records: a kind byte followed by the body.
type Transport struct {
	// URL is the base URL of the bridge API endpoint.
	URL string
	// Client is an HTTP client used to send requests.
	Client http.Client
	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration
}

// Configure sends the channel settings to the bridge.
func (ht *Transport) Configure(ctx context.Context, settings loratext.RadioSettings) error {
	return ht.put(ctx, append([]byte{recordConfig}, serial.MarshalSettings(settings)...))
}

// Transmit sends one radio frame through the bridge.
func (ht *Transport) Transmit(ctx context.Context, data []byte) error {
	return ht.put(ctx, append([]byte{recordPacket}, data...))
}

// Receive polls the bridge until it returns a radio frame.
func (ht *Transport) Receive(ctx context.Context) ([]byte, error) {
	interval := ht.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	for {
		record, err := ht.get(ctx)
		if err != nil {
			return nil, err
		}
		if len(record) > 0 && record[0] == recordPacket {
			return record[1:], nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (ht *Transport) put(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, "PUT", ht.URL+"/api/v1/toradio", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Content-Type", "application/octet-stream")

	response, err := ht.Client.Do(req)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected response status code %d", response.StatusCode)
	}
	return nil
}

func (ht *Transport) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", ht.URL+"/api/v1/fromradio?all=false", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Connection", "keep-alive")

	response, err := ht.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	switch response.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected response status code %d", response.StatusCode)
	}

	return io.ReadAll(response.Body)
}
