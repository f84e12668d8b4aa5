package serial

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"

	"github.com/exepirit/loratext/internal/log"
	"github.com/exepirit/loratext/pkg/loratext"
)

const (
	DefaultBaudRate = 115200

	headerStart1  = 0x94
	headerStart2  = 0xc3
	maxRecordSize = 512

	recordPacket byte = 0x01
	recordConfig byte = 0x02

	receiveBuffer = 16
)

// ErrPacketTooLong is returned when a frame does not fit into one serial record.
var ErrPacketTooLong = errors.New("packet too long")

// NewTransport opens the serial port of a LoRa bridge. A zero baud rate selects DefaultBaudRate.
func NewTransport(port string, baud int) (*StreamTransport, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
	}
	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	return &StreamTransport{Stream: p}, nil
}

var _ loratext.Radio = &StreamTransport{}

// StreamTransport talks to a radio bridge over a byte stream (a serial port or a TCP connection).
// Every record is framed as 0x94 0xC3 len16 followed by a kind byte and the body.
type StreamTransport struct {
	Stream io.ReadWriteCloser
	Logger log.Logger

	writeLock sync.Mutex
	startRead sync.Once
	packets   chan []byte
	readErr   error
	done      chan struct{}
}

// Configure sends the channel settings to the bridge.
func (st *StreamTransport) Configure(_ context.Context, settings loratext.RadioSettings) error {
	return st.writeRecord(recordConfig, MarshalSettings(settings))
}

// Transmit sends one radio frame.
func (st *StreamTransport) Transmit(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return st.writeRecord(recordPacket, data)
}

// Receive returns the next radio frame reported by the bridge. Configuration echoes are skipped.
// Once the stream fails every call returns the read error.
func (st *StreamTransport) Receive(ctx context.Context) ([]byte, error) {
	st.startRead.Do(func() {
		st.packets = make(chan []byte, receiveBuffer)
		st.done = make(chan struct{})
		go st.readLoop()
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data := <-st.packets:
		return data, nil
	case <-st.done:
		return nil, st.readErr
	}
}

func (st *StreamTransport) readLoop() {
	defer close(st.done)
	for {
		record, err := st.readRecord()
		if err != nil {
			st.readErr = err
			return
		}
		if len(record) == 0 {
			continue
		}

		switch record[0] {
		case recordPacket:
			st.packets <- record[1:]
		case recordConfig:
			if settings, err := UnmarshalSettings(record[1:]); err == nil {
				st.logger().Debug("Bridge reported channel", "channel", settings.String())
			}
		default:
			st.logger().Debug("Skipping unknown record", "kind", record[0], "size", len(record))
		}
	}
}

func (st *StreamTransport) readRecord() ([]byte, error) {
	header := make([]byte, 4)

	for {
		_, err := io.ReadFull(st.Stream, header[:1])
		if err != nil {
			return nil, err
		}
		if header[0] != headerStart1 {
			continue
		}

		_, err = io.ReadFull(st.Stream, header[1:2])
		if err != nil {
			return nil, err
		}
		if header[1] != headerStart2 {
			continue
		}

		_, err = io.ReadFull(st.Stream, header[2:])
		if err != nil {
			return nil, err
		}

		size := int(binary.BigEndian.Uint16(header[2:4]))
		if size > maxRecordSize {
			continue
		}

		data := make([]byte, size)
		_, err = io.ReadFull(st.Stream, data)
		return data, err
	}
}

func (st *StreamTransport) writeRecord(kind byte, body []byte) error {
	size := len(body) + 1
	if size > maxRecordSize {
		return fmt.Errorf("%w: %d bytes", ErrPacketTooLong, size)
	}

	buf := make([]byte, 0, 4+size)
	buf = append(buf, headerStart1, headerStart2, 0, 0)
	binary.BigEndian.PutUint16(buf[2:4], uint16(size))
	buf = append(buf, kind)
	buf = append(buf, body...)

	st.writeLock.Lock()
	defer st.writeLock.Unlock()
	_, err := st.Stream.Write(buf)
	return err
}

func (st *StreamTransport) logger() log.Logger {
	if st.Logger == nil {
		return log.NOOPLogger{}
	}
	return st.Logger
}

func (st *StreamTransport) Close() error {
	return st.Stream.Close()
}
