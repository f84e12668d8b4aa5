package udp

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/exepirit/loratext/internal/log"
	"github.com/exepirit/loratext/pkg/loratext"
)

// DefaultGroup is the multicast group used when none is given.
const DefaultGroup = "239.0.0.69:4403"

const (
	headerSize   = 5
	maxDatagram  = 1500
	pollInterval = 200 * time.Millisecond
)

// Logger receives transport diagnostics.
var Logger log.Logger = log.NOOPLogger{}

var _ loratext.Radio = &Transport{}

// Transport emulates a radio channel with UDP multicast on the local network. Each datagram starts
// with the channel header (frequency and sync word), and datagrams for other channels are ignored.
type Transport struct {
	recv *net.UDPConn
	send *net.UDPConn

	mu       sync.Mutex
	header   []byte
	readLock sync.Mutex
}

// NewTransport joins the multicast group at address. A nil interface lets the system choose.
func NewTransport(address string, intf *net.Interface) (*Transport, error) {
	if address == "" {
		address = DefaultGroup
	}
	gaddr, err := net.ResolveUDPAddr("udp4", address)
	if err != nil {
		return nil, err
	}
	if !gaddr.IP.IsMulticast() {
		return nil, fmt.Errorf("%s is not a multicast address", gaddr.IP)
	}

	recv, err := net.ListenMulticastUDP("udp4", intf, gaddr)
	if err != nil {
		return nil, err
	}
	send, err := net.DialUDP("udp4", nil, gaddr)
	if err != nil {
		_ = recv.Close()
		return nil, err
	}
	Logger.Info("Joined multicast group", "group", gaddr.String(), "local", send.LocalAddr().String())

	return &Transport{
		recv: recv,
		send: send,
	}, nil
}

// Configure selects the channel datagrams are sent on and accepted from.
func (t *Transport) Configure(_ context.Context, settings loratext.RadioSettings) error {
	t.mu.Lock()
	t.header = channelHeader(settings)
	t.mu.Unlock()
	return nil
}

func (t *Transport) Transmit(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	header := t.channel()
	if header == nil {
		return errors.New("radio is not configured")
	}
	_, err := t.send.Write(append(header, data...))
	return err
}

// Receive waits for the next datagram on the configured channel. Our own datagrams are skipped.
func (t *Transport) Receive(ctx context.Context) ([]byte, error) {
	t.readLock.Lock()
	defer t.readLock.Unlock()

	buf := make([]byte, maxDatagram)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_ = t.recv.SetReadDeadline(time.Now().Add(pollInterval))
		n, addr, err := t.recv.ReadFromUDP(buf)
		if errors.Is(err, os.ErrDeadlineExceeded) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if addr.String() == t.send.LocalAddr().String() {
			continue
		}

		data, ok := matchChannel(t.channel(), buf[:n])
		Logger.Debug("Received UDP datagram", "from", addr, "size", n, "accepted", ok)
		if ok {
			return data, nil
		}
	}
}

func (t *Transport) channel() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.header == nil {
		return nil
	}
	return append([]byte(nil), t.header...)
}

func (t *Transport) Close() error {
	return errors.Join(t.recv.Close(), t.send.Close())
}

func channelHeader(settings loratext.RadioSettings) []byte {
	header := make([]byte, headerSize)
	binary.BigEndian.PutUint32(header, settings.Frequency)
	header[4] = settings.SyncWord
	return header
}

// matchChannel strips the header from datagram when it matches the channel.
func matchChannel(header, datagram []byte) ([]byte, bool) {
	if header == nil || len(datagram) < headerSize {
		return nil, false
	}
	for i := 0; i < headerSize; i++ {
		if datagram[i] != header[i] {
			return nil, false
		}
	}
	out := make([]byte, len(datagram)-headerSize)
	copy(out, datagram[headerSize:])
	return out, true
}
