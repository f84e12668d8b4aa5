package loratext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/exepirit/loratext/internal/log"
)

const (
	DefaultTickInterval   = 50 * time.Millisecond
	DefaultBuzzerDuration = 200 * time.Millisecond

	packetQueueSize   = 16
	receiveErrorPause = 100 * time.Millisecond
)

// Node runs the control loop of one device: it feeds received frames and user requests into the
// engine and ticks it. Only the loop goroutine touches the engine.
type Node struct {
	Engine *Engine
	Radio  Radio
	// Input delivers send requests from the keypad or another input source. Optional.
	Input <-chan SendRequest
	// Buzzer beeps for BuzzerDuration when a message arrives. Optional.
	Buzzer Buzzer
	// Sleeper is called after IdleTimeout without activity. Optional.
	Sleeper Sleeper
	Logger  log.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time

	TickInterval   time.Duration
	BuzzerDuration time.Duration
	// IdleTimeout of zero disables sleeping.
	IdleTimeout time.Duration

	buzzing      bool
	buzzStart    time.Time
	lastActivity time.Time
}

// Run starts the engine and blocks until ctx is done or the radio fails.
func (n *Node) Run(ctx context.Context) error {
	if n.Engine == nil || n.Radio == nil {
		return fmt.Errorf("node needs an engine and a radio")
	}
	n.defaults()

	if err := n.Engine.Start(ctx, n.now()); err != nil {
		return err
	}
	n.lastActivity = n.now()

	packets := make(chan []byte, packetQueueSize)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return n.receive(ctx, packets) })
	g.Go(func() error { return n.loop(ctx, packets) })
	return g.Wait()
}

func (n *Node) defaults() {
	if n.Logger == nil {
		n.Logger = log.NOOPLogger{}
	}
	if n.Clock == nil {
		n.Clock = time.Now
	}
	if n.TickInterval <= 0 {
		n.TickInterval = DefaultTickInterval
	}
	if n.BuzzerDuration <= 0 {
		n.BuzzerDuration = DefaultBuzzerDuration
	}
}

func (n *Node) now() time.Time { return n.Clock() }

// receive only moves raw frames from the radio to the loop.
func (n *Node) receive(ctx context.Context, packets chan<- []byte) error {
	for {
		data, err := n.Radio.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("radio closed: %w", err)
			}
			n.Logger.Error("Cannot read next packet from radio", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(receiveErrorPause):
			}
			continue
		}

		select {
		case packets <- data:
		case <-ctx.Done():
			return nil
		}
	}
}

func (n *Node) loop(ctx context.Context, packets <-chan []byte) error {
	ticker := time.NewTicker(n.TickInterval)
	defer ticker.Stop()
	input := n.Input

	for {
		select {
		case <-ctx.Done():
			n.stopBuzzer()
			return nil
		case <-ticker.C:
			n.tick(ctx)
		case data := <-packets:
			n.onPacket(ctx, data)
		case req, ok := <-input:
			if !ok {
				input = nil
				continue
			}
			n.onRequest(req)
		}
	}
}

func (n *Node) tick(ctx context.Context) {
	now := n.now()
	n.Engine.Tick(ctx, now)

	if n.buzzing && now.Sub(n.buzzStart) >= n.BuzzerDuration {
		n.stopBuzzer()
	}

	if n.Sleeper != nil && n.IdleTimeout > 0 && !n.Engine.Busy() && now.Sub(n.lastActivity) >= n.IdleTimeout {
		n.stopBuzzer()
		n.Logger.Info("Entering sleep", "idle", now.Sub(n.lastActivity).String())
		if err := n.Sleeper.Sleep(ctx); err != nil {
			n.Logger.Warn("Sleep failed", "error", err)
		}
		n.lastActivity = n.now()
	}
}

func (n *Node) onPacket(ctx context.Context, data []byte) {
	now := n.now()
	in, err := n.Engine.HandlePacket(ctx, data, now)
	if err != nil {
		n.Logger.Debug("Dropping frame", "error", err, "size", len(data))
		return
	}
	n.lastActivity = now
	if in != nil {
		n.startBuzzer(now)
	}
}

func (n *Node) onRequest(req SendRequest) {
	now := n.now()
	n.lastActivity = now
	if _, err := n.Engine.Send(req.Recipient, req.Text, now); err != nil {
		n.Logger.Warn("Cannot send message", "to", recipientLabel(req.Recipient), "error", err)
	}
}

func (n *Node) startBuzzer(now time.Time) {
	if n.Buzzer == nil {
		return
	}
	n.Buzzer.On()
	n.buzzing = true
	n.buzzStart = now
}

func (n *Node) stopBuzzer() {
	if n.Buzzer == nil || !n.buzzing {
		return
	}
	n.Buzzer.Off()
	n.buzzing = false
}
