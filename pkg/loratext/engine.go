package loratext

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/exepirit/loratext/internal/log"
)

const (
	DefaultAckTimeout    = 1000 * time.Millisecond
	DefaultResendTimeout = 5000 * time.Millisecond
	DefaultMaxJitter     = 500 * time.Millisecond
)

// Config is the static node configuration supplied at initialisation.
type Config struct {
	// Name is this node's own address and cipher key.
	Name string
	// Roster lists the known peers. It may include Name.
	Roster []string
	// AckTimeout bounds how long one attempt waits for an ACK.
	AckTimeout time.Duration
	// ResendTimeout is the base wait in Failed before a retry.
	ResendTimeout time.Duration
	// MaxJitter is the upper bound of the random delay added to ResendTimeout.
	MaxJitter time.Duration
	// MaxAttempts caps transmissions per message. Zero retries forever.
	MaxAttempts int
	// Radio is the channel to tune to on Start.
	Radio RadioSettings
}

// DefaultConfig returns the firmware timings for node name.
func DefaultConfig(name string, roster ...string) Config {
	return Config{
		Name:          name,
		Roster:        roster,
		AckTimeout:    DefaultAckTimeout,
		ResendTimeout: DefaultResendTimeout,
		MaxJitter:     DefaultMaxJitter,
		Radio:         DefaultRadioSettings(),
	}
}

// JitterFunc returns a random duration in [0, max].
type JitterFunc func(max time.Duration) time.Duration

// UniformJitter draws uniformly from [0, max].
func UniformJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return rand.N(max + 1)
}

// Option customises an Engine.
type Option func(*Engine)

func WithLogger(logger log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithPublisher sets where engine events go.
func WithPublisher(pub EventPublisher) Option {
	return func(e *Engine) { e.events = pub }
}

func WithJitter(fn JitterFunc) Option {
	return func(e *Engine) { e.jitter = fn }
}

func WithIDGenerator(fn IDGenerator) Option {
	return func(e *Engine) { e.newID = fn }
}

// Engine is the message delivery protocol engine. It owns the peer directory and the message store.
// It is not safe for concurrent use; one goroutine drives Tick and HandlePacket.
type Engine struct {
	cfg    Config
	radio  Radio
	peers  *Directory
	store  *Store
	events EventPublisher
	logger log.Logger
	jitter JitterFunc
	newID  IDGenerator
}

// NewEngine validates cfg and builds an engine transmitting through radio.
func NewEngine(cfg Config, radio Radio, opts ...Option) (*Engine, error) {
	if radio == nil {
		return nil, fmt.Errorf("radio is required")
	}
	if cfg.AckTimeout <= 0 || cfg.ResendTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be positive (ack %s, resend %s)", cfg.AckTimeout, cfg.ResendTimeout)
	}
	if cfg.MaxJitter < 0 || cfg.MaxAttempts < 0 {
		return nil, fmt.Errorf("jitter and attempt limit must not be negative")
	}
	roster := make([]string, 0, len(cfg.Roster))
	for _, name := range cfg.Roster {
		if name != cfg.Name {
			roster = append(roster, name)
		}
	}
	peers, err := NewDirectory(cfg.Name, roster)
	if err != nil {
		return nil, fmt.Errorf("invalid roster: %w", err)
	}

	e := &Engine{
		cfg:    cfg,
		radio:  radio,
		peers:  peers,
		events: noopPublisher{},
		logger: log.NOOPLogger{},
		jitter: UniformJitter,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.store = NewStore(e.newID)
	return e, nil
}

// Name returns this node's own name.
func (e *Engine) Name() string { return e.cfg.Name }

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Start tunes the radio and announces this node with a broadcast PING.
func (e *Engine) Start(ctx context.Context, now time.Time) error {
	if err := e.radio.Configure(ctx, e.cfg.Radio); err != nil {
		return fmt.Errorf("failed to configure radio: %w", err)
	}
	e.logger.Info("Radio configured", "node", e.cfg.Name, "channel", e.cfg.Radio.String())

	e.sendPing(ctx)
	e.publish(Event{Kind: EventReady, Time: now, Peer: e.cfg.Name})
	return nil
}

// Send queues text for recipient, a roster peer or Broadcast. The message is transmitted on the next Tick.
func (e *Engine) Send(recipient, text string, now time.Time) (Message, error) {
	if text == "" {
		return Message{}, ErrEmptyText
	}
	if !e.peers.IsBroadcast(recipient) && (!e.peers.IsKnown(recipient) || recipient == e.cfg.Name) {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownPeer, recipient)
	}

	// Reject up front what could never be encoded, so the store only holds sendable messages.
	if _, err := e.applicationFrame(recipient, "", text); err != nil {
		return Message{}, err
	}

	msg := e.store.Create(e.cfg.Name, recipient, text, now)
	e.logger.Debug("Message queued", "id", msg.ID, "to", recipientLabel(recipient))
	e.publish(Event{Kind: EventQueued, Time: now, Message: msg})
	return msg, nil
}

// Message returns a copy of the message with id.
func (e *Engine) Message(id string) (Message, bool) { return e.store.Get(id) }

// Messages returns copies of all outbound messages, oldest first.
func (e *Engine) Messages() []Message { return e.store.Snapshot() }

// Peers returns the roster with liveness flags.
func (e *Engine) Peers() []Peer { return e.peers.Peers() }

// Busy reports whether any message is waiting to be sent or acknowledged.
func (e *Engine) Busy() bool {
	busy := false
	e.store.ForEach(func(m *Message) {
		if m.State == StateIdle || m.State == StateSending {
			busy = true
		}
	})
	return busy
}

func (e *Engine) applicationFrame(recipient, id, text string) ([]byte, error) {
	ciphertext, err := Transform([]byte(text), cipherKey(recipient))
	if err != nil {
		return nil, err
	}
	return Frame{
		To:      recipient,
		From:    e.cfg.Name,
		ID:      id,
		Payload: ApplicationPayload(ciphertext),
	}.Encode()
}

func (e *Engine) transmitControl(ctx context.Context, to, id string, c Control) error {
	data, err := Frame{To: to, From: e.cfg.Name, ID: id, Payload: ControlPayload(c)}.Encode()
	if err != nil {
		return err
	}
	return e.radio.Transmit(ctx, data)
}

func (e *Engine) publish(event Event) {
	e.events.Publish(event)
}

// cipherKey is the key a payload addressed to recipient is obfuscated with.
// Broadcast payloads use the broadcast token so every receiver can read them.
func cipherKey(recipient string) string {
	return recipient
}

func recipientLabel(recipient string) string {
	if recipient == Broadcast {
		return "*"
	}
	return recipient
}
