package loratext

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// State is the delivery state of an outbound message.
type State uint8

const (
	StateIdle State = iota
	StateSending
	StateDelivered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateDelivered:
		return "delivered"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Message is an outbound text and its delivery bookkeeping.
type Message struct {
	ID             string
	Sender         string
	Recipient      string
	Text           string
	State          State
	LastTransition time.Time
	CreatedAt      time.Time

	// Attempts counts transmissions so far.
	Attempts int
	// RetryDelay is the wait in Failed before returning to Idle, jitter included.
	RetryDelay time.Duration
}

// IsBroadcast reports whether the message is addressed to every node.
func (m Message) IsBroadcast() bool { return m.Recipient == Broadcast }

func (m *Message) transition(to State, now time.Time) {
	m.State = to
	m.LastTransition = now
}

// IDGenerator produces message ids. Ids must not contain the frame separator.
type IDGenerator func() string

// NewMessageID returns a random 32 character hex id.
func NewMessageID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Store owns every outbound message in insertion order. Messages are never removed.
type Store struct {
	newID    IDGenerator
	messages []*Message
	byID     map[string]*Message
}

// NewStore creates an empty store. A nil generator falls back to NewMessageID.
func NewStore(newID IDGenerator) *Store {
	if newID == nil {
		newID = NewMessageID
	}
	return &Store{
		newID: newID,
		byID:  make(map[string]*Message),
	}
}

// Create allocates a message in Idle and returns a copy of it.
func (s *Store) Create(sender, recipient, text string, now time.Time) Message {
	m := &Message{
		ID:             s.newID(),
		Sender:         sender,
		Recipient:      recipient,
		Text:           text,
		State:          StateIdle,
		LastTransition: now,
		CreatedAt:      now,
	}
	s.messages = append(s.messages, m)
	s.byID[m.ID] = m
	return *m
}

// FindByID returns the stored message with id for in-place mutation.
func (s *Store) FindByID(id string) (*Message, bool) {
	m, ok := s.byID[id]
	return m, ok
}

// Get returns a copy of the message with id.
func (s *Store) Get(id string) (Message, bool) {
	m, ok := s.byID[id]
	if !ok {
		return Message{}, false
	}
	return *m, true
}

// ForEach calls fn for every message, oldest first.
func (s *Store) ForEach(fn func(*Message)) {
	for _, m := range s.messages {
		fn(m)
	}
}

// Snapshot returns copies of all messages, oldest first.
func (s *Store) Snapshot() []Message {
	out := make([]Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = *m
	}
	return out
}

// Len returns the number of stored messages.
func (s *Store) Len() int { return len(s.messages) }
