package loratext

import (
	"sync"
	"time"
)

// EventKind identifies what happened inside the engine.
type EventKind uint8

const (
	EventReady EventKind = iota + 1
	EventQueued
	EventSent
	EventDelivered
	EventFailed
	EventRetry
	EventReceived
	EventPeerReachable
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventQueued:
		return "queued"
	case EventSent:
		return "sent"
	case EventDelivered:
		return "delivered"
	case EventFailed:
		return "failed"
	case EventRetry:
		return "retry"
	case EventReceived:
		return "received"
	case EventPeerReachable:
		return "peer-reachable"
	default:
		return "unknown"
	}
}

// Event reports a state change. Message is set for outbound message events, Inbound for
// EventReceived and Peer for EventReady and EventPeerReachable.
type Event struct {
	Kind    EventKind
	Time    time.Time
	Message Message
	Inbound Inbound
	Peer    string
}

// Inbound is an application message addressed to this node.
type Inbound struct {
	From      string
	ID        string
	Text      string
	Broadcast bool
}

// EventPublisher implements part of the pubsub pattern allowing other parts of the system to subscribe and receive
// engine events.
type EventPublisher interface {
	Publish(event Event)
}

// EventSubscriber handles events received from a publisher.
type EventSubscriber interface {
	OnEvent(event Event)
}

// SubscriberFunc adapts a function to EventSubscriber.
type SubscriberFunc func(Event)

func (f SubscriberFunc) OnEvent(event Event) { f(event) }

// FanOutPublisher delivers every event to all subscribers and returns when all of them are done.
type FanOutPublisher struct {
	Subscribers []EventSubscriber
}

var _ EventPublisher = &FanOutPublisher{}

func (pub *FanOutPublisher) Subscribe(subscriber EventSubscriber) {
	pub.Subscribers = append(pub.Subscribers, subscriber)
}

func (pub *FanOutPublisher) Publish(event Event) {
	wg := sync.WaitGroup{}
	wg.Add(len(pub.Subscribers))
	for _, sub := range pub.Subscribers {
		go func() {
			defer wg.Done()
			sub.OnEvent(event)
		}()
	}
	wg.Wait()
}

type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
