package loratext

import (
	"context"
	"time"
)

func (e *Engine) sendPing(ctx context.Context) {
	if err := e.transmitControl(ctx, Broadcast, "", ControlPing); err != nil {
		e.logger.Warn("Failed to send PING", "error", err)
		return
	}
	e.logger.Debug("PING sent")
}

// handlePing answers with a PONG and treats the sender as reachable.
func (e *Engine) handlePing(ctx context.Context, from string, now time.Time) {
	if err := e.transmitControl(ctx, from, "", ControlPong); err != nil {
		e.logger.Warn("Failed to send PONG", "to", from, "error", err)
	} else {
		e.logger.Debug("PONG sent", "to", from)
	}
	e.peerAlive(from, now)
}

// handlePong treats the sender as reachable. PONG is never answered.
func (e *Engine) handlePong(from string, now time.Time) {
	e.peerAlive(from, now)
}

// peerAlive marks the peer reachable and moves its failed messages back to Idle
// so they are retried on the next tick instead of after the resend timeout.
func (e *Engine) peerAlive(name string, now time.Time) {
	if e.peers.MarkReachable(name) {
		e.logger.Info("Peer reachable", "peer", name)
		e.publish(Event{Kind: EventPeerReachable, Time: now, Peer: name})
	}
	e.store.ForEach(func(m *Message) {
		if m.State != StateFailed || m.Recipient != name {
			return
		}
		m.Attempts = 0
		m.transition(StateIdle, now)
		e.publish(Event{Kind: EventRetry, Time: now, Message: *m})
	})
}

func (e *Engine) observeTimeout(name string) {
	if e.peers.markUnreachable(name) {
		e.logger.Info("Peer unreachable", "peer", name)
	}
}
