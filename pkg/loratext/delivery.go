package loratext

import (
	"context"
	"time"
)

// Tick advances every stored message by at most one transition, oldest first.
func (e *Engine) Tick(ctx context.Context, now time.Time) {
	e.store.ForEach(func(m *Message) {
		switch m.State {
		case StateIdle:
			e.attempt(ctx, m, now)
		case StateSending:
			if now.Sub(m.LastTransition) >= e.cfg.AckTimeout {
				e.logger.Info("ACK not received", "id", m.ID, "to", recipientLabel(m.Recipient), "attempt", m.Attempts)
				e.fail(m, now)
			}
		case StateFailed:
			if e.exhausted(m) {
				return
			}
			if now.Sub(m.LastTransition) >= m.RetryDelay {
				m.transition(StateIdle, now)
				e.publish(Event{Kind: EventRetry, Time: now, Message: *m})
			}
		case StateDelivered:
		}
	})
}

// HandleAck completes the message with id if it is waiting for acknowledgment.
// Unknown ids and messages in any other state are ignored.
func (e *Engine) HandleAck(id string, now time.Time) {
	m, ok := e.store.FindByID(id)
	if !ok {
		e.logger.Debug("ACK for unknown message", "id", id)
		return
	}
	if m.State != StateSending {
		e.logger.Debug("Duplicate ACK", "id", id, "state", m.State.String())
		return
	}
	m.transition(StateDelivered, now)
	e.logger.Info("Message delivered", "id", id, "to", recipientLabel(m.Recipient), "attempts", m.Attempts)
	e.publish(Event{Kind: EventDelivered, Time: now, Message: *m})
}

func (e *Engine) attempt(ctx context.Context, m *Message, now time.Time) {
	data, err := e.applicationFrame(m.Recipient, m.ID, m.Text)
	m.Attempts++
	if err == nil {
		err = e.radio.Transmit(ctx, data)
	}
	if err != nil {
		e.logger.Warn("Failed to transmit message", "id", m.ID, "error", err)
		e.fail(m, now)
		return
	}
	m.transition(StateSending, now)
	e.logger.Debug("Message sent", "id", m.ID, "to", recipientLabel(m.Recipient), "attempt", m.Attempts)
	e.publish(Event{Kind: EventSent, Time: now, Message: *m})
}

func (e *Engine) fail(m *Message, now time.Time) {
	m.RetryDelay = e.cfg.ResendTimeout + e.jitter(e.cfg.MaxJitter)
	m.transition(StateFailed, now)
	e.observeTimeout(m.Recipient)
	e.publish(Event{Kind: EventFailed, Time: now, Message: *m})
}

func (e *Engine) exhausted(m *Message) bool {
	return e.cfg.MaxAttempts > 0 && m.Attempts >= e.cfg.MaxAttempts
}
