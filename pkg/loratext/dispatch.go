package loratext

import (
	"context"
	"time"
)

// HandlePacket decodes and routes one received frame. It returns the plaintext for application
// frames addressed to this node and nil for everything else. Decoding errors are returned so the
// caller can log them; the frame is dropped either way.
func (e *Engine) HandlePacket(ctx context.Context, raw []byte, now time.Time) (*Inbound, error) {
	f, err := DecodeFrame(raw)
	if err != nil {
		return nil, err
	}
	return e.Dispatch(ctx, f, now), nil
}

// Dispatch routes a decoded frame.
func (e *Engine) Dispatch(ctx context.Context, f Frame, now time.Time) *Inbound {
	if f.From == e.cfg.Name {
		return nil
	}
	if f.To != e.cfg.Name && !e.peers.IsBroadcast(f.To) {
		e.logger.Debug("Frame for another node", "to", f.To, "from", f.From)
		return nil
	}

	switch f.Payload.Control {
	case ControlAck:
		e.HandleAck(f.ID, now)
		return nil
	case ControlPing:
		e.logger.Debug("PING received", "from", f.From)
		e.handlePing(ctx, f.From, now)
		return nil
	case ControlPong:
		e.logger.Debug("PONG received", "from", f.From)
		e.handlePong(f.From, now)
		return nil
	}

	plaintext, err := Transform(f.Payload.Data, cipherKey(f.To))
	if err != nil {
		e.logger.Warn("Cannot decrypt payload", "from", f.From, "error", err)
		return nil
	}
	if err := e.transmitControl(ctx, f.From, f.ID, ControlAck); err != nil {
		e.logger.Warn("Failed to send ACK", "to", f.From, "id", f.ID, "error", err)
	} else {
		e.logger.Debug("ACK sent", "to", f.From, "id", f.ID)
	}

	in := Inbound{
		From:      f.From,
		ID:        f.ID,
		Text:      string(plaintext),
		Broadcast: f.To == Broadcast,
	}
	e.logger.Info("Message received", "from", in.From, "id", in.ID, "broadcast", in.Broadcast)
	e.publish(Event{Kind: EventReceived, Time: now, Inbound: in})
	return &in
}
