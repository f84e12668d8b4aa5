package storage

import (
	"fmt"

	"github.com/exepirit/loratext/internal/log"
	"github.com/exepirit/loratext/pkg/loratext"
)

// Recorder writes a log line for every received, delivered and failed message.
type Recorder struct {
	Store  loratext.LogStore
	Logger log.Logger
}

var _ loratext.EventSubscriber = &Recorder{}

func (r *Recorder) OnEvent(event loratext.Event) {
	line, ok := FormatEvent(event)
	if !ok {
		return
	}
	if err := r.Store.Append(line); err != nil && r.Logger != nil {
		r.Logger.Error("Failed to store log line", "error", err)
	}
}

// FormatEvent renders the log line for event. It reports false for events that are not logged.
func FormatEvent(event loratext.Event) (string, bool) {
	stamp := event.Time.Format("2006-01-02 15:04:05")
	switch event.Kind {
	case loratext.EventReceived:
		in := event.Inbound
		if in.Broadcast {
			return fmt.Sprintf("%s %s -> *: %s", stamp, in.From, in.Text), true
		}
		return fmt.Sprintf("%s %s -> me: %s", stamp, in.From, in.Text), true
	case loratext.EventDelivered:
		m := event.Message
		return fmt.Sprintf("%s me -> %s: %s [delivered]", stamp, peerLabel(m.Recipient), m.Text), true
	case loratext.EventFailed:
		m := event.Message
		return fmt.Sprintf("%s me -> %s: %s [not delivered, attempt %d]", stamp, peerLabel(m.Recipient), m.Text, m.Attempts), true
	default:
		return "", false
	}
}

func peerLabel(name string) string {
	if name == loratext.Broadcast {
		return "*"
	}
	return name
}
