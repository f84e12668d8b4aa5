package display

import (
	"github.com/exepirit/loratext/pkg/loratext"
)

// Presenter turns engine events into screens.
type Presenter struct {
	Display loratext.Display
}

var _ loratext.EventSubscriber = &Presenter{}

func (p *Presenter) OnEvent(event loratext.Event) {
	lines, ok := Screen(event)
	if ok {
		p.Display.ShowLines(lines...)
	}
}

// Screen returns the screen shown for event. It reports false when the event leaves the screen unchanged.
func Screen(event loratext.Event) ([]string, bool) {
	switch event.Kind {
	case loratext.EventReady:
		return []string{event.Peer + " is ready!"}, true
	case loratext.EventSent:
		m := event.Message
		return withText("sending to: "+label(m.Recipient), m.Text), true
	case loratext.EventDelivered:
		return []string{"delivered!"}, true
	case loratext.EventFailed:
		return []string{"not delivered!"}, true
	case loratext.EventReceived:
		in := event.Inbound
		title := "From: " + in.From
		if in.Broadcast {
			title += " (all)"
		}
		return withText(title, in.Text), true
	default:
		return nil, false
	}
}

func withText(title, text string) []string {
	return append([]string{title}, Wrap(text, Columns)...)
}

func label(name string) string {
	if name == loratext.Broadcast {
		return "all"
	}
	return name
}
