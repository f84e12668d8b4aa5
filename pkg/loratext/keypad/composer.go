package keypad

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/exepirit/loratext/pkg/loratext"
)

// DefaultMaxLength keeps a message within one LoRa packet together with the frame header.
const DefaultMaxLength = 200

// Composer edits the draft message and the selected recipient.
type Composer struct {
	// Recipients are the selectable addresses, typically Broadcast followed by the roster.
	Recipients []string
	// Display shows the draft after every change. Optional.
	Display   loratext.Display
	MaxLength int

	selected int
	text     []rune
}

// Recipient returns the selected address, or "" when there are no recipients.
func (c *Composer) Recipient() string {
	if len(c.Recipients) == 0 {
		return ""
	}
	return c.Recipients[c.selected]
}

// Draft returns the text typed so far.
func (c *Composer) Draft() string { return string(c.text) }

// NextRecipient cycles the selection through Recipients.
func (c *Composer) NextRecipient() {
	if len(c.Recipients) > 0 {
		c.selected = (c.selected + 1) % len(c.Recipients)
	}
	c.show()
}

// Select picks recipient by address. It reports false when the address is not selectable.
func (c *Composer) Select(recipient string) bool {
	for i, r := range c.Recipients {
		if r == recipient {
			c.selected = i
			c.show()
			return true
		}
	}
	return false
}

// Press applies key. Enter on a non-empty draft returns the request to send and clears the draft.
func (c *Composer) Press(key Key) (loratext.SendRequest, bool) {
	switch key {
	case KeyNone, KeyMod:
		return loratext.SendRequest{}, false
	case KeyBackspace:
		if len(c.text) > 0 {
			c.text = c.text[:len(c.text)-1]
		}
	case KeyEnter:
		if len(c.text) == 0 || c.Recipient() == "" {
			return loratext.SendRequest{}, false
		}
		req := loratext.SendRequest{Recipient: c.Recipient(), Text: string(c.text)}
		c.text = c.text[:0]
		return req, true
	default:
		if len(c.text) < c.maxLength() {
			c.text = append(c.text, rune(key))
		}
	}
	c.show()
	return loratext.SendRequest{}, false
}

func (c *Composer) maxLength() int {
	if c.MaxLength <= 0 {
		return DefaultMaxLength
	}
	return c.MaxLength
}

func (c *Composer) show() {
	if c.Display == nil {
		return
	}
	to := c.Recipient()
	if to == loratext.Broadcast {
		to = "all"
	}
	c.Display.ShowLines("To: "+to, string(c.text))
}

// ReadLines drives c from line-oriented text input, one message per line. "/next" cycles the
// recipient and "/to NAME" selects one ("/to *" selects broadcast). Requests go to out.
// It returns nil at end of input.
func ReadLines(ctx context.Context, r io.Reader, c *Composer, out chan<- loratext.SendRequest) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case line == "/next":
			c.NextRecipient()
			continue
		case strings.HasPrefix(line, "/to "):
			name := strings.TrimSpace(strings.TrimPrefix(line, "/to "))
			if name == "*" {
				name = loratext.Broadcast
			}
			c.Select(name)
			continue
		}

		for _, ch := range line {
			if ch >= ' ' {
				c.Press(Key(ch))
			}
		}
		req, ok := c.Press(KeyEnter)
		if !ok {
			continue
		}
		select {
		case out <- req:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scanner.Err()
}
