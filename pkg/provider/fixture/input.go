package fixture

import (
	"sync"

	"github.com/dshills/goax/pkg/provider"
)

// EventKind names a recorded input event.
type EventKind string

const (
	EventMove  EventKind = "move"
	EventClick EventKind = "click"
	EventKeys  EventKind = "keys"
	// EventSelectAll is the select-all chord.
	EventSelectAll EventKind = "select-all"
)

// Event is one synthetic input event.
type Event struct {
	Kind   EventKind
	X, Y   int
	Button provider.Button
	Text   string
}

// Input records synthetic input. When bound to a Provider, clicks focus the
// element under the pointer and keystrokes edit the focused text element:
// they append, or replace the content after SelectAll.
type Input struct {
	mu       sync.Mutex
	target   *Provider
	x, y     int
	events   []Event
	selected bool

	// Err, when set, is returned by every call and nothing is recorded.
	Err error
}

var _ provider.Input = (*Input)(nil)

// NewInput creates a recorder bound to p. p may be nil.
func NewInput(p *Provider) *Input {
	return &Input{target: p}
}

// Events returns a copy of the recorded events.
func (in *Input) Events() []Event {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]Event(nil), in.events...)
}

// Reset forgets recorded events.
func (in *Input) Reset() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.events = nil
}

// MoveCursor implements provider.Input.
func (in *Input) MoveCursor(x, y int) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.Err != nil {
		return in.Err
	}
	in.x, in.y = x, y
	in.events = append(in.events, Event{Kind: EventMove, X: x, Y: y})
	return nil
}

// Click implements provider.Input.
func (in *Input) Click(button provider.Button) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.Err != nil {
		return in.Err
	}
	in.events = append(in.events, Event{Kind: EventClick, X: in.x, Y: in.y, Button: button})
	in.selected = false

	if in.target != nil && button == provider.ButtonLeft {
		in.target.mu.Lock()
		if n := in.target.nodeAt(in.x, in.y); n != nil {
			in.target.focusLocked(n)
		}
		in.target.mu.Unlock()
	}
	return nil
}

// SelectAll implements provider.Input.
func (in *Input) SelectAll() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.Err != nil {
		return in.Err
	}
	in.events = append(in.events, Event{Kind: EventSelectAll})
	in.selected = true
	return nil
}

// SendKeys implements provider.Input.
func (in *Input) SendKeys(text string) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.Err != nil {
		return in.Err
	}
	in.events = append(in.events, Event{Kind: EventKeys, Text: text})
	selected := in.selected
	in.selected = false

	if in.target == nil {
		return nil
	}
	in.target.mu.Lock()
	defer in.target.mu.Unlock()
	n := in.target.findLocked(func(n *Node) bool { return n.Focused })
	if n == nil || !provider.NormalizeRole(n.Role).AcceptsText() {
		return nil
	}
	cur := ""
	if !selected {
		if v := n.attributes().Value; v != nil {
			cur = *v
		}
	}
	next := edit(cur, text)
	n.Value = &next
	return nil
}

// edit applies typed text to cur, honoring backspaces.
func edit(cur, text string) string {
	buf := []rune(cur)
	for _, r := range text {
		switch {
		case r != '\b':
			buf = append(buf, r)
		case len(buf) > 0:
			buf = buf[:len(buf)-1]
		}
	}
	return string(buf)
}
