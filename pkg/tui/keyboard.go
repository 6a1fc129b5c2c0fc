package tui

import (
	"fmt"
	"strings"
)

// Key names one keystroke: a printable character ("q"), a control chord
// ("Ctrl-c") or a named key ("Up").
type Key string

// Named keys produced by ParseKey.
const (
	KeyNone      Key = ""
	KeyUp        Key = "Up"
	KeyDown      Key = "Down"
	KeyLeft      Key = "Left"
	KeyRight     Key = "Right"
	KeyPageUp    Key = "PageUp"
	KeyPageDown  Key = "PageDown"
	KeyEnter     Key = "Enter"
	KeyEscape    Key = "Escape"
	KeyTab       Key = "Tab"
	KeyBackspace Key = "Backspace"
)

// Ctrl returns the control chord for a lowercase letter.
func Ctrl(r rune) Key {
	return Key("Ctrl-" + string(r))
}

var csiKeys = map[byte]Key{
	'A': KeyUp,
	'B': KeyDown,
	'C': KeyRight,
	'D': KeyLeft,
	'5': KeyPageUp,
	'6': KeyPageDown,
}

// ParseKey decodes one read from a raw-mode terminal. Unknown escape
// sequences decode as Escape.
func ParseKey(buf []byte) Key {
	if len(buf) == 0 {
		return KeyNone
	}
	switch b := buf[0]; {
	case b == 27:
		if len(buf) > 2 && buf[1] == '[' {
			if k, ok := csiKeys[buf[2]]; ok {
				return k
			}
		}
		return KeyEscape
	case b == 9:
		return KeyTab
	case b == 10 || b == 13:
		return KeyEnter
	case b == 127:
		return KeyBackspace
	case b < 32:
		return Ctrl(rune('a' + b - 1))
	default:
		return Key(string(rune(b)))
	}
}

type binding struct {
	keys []Key
	hint string
	run  func() error
}

// Keymap routes keystrokes to actions. Several keys may share one action;
// the first key is the one shown in the help line.
type Keymap struct {
	byKey map[Key]*binding
	order []*binding
}

// NewKeymap creates an empty keymap.
func NewKeymap() *Keymap {
	return &Keymap{byKey: make(map[Key]*binding)}
}

// Bind attaches run to every key in keys. A key can be bound only once. An
// empty hint keeps the action out of Help.
func (km *Keymap) Bind(hint string, run func() error, keys ...Key) error {
	if len(keys) == 0 {
		return fmt.Errorf("binding %q has no keys", hint)
	}
	b := &binding{keys: keys, hint: hint, run: run}
	for _, k := range keys {
		if _, taken := km.byKey[k]; taken {
			return fmt.Errorf("key %s is already bound", k)
		}
	}
	for _, k := range keys {
		km.byKey[k] = b
	}
	km.order = append(km.order, b)
	return nil
}

// Handle runs the action bound to k and reports whether there was one.
func (km *Keymap) Handle(k Key) (bool, error) {
	b, ok := km.byKey[k]
	if !ok {
		return false, nil
	}
	return true, b.run()
}

// Help renders "key hint" pairs in binding order.
func (km *Keymap) Help() string {
	parts := make([]string, 0, len(km.order))
	for _, b := range km.order {
		if b.hint == "" {
			continue
		}
		parts = append(parts, keyLabel(b.keys[0])+" "+b.hint)
	}
	return strings.Join(parts, "  ")
}

func keyLabel(k Key) string {
	switch k {
	case KeyUp:
		return "↑"
	case KeyDown:
		return "↓"
	case KeyPageUp:
		return "PgUp"
	case KeyPageDown:
		return "PgDn"
	case KeyEnter:
		return "enter"
	}
	return string(k)
}
