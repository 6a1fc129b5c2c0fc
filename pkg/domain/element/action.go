package element

import (
	"fmt"
	"strings"
)

// ActionKind names one synthetic interaction.
type ActionKind string

const (
	ActionClick       ActionKind = "click"
	ActionDoubleClick ActionKind = "double-click"
	ActionRightClick  ActionKind = "right-click"
	ActionFocus       ActionKind = "focus"
	ActionSetValue    ActionKind = "set-value"
	ActionTypeText    ActionKind = "type-text"
)

// ParseActionKind accepts the canonical names and the short aliases the
// command line has always understood (press, double, right, value, set, type).
func ParseActionKind(s string) (ActionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "click", "press":
		return ActionClick, nil
	case "double-click", "double", "doubleclick":
		return ActionDoubleClick, nil
	case "right-click", "right", "rightclick":
		return ActionRightClick, nil
	case "focus":
		return ActionFocus, nil
	case "set-value", "value", "set":
		return ActionSetValue, nil
	case "type-text", "type":
		return ActionTypeText, nil
	}
	return "", fmt.Errorf("unknown action %q (valid: click, double-click, right-click, focus, set-value, type-text)", s)
}

// IsPointer reports whether the action is a synthetic mouse event at the element center.
func (k ActionKind) IsPointer() bool {
	return k == ActionClick || k == ActionDoubleClick || k == ActionRightClick
}

// NeedsPayload reports whether the action requires Text.
func (k ActionKind) NeedsPayload() bool {
	return k == ActionSetValue || k == ActionTypeText
}

// Action is one dispatch request. A nil Target means "whatever holds focus",
// which only type-text accepts.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Text   string     `json:"text,omitempty"`
	Target *Selector  `json:"target,omitempty"`
}

// Validate checks the payload and target requirements for the kind.
func (a Action) Validate() error {
	kind, err := ParseActionKind(string(a.Kind))
	if err != nil {
		return err
	}
	if kind != a.Kind {
		return fmt.Errorf("action kind %q is an alias; use %q", a.Kind, kind)
	}
	// set-value accepts "" to clear a field.
	if a.Kind == ActionTypeText && a.Text == "" {
		return fmt.Errorf("%s requires text", a.Kind)
	}
	if a.Target == nil && a.Kind != ActionTypeText {
		return fmt.Errorf("%s requires a target", a.Kind)
	}
	if a.Target != nil {
		if err := a.Target.Validate(); err != nil {
			return fmt.Errorf("invalid target: %w", err)
		}
	}
	return nil
}
