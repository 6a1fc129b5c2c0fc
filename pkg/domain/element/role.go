// Package element defines the Snapshot aggregate: elements captured from an
// accessibility tree at one instant, the selectors and actions that target them,
// the deltas between two captures, and the training samples built from them.
package element

import (
	"fmt"
	"strings"
)

// Role is the closed set of element roles goax understands.
type Role string

const (
	RoleButton      Role = "button"
	RoleLink        Role = "link"
	RoleTextField   Role = "textfield"
	RoleTextArea    Role = "textarea"
	RoleCheckbox    Role = "checkbox"
	RoleRadio       Role = "radio"
	RoleDropdown    Role = "dropdown"
	RoleMenuItem    Role = "menuitem"
	RoleTab         Role = "tab"
	RoleSlider      Role = "slider"
	RoleDisclosure  Role = "disclosure"
	RoleImage       Role = "image"
	RoleText        Role = "text"
	RoleGroup       Role = "group"
	RoleWindow      Role = "window"
	RoleApp         Role = "app"
	RoleScroll      Role = "scroll"
	RoleTable       Role = "table"
	RoleRow         Role = "row"
	RoleCell        Role = "cell"
	RoleColorPicker Role = "colorpicker"
	RoleOther       Role = "other"
)

var allRoles = []Role{
	RoleButton, RoleLink, RoleTextField, RoleTextArea, RoleCheckbox, RoleRadio,
	RoleDropdown, RoleMenuItem, RoleTab, RoleSlider, RoleDisclosure, RoleImage,
	RoleText, RoleGroup, RoleWindow, RoleApp, RoleScroll, RoleTable, RoleRow,
	RoleCell, RoleColorPicker, RoleOther,
}

// Roles returns every known role in declaration order.
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// ParseRole matches s case-insensitively against the enumeration.
func ParseRole(s string) (Role, error) {
	normalized := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, r := range allRoles {
		if r == normalized {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// IsValid reports whether r is a member of the enumeration.
func (r Role) IsValid() bool {
	for _, known := range allRoles {
		if known == r {
			return true
		}
	}
	return false
}

// IsInteractive reports whether elements of this role accept direct input.
func (r Role) IsInteractive() bool {
	switch r {
	case RoleButton, RoleLink, RoleTextField, RoleTextArea, RoleCheckbox, RoleRadio,
		RoleDropdown, RoleMenuItem, RoleTab, RoleSlider, RoleDisclosure, RoleColorPicker:
		return true
	}
	return false
}

// AcceptsText reports whether set-value and type-text are meaningful for the role.
func (r Role) AcceptsText() bool {
	return r == RoleTextField || r == RoleTextArea || r == RoleDropdown
}
