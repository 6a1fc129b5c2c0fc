package element

import (
	"fmt"
	"strings"

	"github.com/dshills/goax/pkg/domain/types"
)

// Predicate is an additional test a selector applies after role and label.
type Predicate func(Element) bool

// Selector resolves one element within a Snapshot.
//
// A selector with ID set matches exactly that identifier and ignores every
// other field. Otherwise it is a (role?, label-substring?) predicate; an empty
// selector is rejected by Validate.
type Selector struct {
	ID          *types.ElementID `json:"id,omitempty"`
	Role        Role             `json:"role,omitempty"`
	Label       string           `json:"label,omitempty"`
	EnabledOnly bool             `json:"enabled_only,omitempty"`

	// Where is an optional compiled predicate; Expr is its source text.
	Where Predicate `json:"-"`
	Expr  string    `json:"where,omitempty"`
}

// ByID builds an exact-identifier selector.
func ByID(id types.ElementID) Selector {
	return Selector{ID: &id}
}

// ByRoleLabel builds a predicate selector.
func ByRoleLabel(role Role, label string) Selector {
	return Selector{Role: role, Label: label}
}

// IsExact reports whether the selector names an identifier.
func (s Selector) IsExact() bool {
	return s.ID != nil
}

// Validate rejects selectors that cannot match anything specific.
func (s Selector) Validate() error {
	if s.ID != nil {
		if *s.ID < 0 {
			return fmt.Errorf("element id must be non-negative, got %d", *s.ID)
		}
		return nil
	}
	if s.Role != "" && !s.Role.IsValid() {
		return fmt.Errorf("unknown role %q", s.Role)
	}
	if s.Role == "" && s.Label == "" && s.Where == nil {
		return fmt.Errorf("selector needs an id, role, label, or expression")
	}
	return nil
}

// Matches reports whether e satisfies the predicate form of the selector.
func (s Selector) Matches(e Element) bool {
	if s.ID != nil {
		return e.ID == *s.ID
	}
	f := Filter{Role: s.Role, Label: s.Label, EnabledOnly: s.EnabledOnly}
	if !f.Matches(e) {
		return false
	}
	if s.Where != nil && !s.Where(e) {
		return false
	}
	return true
}

// String renders the selector for messages.
func (s Selector) String() string {
	if s.ID != nil {
		return fmt.Sprintf("id=%d", *s.ID)
	}
	var parts []string
	if s.Role != "" {
		parts = append(parts, "role="+string(s.Role))
	}
	if s.Label != "" {
		parts = append(parts, fmt.Sprintf("label~%q", s.Label))
	}
	if s.EnabledOnly {
		parts = append(parts, "enabled")
	}
	if s.Expr != "" {
		parts = append(parts, fmt.Sprintf("where %q", s.Expr))
	}
	if len(parts) == 0 {
		return "<empty selector>"
	}
	return strings.Join(parts, " ")
}
