package element

import (
	"github.com/dshills/goax/pkg/domain/types"
)

// BoundingBox is an element's frame in absolute screen coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewBoundingBox clamps negative extents to zero.
func NewBoundingBox(x, y, width, height int) BoundingBox {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return BoundingBox{X: x, Y: y, Width: width, Height: height}
}

// Center returns the point a pointer action aims at.
func (b BoundingBox) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(x, y int) bool {
	return x >= b.X && x <= b.X+b.Width &&
		y >= b.Y && y <= b.Y+b.Height
}

// Area returns width*height.
func (b BoundingBox) Area() int {
	return b.Width * b.Height
}

// Element is one accessibility node as captured in a Snapshot.
type Element struct {
	// ID is unique and contiguous within the owning Snapshot only.
	ID          types.ElementID  `json:"id"`
	Role        Role             `json:"role"`
	Label       string           `json:"label"`
	BBox        BoundingBox      `json:"bbox"`
	Enabled     bool             `json:"enabled"`
	Focused     bool             `json:"focused"`
	Value       *string          `json:"value,omitempty"`
	Description *string          `json:"description,omitempty"`
	Actions     []string         `json:"actions,omitempty"`
	Depth       int              `json:"depth"`
	ParentID    *types.ElementID `json:"parent_id,omitempty"`

	// handle is the provider reference captured with the element. It is absent
	// for elements decoded from disk.
	handle types.ElementHandle
}

// Handle returns the provider handle the element was captured from, or nil.
func (e Element) Handle() types.ElementHandle {
	return e.handle
}

// WithHandle returns a copy of e bound to h. Walkers use it while building a capture.
func (e Element) WithHandle(h types.ElementHandle) Element {
	e.handle = h
	return e
}

// ValueString returns the value or "" when the element has none.
func (e Element) ValueString() string {
	if e.Value == nil {
		return ""
	}
	return *e.Value
}

// State is the mutable part of an element that the diff engine compares.
type State struct {
	Enabled bool    `json:"enabled"`
	Focused bool    `json:"focused"`
	Value   *string `json:"value,omitempty"`
}

// State extracts the compared attributes.
func (e Element) State() State {
	return State{Enabled: e.Enabled, Focused: e.Focused, Value: e.Value}
}

// Equal compares two states, treating nil and present values as different.
func (s State) Equal(o State) bool {
	if s.Enabled != o.Enabled || s.Focused != o.Focused {
		return false
	}
	if (s.Value == nil) != (o.Value == nil) {
		return false
	}
	return s.Value == nil || *s.Value == *o.Value
}
