// Package provider declares the capabilities goax consumes from the operating
// system: a handle-based accessibility tree and a synthetic input device.
//
// Implementations must classify their failures with pkg/errors kinds. A
// permission problem is reported as errors.PermissionDenied, a missing or
// unresponsive tree as errors.ProviderUnavailable. A native action the platform
// does not offer is reported as ErrUnsupported so callers can fall back.
//
// None of the methods take a context: goax imposes no timeout of its own, and a
// provider call that never returns stalls the caller.
package provider

import (
	"errors"

	"github.com/dshills/goax/pkg/domain/element"
	"github.com/dshills/goax/pkg/domain/types"
)

// ErrUnsupported signals that a native action is not available for an element.
var ErrUnsupported = errors.New("native action unsupported")

// Attributes is the raw attribute set of one live element.
type Attributes struct {
	// Role is the platform role name (for example "AXButton"). NormalizeRole maps it.
	Role string
	// Label is the element title, falling back to its description.
	Label       string
	BBox        element.BoundingBox
	Enabled     bool
	Focused     bool
	Value       *string
	Description *string
	Actions     []string
}

// NativeActionKind names an action performed through the accessibility API
// rather than synthetic input.
type NativeActionKind string

const (
	NativePress    NativeActionKind = "press"
	NativeFocus    NativeActionKind = "focus"
	NativeSetValue NativeActionKind = "set-value"
	NativeShowMenu NativeActionKind = "show-menu"
)

// NativeAction is one accessibility-level action request.
type NativeAction struct {
	Kind  NativeActionKind
	Value string
}

// Provider is the read side of the platform accessibility API.
type Provider interface {
	// FrontmostApp returns the application that currently owns keyboard focus.
	FrontmostApp() (types.AppHandle, error)
	// Root returns the top-level element of app.
	Root(app types.AppHandle) (types.ElementHandle, error)
	// AppName returns the display name of app.
	AppName(app types.AppHandle) (string, error)
	// ScreenSize returns the main display size in points.
	ScreenSize() (width, height int, err error)
	// Children returns the direct children of h in platform order.
	Children(h types.ElementHandle) ([]types.ElementHandle, error)
	// Attributes reads the attribute set of h.
	Attributes(h types.ElementHandle) (Attributes, error)
	// PerformAction dispatches a native action on h.
	PerformAction(h types.ElementHandle, action NativeAction) error
}

// Button is a pointer button.
type Button string

const (
	ButtonLeft  Button = "left"
	ButtonRight Button = "right"
)

// Input is the synthetic input device.
type Input interface {
	// MoveCursor warps the pointer to absolute screen coordinates.
	MoveCursor(x, y int) error
	// Click presses and releases button at the current pointer position.
	Click(button Button) error
	// SendKeys types text into whatever holds keyboard focus. A backspace
	// ("\b") deletes the selection or the character before the caret.
	SendKeys(text string) error
	// SelectAll selects the whole content of the focused element, so the
	// next keystrokes replace it.
	SelectAll() error
}
