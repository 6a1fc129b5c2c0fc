// Package action resolves selectors against a Snapshot and dispatches one
// synthetic interaction.
//
// Pointer actions aim at the center of the bounding box as captured in the
// Snapshot. The live tree is not re-queried before acting: if the UI moved
// since the capture, the event lands where the element used to be. Callers that
// need certainty must capture again immediately before acting. Every dispatch
// is a single attempt; capability failures are classified and returned, never
// retried.
package action

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dshills/goax/pkg/domain/element"
	axerrors "github.com/dshills/goax/pkg/errors"
	"github.com/dshills/goax/pkg/provider"
	"github.com/dshills/goax/pkg/registry"
)

// Options configures inter-event delays.
type Options struct {
	// ClickDelay separates a cursor move from the click that follows it.
	ClickDelay time.Duration
	// DoubleClickGap separates the two clicks of a double-click.
	DoubleClickGap time.Duration
	// FocusSettle is waited after focusing an element before sending keys.
	FocusSettle time.Duration

	Logger *slog.Logger
}

// DefaultOptions returns the delays interactive use needs.
func DefaultOptions() Options {
	return Options{
		ClickDelay:     10 * time.Millisecond,
		DoubleClickGap: 50 * time.Millisecond,
		FocusSettle:    100 * time.Millisecond,
	}
}

// Outcome describes what a dispatch actually did.
type Outcome struct {
	Kind   element.ActionKind `json:"kind"`
	Target *element.Element   `json:"target,omitempty"`
	// X and Y are the pointer coordinates when the dispatch used the pointer.
	X       int  `json:"x,omitempty"`
	Y       int  `json:"y,omitempty"`
	Pointer bool `json:"pointer"`
	// Native is set when the accessibility API performed the action.
	Native bool `json:"native"`
	// Fallback is set when a native action was unsupported and synthetic input
	// was used instead.
	Fallback bool `json:"fallback"`
}

// Executor dispatches actions through a provider and an input device.
type Executor struct {
	provider provider.Provider
	input    provider.Input
	opts     Options
	logger   *slog.Logger
}

// New creates an executor.
func New(p provider.Provider, in provider.Input, opts Options) (*Executor, error) {
	if p == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	if in == nil {
		return nil, fmt.Errorf("input cannot be nil")
	}
	if opts.ClickDelay < 0 || opts.DoubleClickGap < 0 || opts.FocusSettle < 0 {
		return nil, axerrors.New(axerrors.Invalid, "executor", "delays must be non-negative")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{provider: p, input: in, opts: opts, logger: logger}, nil
}

// Resolve finds the element sel designates in snap, first match wins.
func (x *Executor) Resolve(sel element.Selector, snap *element.Snapshot) (element.Element, error) {
	reg, err := registry.New(snap)
	if err != nil {
		return element.Element{}, axerrors.Wrap(axerrors.Invalid, "resolve", err)
	}
	return reg.Find(sel)
}

// Run resolves a's target in snap and dispatches it. Nothing is sent when the
// target does not resolve.
func (x *Executor) Run(a element.Action, snap *element.Snapshot) (Outcome, error) {
	if err := a.Validate(); err != nil {
		return Outcome{}, axerrors.Wrap(axerrors.Invalid, "run action", err)
	}
	if a.Target == nil {
		return x.Dispatch(a, nil)
	}
	target, err := x.Resolve(*a.Target, snap)
	if err != nil {
		return Outcome{}, err
	}
	return x.Dispatch(a, &target)
}

// Dispatch performs a against target. target may be nil only for type-text,
// which then goes to whatever holds focus.
func (x *Executor) Dispatch(a element.Action, target *element.Element) (Outcome, error) {
	out := Outcome{Kind: a.Kind, Target: target}

	if target == nil {
		if a.Kind != element.ActionTypeText {
			return out, axerrors.New(axerrors.Invalid, string(a.Kind), "%s requires a target", a.Kind)
		}
	} else if !target.Enabled {
		return out, axerrors.New(axerrors.ElementDisabled, string(a.Kind),
			"%s %q (id %d) is disabled", target.Role, target.Label, target.ID)
	}

	var err error
	switch a.Kind {
	case element.ActionClick:
		err = x.pointer(&out, provider.ButtonLeft, 1)
	case element.ActionDoubleClick:
		err = x.pointer(&out, provider.ButtonLeft, 2)
	case element.ActionRightClick:
		err = x.pointer(&out, provider.ButtonRight, 1)
	case element.ActionFocus:
		err = x.focus(&out)
	case element.ActionSetValue:
		err = x.setValue(&out, a.Text)
	case element.ActionTypeText:
		err = x.typeText(&out, a.Text)
	default:
		return out, axerrors.New(axerrors.Invalid, "dispatch", "unknown action %q", a.Kind)
	}
	if err != nil {
		return out, err
	}

	x.logger.Debug("action dispatched",
		"kind", a.Kind,
		"target", targetID(target),
		"native", out.Native,
		"fallback", out.Fallback)
	return out, nil
}

// pointer moves to the captured center of the target and clicks count times.
func (x *Executor) pointer(out *Outcome, button provider.Button, count int) error {
	cx, cy := out.Target.BBox.Center()
	out.X, out.Y, out.Pointer = cx, cy, true

	if err := x.input.MoveCursor(cx, cy); err != nil {
		return axerrors.Classify("move cursor", err)
	}
	sleep(x.opts.ClickDelay)
	for i := 0; i < count; i++ {
		if i > 0 {
			sleep(x.opts.DoubleClickGap)
		}
		if err := x.input.Click(button); err != nil {
			return axerrors.Classify("click", err)
		}
	}
	return nil
}

// native performs a native action when the element has a live handle. It
// reports false with a nil error when the action is unsupported.
func (x *Executor) native(target *element.Element, action provider.NativeAction) (bool, error) {
	h := target.Handle()
	if h == nil {
		return false, nil
	}
	err := x.provider.PerformAction(h, action)
	if errors.Is(err, provider.ErrUnsupported) {
		return false, nil
	}
	if err != nil {
		return false, axerrors.Classify(string(action.Kind), err)
	}
	return true, nil
}

func (x *Executor) focus(out *Outcome) error {
	ok, err := x.native(out.Target, provider.NativeAction{Kind: provider.NativeFocus})
	if err != nil {
		return err
	}
	if ok {
		out.Native = true
		return nil
	}
	out.Fallback = true
	return x.pointer(out, provider.ButtonLeft, 1)
}

func (x *Executor) setValue(out *Outcome, text string) error {
	ok, err := x.native(out.Target, provider.NativeAction{Kind: provider.NativeSetValue, Value: text})
	if err != nil {
		return err
	}
	if ok {
		out.Native = true
		return nil
	}

	x.logger.Warn("native set-value unsupported, falling back to click, select all and type",
		"target", targetID(out.Target),
		"role", out.Target.Role,
		"label", out.Target.Label)
	out.Fallback = true
	if err := x.pointer(out, provider.ButtonLeft, 1); err != nil {
		return err
	}
	sleep(x.opts.FocusSettle)
	if err := x.input.SelectAll(); err != nil {
		return axerrors.Classify("select all", err)
	}
	if text == "" {
		// Delete the selection.
		text = "\b"
	}
	if err := x.input.SendKeys(text); err != nil {
		return axerrors.Classify("send keys", err)
	}
	return nil
}

func (x *Executor) typeText(out *Outcome, text string) error {
	if out.Target != nil {
		if err := x.focus(out); err != nil {
			return err
		}
		sleep(x.opts.FocusSettle)
	}
	if err := x.input.SendKeys(text); err != nil {
		return axerrors.Classify("send keys", err)
	}
	return nil
}

func targetID(e *element.Element) interface{} {
	if e == nil {
		return "focus"
	}
	return int(e.ID)
}

func sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
