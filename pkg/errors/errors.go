// Package errors defines the failure taxonomy shared by every goax component.
//
// Every failure that crosses the provider boundary is classified into one Kind
// before it reaches a caller. Callers branch on the kind, never on message text:
//
//	if errors.KindOf(err) == errors.NotFound {
//	    // recover locally, the session continues
//	}
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	// Unknown is reported for nil or unclassified errors by KindOf.
	Unknown Kind = ""
	// PermissionDenied means the provider is not authorized. Fatal, never retried.
	PermissionDenied Kind = "permission_denied"
	// NotFound means a selector, id, or session could not be resolved.
	NotFound Kind = "not_found"
	// ProviderUnavailable means there is no accessible tree or a native query failed.
	ProviderUnavailable Kind = "provider_unavailable"
	// ElementDisabled means an action was refused before any input was dispatched.
	ElementDisabled Kind = "element_disabled"
	// StaleTarget is reserved for a target that moved between capture and dispatch.
	// goax never detects this on its own.
	StaleTarget Kind = "stale_target"
	// Invalid means the caller supplied malformed input or configuration.
	Invalid Kind = "invalid"
)

// Error carries a Kind, the operation that failed, and a human-readable message.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

// Error implements the error interface.
//
// Format: "op: message: cause" with empty parts omitted.
func (e *Error) Error() string {
	if e == nil {
		return "<nil Error>"
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind with no message,
// so sentinels like ErrNotFound match any NotFound error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == "" && t.Cause == nil
}

// Sentinels usable with errors.Is.
var (
	ErrPermissionDenied    = &Error{Kind: PermissionDenied}
	ErrNotFound            = &Error{Kind: NotFound}
	ErrProviderUnavailable = &Error{Kind: ProviderUnavailable}
	ErrElementDisabled     = &Error{Kind: ElementDisabled}
	ErrStaleTarget         = &Error{Kind: StaleTarget}
	ErrInvalid             = &Error{Kind: Invalid}
)

// New creates a classified error.
func New(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies cause under kind. Returns nil if cause is nil.
func Wrap(kind Kind, op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Cause: cause}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Classify guarantees that err carries a Kind. Errors that are already classified
// are returned unchanged; anything else becomes ProviderUnavailable under op.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != Unknown {
		return err
	}
	return &Error{Kind: ProviderUnavailable, Op: op, Cause: err}
}

// IsFatal reports whether err must end the whole session rather than one step.
func IsFatal(err error) bool {
	return KindOf(err) == PermissionDenied
}

// ExitCode maps err to the process exit status used by the ax binary.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case PermissionDenied:
		return 2
	case NotFound:
		return 3
	case ProviderUnavailable:
		return 4
	case ElementDisabled:
		return 5
	default:
		return 1
	}
}
