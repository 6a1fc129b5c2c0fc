package errors

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dshills/goax/pkg/domain/types"
)

// OperationalError ties a failed collector step to the session, snapshot
// generation and element it concerned. It unwraps to the cause, so KindOf and
// errors.Is see through it.
type OperationalError struct {
	Operation  string
	SessionID  types.SessionID
	Generation types.Generation
	// ElementID is nil when the step had no target.
	ElementID *types.ElementID
	Cause     error
}

// NewOperationalError wraps cause. It returns nil when cause is nil.
//
//	if err != nil {
//	    return NewOperationalError("record", sessionID, snap.Generation, &id, err)
//	}
func NewOperationalError(operation string, sessionID types.SessionID, gen types.Generation, elementID *types.ElementID, cause error) *OperationalError {
	if cause == nil {
		return nil
	}
	return &OperationalError{
		Operation:  operation,
		SessionID:  sessionID,
		Generation: gen,
		ElementID:  elementID,
		Cause:      cause,
	}
}

// Error renders "op (session s, snapshot n, element id): cause". Parts that are
// unset are left out.
func (e *OperationalError) Error() string {
	if e == nil {
		return "<nil OperationalError>"
	}

	var ctx []string
	if !e.SessionID.IsZero() {
		ctx = append(ctx, "session "+shortID(e.SessionID))
	}
	if e.Generation != 0 {
		ctx = append(ctx, fmt.Sprintf("snapshot %d", e.Generation))
	}
	if e.ElementID != nil {
		ctx = append(ctx, fmt.Sprintf("element %d", *e.ElementID))
	}
	if len(ctx) == 0 {
		return fmt.Sprintf("%s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %v", e.Operation, strings.Join(ctx, ", "), e.Cause)
}

// Unwrap returns the cause.
func (e *OperationalError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// LogValue groups the context for structured logs.
func (e *OperationalError) LogValue() slog.Value {
	if e == nil {
		return slog.StringValue("<nil>")
	}
	attrs := []slog.Attr{
		slog.String("op", e.Operation),
		slog.String("kind", string(KindOf(e.Cause))),
		slog.String("session", e.SessionID.String()),
		slog.Uint64("generation", uint64(e.Generation)),
	}
	if e.ElementID != nil {
		attrs = append(attrs, slog.Int("element", int(*e.ElementID)))
	}
	attrs = append(attrs, slog.String("cause", e.Cause.Error()))
	return slog.GroupValue(attrs...)
}

// shortID is the eight-character prefix the CLI prints for sessions.
func shortID(id types.SessionID) string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
