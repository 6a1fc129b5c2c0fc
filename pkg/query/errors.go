package query

import axerrors "github.com/dshills/goax/pkg/errors"

// Every query failure is caller input, so each sentinel is classified Invalid
// and keeps its own identity for errors.Is.
func invalid(msg string) *axerrors.Error {
	return &axerrors.Error{Kind: axerrors.Invalid, Op: "query", Message: msg}
}

// Dataset paths.
var (
	ErrInvalidPath  = invalid("malformed path")
	ErrTypeMismatch = invalid("unexpected document type")
	ErrNilData      = invalid("empty document")
)

// Where predicates.
var (
	ErrInvalidExpression = invalid("malformed predicate")
	ErrUnsafeOperation   = invalid("predicate reaches outside the element environment")
	ErrUndefinedVariable = invalid("unknown name")
)

// Command templates.
var (
	ErrInvalidTemplate = invalid("malformed template")
	ErrUnknownFunction = invalid("unknown template function")
	ErrNilContext      = invalid("template has no element to render")
)
