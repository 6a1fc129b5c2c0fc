package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/dshills/goax/pkg/domain/types"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, Unknown},
		{"plain", stderrors.New("boom"), Unknown},
		{"direct", New(NotFound, "find", "no match"), NotFound},
		{"wrapped", fmt.Errorf("outer: %w", New(PermissionDenied, "root", "denied")), PermissionDenied},
		{"sentinel", ErrElementDisabled, ElementDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestSentinelMatching(t *testing.T) {
	err := fmt.Errorf("click: %w", New(ElementDisabled, "dispatch", "element 3 is disabled"))

	assert.True(t, stderrors.Is(err, ErrElementDisabled))
	assert.False(t, stderrors.Is(err, ErrNotFound))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify("children", nil))

	raw := stderrors.New("AXError -25204")
	classified := Classify("children", raw)
	assert.Equal(t, ProviderUnavailable, KindOf(classified))
	assert.True(t, stderrors.Is(classified, raw))

	already := New(PermissionDenied, "root", "not trusted")
	assert.Same(t, already, Classify("children", already))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(NotFound, "op", nil))

	err := Wrap(NotFound, "load session", stderrors.New("no rows"))
	assert.Equal(t, "load session: not_found: no rows", err.Error())
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{ErrPermissionDenied, 2},
		{ErrNotFound, 3},
		{ErrProviderUnavailable, 4},
		{ErrElementDisabled, 5},
		{ErrInvalid, 1},
		{stderrors.New("other"), 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "err=%v", tt.err)
	}
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(New(PermissionDenied, "root", "denied")))
	assert.False(t, IsFatal(New(ProviderUnavailable, "children", "gone")))
	assert.False(t, IsFatal(nil))
}

func TestOperationalError(t *testing.T) {
	assert.Nil(t, NewOperationalError("recording", "s1", 4, nil, nil))

	id := types.ElementID(7)
	cause := New(NotFound, "resolve", "no element 7")
	err := NewOperationalError("recording sample", types.SessionID("s1"), 4, &id, cause)

	msg := err.Error()
	assert.True(t, strings.Contains(msg, "(session s1, snapshot 4, element 7)"), msg)
	assert.Equal(t, NotFound, KindOf(err))
	assert.ErrorIs(t, err, cause)

	noElem := NewOperationalError("refresh", types.SessionID("s1"), 2, nil, cause)
	assert.NotContains(t, noElem.Error(), "element")

	long := NewOperationalError("refresh", types.SessionID("3f2a91c0-aaaa-bbbb"), 0, nil, cause)
	assert.True(t, strings.HasPrefix(long.Error(), "refresh (session 3f2a91c0): "), long.Error())
}

func TestOperationalError_LogValue(t *testing.T) {
	id := types.ElementID(3)
	err := NewOperationalError("click", types.SessionID("s1"), 9, &id, New(ElementDisabled, "act", "disabled"))

	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Warn("step failed", "error", err)

	line := buf.String()
	assert.Contains(t, line, "error.op=click")
	assert.Contains(t, line, "error.kind=element_disabled")
	assert.Contains(t, line, "error.generation=9")
	assert.Contains(t, line, "error.element=3")
}
