package watch

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/goax/pkg/domain/element"
	axerrors "github.com/dshills/goax/pkg/errors"
	"github.com/dshills/goax/pkg/provider/fixture"
	"github.com/dshills/goax/pkg/walker"
)

func strPtr(s string) *string { return &s }

func snapshot(t *testing.T, elems ...element.Element) *element.Snapshot {
	t.Helper()
	s, err := element.NewSnapshot(element.CaptureInfo{}, elems)
	require.NoError(t, err)
	return s
}

func btn(label string, enabled bool) element.Element {
	return element.Element{Role: element.RoleButton, Label: label, Enabled: enabled}
}

func keyStrings(keys []element.Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	sort.Strings(out)
	return out
}

func TestDiff_Baseline(t *testing.T) {
	s := snapshot(t, btn("OK", true), btn("Cancel", true))

	d := Diff(nil, s)
	assert.Len(t, d.Added, 2)
	assert.Empty(t, d.Removed)
	assert.Empty(t, d.Changed)
}

func TestDiff_Idempotent(t *testing.T) {
	s := snapshot(t,
		btn("OK", true), btn("OK", true), btn("Cancel", false),
		element.Element{Role: element.RoleTextField, Value: strPtr("x")})

	d := Diff(s, s)
	assert.True(t, d.IsEmpty())

	// Recapturing the same content under new ids and a new generation is still empty.
	again := snapshot(t, s.Elements...)
	assert.True(t, Diff(s, again).IsEmpty())
}

func TestDiff_Symmetry(t *testing.T) {
	s1 := snapshot(t, btn("OK", true), btn("Cancel", true), btn("Help", true))
	s2 := snapshot(t, btn("Cancel", true), btn("Retry", true), btn("OK", true), btn("OK", true))

	forward := Diff(s1, s2)
	backward := Diff(s2, s1)

	assert.Equal(t, keyStrings(forward.Added), keyStrings(backward.Removed))
	assert.Equal(t, keyStrings(forward.Removed), keyStrings(backward.Added))
	assert.Empty(t, forward.Changed)
	assert.Equal(t, []string{`button "OK"#1`, `button "Retry"`}, keyStrings(forward.Added))
	assert.Equal(t, []string{`button "Help"`}, keyStrings(forward.Removed))
}

func TestDiff_KeysIgnorePosition(t *testing.T) {
	s1 := snapshot(t, btn("OK", true), btn("Cancel", true))
	s2 := snapshot(t, btn("Cancel", true), btn("OK", true))

	assert.True(t, Diff(s1, s2).IsEmpty(), "reordering alone is not a change")
}

func TestDiff_Changed(t *testing.T) {
	field := func(v *string, focused bool) element.Element {
		return element.Element{Role: element.RoleTextField, Label: "Name", Enabled: true, Focused: focused, Value: v}
	}

	tests := []struct {
		name    string
		before  element.Element
		after   element.Element
		changed bool
	}{
		{"enabled flips", btn("OK", true), btn("OK", false), true},
		{"focus moves", field(nil, false), field(nil, true), true},
		{"value edited", field(strPtr("a"), false), field(strPtr("ab"), false), true},
		{"value appears", field(nil, false), field(strPtr(""), false), true},
		{"bbox only", btn("OK", true), func() element.Element {
			e := btn("OK", true)
			e.BBox = element.BoundingBox{X: 50, Y: 50, Width: 10, Height: 10}
			return e
		}(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Diff(snapshot(t, tt.before), snapshot(t, tt.after))
			assert.Empty(t, d.Added)
			assert.Empty(t, d.Removed)
			if !tt.changed {
				assert.Empty(t, d.Changed)
				return
			}
			require.Len(t, d.Changed, 1)
			assert.Equal(t, tt.before.State(), d.Changed[0].Before)
			assert.Equal(t, tt.after.State(), d.Changed[0].After)
		})
	}
}

func newEngine(t *testing.T, p *fixture.Provider, maxTicks int) *Engine {
	t.Helper()
	w, err := walker.New(p, walker.Options{MaxDepth: 10})
	require.NoError(t, err)
	return New(w, Options{Interval: time.Millisecond, MaxTicks: maxTicks})
}

func TestRun_StaticUI(t *testing.T) {
	e := newEngine(t, fixture.New(fixture.Demo()), 3)

	var ticks []Tick
	err := e.Run(context.Background(), func(tk Tick) error {
		ticks = append(ticks, tk)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, ticks, 3)
	assert.True(t, ticks[0].Baseline())
	assert.Len(t, ticks[0].Delta.Added, 3, "baseline adds every element")
	assert.Empty(t, ticks[0].Delta.Removed)
	assert.Empty(t, ticks[0].Delta.Changed)
	for i, tk := range ticks[1:] {
		assert.Equal(t, i+2, tk.Index)
		assert.False(t, tk.Baseline())
		assert.True(t, tk.Delta.IsEmpty())
	}
	assert.Equal(t, Stats{Ticks: 3}, e.Stats())
}

func TestRun_ReportsChanges(t *testing.T) {
	p := fixture.New(fixture.Demo())
	e := newEngine(t, p, 3)

	var ticks []Tick
	err := e.Run(context.Background(), func(tk Tick) error {
		ticks = append(ticks, tk)
		switch tk.Index {
		case 1:
			p.Update(func(tree *fixture.Tree) {
				ok := tree.Apps[0].Root.Children[0].Children[0]
				disabled := false
				ok.Enabled = &disabled
			})
		case 2:
			p.Update(func(tree *fixture.Tree) {
				group := tree.Apps[0].Root.Children[0]
				group.Children = append(group.Children, &fixture.Node{Role: "AXButton", Label: "Help"})
			})
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, ticks, 3)

	require.Len(t, ticks[1].Delta.Changed, 1)
	assert.Equal(t, "OK", ticks[1].Delta.Changed[0].Key.Label)
	assert.False(t, ticks[1].Delta.Changed[0].After.Enabled)

	require.Len(t, ticks[2].Delta.Added, 1)
	assert.Equal(t, "Help", ticks[2].Delta.Added[0].Label)
	assert.Equal(t, int64(2), e.Stats().Changes)
}

func TestRun_UnavailableTickContinues(t *testing.T) {
	p := fixture.New(fixture.Demo())
	e := newEngine(t, p, 4)

	var ticks []Tick
	err := e.Run(context.Background(), func(tk Tick) error {
		ticks = append(ticks, tk)
		p.Update(func(tree *fixture.Tree) { tree.Unavailable = tk.Index == 1 })
		return nil
	})
	require.NoError(t, err)
	require.Len(t, ticks, 4)

	assert.NoError(t, ticks[0].Err)
	assert.True(t, axerrors.Is(ticks[1].Err, axerrors.ProviderUnavailable))
	assert.Nil(t, ticks[1].Snapshot)
	assert.NoError(t, ticks[2].Err)
	assert.True(t, ticks[2].Delta.IsEmpty(), "diff is against the last successful capture")
	assert.Equal(t, int64(1), e.Stats().Errors)
}

func TestRun_PermissionDeniedEndsLoop(t *testing.T) {
	p := fixture.New(fixture.Demo())
	e := newEngine(t, p, 0)

	emitted := 0
	err := e.Run(context.Background(), func(tk Tick) error {
		emitted++
		p.Update(func(tree *fixture.Tree) { tree.Denied = true })
		return nil
	})
	require.Error(t, err)
	assert.True(t, axerrors.Is(err, axerrors.PermissionDenied))
	assert.Equal(t, 1, emitted)
}

func TestRun_Cancellation(t *testing.T) {
	e := newEngine(t, fixture.New(fixture.Demo()), 0)
	ctx, cancel := context.WithCancel(context.Background())

	emitted := 0
	err := e.Run(ctx, func(tk Tick) error {
		emitted++
		if tk.Index == 2 {
			cancel()
		}
		return nil
	})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 2, emitted, "the tick in progress completes before cancellation is observed")
}

func TestRun_EmitErrors(t *testing.T) {
	e := newEngine(t, fixture.New(fixture.Demo()), 0)
	err := e.Run(context.Background(), func(tk Tick) error {
		if tk.Index == 2 {
			return ErrStop
		}
		return nil
	})
	assert.NoError(t, err)

	boom := errors.New("render failed")
	err = newEngine(t, fixture.New(fixture.Demo()), 0).Run(context.Background(), func(Tick) error { return boom })
	assert.ErrorIs(t, err, boom)
}
