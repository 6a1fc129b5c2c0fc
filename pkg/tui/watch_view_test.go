package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dshills/goterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/goax/pkg/domain/element"
	"github.com/dshills/goax/pkg/provider/fixture"
	"github.com/dshills/goax/pkg/walker"
	"github.com/dshills/goax/pkg/watch"
)

// row reads back one screen line with trailing blanks removed.
func row(screen *goterm.Screen, y int) string {
	width, _ := screen.Size()
	var b strings.Builder
	for x := 0; x < width; x++ {
		ch := screen.GetCell(x, y).Ch
		if ch == 0 {
			ch = ' '
		}
		b.WriteRune(ch)
	}
	return strings.TrimRight(b.String(), " ")
}

func screenText(screen *goterm.Screen) string {
	_, height := screen.Size()
	lines := make([]string, height)
	for y := range lines {
		lines[y] = row(screen, y)
	}
	return strings.Join(lines, "\n")
}

// ticks runs a watch loop over the demo fixture, applying mutate before each
// capture after the first.
func ticks(t *testing.T, n int, mutate func(i int, tree *fixture.Tree)) ([]watch.Tick, *watch.Engine) {
	t.Helper()
	p := fixture.New(fixture.Demo())
	w, err := walker.New(p, walker.Options{MaxDepth: walker.DefaultMaxDepth})
	require.NoError(t, err)
	eng := watch.New(w, watch.Options{Interval: time.Millisecond, MaxTicks: n})

	var out []watch.Tick
	err = eng.Run(t.Context(), func(tk watch.Tick) error {
		out = append(out, tk)
		if mutate != nil {
			p.Update(func(tree *fixture.Tree) { mutate(tk.Index, tree) })
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, out, n)
	return out, eng
}

func TestWatchView_Baseline(t *testing.T) {
	out, eng := ticks(t, 1, nil)
	v := NewWatchView()
	v.Update(out[0], eng.Stats())

	screen := goterm.NewScreen(80, 24)
	require.NoError(t, v.Render(screen))

	assert.Contains(t, row(screen, 0), "Dialog")
	assert.Contains(t, row(screen, 0), "3 elements")
	assert.Contains(t, row(screen, 1), "tick 1")
	assert.Equal(t, `  [0] button "OK" @100,200`, row(screen, 2))
	assert.Equal(t, `  [1] button "Cancel" @200,200`, row(screen, 3))
	assert.Equal(t, `  [2] textfield = "" @100,100`, row(screen, 4))
	// The baseline is not highlighted as additions.
	assert.Equal(t, "+0 -0 ~0", row(screen, 22))
	assert.Contains(t, row(screen, 23), "q quit")
}

func TestWatchView_MarksDelta(t *testing.T) {
	out, eng := ticks(t, 2, func(i int, tree *fixture.Tree) {
		if i != 1 {
			return
		}
		group := tree.Apps[0].Root.Children[0]
		disabled := false
		group.Children[0].Enabled = &disabled
		group.Children[1] = &fixture.Node{Role: "AXButton", Label: "Retry", BBox: group.Children[1].BBox}
	})
	v := NewWatchView()
	for _, tk := range out {
		v.Update(tk, eng.Stats())
	}

	screen := goterm.NewScreen(80, 24)
	require.NoError(t, v.Render(screen))

	text := screenText(screen)
	assert.Contains(t, text, `~ [0] button "OK" @100,200 (disabled)`)
	assert.Contains(t, text, `+ [1] button "Retry"`)
	assert.Contains(t, row(screen, 22), `+1 -1 ~1  removed: button "Cancel"`)
}

func TestWatchView_PauseKeepsSnapshot(t *testing.T) {
	out, eng := ticks(t, 2, func(i int, tree *fixture.Tree) {
		group := tree.Apps[0].Root.Children[0]
		group.Children = group.Children[:1]
	})
	v := NewWatchView()
	v.Update(out[0], eng.Stats())
	v.TogglePause()
	require.True(t, v.Paused())
	v.Update(out[1], eng.Stats())

	screen := goterm.NewScreen(80, 24)
	require.NoError(t, v.Render(screen))
	assert.Contains(t, row(screen, 0), "3 elements")
	assert.Contains(t, row(screen, 1), "tick 2")
	assert.Contains(t, row(screen, 1), "[paused]")
}

func TestWatchView_Error(t *testing.T) {
	v := NewWatchView()
	v.Update(watch.Tick{Index: 4, Err: errors.New("no frontmost application")}, watch.Stats{Ticks: 4, Errors: 1})

	screen := goterm.NewScreen(80, 24)
	require.NoError(t, v.Render(screen))
	assert.Contains(t, row(screen, 1), "errors 1")
	assert.Contains(t, row(screen, 1), "no frontmost application")
	assert.Contains(t, row(screen, 2), "waiting for first capture")

	_, ok := v.Selected()
	assert.False(t, ok)
}

func TestWatchView_CursorAndDetail(t *testing.T) {
	out, eng := ticks(t, 1, nil)
	v := NewWatchView()
	v.Update(out[0], eng.Stats())

	tests := []struct {
		move  int
		label string
	}{
		{1, "Cancel"},
		{10, ""},
		{-1, "Cancel"},
		{-10, "OK"},
	}
	for _, tt := range tests {
		v.Move(tt.move)
		e, ok := v.Selected()
		require.True(t, ok)
		assert.Equal(t, tt.label, e.Label)
	}

	v.ToggleDetail()
	screen := goterm.NewScreen(80, 24)
	require.NoError(t, v.Render(screen))
	text := screenText(screen)
	assert.Contains(t, text, `label       "OK"`)
	assert.Contains(t, text, "bbox        100,200 80x30")
	assert.Contains(t, text, "actions     AXPress")
}

func TestWatchView_TooSmall(t *testing.T) {
	v := NewWatchView()
	assert.Error(t, v.Render(goterm.NewScreen(10, 3)))
}

func TestFormatElement(t *testing.T) {
	val := "hello"
	tests := []struct {
		name string
		e    element.Element
		want string
	}{
		{"button", element.Element{ID: 3, Role: element.RoleButton, Label: "Save", Enabled: true,
			BBox: element.NewBoundingBox(10, 20, 5, 5)}, `[3] button "Save" @10,20`},
		{"field", element.Element{ID: 0, Role: element.RoleTextField, Value: &val, Enabled: true, Focused: true},
			`[0] textfield = "hello" @0,0 (focused)`},
		{"disabled", element.Element{ID: 1, Role: element.RoleCheckbox, Label: "Remember"},
			`[1] checkbox "Remember" @0,0 (disabled)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatElement(tt.e))
		})
	}
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 5))
	assert.Equal(t, "ab…", clip("abcdef", 3))
	assert.Equal(t, "ab   ", pad("ab", 5))
}
