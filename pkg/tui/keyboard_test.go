package tui

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dshills/goterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/goax/pkg/provider/fixture"
	"github.com/dshills/goax/pkg/walker"
	"github.com/dshills/goax/pkg/watch"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want Key
	}{
		{"empty", nil, KeyNone},
		{"letter", []byte("q"), "q"},
		{"upper", []byte("Q"), "Q"},
		{"space", []byte(" "), " "},
		{"ctrl-c", []byte{3}, Ctrl('c')},
		{"enter", []byte{13}, KeyEnter},
		{"newline", []byte{10}, KeyEnter},
		{"tab", []byte{9}, KeyTab},
		{"backspace", []byte{127}, KeyBackspace},
		{"escape", []byte{27}, KeyEscape},
		{"unknown sequence", []byte("\x1b[Z"), KeyEscape},
		{"up", []byte("\x1b[A"), KeyUp},
		{"down", []byte("\x1b[B"), KeyDown},
		{"page down", []byte("\x1b[6~"), KeyPageDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKey(tt.in))
		})
	}
}

func TestKeymap(t *testing.T) {
	km := NewKeymap()
	calls := 0
	count := func() error {
		calls++
		return nil
	}

	require.NoError(t, km.Bind("quit", count, "q", Ctrl('c')))
	require.NoError(t, km.Bind("up", func() error { return errors.New("boom") }, KeyUp))
	require.NoError(t, km.Bind("", count, KeyPageDown))
	assert.EqualError(t, km.Bind("again", count, "x", "q"), "key q is already bound")
	assert.Error(t, km.Bind("none", count))

	handled, err := km.Handle("x")
	assert.False(t, handled, "failed binding must not register any of its keys")
	assert.NoError(t, err)

	handled, err = km.Handle("q")
	assert.True(t, handled)
	assert.NoError(t, err)

	handled, err = km.Handle("c")
	assert.False(t, handled, "plain c is not ctrl-c")
	assert.NoError(t, err)

	handled, err = km.Handle(ParseKey([]byte{3}))
	assert.True(t, handled)
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	_, err = km.Handle(ParseKey([]byte("\x1b[A")))
	assert.EqualError(t, err, "boom")

	assert.Equal(t, "q quit  ↑ up", km.Help())
}

func TestApp_Bindings(t *testing.T) {
	p := fixture.New(fixture.Demo())
	w, err := walker.New(p, walker.Options{MaxDepth: walker.DefaultMaxDepth})
	require.NoError(t, err)
	eng := watch.New(w, watch.Options{Interval: time.Millisecond, MaxTicks: 1})

	a, err := newApp(goterm.NewScreen(80, 24), eng, nil, nil)
	require.NoError(t, err)

	require.NoError(t, eng.Run(t.Context(), func(tk watch.Tick) error {
		a.View().Update(tk, eng.Stats())
		return nil
	}))

	press := func(raw string) {
		t.Helper()
		handled, err := a.keys.Handle(ParseKey([]byte(raw)))
		require.NoError(t, err)
		require.True(t, handled, "%q", raw)
	}

	press("j")
	press("\x1b[B")
	e, ok := a.View().Selected()
	require.True(t, ok)
	assert.EqualValues(t, 2, e.ID)

	press("k")
	e, _ = a.View().Selected()
	assert.EqualValues(t, 1, e.ID)

	press("p")
	assert.True(t, a.View().Paused())

	press(" ")
	assert.False(t, a.View().Paused())

	assert.Contains(t, a.keys.Help(), "q quit  p pause  enter details")

	press("q")
	assert.Error(t, a.ctx.Err())
}

func TestApp_FinalTickAndCaptureErrors(t *testing.T) {
	p := fixture.New(fixture.Demo())
	w, err := walker.New(p, walker.Options{MaxDepth: walker.DefaultMaxDepth})
	require.NoError(t, err)
	eng := watch.New(w, watch.Options{Interval: time.Millisecond, MaxTicks: 1})

	var logs bytes.Buffer
	a, err := newApp(goterm.NewScreen(80, 24), eng, nil, slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, err)

	// The loop has returned with its only tick still buffered.
	require.NoError(t, eng.Run(t.Context(), func(tk watch.Tick) error {
		a.ticks <- tk
		return nil
	}))
	_, ok := a.View().Selected()
	require.False(t, ok)

	a.drainTicks()
	a.View().End()
	e, ok := a.View().Selected()
	require.True(t, ok)
	assert.Equal(t, "OK", e.Label)

	a.apply(watch.Tick{Index: 2, At: time.Now(), Err: errors.New("no frontmost app")})
	screen := goterm.NewScreen(80, 24)
	require.NoError(t, a.View().Render(screen))
	status := row(screen, 1)
	assert.Contains(t, status, "[stopped]")
	assert.Contains(t, status, "no frontmost app")
	assert.Empty(t, logs.String(), "nothing is written over the full-screen view")
}
