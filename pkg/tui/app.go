// Package tui is the full-screen terminal front end for `ax watch --tui`.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/goterm"

	"github.com/dshills/goax/pkg/watch"
)

// App drives a WatchView from a watch engine and the keyboard.
type App struct {
	screen *goterm.Screen
	view   *WatchView
	keys   *Keymap
	engine *watch.Engine
	logger *slog.Logger
	input  io.Reader

	ctx       context.Context
	cancel    context.CancelFunc
	inputChan chan Key
	ticks     chan watch.Tick
}

// NewApp takes over the terminal.
func NewApp(engine *watch.Engine, logger *slog.Logger) (*App, error) {
	screen, err := goterm.Init()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %w", err)
	}
	return newApp(screen, engine, os.Stdin, logger)
}

func newApp(screen *goterm.Screen, engine *watch.Engine, input io.Reader, logger *slog.Logger) (*App, error) {
	if engine == nil {
		return nil, fmt.Errorf("watch engine cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		screen:    screen,
		view:      NewWatchView(),
		keys:      NewKeymap(),
		engine:    engine,
		logger:    logger,
		input:     input,
		inputChan: make(chan Key, 100),
		ticks:     make(chan watch.Tick, 1),
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	if err := a.registerBindings(); err != nil {
		return nil, fmt.Errorf("failed to register keybindings: %w", err)
	}
	return a, nil
}

// View returns the rendered view.
func (a *App) View() *WatchView {
	return a.view
}

func (a *App) registerBindings() error {
	move := func(n int) func() error {
		return func() error {
			a.view.Move(n)
			return nil
		}
	}
	bindings := []struct {
		hint string
		run  func() error
		keys []Key
	}{
		{"quit", func() error { a.cancel(); return nil }, []Key{"q", Ctrl('c')}},
		{"pause", func() error { a.view.TogglePause(); return nil }, []Key{"p", " "}},
		{"details", func() error { a.view.ToggleDetail(); return nil }, []Key{KeyEnter}},
		{"up", move(-1), []Key{KeyUp, "k"}},
		{"down", move(1), []Key{KeyDown, "j"}},
		{"", move(-10), []Key{KeyPageUp}},
		{"", move(10), []Key{KeyPageDown}},
	}
	for _, b := range bindings {
		if err := a.keys.Bind(b.hint, b.run, b.keys...); err != nil {
			return err
		}
	}
	a.view.SetHelp(a.keys.Help())
	return nil
}

// Run polls and renders until the user quits, ctx ends, or the watch loop
// stops with an error.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-a.ctx.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	done := make(chan error, 1)
	go func() {
		done <- a.engine.Run(ctx, func(tk watch.Tick) error {
			select {
			case a.ticks <- tk:
				return nil
			case <-ctx.Done():
				return watch.ErrStop
			}
		})
	}()
	go a.readKeyboardInput(ctx)

	if err := a.render(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-sigChan:
			return nil

		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			// The loop is over; keep the final capture up until the user quits.
			done = nil
			a.drainTicks()
			a.view.End()
			if err := a.render(); err != nil {
				return err
			}

		case key := <-a.inputChan:
			if _, err := a.keys.Handle(key); err != nil {
				return fmt.Errorf("keyboard handler error: %w", err)
			}
			if err := a.render(); err != nil {
				return err
			}

		case tk := <-a.ticks:
			a.apply(tk)
			if err := a.render(); err != nil {
				return err
			}
		}
	}
}

// apply hands a tick to the view. Capture errors go to the status line; the
// logger only records them at debug level since the terminal is in raw mode.
func (a *App) apply(tk watch.Tick) {
	if tk.Err != nil {
		a.logger.Debug("tui: capture failed", "tick", tk.Index, "error", tk.Err)
	}
	a.view.Update(tk, a.engine.Stats())
}

// drainTicks applies ticks emitted before the watch loop returned.
func (a *App) drainTicks() {
	for {
		select {
		case tk := <-a.ticks:
			a.apply(tk)
		default:
			return
		}
	}
}

func (a *App) render() error {
	a.screen.Clear()
	if err := a.view.Render(a.screen); err != nil {
		return fmt.Errorf("view render failed: %w", err)
	}
	if err := a.screen.Show(); err != nil {
		return fmt.Errorf("screen show failed: %w", err)
	}
	return nil
}

// readKeyboardInput forwards raw keystrokes; the terminal is already in raw
// mode from goterm.
func (a *App) readKeyboardInput(ctx context.Context) {
	buf := make([]byte, 32)
	for {
		n, err := a.input.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		select {
		case a.inputChan <- ParseKey(buf[:n]):
		case <-ctx.Done():
			return
		}
	}
}

// Close restores the terminal.
func (a *App) Close() error {
	a.cancel()
	if err := a.screen.Close(); err != nil {
		return fmt.Errorf("failed to close screen: %w", err)
	}
	return nil
}
