package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/goax/pkg/domain/element"
	axerrors "github.com/dshills/goax/pkg/errors"
	"github.com/dshills/goax/pkg/tui"
	"github.com/dshills/goax/pkg/watch"
)

// WatchFlags holds the flags for the watch command
type WatchFlags struct {
	Interval time.Duration
	Count    int
	TUI      bool
	Output   string
}

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	flags := &WatchFlags{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the frontmost application for changes",
		Long: `Poll the accessibility tree and print what was added, removed, or changed
between consecutive captures. Elements are matched by role and label, not by
identifier.

Examples:
  ax watch --interval 250ms
  ax watch --count 5 --output changes.jsonl
  ax watch --tui`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, flags)
		},
	}

	cmd.Flags().DurationVarP(&flags.Interval, "interval", "i", 0, "Polling interval (default from config)")
	cmd.Flags().IntVarP(&flags.Count, "count", "n", 0, "Stop after this many ticks (0 runs until interrupted)")
	cmd.Flags().BoolVar(&flags.TUI, "tui", false, "Full-screen terminal view")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Also append every tick to this JSON lines file")

	return cmd
}

func runWatch(cmd *cobra.Command, flags *WatchFlags) error {
	if flags.Interval < 0 {
		return axerrors.New(axerrors.Invalid, "watch", "interval must be positive")
	}
	if flags.Count < 0 {
		return axerrors.New(axerrors.Invalid, "watch", "count must be non-negative")
	}
	interval := flags.Interval
	if interval == 0 {
		interval = current.cfg.Watch.Interval
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	w, err := e.walker(walkerOptions())
	if err != nil {
		return err
	}
	engine := watch.New(w, watch.Options{
		Interval: interval,
		MaxTicks: flags.Count,
		Logger:   current.logger,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if flags.TUI {
		app, err := tui.NewApp(engine, current.logger)
		if err != nil {
			return err
		}
		defer app.Close()
		return app.Run(ctx)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var record *json.Encoder
	if flags.Output != "" {
		f, err := os.OpenFile(flags.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return axerrors.Wrap(axerrors.Invalid, "open watch output", err)
		}
		defer f.Close()
		record = json.NewEncoder(f)
	}

	out := cmd.OutOrStdout()
	err = engine.Run(ctx, func(tk watch.Tick) error {
		if record != nil {
			if err := record.Encode(newTickRecord(tk)); err != nil {
				return fmt.Errorf("failed to write tick: %w", err)
			}
		}
		if GlobalConfig.JSON {
			return json.NewEncoder(out).Encode(newTickRecord(tk))
		}
		printTick(out, tk)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		return err
	}

	if !GlobalConfig.JSON {
		stats := engine.Stats()
		fmt.Fprintf(out, "%s\n", paint(colorGray, fmt.Sprintf("%d ticks, %d with changes, %d errors",
			stats.Ticks, stats.Changes, stats.Errors)))
	}
	return nil
}

// tickRecord is one line of watch output in JSON form.
type tickRecord struct {
	Tick       int            `json:"tick"`
	At         time.Time      `json:"at"`
	Baseline   bool           `json:"baseline,omitempty"`
	App        string         `json:"app,omitempty"`
	Generation uint64         `json:"generation,omitempty"`
	Elements   int            `json:"elements"`
	Delta      *element.Delta `json:"delta,omitempty"`
	Error      string         `json:"error,omitempty"`
}

func newTickRecord(tk watch.Tick) tickRecord {
	rec := tickRecord{Tick: tk.Index, At: tk.At.UTC(), Baseline: tk.Baseline()}
	if tk.Err != nil {
		rec.Error = tk.Err.Error()
		return rec
	}
	rec.App = tk.Snapshot.FocusedApp
	rec.Generation = uint64(tk.Snapshot.Generation)
	rec.Elements = tk.Snapshot.Len()
	d := tk.Delta
	rec.Delta = &d
	return rec
}

func printTick(w io.Writer, tk watch.Tick) {
	stamp := tk.At.Format("15:04:05")
	if tk.Err != nil {
		fmt.Fprintf(w, "%s %s\n", paint(colorGray, stamp), paint(colorRed, "capture failed: "+tk.Err.Error()))
		return
	}
	if tk.Baseline() {
		printSnapshotHeader(w, tk.Snapshot, tk.Snapshot.Len())
		printElements(w, tk.Snapshot.Elements)
		return
	}
	if tk.Delta.IsEmpty() {
		return
	}
	for _, k := range tk.Delta.Added {
		fmt.Fprintf(w, "%s %s %s\n", paint(colorGray, stamp), paint(colorGreen, "+"), k)
	}
	for _, k := range tk.Delta.Removed {
		fmt.Fprintf(w, "%s %s %s\n", paint(colorGray, stamp), paint(colorRed, "-"), k)
	}
	for _, c := range tk.Delta.Changed {
		fmt.Fprintf(w, "%s %s %s %s\n", paint(colorGray, stamp), paint(colorYellow, "~"), c.Key, describeChange(c))
	}
}

func describeChange(c element.Change) string {
	var parts []string
	if c.Before.Enabled != c.After.Enabled {
		parts = append(parts, fmt.Sprintf("enabled %t→%t", c.Before.Enabled, c.After.Enabled))
	}
	if c.Before.Focused != c.After.Focused {
		parts = append(parts, fmt.Sprintf("focused %t→%t", c.Before.Focused, c.After.Focused))
	}
	if !sameValue(c.Before.Value, c.After.Value) {
		parts = append(parts, fmt.Sprintf("value %s→%s", quoteValue(c.Before.Value), quoteValue(c.After.Value)))
	}
	return strings.Join(parts, ", ")
}

func sameValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func quoteValue(v *string) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprintf("%q", *v)
}
