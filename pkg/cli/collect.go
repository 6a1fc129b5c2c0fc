package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/goax/pkg/collector"
	"github.com/dshills/goax/pkg/dataset"
	"github.com/dshills/goax/pkg/domain/element"
	"github.com/dshills/goax/pkg/domain/session"
	axerrors "github.com/dshills/goax/pkg/errors"
	"github.com/dshills/goax/pkg/walker"
)

// CollectFlags holds the flags for the collect command
type CollectFlags struct {
	Output      string
	App         string
	Action      string
	Auto        bool
	AutoRefresh bool
	DryRun      bool
}

// NewCollectCommand creates the collect command
func NewCollectCommand() *cobra.Command {
	flags := &CollectFlags{}

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Interactively record (command, element) training samples",
		Long: `Start an interactive collection session.

Commands:
  r              capture the frontmost application and list its elements
  s <id>         record a command for element <id> without acting on it
  c <id>         click element <id>, then optionally record a command for it
  stats          show session statistics
  help           show this help
  q              finish the session

Every sample is appended to the dataset as one JSON line and indexed in the
session database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Dataset file (default from config)")
	cmd.Flags().StringVarP(&flags.App, "app", "a", "", "Only accept captures from applications whose name contains this")
	cmd.Flags().StringVar(&flags.Action, "action", "", "Action c performs and samples record (default from config)")
	cmd.Flags().BoolVar(&flags.Auto, "auto", false, "Generate commands from templates instead of prompting")
	cmd.Flags().BoolVar(&flags.AutoRefresh, "auto-refresh", false, "Capture again after every click")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Count samples without writing them")

	return cmd
}

func runCollect(cmd *cobra.Command, flags *CollectFlags) error {
	cfg := current.cfg.Collector
	output := flags.Output
	if output == "" {
		output = cfg.Output
	}
	actionName := flags.Action
	if actionName == "" {
		actionName = cfg.Action
	}
	kind, err := element.ParseActionKind(actionName)
	if err != nil {
		return axerrors.Wrap(axerrors.Invalid, "--action", err)
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	opts := walkerOptions()
	w, err := e.walker(opts)
	if err != nil {
		return err
	}
	x, err := e.executor()
	if err != nil {
		return err
	}

	copts := collector.Options{
		OutputPath:  output,
		AppFilter:   flags.App,
		Action:      kind,
		Auto:        flags.Auto,
		Templates:   cfg.AutoTemplates,
		AutoRefresh: flags.AutoRefresh || cfg.AutoRefresh,
		DryRun:      flags.DryRun,
		Dispatcher:  x,
		Logger:      current.logger,
	}

	if !flags.DryRun {
		writer, err := dataset.OpenWriter(output)
		if err != nil {
			return err
		}
		defer writer.Close()
		copts.Sink = writer
	}

	repo, err := sessionRepository()
	if err != nil {
		current.logger.Warn("session index unavailable, continuing without it", "error", err)
	} else {
		defer repo.Close()
		copts.Repository = repo
	}

	c, err := collector.New(w, copts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", paint(colorBold, "Collecting training data"), paint(colorGray, "session "+c.Session().ID.String()))
	if flags.DryRun {
		fmt.Fprintln(out, paint(colorYellow, "Dry run: samples will not be written"))
	} else {
		fmt.Fprintf(out, "Output: %s\n", output)
	}
	fmt.Fprintln(out, "Type 'help' for commands.")

	loopErr := (&collectLoop{lineReader: newLineReader(cmd.InOrStdin(), out), c: c, w: w, auto: flags.Auto}).run()

	if err := c.Close(loopErr); err != nil {
		current.logger.Warn("failed to close session", "error", err)
	}
	printCollectSummary(out, c.Session(), c.Stats())
	return loopErr
}

// lineReader prompts on out and reads one trimmed line at a time from in.
type lineReader struct {
	in  *bufio.Scanner
	out io.Writer
}

func newLineReader(in io.Reader, out io.Writer) lineReader {
	return lineReader{in: bufio.NewScanner(in), out: out}
}

// prompt reports false at end of input.
func (r lineReader) prompt(p string) (string, bool) {
	fmt.Fprint(r.out, p)
	if !r.in.Scan() {
		fmt.Fprintln(r.out)
		return "", false
	}
	return strings.TrimSpace(r.in.Text()), true
}

// report prints a step failure and passes fatal ones through.
func (r lineReader) report(err error) error {
	if err == nil || axerrors.IsFatal(err) {
		return err
	}
	fmt.Fprintln(r.out, paint(colorRed, "Error: "+err.Error()))
	return nil
}

// collectLoop reads commands until q or end of input.
type collectLoop struct {
	lineReader
	c    *collector.Collector
	w    *walker.Walker
	auto bool
}

func (l *collectLoop) run() error {
	for {
		line, ok := l.prompt("> ")
		if !ok {
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		var err error
		switch strings.ToLower(fields[0]) {
		case "q", "quit", "exit":
			return nil
		case "h", "help", "?":
			l.help()
		case "r", "refresh":
			err = l.refresh()
		case "s", "select":
			err = l.record(fields[1:])
		case "c", "click":
			err = l.act(fields[1:])
		case "stats":
			l.stats()
		default:
			fmt.Fprintf(l.out, "%s %q, type 'help' for commands\n", paint(colorYellow, "Unknown command"), fields[0])
		}

		if err := l.report(err); err != nil {
			return err
		}
	}
}

func (l *collectLoop) help() {
	fmt.Fprintln(l.out, `  r          refresh and list elements
  s <id>     record a command for an element
  c <id>     click an element, then record
  stats      session statistics
  q          quit`)
}

func (l *collectLoop) refresh() error {
	snap, err := l.c.Refresh()
	if err != nil {
		return err
	}
	elems := l.w.View(snap)
	printSnapshotHeader(l.out, snap, len(elems))
	printElements(l.out, elems)
	return nil
}

func (l *collectLoop) selectTarget(args []string) (element.Element, error) {
	if len(args) != 1 {
		return element.Element{}, axerrors.New(axerrors.Invalid, "select", "expected one element id")
	}
	id, err := parseElementID(args[0])
	if err != nil {
		return element.Element{}, err
	}
	target, err := l.c.Select(id)
	if err != nil {
		return element.Element{}, err
	}
	fmt.Fprintf(l.out, "Selected: %s\n", paint(colorCyan, fmt.Sprintf("%s %q", target.Role, target.Label)))
	return target, nil
}

func (l *collectLoop) readCommand(p string) (string, bool) {
	if l.auto {
		return "", true
	}
	return l.prompt(p)
}

func (l *collectLoop) record(args []string) error {
	if _, err := l.selectTarget(args); err != nil {
		return err
	}
	text, ok := l.readCommand("Command: ")
	if !ok {
		return l.c.Skip()
	}
	if text == "" && !l.auto {
		fmt.Fprintln(l.out, paint(colorGray, "Skipped"))
		return l.c.Skip()
	}
	res, err := l.c.Record(text)
	if err != nil {
		if skipErr := l.c.Skip(); skipErr != nil {
			current.logger.Debug("skip after failed record", "error", skipErr)
		}
		return err
	}
	l.recorded(res)
	return nil
}

func (l *collectLoop) act(args []string) error {
	if _, err := l.selectTarget(args); err != nil {
		return err
	}
	text, ok := l.readCommand("Command (or Enter to skip recording): ")
	if !ok {
		return l.c.Skip()
	}
	res, err := l.c.Act(text)
	if res != nil && res.Outcome != nil {
		fmt.Fprintf(l.out, "%s %s at (%d, %d)\n", paint(colorGreen, "✓"), res.Outcome.Kind, res.Outcome.X, res.Outcome.Y)
	}
	if err != nil {
		if l.c.State().Phase == collector.PhaseAwaitingCommand {
			if skipErr := l.c.Skip(); skipErr != nil {
				current.logger.Debug("skip after failed action", "error", skipErr)
			}
		}
		return err
	}
	if res.Sample != nil {
		l.recorded(res)
	}
	return nil
}

func (l *collectLoop) recorded(res *collector.Result) {
	where := "dry run"
	if res.Line > 0 {
		where = fmt.Sprintf("line %d", res.Line)
	}
	fmt.Fprintf(l.out, "%s Recorded #%d %q (%s)\n", paint(colorGreen, "✓"), res.Seq, res.Sample.Command, where)
}

func (l *collectLoop) stats() {
	st := l.c.Stats()
	fmt.Fprintf(l.out, "Samples: %d  Elapsed: %s  Rate: %.1f/min  State: %s\n",
		st.Samples, formatDurationValue(st.Elapsed), st.RatePerMinute, l.c.State().Phase)
}

func printCollectSummary(w io.Writer, s *session.Session, st session.Stats) {
	fmt.Fprintln(w, paint(colorGray, strings.Repeat("─", 60)))
	fmt.Fprintf(w, "Session %s %s\n", s.ID, colorizeStatus(s.Status))
	fmt.Fprintf(w, "Collected %d samples in %s (%.1f/min)\n", st.Samples, formatDurationValue(st.Elapsed), st.RatePerMinute)
	if s.Error != "" {
		fmt.Fprintln(w, paint(colorRed, s.Error))
	}
}
