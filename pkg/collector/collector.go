// Package collector pairs user-chosen elements with natural-language commands
// and appends them to the training dataset.
//
// A Collector is an explicit state machine:
//
//	Idle --Refresh--> SnapshotReady --Select--> AwaitingCommand
//	AwaitingCommand --Record--> SnapshotReady (same snapshot)
//	AwaitingCommand --Act--> SnapshotReady (fresh snapshot, auto-refresh) or Idle
//	AwaitingCommand --Skip--> SnapshotReady
//
// Element ids are only ever resolved against the snapshot the state holds, so
// an id picked from one capture can never be recorded against another.
// A Collector is not safe for concurrent use.
package collector

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dshills/goax/pkg/action"
	"github.com/dshills/goax/pkg/config"
	"github.com/dshills/goax/pkg/domain/element"
	"github.com/dshills/goax/pkg/domain/session"
	"github.com/dshills/goax/pkg/domain/types"
	axerrors "github.com/dshills/goax/pkg/errors"
	"github.com/dshills/goax/pkg/query"
)

// Phase is the state tag.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSnapshotReady
	PhaseAwaitingCommand
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSnapshotReady:
		return "snapshot-ready"
	case PhaseAwaitingCommand:
		return "awaiting-command"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// State is the current collector state. Snapshot is nil when Idle; Target is
// set only while AwaitingCommand.
type State struct {
	Phase    Phase
	Snapshot *element.Snapshot
	Target   *element.Element
}

// Capturer produces a fresh Snapshot. *walker.Walker satisfies it.
type Capturer interface {
	CaptureFrontmost() (*element.Snapshot, error)
}

// Dispatcher performs an action on a resolved element. *action.Executor
// satisfies it.
type Dispatcher interface {
	Dispatch(a element.Action, target *element.Element) (action.Outcome, error)
}

// Sink receives samples and reports the line each was written to.
// *dataset.Writer satisfies it.
type Sink interface {
	Append(s *element.TrainingSample) (int, error)
}

// Options configures a Collector.
type Options struct {
	// OutputPath is recorded in the session; the Sink does the writing.
	OutputPath string
	// AppFilter keeps only captures whose focused application contains it,
	// case-insensitively.
	AppFilter string
	// Action is dispatched by Act and recorded as the sample's action type.
	// Default: click.
	Action element.ActionKind
	// Auto renders commands from Templates when Record or Act get none.
	Auto bool
	// Templates defaults to config.DefaultTemplates.
	Templates []string
	// AutoRefresh captures again after a dispatched action.
	AutoRefresh bool
	// DryRun counts samples without writing them.
	DryRun bool

	Sink       Sink
	Dispatcher Dispatcher
	// Repository indexes the session and its samples when set.
	Repository session.Repository
	Logger     *slog.Logger
}

// Result describes one recorded or dispatched step.
type Result struct {
	// Sample is nil when Act ran without a command.
	Sample *element.TrainingSample
	// Seq numbers samples within the session from 1.
	Seq int
	// Line is the dataset line written, 0 in dry-run.
	Line    int
	Outcome *action.Outcome
}

// Collector runs one collection session.
type Collector struct {
	capture  Capturer
	opts     Options
	logger   *slog.Logger
	renderer *query.Renderer
	sess     *session.Session
	state    State
}

// New starts a session. The session is saved to the repository immediately.
func New(c Capturer, opts Options) (*Collector, error) {
	if c == nil {
		return nil, fmt.Errorf("capturer cannot be nil")
	}
	if opts.Sink == nil && !opts.DryRun {
		return nil, axerrors.New(axerrors.Invalid, "collector", "a sink is required unless dry-run is set")
	}
	if opts.Action == "" {
		opts.Action = element.ActionClick
	}
	if _, err := element.ParseActionKind(string(opts.Action)); err != nil {
		return nil, axerrors.Wrap(axerrors.Invalid, "collector", err)
	}
	if opts.Action.NeedsPayload() {
		return nil, axerrors.New(axerrors.Invalid, "collector", "action %s needs text and cannot be collected", opts.Action)
	}
	if len(opts.Templates) == 0 {
		opts.Templates = config.DefaultTemplates
	}

	renderer := query.NewRenderer()
	renderer.SetStrictMode(true)
	for _, tmpl := range opts.Templates {
		if err := renderer.Validate(tmpl); err != nil {
			return nil, axerrors.Wrap(axerrors.Invalid, "collector template", err)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sess, err := session.New(session.Config{
		OutputPath: opts.OutputPath,
		AppFilter:  opts.AppFilter,
		Auto:       opts.Auto,
		DryRun:     opts.DryRun,
	})
	if err != nil {
		return nil, axerrors.Wrap(axerrors.Invalid, "collector", err)
	}
	if opts.Repository != nil {
		if err := opts.Repository.Save(sess); err != nil {
			return nil, fmt.Errorf("failed to index session: %w", err)
		}
	}

	logger.Debug("collector: session started", "session", sess.ID, "output", opts.OutputPath, "dry_run", opts.DryRun)
	return &Collector{
		capture:  c,
		opts:     opts,
		logger:   logger.With("session", sess.ID.String()),
		renderer: renderer,
		sess:     sess,
	}, nil
}

// Session returns the session record.
func (c *Collector) Session() *session.Session {
	return c.sess
}

// State returns the current state.
func (c *Collector) State() State {
	return c.state
}

// Stats returns the session throughput.
func (c *Collector) Stats() session.Stats {
	return c.sess.Stats()
}

// Refresh captures the frontmost application. On success the collector is
// SnapshotReady with the new capture. A capture from an application the filter
// excludes returns NotFound and leaves the state unchanged.
func (c *Collector) Refresh() (*element.Snapshot, error) {
	if err := c.running(); err != nil {
		return nil, err
	}

	snap, err := c.capture.CaptureFrontmost()
	if err != nil {
		err = axerrors.Classify("capture", err)
		return nil, c.opError("refresh", 0, nil, err)
	}

	if f := c.opts.AppFilter; f != "" && !strings.Contains(strings.ToLower(snap.FocusedApp), strings.ToLower(f)) {
		return nil, axerrors.New(axerrors.NotFound, "refresh",
			"%s doesn't match filter %q", snap.FocusedApp, f)
	}

	c.state = State{Phase: PhaseSnapshotReady, Snapshot: snap}
	c.logger.Debug("collector: snapshot ready", "app", snap.FocusedApp, "elements", snap.Len(), "generation", snap.Generation)
	return snap, nil
}

// Select picks the element with id in the current snapshot. From Idle it
// captures first. An unknown id returns NotFound and leaves the state unchanged.
func (c *Collector) Select(id types.ElementID) (element.Element, error) {
	if err := c.running(); err != nil {
		return element.Element{}, err
	}
	if c.state.Phase == PhaseIdle {
		if _, err := c.Refresh(); err != nil {
			return element.Element{}, err
		}
	}

	snap := c.state.Snapshot
	e, ok := snap.Element(id)
	if !ok {
		return element.Element{}, axerrors.New(axerrors.NotFound, "select",
			"element %d not found in snapshot of %d elements", id, snap.Len())
	}
	c.state = State{Phase: PhaseAwaitingCommand, Snapshot: snap, Target: &e}
	return e, nil
}

// Skip drops the pending target.
func (c *Collector) Skip() error {
	if c.state.Phase != PhaseAwaitingCommand {
		return c.phaseError("skip", PhaseAwaitingCommand)
	}
	c.state = State{Phase: PhaseSnapshotReady, Snapshot: c.state.Snapshot}
	return nil
}

// AutoCommand renders the command template for the pending target. The
// template is picked by the label length so the same element always gets the
// same phrasing.
func (c *Collector) AutoCommand() (string, error) {
	if c.state.Phase != PhaseAwaitingCommand {
		return "", c.phaseError("auto command", PhaseAwaitingCommand)
	}
	return c.render(*c.state.Target, c.state.Snapshot.FocusedApp)
}

func (c *Collector) render(e element.Element, app string) (string, error) {
	label := e.Label
	if label == "" && e.Description != nil {
		label = *e.Description
	}
	if label == "" {
		label = string(e.Role)
	}
	tmpl := c.opts.Templates[len(label)%len(c.opts.Templates)]
	vars := map[string]string{
		"label": strings.ToLower(label),
		"role":  string(e.Role),
		"app":   app,
	}
	cmd, err := c.renderer.Render(tmpl, vars)
	if err != nil {
		return "", axerrors.Wrap(axerrors.Invalid, "auto command", err)
	}
	return strings.TrimSpace(cmd), nil
}

// Record writes a sample for the pending target without acting on it, then
// returns to SnapshotReady on the same snapshot. An empty command is rendered
// from the templates in auto mode and rejected otherwise.
func (c *Collector) Record(command string) (*Result, error) {
	if err := c.running(); err != nil {
		return nil, err
	}
	if c.state.Phase != PhaseAwaitingCommand {
		return nil, c.phaseError("record", PhaseAwaitingCommand)
	}

	command, err := c.command(command)
	if err != nil {
		return nil, err
	}
	if command == "" {
		return nil, axerrors.New(axerrors.Invalid, "record", "command must not be empty")
	}

	res, err := c.write(command)
	if err != nil {
		return nil, err
	}
	c.state = State{Phase: PhaseSnapshotReady, Snapshot: c.state.Snapshot}
	return res, nil
}

// Act dispatches the configured action on the pending target and, when a
// command is given (or rendered in auto mode), records it against the
// snapshot the target was chosen from. Afterwards the collector captures again
// when AutoRefresh is set, and is Idle otherwise.
//
// A failed dispatch leaves the state unchanged and records nothing.
func (c *Collector) Act(command string) (*Result, error) {
	if err := c.running(); err != nil {
		return nil, err
	}
	if c.state.Phase != PhaseAwaitingCommand {
		return nil, c.phaseError("act", PhaseAwaitingCommand)
	}
	if c.opts.Dispatcher == nil {
		return nil, axerrors.New(axerrors.Invalid, "act", "no dispatcher configured")
	}

	command, err := c.command(command)
	if err != nil {
		return nil, err
	}

	target := c.state.Target
	out, err := c.opts.Dispatcher.Dispatch(element.Action{Kind: c.opts.Action}, target)
	if err != nil {
		id := target.ID
		return nil, c.opError(string(c.opts.Action), c.state.Snapshot.Generation, &id, err)
	}

	res := &Result{Outcome: &out}
	if command != "" {
		res, err = c.write(command)
		if err != nil {
			return nil, err
		}
		res.Outcome = &out
	}

	c.state = State{Phase: PhaseIdle}
	if c.opts.AutoRefresh {
		if _, err := c.Refresh(); err != nil {
			c.logger.Warn("collector: refresh after action failed", "error", err)
			return res, err
		}
	}
	return res, nil
}

// Close ends the session: completed when cause is nil, failed otherwise.
func (c *Collector) Close(cause error) error {
	if c.sess.Status.IsTerminal() {
		return nil
	}
	var err error
	if cause == nil {
		err = c.sess.Complete()
	} else {
		err = c.sess.Fail(cause)
	}
	if err != nil {
		return err
	}
	c.state = State{Phase: PhaseIdle}

	stats := c.sess.Stats()
	c.logger.Debug("collector: session closed", "status", c.sess.Status, "samples", stats.Samples, "elapsed", stats.Elapsed)
	if c.opts.Repository != nil {
		if err := c.opts.Repository.Save(c.sess); err != nil {
			return fmt.Errorf("failed to index session: %w", err)
		}
	}
	return nil
}

func (c *Collector) command(command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" && c.opts.Auto {
		return c.AutoCommand()
	}
	return command, nil
}

// write builds the sample for the pending target and persists it.
func (c *Collector) write(command string) (*Result, error) {
	snap := c.state.Snapshot
	target := c.state.Target
	id := target.ID

	sample, err := element.NewTrainingSample(snap, command, id, c.opts.Action)
	if err != nil {
		return nil, c.opError("build sample", snap.Generation, &id, err)
	}
	sample.SessionID = c.sess.ID

	line := 0
	if !c.opts.DryRun {
		line, err = c.opts.Sink.Append(sample)
		if err != nil {
			return nil, c.opError("write sample", snap.Generation, &id, err)
		}
	}
	if err := c.sess.RecordSample(); err != nil {
		return nil, err
	}
	seq := c.sess.SampleCount

	c.index(sample, target, seq, line)
	c.logger.Info("collector: sample recorded",
		"seq", seq,
		"command", command,
		"target", id,
		"role", target.Role,
		"label", target.Label,
		"line", line)
	return &Result{Sample: sample, Seq: seq, Line: line}, nil
}

// index mirrors the sample into the session repository. The dataset is the
// source of truth, so index failures are logged and do not fail the step.
func (c *Collector) index(sample *element.TrainingSample, target *element.Element, seq, line int) {
	repo := c.opts.Repository
	if repo == nil {
		return
	}
	rec := &session.SampleRecord{
		SessionID:       c.sess.ID,
		Seq:             seq,
		Command:         sample.Command,
		ActionType:      string(sample.ActionType),
		TargetElementID: target.ID,
		TargetRole:      string(target.Role),
		TargetLabel:     target.Label,
		FocusedApp:      sample.ScreenState.FocusedApp,
		Line:            line,
		CreatedAt:       sample.CreatedAt,
	}
	if err := repo.SaveSample(rec); err != nil {
		c.logger.Warn("collector: failed to index sample", "seq", seq, "error", err)
		return
	}
	if err := repo.Save(c.sess); err != nil {
		c.logger.Warn("collector: failed to update session", "error", err)
	}
}

func (c *Collector) running() error {
	if c.sess.Status.IsTerminal() {
		return axerrors.New(axerrors.Invalid, "collector", "session %s is %s", c.sess.ID, c.sess.Status)
	}
	return nil
}

func (c *Collector) phaseError(op string, want Phase) error {
	return axerrors.New(axerrors.Invalid, op, "expected state %s, collector is %s", want, c.state.Phase)
}

// opError attaches session context to a failure. A fatal failure also fails
// the session.
func (c *Collector) opError(op string, gen types.Generation, id *types.ElementID, err error) error {
	oe := axerrors.NewOperationalError(op, c.sess.ID, gen, id, err)
	c.logger.Debug("collector: step failed", "error", oe)
	if axerrors.IsFatal(err) {
		if cerr := c.Close(err); cerr != nil {
			return errors.Join(oe, cerr)
		}
	}
	return oe
}

// Elapsed is how long the session has been running.
func (c *Collector) Elapsed() time.Duration {
	return c.sess.Duration()
}
