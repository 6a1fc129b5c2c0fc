// Package walker captures a provider's accessibility tree into a Snapshot.
//
// Traversal is a bounded pre-order depth-first walk, children in the order the
// provider reports them. A node at depth == MaxDepth is captured but not
// expanded. A node whose attributes cannot be read is skipped with its whole
// subtree; a node whose children cannot be listed is kept and its subtree
// skipped. Both increment the snapshot's SkippedCount and the walk continues.
// Only a PermissionDenied failure aborts a traversal.
package walker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dshills/goax/pkg/domain/element"
	"github.com/dshills/goax/pkg/domain/types"
	axerrors "github.com/dshills/goax/pkg/errors"
	"github.com/dshills/goax/pkg/provider"
)

// DefaultMaxDepth bounds a traversal when the caller has no preference.
const DefaultMaxDepth = 10

// Options configures a Walker.
type Options struct {
	// MaxDepth is the deepest level captured. The root is depth 0.
	MaxDepth int
	// IncludeAll captures every node. By default only interactive or labeled
	// nodes are captured; the descendants of skipped nodes are still visited.
	IncludeAll bool

	// Role, Label and EnabledOnly define the view returned by View. They never
	// prune the traversal.
	Role        element.Role
	Label       string
	EnabledOnly bool

	Logger *slog.Logger
}

// Filter returns the post-traversal view described by the options.
func (o Options) Filter() element.Filter {
	return element.Filter{Role: o.Role, Label: o.Label, EnabledOnly: o.EnabledOnly}
}

// Walker traverses one provider.
type Walker struct {
	provider provider.Provider
	opts     Options
	logger   *slog.Logger
}

// New creates a walker over p.
func New(p provider.Provider, opts Options) (*Walker, error) {
	if p == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	if opts.MaxDepth < 0 {
		return nil, axerrors.New(axerrors.Invalid, "walker", "max depth must be non-negative, got %d", opts.MaxDepth)
	}
	if opts.Role != "" && !opts.Role.IsValid() {
		return nil, axerrors.New(axerrors.Invalid, "walker", "unknown role filter %q", opts.Role)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{provider: p, opts: opts, logger: logger}, nil
}

// Options returns the walker configuration.
func (w *Walker) Options() Options {
	return w.opts
}

// CaptureFrontmost captures the application that currently holds focus.
func (w *Walker) CaptureFrontmost() (*element.Snapshot, error) {
	app, err := w.provider.FrontmostApp()
	if err != nil {
		return nil, axerrors.Classify("frontmost app", err)
	}
	return w.Capture(app)
}

// Capture resolves app's root, name and the screen size, then traverses.
func (w *Walker) Capture(app types.AppHandle) (*element.Snapshot, error) {
	root, err := w.provider.Root(app)
	if err != nil {
		return nil, axerrors.Classify("root element", err)
	}

	name, err := w.provider.AppName(app)
	if err != nil {
		if axerrors.IsFatal(err) {
			return nil, err
		}
		w.logger.Debug("app name unavailable", "error", err)
		name = "Unknown"
	}

	width, height, err := w.provider.ScreenSize()
	if err != nil {
		if axerrors.IsFatal(err) {
			return nil, err
		}
		w.logger.Debug("screen size unavailable", "error", err)
		width, height = 0, 0
	}

	return w.traverse(root, element.CaptureInfo{
		FocusedApp:   name,
		ScreenWidth:  width,
		ScreenHeight: height,
	})
}

// Traverse walks the tree under root. The snapshot carries no application
// name or screen size; use Capture for those.
func (w *Walker) Traverse(root types.ElementHandle) (*element.Snapshot, error) {
	return w.traverse(root, element.CaptureInfo{})
}

// View applies the configured filter to snap.
func (w *Walker) View(snap *element.Snapshot) []element.Element {
	return snap.Filter(w.opts.Filter())
}

type walkState struct {
	elems   []element.Element
	skipped int
}

func (w *Walker) traverse(root types.ElementHandle, info element.CaptureInfo) (*element.Snapshot, error) {
	if root == nil {
		return nil, axerrors.New(axerrors.ProviderUnavailable, "traverse", "no root element")
	}

	// The root itself must be readable; a tree with no readable root has no
	// partial result to return.
	if _, err := w.provider.Attributes(root); err != nil {
		return nil, axerrors.Classify("root attributes", err)
	}

	start := time.Now()
	st := &walkState{}
	if err := w.walk(root, 0, nil, st); err != nil {
		return nil, err
	}

	info.MaxDepth = w.opts.MaxDepth
	info.SkippedCount = st.skipped
	info.Timestamp = time.Now()

	snap, err := element.NewSnapshot(info, st.elems)
	if err != nil {
		return nil, fmt.Errorf("failed to seal snapshot: %w", err)
	}

	w.logger.Debug("traversal complete",
		"app", info.FocusedApp,
		"elements", snap.Len(),
		"skipped", st.skipped,
		"generation", snap.Generation,
		"duration", time.Since(start))
	return snap, nil
}

func (w *Walker) walk(h types.ElementHandle, depth int, parent *types.ElementID, st *walkState) error {
	attrs, err := w.provider.Attributes(h)
	if err != nil {
		err = axerrors.Classify("attributes", err)
		if axerrors.IsFatal(err) {
			return err
		}
		st.skipped++
		w.logger.Debug("skipping subtree", "depth", depth, "error", err)
		return nil
	}

	self := parent
	if w.opts.IncludeAll || provider.IsInteractiveRole(attrs.Role) || attrs.Label != "" {
		id := types.ElementID(len(st.elems))
		st.elems = append(st.elems, element.Element{
			ID:          id,
			Role:        provider.NormalizeRole(attrs.Role),
			Label:       attrs.Label,
			BBox:        attrs.BBox,
			Enabled:     attrs.Enabled,
			Focused:     attrs.Focused,
			Value:       attrs.Value,
			Description: attrs.Description,
			Actions:     attrs.Actions,
			Depth:       depth,
			ParentID:    parent,
		}.WithHandle(h))
		self = &id
	}

	if depth >= w.opts.MaxDepth {
		return nil
	}

	children, err := w.provider.Children(h)
	if err != nil {
		err = axerrors.Classify("children", err)
		if axerrors.IsFatal(err) {
			return err
		}
		st.skipped++
		w.logger.Debug("skipping children", "depth", depth, "label", attrs.Label, "error", err)
		return nil
	}

	for _, c := range children {
		if err := w.walk(c, depth+1, self, st); err != nil {
			return err
		}
	}
	return nil
}
