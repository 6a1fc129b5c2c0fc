package element

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dshills/goax/pkg/domain/types"
)

var generationCounter atomic.Uint64

func nextGeneration() types.Generation {
	return types.Generation(generationCounter.Add(1))
}

// CaptureInfo is the metadata a walker gathers alongside the elements.
type CaptureInfo struct {
	FocusedApp   string
	ScreenWidth  int
	ScreenHeight int
	Timestamp    time.Time
	SkippedCount int
	MaxDepth     int
}

// Snapshot is an immutable capture of an accessibility tree.
//
// Elements are in traversal order and Elements[i].ID == i. Callers must treat
// every field as read-only; refreshing produces a new Snapshot with a new
// Generation.
type Snapshot struct {
	Elements     []Element        `json:"elements"`
	FocusedApp   string           `json:"focused_app"`
	Timestamp    time.Time        `json:"timestamp"`
	ScreenWidth  int              `json:"screen_width"`
	ScreenHeight int              `json:"screen_height"`
	SkippedCount int              `json:"skipped_count"`
	MaxDepth     int              `json:"max_depth"`
	Generation   types.Generation `json:"generation"`
}

// NewSnapshot seals elems into a Snapshot. Identifiers are (re)assigned from
// traversal position; a ParentID must refer to an earlier element.
func NewSnapshot(info CaptureInfo, elems []Element) (*Snapshot, error) {
	sealed := make([]Element, len(elems))
	for i, e := range elems {
		e.ID = types.ElementID(i)
		if e.ParentID != nil {
			p := *e.ParentID
			if p < 0 || int(p) >= i {
				return nil, fmt.Errorf("element %d: parent %d does not precede it in traversal order", i, p)
			}
			parent := p
			e.ParentID = &parent
		}
		if info.MaxDepth > 0 && e.Depth > info.MaxDepth {
			return nil, fmt.Errorf("element %d: depth %d exceeds max depth %d", i, e.Depth, info.MaxDepth)
		}
		if len(e.Actions) > 0 {
			e.Actions = append([]string(nil), e.Actions...)
		}
		e.BBox = NewBoundingBox(e.BBox.X, e.BBox.Y, e.BBox.Width, e.BBox.Height)
		sealed[i] = e
	}

	ts := info.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return &Snapshot{
		Elements:     sealed,
		FocusedApp:   info.FocusedApp,
		Timestamp:    ts,
		ScreenWidth:  info.ScreenWidth,
		ScreenHeight: info.ScreenHeight,
		SkippedCount: info.SkippedCount,
		MaxDepth:     info.MaxDepth,
		Generation:   nextGeneration(),
	}, nil
}

// Len returns the number of elements.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Elements)
}

// Element returns the element with the given id.
func (s *Snapshot) Element(id types.ElementID) (Element, bool) {
	if s == nil || id < 0 || int(id) >= len(s.Elements) {
		return Element{}, false
	}
	return s.Elements[id], true
}

// Filter returns the elements matching f, in traversal order, with their
// original identifiers. The Snapshot itself is unchanged.
func (s *Snapshot) Filter(f Filter) []Element {
	if s == nil {
		return nil
	}
	out := make([]Element, 0, len(s.Elements))
	for _, e := range s.Elements {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Filter is the post-traversal view over a Snapshot.
type Filter struct {
	// Role, when set, must equal the element role exactly.
	Role Role
	// Label, when set, must be a case-insensitive substring of the element label.
	Label string
	// EnabledOnly hides disabled elements.
	EnabledOnly bool
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.Role == "" && f.Label == "" && !f.EnabledOnly
}

// Matches reports whether e passes the filter.
func (f Filter) Matches(e Element) bool {
	if f.EnabledOnly && !e.Enabled {
		return false
	}
	if f.Role != "" && e.Role != f.Role {
		return false
	}
	if f.Label != "" && !strings.Contains(strings.ToLower(e.Label), strings.ToLower(f.Label)) {
		return false
	}
	return true
}
