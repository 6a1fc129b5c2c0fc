package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dshills/goterm"

	"github.com/dshills/goax/pkg/domain/element"
	"github.com/dshills/goax/pkg/watch"
)

type mark int

const (
	markNone mark = iota
	markAdded
	markChanged
)

var (
	colorText     = goterm.ColorRGB(220, 220, 220)
	colorMuted    = goterm.ColorRGB(136, 136, 136)
	colorAdded    = goterm.ColorRGB(80, 200, 120)
	colorChanged  = goterm.ColorRGB(230, 190, 60)
	colorRemoved  = goterm.ColorRGB(220, 80, 80)
	colorHeaderBg = goterm.ColorRGB(30, 60, 110)
)

// WatchView renders the latest capture of a watch loop, marking what the last
// tick added or changed.
type WatchView struct {
	mu sync.Mutex

	snap    *element.Snapshot
	keys    []element.Key
	marks   map[element.Key]mark
	removed []element.Key
	tick    int
	at      time.Time
	stats   watch.Stats
	lastErr error

	cursor int
	offset int
	paused bool
	detail bool
	ended  bool
	help   string
}

// NewWatchView creates an empty view.
func NewWatchView() *WatchView {
	return &WatchView{marks: make(map[element.Key]mark), help: "q quit"}
}

// SetHelp replaces the key help shown on the bottom row.
func (v *WatchView) SetHelp(help string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.help = help
}

// Update records a tick. While paused only the counters move.
func (v *WatchView) Update(tk watch.Tick, stats watch.Stats) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.stats = stats
	v.tick = tk.Index
	v.at = tk.At
	v.lastErr = tk.Err
	if tk.Err != nil || v.paused {
		return
	}

	v.snap = tk.Snapshot
	v.keys = element.Keys(tk.Snapshot)
	v.marks = make(map[element.Key]mark, len(tk.Delta.Added)+len(tk.Delta.Changed))
	// The baseline adds everything; marking it would highlight every row.
	if !tk.Baseline() {
		for _, k := range tk.Delta.Added {
			v.marks[k] = markAdded
		}
	}
	for _, c := range tk.Delta.Changed {
		v.marks[c.Key] = markChanged
	}
	v.removed = tk.Delta.Removed

	if n := len(v.keys); v.cursor >= n {
		v.cursor = max(n-1, 0)
	}
}

// End marks the watch loop as finished. The last capture stays on screen.
func (v *WatchView) End() {
	v.mu.Lock()
	v.ended = true
	v.mu.Unlock()
}

// Ended reports whether End was called.
func (v *WatchView) Ended() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ended
}

// Move shifts the cursor by n rows, clamped to the element list.
func (v *WatchView) Move(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.snap == nil {
		return
	}
	v.cursor = min(max(v.cursor+n, 0), max(v.snap.Len()-1, 0))
}

// TogglePause freezes or resumes the displayed capture.
func (v *WatchView) TogglePause() {
	v.mu.Lock()
	v.paused = !v.paused
	v.mu.Unlock()
}

// Paused reports whether the display is frozen.
func (v *WatchView) Paused() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.paused
}

// ToggleDetail switches between the element list and the selected element.
func (v *WatchView) ToggleDetail() {
	v.mu.Lock()
	v.detail = !v.detail
	v.mu.Unlock()
}

// Selected returns the element under the cursor.
func (v *WatchView) Selected() (element.Element, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.snap == nil || v.snap.Len() == 0 {
		return element.Element{}, false
	}
	return v.snap.Elements[v.cursor], true
}

// Render draws the view onto screen.
func (v *WatchView) Render(screen *goterm.Screen) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	width, height := screen.Size()
	if width < 20 || height < 5 {
		return fmt.Errorf("terminal too small: %dx%d", width, height)
	}
	bg := goterm.ColorDefault()

	v.drawHeader(screen, width)
	v.drawStatus(screen, width)

	body := height - 4
	if v.detail {
		v.drawDetail(screen, width, body)
	} else {
		v.drawList(screen, width, body)
	}

	v.drawDelta(screen, width, height-2)
	screen.DrawText(0, height-1, clip(v.help, width), colorMuted, bg, goterm.StyleDim)
	return nil
}

func (v *WatchView) drawHeader(screen *goterm.Screen, width int) {
	title := " ax watch"
	if v.snap != nil {
		title = fmt.Sprintf(" ax watch  %s  gen %d  %d elements", v.snap.FocusedApp, v.snap.Generation, v.snap.Len())
	}
	screen.DrawText(0, 0, pad(title, width), colorText, colorHeaderBg, goterm.StyleBold)
}

func (v *WatchView) drawStatus(screen *goterm.Screen, width int) {
	bg := goterm.ColorDefault()
	status := fmt.Sprintf("tick %d  changes %d  errors %d", v.tick, v.stats.Changes, v.stats.Errors)
	if !v.at.IsZero() {
		status += "  " + v.at.Format("15:04:05")
	}
	if v.paused {
		status += "  [paused]"
	}
	if v.ended {
		status += "  [stopped]"
	}
	if v.lastErr != nil {
		screen.DrawText(0, 1, clip(status+"  "+v.lastErr.Error(), width), colorRemoved, bg, goterm.StyleNone)
		return
	}
	screen.DrawText(0, 1, clip(status, width), colorMuted, bg, goterm.StyleNone)
}

func (v *WatchView) drawList(screen *goterm.Screen, width, rows int) {
	bg := goterm.ColorDefault()
	if v.snap == nil {
		screen.DrawText(0, 2, "waiting for first capture...", colorMuted, bg, goterm.StyleDim)
		return
	}

	// Keep the cursor visible.
	if v.cursor < v.offset {
		v.offset = v.cursor
	}
	if v.cursor >= v.offset+rows {
		v.offset = v.cursor - rows + 1
	}

	for row := 0; row < rows; row++ {
		i := v.offset + row
		if i >= v.snap.Len() {
			break
		}
		e := v.snap.Elements[i]

		prefix, fg := "  ", colorText
		switch v.marks[v.keys[i]] {
		case markAdded:
			prefix, fg = "+ ", colorAdded
		case markChanged:
			prefix, fg = "~ ", colorChanged
		}
		style := goterm.StyleNone
		if !e.Enabled {
			style = goterm.StyleDim
		}
		line := prefix + FormatElement(e)
		if i == v.cursor {
			style = goterm.StyleReverse
			line = pad(line, width)
		}
		screen.DrawText(0, 2+row, clip(line, width), fg, bg, style)
	}
}

func (v *WatchView) drawDetail(screen *goterm.Screen, width, rows int) {
	bg := goterm.ColorDefault()
	if v.snap == nil || v.snap.Len() == 0 {
		return
	}
	e := v.snap.Elements[v.cursor]

	lines := []string{
		fmt.Sprintf("id          %d", e.ID),
		fmt.Sprintf("role        %s", e.Role),
		fmt.Sprintf("label       %q", e.Label),
		fmt.Sprintf("bbox        %d,%d %dx%d", e.BBox.X, e.BBox.Y, e.BBox.Width, e.BBox.Height),
		fmt.Sprintf("enabled     %t", e.Enabled),
		fmt.Sprintf("focused     %t", e.Focused),
	}
	if e.Value != nil {
		lines = append(lines, fmt.Sprintf("value       %q", *e.Value))
	}
	if e.Description != nil {
		lines = append(lines, fmt.Sprintf("description %q", *e.Description))
	}
	if len(e.Actions) > 0 {
		lines = append(lines, "actions     "+strings.Join(e.Actions, ", "))
	}
	lines = append(lines, fmt.Sprintf("depth       %d", e.Depth))
	if e.ParentID != nil {
		lines = append(lines, fmt.Sprintf("parent      %d", *e.ParentID))
	}

	for i, line := range lines {
		if i >= rows {
			break
		}
		screen.DrawText(1, 2+i, clip(line, width-1), colorText, bg, goterm.StyleNone)
	}
}

func (v *WatchView) drawDelta(screen *goterm.Screen, width, y int) {
	bg := goterm.ColorDefault()
	added, changed := 0, 0
	for _, m := range v.marks {
		if m == markAdded {
			added++
		} else if m == markChanged {
			changed++
		}
	}
	summary := fmt.Sprintf("+%d -%d ~%d", added, len(v.removed), changed)
	if len(v.removed) > 0 {
		names := make([]string, len(v.removed))
		for i, k := range v.removed {
			names[i] = k.String()
		}
		summary += "  removed: " + strings.Join(names, ", ")
	}
	fg := colorMuted
	if added+changed+len(v.removed) > 0 {
		fg = colorChanged
	}
	screen.DrawText(0, y, clip(summary, width), fg, bg, goterm.StyleNone)
}

// FormatElement renders one element as a single list row.
func FormatElement(e element.Element) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s", e.ID, e.Role)
	if e.Label != "" {
		fmt.Fprintf(&b, " %q", e.Label)
	}
	if e.Value != nil {
		fmt.Fprintf(&b, " = %q", *e.Value)
	}
	fmt.Fprintf(&b, " @%d,%d", e.BBox.X, e.BBox.Y)
	if !e.Enabled {
		b.WriteString(" (disabled)")
	}
	if e.Focused {
		b.WriteString(" (focused)")
	}
	return b.String()
}

func clip(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

func pad(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return clip(s, width)
	}
	return s + strings.Repeat(" ", width-n)
}
