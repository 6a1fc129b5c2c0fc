package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dshills/goax/pkg/domain/element"
	"github.com/dshills/goax/pkg/domain/session"
	"github.com/dshills/goax/pkg/tui"
)

// ANSI colors for terminal output
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// paint wraps s in color unless NO_COLOR is set.
func paint(color, s string) string {
	if os.Getenv("NO_COLOR") != "" {
		return s
	}
	return color + s + colorReset
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// printSnapshotHeader prints "App │ N elements" and a rule.
func printSnapshotHeader(w io.Writer, snap *element.Snapshot, shown int) {
	fmt.Fprintf(w, "%s │ %d elements\n", paint(colorCyan, snap.FocusedApp), shown)
	fmt.Fprintln(w, paint(colorGray, strings.Repeat("─", 60)))
}

// printElements lists elements one per line.
func printElements(w io.Writer, elems []element.Element) {
	for _, e := range elems {
		line := tui.FormatElement(e)
		if !e.Enabled {
			line = paint(colorGray, line)
		}
		fmt.Fprintln(w, line)
	}
}

// printTree indents each element by its depth.
func printTree(w io.Writer, elems []element.Element) {
	for _, e := range elems {
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", e.Depth), tui.FormatElement(e))
	}
}

// printElementDetail shows one element with its optional attributes.
func printElementDetail(w io.Writer, title string, e element.Element) {
	fmt.Fprintln(w, paint(colorGreen, title))
	fmt.Fprintln(w, tui.FormatElement(e))
	if e.Description != nil {
		fmt.Fprintf(w, "  Description: %s\n", *e.Description)
	}
	if len(e.Actions) > 0 {
		fmt.Fprintf(w, "  Actions: %s\n", strings.Join(e.Actions, ", "))
	}
}

// colorizeStatus returns a colored status string
func colorizeStatus(status session.Status) string {
	switch status {
	case session.StatusCompleted:
		return paint(colorGreen, string(status))
	case session.StatusFailed:
		return paint(colorRed, string(status))
	case session.StatusRunning:
		return paint(colorYellow, string(status))
	default:
		return string(status)
	}
}

// formatDurationValue formats a duration value
func formatDurationValue(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-2] + ".."
}
