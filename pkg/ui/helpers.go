package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// FormatTimeRel returns a relative time string (e.g., "2h ago", "3d ago").
func FormatTimeRel(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dw ago", int(d.Hours()/(24*7)))
	default:
		return fmt.Sprintf("%dmo ago", int(d.Hours()/(24*30)))
	}
}

// truncate cuts s to maxWidth terminal cells, ending in "…" when cut.
func truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "…")
}

// padRight pads s with spaces to width cells.
func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// wrapLines splits s into at most n lines of width cells, the last one
// truncated.
func wrapLines(s string, width, n int) []string {
	if width <= 0 || n <= 0 {
		return nil
	}
	var lines []string
	rest := strings.Join(strings.Fields(s), " ")
	for len(lines) < n-1 && runewidth.StringWidth(rest) > width {
		cut := runewidth.Truncate(rest, width, "")
		if i := strings.LastIndexByte(cut, ' '); i > width/2 {
			cut = cut[:i]
		}
		lines = append(lines, cut)
		rest = strings.TrimLeft(rest[len(cut):], " ")
	}
	if rest != "" || len(lines) == 0 {
		lines = append(lines, truncate(rest, width))
	}
	return lines
}

// clampInt bounds v to [lo, hi].
func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}
