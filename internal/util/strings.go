// Package util holds small text helpers shared by the TUI and the run summary.
package util

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Ellipsis marks truncated text.
const Ellipsis = "…"

// TruncateString shortens s to at most maxLen runes, ending in Ellipsis when
// anything was cut. It ignores escape codes; use TruncateANSI for styled text.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 1 {
		return Ellipsis
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + Ellipsis
}

// TruncateANSI shortens s to maxWidth terminal columns, keeping escape
// sequences intact and counting wide characters correctly.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 1 {
		return Ellipsis
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth, Ellipsis)
}

// FirstLine returns s up to its first newline, with trailing spaces removed.
func FirstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimRight(line, " \r\t")
}

// TailLines returns the last n lines of s. A trailing newline does not
// count as an extra empty line.
func TailLines(s string, n int) string {
	if n <= 0 {
		return ""
	}
	trimmed := strings.TrimSuffix(s, "\n")
	idx := len(trimmed)
	for i := 0; i < n; i++ {
		idx = strings.LastIndexByte(trimmed[:idx], '\n')
		if idx < 0 {
			return s
		}
	}
	return s[idx+1:]
}
