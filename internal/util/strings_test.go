package util

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short unchanged", "hello", 10, "hello"},
		{"exact unchanged", "hello", 5, "hello"},
		{"truncated", "hello world", 6, "hello…"},
		{"tiny limit", "hello", 1, "…"},
		{"negative limit", "hello", -2, "…"},
		{"empty", "", 4, ""},
		{"unicode counted by rune", "日本語テスト", 3, "日本…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestTruncateANSI(t *testing.T) {
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	tests := []struct {
		name     string
		input    string
		maxWidth int
	}{
		{"plain", "hello world", 8},
		{"styled", red.Render("hello world"), 8},
		{"wide runes", "日本語テスト", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateANSI(tt.input, tt.maxWidth)
			if w := lipgloss.Width(got); w > tt.maxWidth {
				t.Errorf("width %d exceeds %d: %q", w, tt.maxWidth, got)
			}
		})
	}

	styled := red.Render("hi")
	if got := TruncateANSI(styled, 10); got != styled {
		t.Errorf("short styled string modified: %q", got)
	}
	if got := TruncateANSI("hello", 1); got != Ellipsis {
		t.Errorf("TruncateANSI(_, 1) = %q", got)
	}
}

func TestFirstLine(t *testing.T) {
	tests := map[string]string{
		"":                   "",
		"one":                "one",
		"one  \ntwo":         "one",
		"exit status 1\r\nx": "exit status 1",
	}
	for in, want := range tests {
		if got := FirstLine(in); got != want {
			t.Errorf("FirstLine(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTailLines(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"a\nb\nc\n", 2, "b\nc\n"},
		{"a\nb\nc", 2, "b\nc"},
		{"a\nb", 5, "a\nb"},
		{"a\nb", 0, ""},
		{"", 3, ""},
	}
	for _, tt := range tests {
		if got := TailLines(tt.in, tt.n); got != tt.want {
			t.Errorf("TailLines(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
