// Package styles holds the lipgloss palette and styles shared by the
// terminal UI and the headless run summary.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/gtui/internal/graph"
)

var (
	// Colors - all meet WCAG AA contrast (4.5:1) on black and dark surfaces
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	SurfaceColor   = lipgloss.Color("#1F2937") // Dark surface
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray

	// Task status colors
	StatusPending = MutedColor
	StatusRunning = lipgloss.Color("#60A5FA") // Blue
	StatusSuccess = SecondaryColor
	StatusFailed  = ErrorColor
	StatusSkipped = WarningColor

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	Muted = lipgloss.NewStyle().Foreground(MutedColor)

	// Sidebar
	Sidebar = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Padding(0, 1)

	SidebarItem = lipgloss.NewStyle().
			Padding(0, 1)

	SidebarItemActive = lipgloss.NewStyle().
				Bold(true).
				Foreground(TextColor).
				Background(PrimaryColor).
				Padding(0, 1)

	SidebarSectionTitle = lipgloss.NewStyle().
				Foreground(MutedColor).
				Italic(true)

	// Main pane
	OutputArea = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor)

	PaneTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor)

	// Footer / status bar
	StatusBar = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(SurfaceColor).
			Padding(0, 1)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	SuccessMsg = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)
)

// StatusColor returns the color for a task status.
func StatusColor(status graph.Status) lipgloss.Color {
	switch status {
	case graph.StatusPending:
		return StatusPending
	case graph.StatusRunning:
		return StatusRunning
	case graph.StatusSuccess:
		return StatusSuccess
	case graph.StatusFailed:
		return StatusFailed
	case graph.StatusSkipped:
		return StatusSkipped
	default:
		return MutedColor
	}
}

// StatusIcon returns the glyph for a task status. Pending tasks get a blank
// so the sidebar stays aligned; the UI draws a spinner for running ones.
func StatusIcon(status graph.Status) string {
	switch status {
	case graph.StatusRunning:
		return "●"
	case graph.StatusSuccess:
		return "✓"
	case graph.StatusFailed:
		return "✗"
	case graph.StatusSkipped:
		return "⊘"
	default:
		return " "
	}
}
