// Package tui is the terminal display for a running graph. It reads task
// state only through report.View and never drives the scheduler.
package tui

// Sidebar dimensions
const (
	// SidebarWidth is the default width of the sidebar panel.
	SidebarWidth = 30

	// SidebarMinWidth is the width used on narrow terminals (< 80 cols).
	SidebarMinWidth = 16

	// NarrowTerminalThreshold is the terminal width below which the sidebar uses minimum width.
	NarrowTerminalThreshold = 80
)

// Layout offsets
const (
	// FooterHeight is the status bar line.
	FooterHeight = 1

	// BorderSize is the vertical or horizontal space a rounded border takes.
	BorderSize = 2

	// PaneHeaderHeight is the title line above the output viewport.
	PaneHeaderHeight = 1

	// SidebarReservedLines accounts for the title and section headers.
	SidebarReservedLines = 3

	// OutputMinLines is the minimum number of visible lines in the output pane.
	OutputMinLines = 3
)

// EffectiveSidebarWidth returns the sidebar width for a terminal. A zero
// configured width selects SidebarWidth; narrow terminals get SidebarMinWidth.
func EffectiveSidebarWidth(configured, termWidth int) int {
	if termWidth < NarrowTerminalThreshold {
		return SidebarMinWidth
	}
	if configured <= 0 {
		return SidebarWidth
	}
	return configured
}

// CalculateMainAreaDimensions returns the outer sidebar width, the outer
// output pane width and the height shared by both.
func CalculateMainAreaDimensions(configuredSidebar, termWidth, termHeight int) (sidebarWidth, contentWidth, mainHeight int) {
	sidebarWidth = EffectiveSidebarWidth(configuredSidebar, termWidth)
	contentWidth = max(termWidth-sidebarWidth, 10)
	mainHeight = max(termHeight-FooterHeight, OutputMinLines+BorderSize+PaneHeaderHeight)
	return sidebarWidth, contentWidth, mainHeight
}

// CalculateViewportSize returns the viewport size inside an output pane of
// the given outer dimensions.
func CalculateViewportSize(contentWidth, mainHeight int) (width, height int) {
	width = max(contentWidth-BorderSize, 1)
	height = max(mainHeight-BorderSize-PaneHeaderHeight, OutputMinLines)
	return width, height
}
