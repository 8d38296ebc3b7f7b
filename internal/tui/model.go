package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/gtui/internal/graph"
	"github.com/Iron-Ham/gtui/internal/report"
	"github.com/Iron-Ham/gtui/internal/tui/styles"
	"github.com/Iron-Ham/gtui/internal/util"
)

// DefaultRefreshInterval is used when Options.RefreshInterval is zero.
const DefaultRefreshInterval = 100 * time.Millisecond

// Options configures the display.
type Options struct {
	// Title is shown in the footer. Empty means the view's title.
	Title string
	// RefreshInterval is how often task state is re-read.
	RefreshInterval time.Duration
	// SidebarWidth is the sidebar width in columns (0 = default).
	SidebarWidth int
	// Follow keeps the output pane pinned to the newest output.
	Follow bool
	// ExitOnSuccess quits as soon as every task has succeeded.
	ExitOnSuccess bool
	// Output is where the display draws. Nil means os.Stdout.
	Output io.Writer
	// Clipboard receives OSC 52 copy sequences. Nil means Output.
	Clipboard io.Writer
}

// Messages

type tickMsg time.Time

// eventMsg signals that the run published a lifecycle event.
type eventMsg struct{}

// copiedMsg reports the outcome of a clipboard copy.
type copiedMsg struct {
	bytes int
	err   error
}

// Model is the bubbletea model of the display.
type Model struct {
	view   *report.View
	opts   Options
	keys   keyMap
	events <-chan struct{}

	entries  []entry
	selected int

	viewport    viewport.Model
	spinner     spinner.Model
	lastContent string
	follow      bool

	width, height int
	ready         bool

	counts   report.Counts
	finished bool
	success  bool

	statusMsg string
	quitting  bool
}

// NewModel creates a display model over view. events, if non-nil, wakes
// the model for an immediate refresh between ticks.
func NewModel(view *report.View, events <-chan struct{}, opts Options) Model {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.Title == "" {
		opts.Title = view.Title()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Clipboard == nil {
		opts.Clipboard = opts.Output
	}
	return Model{
		view:     view,
		opts:     opts,
		keys:     defaultKeyMap(),
		events:   events,
		entries:  buildEntries(view),
		viewport: viewport.New(0, 0),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		follow:   opts.Follow,
	}
}

// Finished reports whether the model has seen every task reach a terminal state.
func (m Model) Finished() bool { return m.finished }

// Success reports whether the finished run had no failures.
func (m Model) Success() bool { return m.finished && m.success }

// Quitting reports whether the user or exit-on-success ended the display.
func (m Model) Quitting() bool { return m.quitting }

// Commands

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEvent blocks until the run publishes something.
func waitForEvent(events <-chan struct{}) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-events; !ok {
			return nil
		}
		return eventMsg{}
	}
}

// copyToClipboard writes text as an OSC 52 sequence, which terminals turn
// into a clipboard write even over SSH.
func copyToClipboard(w io.Writer, text string) tea.Cmd {
	return func() tea.Msg {
		_, err := osc52.New(text).WriteTo(w)
		return copiedMsg{bytes: len(text), err: err}
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(m.opts.RefreshInterval), m.spinner.Tick, waitForEvent(m.events))
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.resize()
		m.refresh(true)
		return m, nil

	case tickMsg:
		if quit := m.refresh(false); quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, tick(m.opts.RefreshInterval)

	case eventMsg:
		if quit := m.refresh(false); quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, waitForEvent(m.events)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case copiedMsg:
		if msg.err != nil {
			m.statusMsg = "copy failed: " + msg.err.Error()
		} else {
			m.statusMsg = fmt.Sprintf("copied %d bytes", msg.bytes)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.statusMsg = ""

	if i, ok := selectIndex(msg.String()); ok {
		if i < len(m.entries) {
			m.selectEntry(i)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.selectEntry((m.selected - 1 + len(m.entries)) % len(m.entries))
	case key.Matches(msg, m.keys.Down):
		m.selectEntry((m.selected + 1) % len(m.entries))
	case key.Matches(msg, m.keys.Follow):
		m.follow = !m.follow
		if m.follow {
			m.viewport.GotoBottom()
		}
	case key.Matches(msg, m.keys.PageUp):
		m.follow = false
		m.viewport.SetYOffset(m.viewport.YOffset - m.viewport.Height)
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height)
	case key.Matches(msg, m.keys.Top):
		m.follow = false
		m.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
	case key.Matches(msg, m.keys.Copy):
		return m, copyToClipboard(m.opts.Clipboard, rawContent(m.view, m.entries[m.selected]))
	}
	return m, nil
}

func (m *Model) selectEntry(i int) {
	if i == m.selected {
		return
	}
	m.selected = i
	m.lastContent = ""
	m.refresh(true)
	if !m.follow {
		m.viewport.GotoTop()
	}
}

func (m *Model) resize() {
	_, contentWidth, mainHeight := CalculateMainAreaDimensions(m.opts.SidebarWidth, m.width, m.height)
	m.viewport.Width, m.viewport.Height = CalculateViewportSize(contentWidth, mainHeight)
}

// refresh re-reads the view. It reports whether the display should quit
// because the run succeeded and ExitOnSuccess is set.
func (m *Model) refresh(force bool) bool {
	m.counts = m.view.Counts()
	if !m.finished && m.counts.Done() {
		m.finished = true
		m.success = m.counts.Failed == 0
	}

	content := paneContent(m.view, m.entries[m.selected])
	if force || content != m.lastContent {
		m.lastContent = content
		m.viewport.SetContent(content)
		if m.follow {
			m.viewport.GotoBottom()
		}
	}

	return m.finished && m.success && m.opts.ExitOnSuccess
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Starting..."
	}

	sidebarWidth, contentWidth, mainHeight := CalculateMainAreaDimensions(m.opts.SidebarWidth, m.width, m.height)
	main := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderSidebar(sidebarWidth, mainHeight),
		m.renderPane(contentWidth, mainHeight),
	)
	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderFooter())
}

func (m Model) renderSidebar(width, height int) string {
	inner := max(width-BorderSize-2, 4) // border plus horizontal padding
	rows := max(height-BorderSize-SidebarReservedLines, 1)

	start := 0
	if m.selected >= rows {
		start = m.selected - rows + 1
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render("Tasks"))
	b.WriteString("\n")
	for i := start; i < len(m.entries) && i < start+rows; i++ {
		e := m.entries[i]
		if e.kind == entryEngineLog {
			b.WriteString(styles.SidebarSectionTitle.Render("Debug"))
			b.WriteString("\n")
		}
		b.WriteString(m.renderEntry(i, e, inner))
		b.WriteString("\n")
	}

	return styles.Sidebar.
		Width(width - BorderSize).
		Height(height - BorderSize).
		Render(strings.TrimSuffix(b.String(), "\n"))
}

func (m Model) renderEntry(i int, e entry, width int) string {
	num := " "
	if i < 9 {
		num = fmt.Sprintf("%d", i+1)
	}

	icon := " "
	var status graph.Status
	if e.kind == entryOutput {
		if tv, ok := m.view.Task(e.task); ok {
			status = tv.Status()
			icon = styles.StatusIcon(status)
			if status == graph.StatusRunning {
				icon = m.spinner.View()
			}
		}
	}

	// number, space, icon, space
	label := util.TruncateANSI(e.label(), max(width-6, 1))
	if i == m.selected {
		return styles.SidebarItemActive.Render(fmt.Sprintf("%s %s %s", num, icon, label))
	}
	if e.kind == entryOutput {
		icon = lipgloss.NewStyle().Foreground(styles.StatusColor(status)).Render(icon)
	}
	return styles.SidebarItem.Render(fmt.Sprintf("%s %s %s", styles.Muted.Render(num), icon, label))
}

func (m Model) renderPane(width, height int) string {
	body := paneTitle(m.view, m.entries[m.selected]) + "\n" + m.viewport.View()
	return styles.OutputArea.
		Width(width - BorderSize).
		Height(height - BorderSize).
		Render(body)
}

func (m Model) renderFooter() string {
	c := m.counts
	progress := fmt.Sprintf("%d/%d done", c.Terminal(), c.Total)
	if c.Failed > 0 {
		progress += styles.ErrorMsg.Render(fmt.Sprintf(" %d failed", c.Failed))
	}
	if c.Skipped > 0 {
		progress += fmt.Sprintf(" %d skipped", c.Skipped)
	}
	switch {
	case m.finished && m.success:
		progress += " " + styles.SuccessMsg.Render("✓ succeeded")
	case m.finished:
		progress += " " + styles.ErrorMsg.Render("✗ failed")
	}

	follow := styles.Muted.Render("follow off")
	if m.follow {
		follow = styles.HelpKey.Render("follow on")
	}

	var help []string
	for _, b := range m.keys.shortHelp() {
		h := b.Help()
		help = append(help, styles.HelpKey.Render(h.Key)+" "+h.Desc)
	}

	parts := []string{styles.Title.Render(m.opts.Title), progress, follow}
	if m.statusMsg != "" {
		parts = append(parts, m.statusMsg)
	}
	parts = append(parts, strings.Join(help, "  "))

	line := util.TruncateANSI(strings.Join(parts, styles.Muted.Render(" │ ")), max(m.width-2, 1))
	return styles.StatusBar.Width(m.width).Render(line)
}
