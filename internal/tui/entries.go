package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Iron-Ham/gtui/internal/graph"
	"github.com/Iron-Ham/gtui/internal/logging"
	"github.com/Iron-Ham/gtui/internal/report"
	"github.com/Iron-Ham/gtui/internal/tui/styles"
)

// entryKind is what a sidebar entry shows in the output pane.
type entryKind int

const (
	entryOutput    entryKind = iota // a task's captured output
	entryEngineLog                  // the scheduler's own log
	entryTaskLog                    // a task's log records
)

// entry is one selectable line in the sidebar.
type entry struct {
	kind entryKind
	task string
}

// buildEntries lists every task's output, then the debug entries.
func buildEntries(view *report.View) []entry {
	tasks := view.Tasks()
	entries := make([]entry, 0, 2*len(tasks)+1)
	for _, t := range tasks {
		entries = append(entries, entry{kind: entryOutput, task: t.Name()})
	}
	entries = append(entries, entry{kind: entryEngineLog})
	for _, t := range tasks {
		entries = append(entries, entry{kind: entryTaskLog, task: t.Name()})
	}
	return entries
}

// label is the entry's sidebar text.
func (e entry) label() string {
	switch e.kind {
	case entryEngineLog:
		return "Engine log"
	case entryTaskLog:
		return e.task + " log"
	default:
		return e.task
	}
}

// rawContent is the plain text shown for e, as copied to the clipboard.
func rawContent(view *report.View, e entry) string {
	switch e.kind {
	case entryEngineLog:
		return logging.FormatAll(view.Formatter(), view.EngineLog())
	case entryTaskLog:
		tv, ok := view.Task(e.task)
		if !ok {
			return ""
		}
		return logging.FormatAll(view.Formatter(), tv.LogRecords())
	default:
		tv, ok := view.Task(e.task)
		if !ok {
			return ""
		}
		return string(tv.Output())
	}
}

// paneContent is rawContent decorated for display: a truncation notice,
// the failure reason, or a placeholder when there is nothing yet.
func paneContent(view *report.View, e entry) string {
	raw := rawContent(view, e)
	if e.kind != entryOutput {
		if raw == "" {
			return styles.Muted.Render("(no log records)")
		}
		return raw
	}

	tv, ok := view.Task(e.task)
	if !ok {
		return raw
	}
	var sb strings.Builder
	if tv.OutputTruncated() {
		sb.WriteString(styles.Muted.Render("… earlier output discarded"))
		sb.WriteString("\n")
	}
	sb.WriteString(raw)
	if raw == "" {
		switch tv.Status() {
		case graph.StatusPending:
			sb.WriteString(styles.Muted.Render("(waiting to start)"))
		case graph.StatusRunning:
			sb.WriteString(styles.Muted.Render("(no output yet)"))
		}
	}
	if err := tv.Err(); err != nil {
		if raw != "" && !strings.HasSuffix(raw, "\n") {
			sb.WriteString("\n")
		}
		style := styles.ErrorMsg
		if tv.Status() == graph.StatusSkipped {
			style = styles.Muted
		}
		sb.WriteString(style.Render(err.Error()))
	}
	return sb.String()
}

// paneTitle is the line above the output viewport.
func paneTitle(view *report.View, e entry) string {
	if e.kind != entryOutput {
		return styles.PaneTitle.Render(e.label())
	}
	tv, ok := view.Task(e.task)
	if !ok {
		return styles.PaneTitle.Render(e.task)
	}
	status := tv.Status()
	title := styles.PaneTitle.Render(e.task) + " " + styles.Muted.Render("·") + " " +
		styles.Muted.Foreground(styles.StatusColor(status)).Render(status.String())
	if d := tv.Duration(); d > 0 && status.IsTerminal() {
		title += " " + styles.Muted.Render(fmt.Sprintf("(%s)", d.Round(time.Millisecond)))
	}
	return title
}
