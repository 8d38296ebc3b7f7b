package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/gtui/internal/graph"
	"github.com/Iron-Ham/gtui/internal/logging"
	"github.com/Iron-Ham/gtui/internal/tui/styles"
	"github.com/Iron-Ham/gtui/internal/util"
)

// TaskReport is the final state of one task.
type TaskReport struct {
	Name            string        `json:"name"`
	Status          graph.Status  `json:"status"`
	WaitingFor      []string      `json:"waiting_for,omitempty"`
	Output          string        `json:"output"`
	OutputTruncated bool          `json:"output_truncated,omitempty"`
	Log             string        `json:"log,omitempty"`
	Error           string        `json:"error,omitempty"`
	Duration        time.Duration `json:"duration_ns"`
}

// RunReport is the outcome of a finished run.
type RunReport struct {
	Title      string       `json:"title"`
	Success    bool         `json:"success"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Counts     Counts       `json:"counts"`
	Tasks      []TaskReport `json:"tasks"`
}

// Snapshot captures the view's current state as a report.
func (v *View) Snapshot(success bool, startedAt, finishedAt time.Time) *RunReport {
	r := &RunReport{
		Title:      v.title,
		Success:    success,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Counts:     v.Counts(),
		Tasks:      make([]TaskReport, 0, len(v.tasks)),
	}
	for _, t := range v.tasks {
		tr := TaskReport{
			Name:            t.Name(),
			Status:          t.Status(),
			WaitingFor:      t.Dependencies(),
			Output:          string(t.Output()),
			OutputTruncated: t.OutputTruncated(),
			Log:             logging.FormatAll(v.formatter, t.LogRecords()),
			Duration:        t.Duration(),
		}
		if err := t.Err(); err != nil {
			tr.Error = err.Error()
		}
		r.Tasks = append(r.Tasks, tr)
	}
	return r
}

// Duration returns the wall time of the run.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Task returns the report for name.
func (r *RunReport) Task(name string) (TaskReport, bool) {
	for _, t := range r.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return TaskReport{}, false
}

// WriteJSON writes the report as indented JSON.
func (r *RunReport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode run report: %w", err)
	}
	return nil
}

// Summary writes a human-readable table of task outcomes to w. Colors are
// used only when w is a terminal that supports them.
func (r *RunReport) Summary(w io.Writer) error {
	re := lipgloss.NewRenderer(w)
	title := re.NewStyle().Bold(true).Foreground(styles.PrimaryColor)
	muted := re.NewStyle().Foreground(styles.MutedColor)

	nameWidth := 4
	for _, t := range r.Tasks {
		nameWidth = max(nameWidth, lipgloss.Width(t.Name))
	}

	var sb strings.Builder
	heading := r.Title
	if heading == "" {
		heading = "run"
	}
	sb.WriteString(title.Render(heading))
	sb.WriteString("\n")
	for _, t := range r.Tasks {
		st := re.NewStyle().Foreground(styles.StatusColor(t.Status))
		line := fmt.Sprintf("%s %-*s  %-7s  %s",
			st.Render(styles.StatusIcon(t.Status)),
			nameWidth, t.Name,
			st.Render(t.Status.String()),
			muted.Render(formatDuration(t.Duration)))
		if t.Error != "" {
			line += "  " + muted.Render(util.TruncateString(util.FirstLine(t.Error), maxErrorWidth))
		}
		sb.WriteString(strings.TrimRight(line, " "))
		sb.WriteString("\n")
	}

	outcome := re.NewStyle().Bold(true).Foreground(styles.SecondaryColor).Render("succeeded")
	if !r.Success {
		outcome = re.NewStyle().Bold(true).Foreground(styles.ErrorColor).Render("failed")
	}
	fmt.Fprintf(&sb, "%s: %d succeeded, %d failed, %d skipped in %s\n",
		outcome, r.Counts.Succeeded, r.Counts.Failed, r.Counts.Skipped, formatDuration(r.Duration()))

	_, err := io.WriteString(w, sb.String())
	return err
}

// maxErrorWidth bounds the error column of the summary.
const maxErrorWidth = 80

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}
