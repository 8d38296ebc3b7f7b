// Package report exposes a run's tasks to observers: a live read-only
// View for the presentation layer and a final RunReport snapshot.
package report

import (
	"time"

	"github.com/Iron-Ham/gtui/internal/graph"
	"github.com/Iron-Ham/gtui/internal/logging"
)

// Counts tallies tasks by status.
type Counts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Terminal returns how many tasks have finished.
func (c Counts) Terminal() int {
	return c.Succeeded + c.Failed + c.Skipped
}

// Done reports whether every task is terminal.
func (c Counts) Done() bool {
	return c.Terminal() == c.Total
}

func (c *Counts) add(s graph.Status) {
	c.Total++
	switch s {
	case graph.StatusPending:
		c.Pending++
	case graph.StatusRunning:
		c.Running++
	case graph.StatusSuccess:
		c.Succeeded++
	case graph.StatusFailed:
		c.Failed++
	case graph.StatusSkipped:
		c.Skipped++
	}
}

// TaskView is the read-only face of one task.
type TaskView struct {
	task *graph.Task
	deps []string
}

func (v TaskView) Name() string                 { return v.task.Name() }
func (v TaskView) Status() graph.Status         { return v.task.Status() }
func (v TaskView) Output() []byte               { return v.task.Output() }
func (v TaskView) OutputTruncated() bool        { return v.task.OutputTruncated() }
func (v TaskView) LogRecords() []logging.Record { return v.task.LogRecords() }
func (v TaskView) Err() error                   { return v.task.Err() }
func (v TaskView) Duration() time.Duration      { return v.task.Duration() }

// OutputFrom returns output at offset and later, plus the next offset.
func (v TaskView) OutputFrom(offset int) ([]byte, int) { return v.task.OutputFrom(offset) }

// LogRecordsFrom returns log records at index i and later, plus the next index.
func (v TaskView) LogRecordsFrom(i int) ([]logging.Record, int) { return v.task.LogRecordsFrom(i) }

// Dependencies returns the names of the tasks this one waits for.
func (v TaskView) Dependencies() []string { return append([]string(nil), v.deps...) }

// View is a live, read-only window onto a run. Every read goes through
// the tasks' own locks, never the scheduler's.
type View struct {
	title     string
	tasks     []TaskView
	index     map[string]int
	engine    *logging.RecordBuffer
	formatter logging.Formatter
}

// NewView builds a view over g. engineLog may be nil; a nil formatter
// selects logging.DefaultFormatter.
func NewView(title string, g *graph.TaskGraph, engineLog *logging.RecordBuffer, formatter logging.Formatter) *View {
	if engineLog == nil {
		engineLog = logging.NewRecordBuffer()
	}
	if formatter == nil {
		formatter = logging.DefaultFormatter()
	}
	v := &View{
		title:     title,
		index:     make(map[string]int),
		engine:    engineLog,
		formatter: formatter,
	}
	for i, t := range g.Tasks() {
		v.tasks = append(v.tasks, TaskView{task: t, deps: g.Dependencies(t.Name())})
		v.index[t.Name()] = i
	}
	return v
}

// Title returns the run's display label.
func (v *View) Title() string { return v.title }

// Tasks returns every task in insertion order.
func (v *View) Tasks() []TaskView { return append([]TaskView(nil), v.tasks...) }

// Task looks up a task by name.
func (v *View) Task(name string) (TaskView, bool) {
	i, ok := v.index[name]
	if !ok {
		return TaskView{}, false
	}
	return v.tasks[i], true
}

// Counts tallies the current statuses.
func (v *View) Counts() Counts {
	var c Counts
	for _, t := range v.tasks {
		c.add(t.Status())
	}
	return c
}

// EngineLog returns the engine's own log records.
func (v *View) EngineLog() []logging.Record { return v.engine.Records() }

// EngineLogFrom returns engine records at index i and later, plus the next index.
func (v *View) EngineLogFrom(i int) ([]logging.Record, int) { return v.engine.From(i) }

// Formatter returns the formatter used to render log records.
func (v *View) Formatter() logging.Formatter { return v.formatter }
