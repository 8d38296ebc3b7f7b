// Package gtui runs a graph of named tasks with maximum safe parallelism
// while showing each task's status, output and log in a terminal UI.
//
// A task is a name plus an Action. Tasks wait for each other by name:
//
//	g := gtui.NewGraph()
//	_ = g.AddTask(gtui.NewTask("fetch", fetch))
//	_ = g.AddTask(gtui.NewTask("build", build), "fetch")
//	rep, err := gtui.Run(ctx, g, gtui.Options{Title: "build"})
//
// Inside an action, write output with gtui.Printf(ctx, ...) or
// gtui.Writer(ctx) and log with gtui.Logger(ctx). Both land in the task's
// own buffers no matter how many tasks run at once.
package gtui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/Iron-Ham/gtui/internal/capture"
	"github.com/Iron-Ham/gtui/internal/errors"
	"github.com/Iron-Ham/gtui/internal/event"
	"github.com/Iron-Ham/gtui/internal/graph"
	"github.com/Iron-Ham/gtui/internal/logging"
	"github.com/Iron-Ham/gtui/internal/report"
	"github.com/Iron-Ham/gtui/internal/scheduler"
	"github.com/Iron-Ham/gtui/internal/tui"
)

type (
	// Task is a named unit of work.
	Task = graph.Task
	// TaskOption configures a Task.
	TaskOption = graph.TaskOption
	// TaskGraph holds tasks and the edges between them.
	TaskGraph = graph.TaskGraph
	// Action is the work a task performs.
	Action = graph.Action
	// Status is a task's lifecycle state.
	Status = graph.Status
	// RunReport is the final snapshot of a run.
	RunReport = report.RunReport
	// TaskReport is one task's entry in a RunReport.
	TaskReport = report.TaskReport
	// Record is one captured log entry.
	Record = logging.Record
	// Formatter renders log records for display.
	Formatter = logging.Formatter
	// FormatterFunc adapts a function to Formatter.
	FormatterFunc = logging.FormatterFunc
	// CycleError reports a dependency cycle.
	CycleError = errors.CycleError
	// TaskError wraps a task's failure.
	TaskError = errors.TaskError
	// SkippedError records why a task was skipped.
	SkippedError = errors.SkippedError
)

const (
	StatusPending = graph.StatusPending
	StatusRunning = graph.StatusRunning
	StatusSuccess = graph.StatusSuccess
	StatusFailed  = graph.StatusFailed
	StatusSkipped = graph.StatusSkipped
)

var (
	ErrDuplicateTask   = errors.ErrDuplicateTask
	ErrUnknownTask     = errors.ErrUnknownTask
	ErrDependencyCycle = errors.ErrDependencyCycle
	ErrCaptureConflict = errors.ErrCaptureConflict
	ErrTaskFailed      = errors.ErrTaskFailed
	ErrTaskPanicked    = errors.ErrTaskPanicked
	ErrTaskSkipped     = errors.ErrTaskSkipped
)

// NewTask creates a PENDING task.
func NewTask(name string, action Action, opts ...TaskOption) *Task {
	return graph.NewTask(name, action, opts...)
}

// WithOutputLimit keeps only the last n bytes of a task's output.
func WithOutputLimit(n int) TaskOption {
	return graph.WithOutputLimit(n)
}

// NewGraph creates an empty graph.
func NewGraph() *TaskGraph {
	return graph.New()
}

// Linear builds a graph where each task waits for the one before it.
func Linear(tasks ...*Task) (*TaskGraph, error) {
	return graph.Linear(tasks...)
}

// NewTemplateFormatter builds a Formatter from a text/template layout over
// .Time, .Level, .Logger and .Message. Empty arguments select the defaults.
func NewTemplateFormatter(layout, timeLayout string) (Formatter, error) {
	return logging.NewTemplateFormatter(layout, timeLayout)
}

// Writer returns the output stream of the task running under ctx.
func Writer(ctx context.Context) io.Writer { return capture.Writer(ctx) }

// Printf writes formatted output to the task running under ctx.
func Printf(ctx context.Context, format string, args ...any) { capture.Printf(ctx, format, args...) }

// Println writes a line of output to the task running under ctx.
func Println(ctx context.Context, args ...any) { capture.Println(ctx, args...) }

// Logger returns the log of the task running under ctx. Outside a task
// it discards everything.
func Logger(ctx context.Context) *slog.Logger { return logging.FromContext(ctx) }

// Options configures Run.
type Options struct {
	// Title labels the run in the display and the report.
	Title string

	// Callback is invoked once with the overall outcome after every task
	// has finished. Panics are logged and contained.
	Callback func(success bool)

	// LogFormatter renders task log records. Nil selects
	// "[{{.Time}}][{{.Logger}}][{{.Message}}]".
	LogFormatter Formatter

	// TaskLogLevel is the minimum level captured from task loggers.
	TaskLogLevel slog.Level

	// EchoLogToOutput also writes each formatted task log record to the
	// task's output.
	EchoLogToOutput bool

	// MaxParallel caps concurrently running tasks. Zero means no cap.
	MaxParallel int

	// Headless runs without the display. Run also goes headless when
	// standard output is not a terminal.
	Headless bool

	// ExitOnSuccess closes the display as soon as every task succeeds.
	// Otherwise the display stays up until the user quits.
	ExitOnSuccess bool

	// RedirectStdout captures direct writes to os.Stdout made outside any
	// task for the duration of the run.
	RedirectStdout bool

	// RefreshInterval is how often the display re-reads task state.
	RefreshInterval time.Duration

	// SidebarWidth is the display's sidebar width in columns.
	SidebarWidth int

	// Follow keeps the display's output pane pinned to new output.
	Follow bool

	// Logger is the engine's own log. Nil discards it, though the
	// display still shows engine records.
	Logger *logging.Logger
}

// Run executes g and returns its report.
//
// A cyclic graph is rejected with a *CycleError before anything runs. With
// the display attached, Run returns once the user closes it (or it closes
// itself under ExitOnSuccess) and every task has finished; closing the
// display early never interrupts running tasks. Headless, Run returns when
// the last task finishes. Cancelling ctx reaches actions through their
// context only. Task failures are reported in the RunReport, not as an
// error.
func Run(ctx context.Context, g *TaskGraph, opts Options) (*RunReport, error) {
	if cycle := g.HasCycle(); cycle != nil {
		return nil, errors.NewCycleError(cycle)
	}

	headless := opts.Headless || !term.IsTerminal(int(os.Stdout.Fd()))

	// Output written outside any task would tear the display, so it is
	// held back and replayed once the display closes.
	var held *capture.Buffer
	sinkOpts := capture.SinkOptions{
		Owner:          opts.Title,
		RedirectStdout: opts.RedirectStdout,
		Logger:         opts.Logger,
	}
	if !headless {
		held = capture.NewBuffer(0)
		sinkOpts.Unbound = held
	}
	sink, err := capture.Acquire(sinkOpts)
	if err != nil {
		return nil, err
	}
	defer func() {
		terminal := sink.Terminal()
		sink.Release()
		if held != nil && held.Len() > 0 {
			_, _ = terminal.Write(held.Bytes())
		}
	}()

	bus := event.NewBus(opts.Logger)
	ex := scheduler.New(g, scheduler.Options{
		Title:           opts.Title,
		MaxParallel:     opts.MaxParallel,
		Callback:        opts.Callback,
		Sink:            sink,
		Bus:             bus,
		Logger:          opts.Logger,
		EngineLog:       logging.NewRecordBuffer(),
		TaskLogLevel:    opts.TaskLogLevel,
		LogFormatter:    opts.LogFormatter,
		EchoLogToOutput: opts.EchoLogToOutput,
	})

	// The display subscribes before Start so it sees every event.
	var app *tui.App
	if !headless {
		app = tui.New(ex.View(), bus, tui.Options{
			Title:           opts.Title,
			RefreshInterval: opts.RefreshInterval,
			SidebarWidth:    opts.SidebarWidth,
			Follow:          opts.Follow,
			ExitOnSuccess:   opts.ExitOnSuccess,
			Output:          sink.Terminal(),
		})
	}
	if err := ex.Start(ctx); err != nil {
		return nil, err
	}

	var uiErr error
	if app != nil {
		_, uiErr = app.Run(ctx)
		select {
		case <-ex.Done():
		default:
			c := ex.View().Counts()
			fmt.Fprintf(sink.Terminal(), "%s: waiting for %d running task(s) to finish\n", opts.Title, c.Running)
		}
	}

	// Running tasks are never abandoned, even once ctx is done.
	rep, err := ex.Wait(context.WithoutCancel(ctx))
	if err != nil {
		return nil, err
	}
	if uiErr != nil && ctx.Err() == nil {
		return rep, errors.Wrap(uiErr, "display failed")
	}
	return rep, nil
}
