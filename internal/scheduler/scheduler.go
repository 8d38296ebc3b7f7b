package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/Iron-Ham/gtui/internal/capture"
	"github.com/Iron-Ham/gtui/internal/errors"
	"github.com/Iron-Ham/gtui/internal/event"
	"github.com/Iron-Ham/gtui/internal/graph"
	"github.com/Iron-Ham/gtui/internal/logging"
	"github.com/Iron-Ham/gtui/internal/report"
)

// Callback receives the overall outcome of a run: true when no task failed.
type Callback func(success bool)

// Options configures an Executor. The zero value runs every ready task at
// once with no callback, no event bus and a discarding logger.
type Options struct {
	// Title is the run's display label. It has no effect on scheduling.
	Title string

	// MaxParallel caps how many tasks run at once. Ready tasks beyond the
	// cap wait in FIFO order. Zero means no cap.
	MaxParallel int

	// Callback is invoked exactly once when every task is terminal.
	Callback Callback

	// Sink routes task output. A nil Sink still binds each task's output;
	// writes outside any task then go to os.Stdout.
	Sink *capture.Sink

	// Bus receives lifecycle events. Nil disables them.
	Bus *event.Bus

	// Logger is the engine log. Nil discards.
	Logger *logging.Logger

	// EngineLog, when set, also records every engine log entry so the
	// presentation layer can show it.
	EngineLog *logging.RecordBuffer

	// TaskLogLevel is the minimum level captured from task loggers.
	TaskLogLevel slog.Level

	// LogFormatter renders log records for reports and echoed output.
	// Nil selects logging.DefaultFormatter.
	LogFormatter logging.Formatter

	// EchoLogToOutput also writes each formatted task log record to the
	// task's output.
	EchoLogToOutput bool
}

// Executor runs a TaskGraph with maximum safe parallelism. A task starts
// once everything it waits for has succeeded; when a task fails, every
// task downstream of it that has not started is skipped. Running tasks
// are never interrupted.
type Executor struct {
	g      *graph.TaskGraph
	opts   Options
	logger *logging.Logger
	view   *report.View

	// mu is the coordination lock. It guards task transitions and the
	// fields below; observers read tasks without it.
	mu        sync.Mutex
	rc        *RunContext
	queue     []*graph.Task
	starting  []*graph.Task // marked RUNNING, goroutine not yet spawned
	running   int
	started   bool
	startedAt time.Time
	report    *report.RunReport

	tasks conc.WaitGroup
	done  chan struct{}
}

// New creates an Executor for g. Nothing runs until Start.
func New(g *graph.TaskGraph, opts Options) *Executor {
	if opts.LogFormatter == nil {
		opts.LogFormatter = logging.DefaultFormatter()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	if opts.EngineLog != nil {
		logger = logger.WithRecorder(opts.EngineLog, "engine")
	}
	return &Executor{
		g:      g,
		opts:   opts,
		logger: logger.WithRun(opts.Title),
		view:   report.NewView(opts.Title, g, opts.EngineLog, opts.LogFormatter),
		done:   make(chan struct{}),
	}
}

// View returns the live read-only view of the run's tasks.
func (e *Executor) View() *report.View {
	return e.view
}

// Start validates the graph and launches every task with no dependencies.
// It returns a *errors.CycleError, without launching anything, if the
// graph has a cycle, and errors.ErrGraphAlreadyRun if any task is not
// PENDING. Task failures are never returned; they are recorded on the
// tasks. ctx is handed to every action.
func (e *Executor) Start(ctx context.Context) error {
	if cycle := e.g.HasCycle(); cycle != nil {
		err := errors.NewCycleError(cycle)
		e.logger.Error("refusing to run cyclic graph", "error", err.Error())
		return err
	}

	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return fmt.Errorf("%w: executor already started", errors.ErrGraphAlreadyRun)
	}
	for _, t := range e.g.Tasks() {
		if t.Status() != graph.StatusPending {
			e.mu.Unlock()
			return fmt.Errorf("%w: task %s is %s", errors.ErrGraphAlreadyRun, t.Name(), t.Status())
		}
	}
	e.g.Freeze()
	e.started = true
	e.startedAt = time.Now()
	e.rc = newRunContext(e.g)

	ready := e.g.ReadySet(e.rc)
	e.logger.Info("run started", "tasks", e.rc.total, "ready", len(ready), "max_parallel", e.opts.MaxParallel)
	for _, t := range ready {
		e.admit(t)
	}
	starting := e.takeStarting()
	empty := e.rc.done()
	e.mu.Unlock()

	e.spawn(ctx, starting)
	if empty {
		e.finish()
	}
	return nil
}

// admit launches t now or queues it behind the parallelism cap.
// Must be called with mu held.
func (e *Executor) admit(t *graph.Task) {
	if e.opts.MaxParallel > 0 && e.running >= e.opts.MaxParallel {
		e.queue = append(e.queue, t)
		e.logger.Debug("task queued", "task", t.Name(), "queued", len(e.queue))
		return
	}
	e.launch(t)
}

// launch marks t RUNNING. Its goroutine is spawned by the caller after
// mu is released, so events already due are published first.
// Must be called with mu held.
func (e *Executor) launch(t *graph.Task) {
	if err := t.SetStatus(graph.StatusRunning, nil); err != nil {
		// Only PENDING tasks reach here; anything else is a scheduler bug.
		e.logger.Error("cannot launch task", "task", t.Name(), "error", err.Error())
		return
	}
	e.running++
	e.starting = append(e.starting, t)
}

// takeStarting must be called with mu held.
func (e *Executor) takeStarting() []*graph.Task {
	starting := e.starting
	e.starting = nil
	return starting
}

func (e *Executor) spawn(ctx context.Context, tasks []*graph.Task) {
	for _, t := range tasks {
		e.tasks.Go(func() { e.execute(ctx, t) })
	}
}

// execute runs on the task's own goroutine.
func (e *Executor) execute(ctx context.Context, t *graph.Task) {
	e.opts.Bus.Publish(event.NewTaskStartedEvent(t.Name()))
	logger := e.logger.WithTask(t.Name())
	logger.Info("task started")

	err := e.invoke(ctx, t)

	e.mu.Lock()
	events := e.complete(t, err)
	starting := e.takeStarting()
	finished := e.rc.done()
	e.mu.Unlock()

	if err != nil {
		logger.Warn("task failed", "error", err.Error(), "duration", t.Duration().String())
	} else {
		logger.Info("task succeeded", "duration", t.Duration().String())
	}
	for _, ev := range events {
		e.opts.Bus.Publish(ev)
	}
	e.spawn(ctx, starting)
	if finished {
		e.finish()
	}
}

// invoke calls the task's action with its output bound to the task buffer
// and its logger installed in ctx. Both stop recording once the action
// returns. A panic becomes a *errors.TaskError.
func (e *Executor) invoke(ctx context.Context, t *graph.Task) (err error) {
	var pc panics.Catcher
	pc.Try(func() {
		err = e.opts.Sink.CaptureFor(ctx, t.OutputWriter(), func(ctx context.Context) error {
			hopts := logging.HandlerOptions{Level: e.opts.TaskLogLevel, Formatter: e.opts.LogFormatter}
			if e.opts.EchoLogToOutput {
				hopts.Echo = capture.Writer(ctx)
			}
			handler := logging.NewRecordHandler(t.LogBuffer(), t.Name(), hopts)
			defer handler.Close()
			return t.Action()(logging.WithContext(ctx, slog.New(handler)))
		})
	})
	if r := pc.Recovered(); r != nil {
		return errors.NewTaskPanicError(t.Name(), r.Value, r.AsError())
	}
	if err != nil {
		return errors.NewTaskError(t.Name(), err)
	}
	return nil
}

// complete records t's outcome, launches whatever became ready and
// returns the events to publish once mu is released.
// Must be called with mu held.
func (e *Executor) complete(t *graph.Task, err error) []event.Event {
	var events []event.Event
	e.running--
	e.rc.terminal++

	if err != nil {
		if serr := t.SetStatus(graph.StatusFailed, err); serr != nil {
			e.logger.Error("cannot record failure", "task", t.Name(), "error", serr.Error())
		}
		e.rc.fail(err)
		events = append(events, event.NewTaskFinishedEvent(t.Name(), graph.StatusFailed, err, t.Duration()))
		events = append(events, e.skipDownstream(t.Name())...)
	} else {
		if serr := t.SetStatus(graph.StatusSuccess, nil); serr != nil {
			e.logger.Error("cannot record success", "task", t.Name(), "error", serr.Error())
		}
		events = append(events, event.NewTaskFinishedEvent(t.Name(), graph.StatusSuccess, nil, t.Duration()))
		for _, name := range e.g.Successors(t.Name()) {
			if !e.rc.satisfy(name) {
				continue
			}
			if next, ok := e.g.Task(name); ok && next.Status() == graph.StatusPending {
				e.admit(next)
			}
		}
	}

	e.drainQueue()
	return events
}

// skipDownstream marks every PENDING task reachable from failed as
// SKIPPED. Must be called with mu held.
func (e *Executor) skipDownstream(failed string) []event.Event {
	var events []event.Event
	visited := make(map[string]bool)
	queue := e.g.Successors(failed)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if visited[name] {
			continue
		}
		visited[name] = true

		t, ok := e.g.Task(name)
		if !ok {
			continue
		}
		if t.Status() == graph.StatusPending {
			if err := t.SetStatus(graph.StatusSkipped, errors.NewSkippedError(name, failed)); err != nil {
				e.logger.Error("cannot skip task", "task", name, "error", err.Error())
				continue
			}
			e.rc.terminal++
			e.logger.Info("task skipped", "task", name, "upstream", failed)
			events = append(events, event.NewTaskSkippedEvent(name, failed))
		}
		queue = append(queue, e.g.Successors(name)...)
	}
	return events
}

// drainQueue launches queued tasks while the cap allows.
// Must be called with mu held.
func (e *Executor) drainQueue() {
	for len(e.queue) > 0 && (e.opts.MaxParallel <= 0 || e.running < e.opts.MaxParallel) {
		next := e.queue[0]
		e.queue = e.queue[1:]
		if next.Status() != graph.StatusPending {
			continue
		}
		e.launch(next)
	}
}

// finish runs the completion sequence on a dedicated goroutine so the
// callback never runs on a task's goroutine. It is reached exactly once.
func (e *Executor) finish() {
	go func() {
		e.tasks.Wait()

		e.mu.Lock()
		success := e.rc.success
		startedAt := e.startedAt
		e.mu.Unlock()

		finishedAt := time.Now()
		rep := e.view.Snapshot(success, startedAt, finishedAt)
		c := rep.Counts
		e.logger.Info("run completed",
			"success", success,
			"succeeded", c.Succeeded,
			"failed", c.Failed,
			"skipped", c.Skipped,
			"duration", rep.Duration().String())
		e.opts.Bus.Publish(event.NewRunCompletedEvent(e.opts.Title, success, c.Succeeded, c.Failed, c.Skipped, rep.Duration()))

		e.runCallback(success)

		e.mu.Lock()
		e.report = rep
		e.mu.Unlock()
		close(e.done)
	}()
}

func (e *Executor) runCallback(success bool) {
	if e.opts.Callback == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("run callback panicked", "panic", fmt.Sprint(r))
		}
	}()
	e.opts.Callback(success)
}

// Done is closed after the run completes and the callback has returned.
func (e *Executor) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the run completes or ctx ends, and returns the final
// report. Calling Wait before Start is an error.
func (e *Executor) Wait(ctx context.Context) (*report.RunReport, error) {
	e.mu.Lock()
	started := e.started
	e.mu.Unlock()
	if !started {
		return nil, fmt.Errorf("%w: executor not started", errors.ErrInvalidInput)
	}

	select {
	case <-e.done:
		return e.Report(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run is Start followed by Wait.
func (e *Executor) Run(ctx context.Context) (*report.RunReport, error) {
	if err := e.Start(ctx); err != nil {
		return nil, err
	}
	return e.Wait(ctx)
}

// Success reports whether no task has failed so far. After Done it is the
// overall outcome.
func (e *Executor) Success() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rc != nil && e.rc.success
}

// FirstError returns the first task failure of the run, or nil.
func (e *Executor) FirstError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rc == nil {
		return nil
	}
	return e.rc.firstErr
}

// Report returns the final report, or nil before the run completes.
func (e *Executor) Report() *report.RunReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.report
}
