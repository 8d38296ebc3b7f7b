package graph

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Iron-Ham/gtui/internal/capture"
	"github.com/Iron-Ham/gtui/internal/errors"
	"github.com/Iron-Ham/gtui/internal/logging"
)

// Action is the work a task performs. Arguments are captured by the
// closure. The context carries the task's output binding and logger; a
// non-nil error marks the task FAILED.
type Action func(ctx context.Context) error

// Status is a task's lifecycle state.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusSuccess
	StatusFailed
	StatusSkipped
)

// String returns the upper-case status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusRunning:
		return "RUNNING"
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailed:
		return "FAILED"
	case StatusSkipped:
		return "SKIPPED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsTerminal reports whether s is SUCCESS, FAILED or SKIPPED.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusSkipped
}

// validTransitions is the complete lifecycle edge set.
var validTransitions = map[Status][]Status{
	StatusPending: {StatusRunning, StatusSkipped},
	StatusRunning: {StatusSuccess, StatusFailed},
}

// Transition returns nil if a task may move from one status to another,
// and an error wrapping errors.ErrInvalidTransition otherwise.
func Transition(from, to Status) error {
	for _, s := range validTransitions[from] {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", errors.ErrInvalidTransition, from, to)
}

// TaskOption configures a Task.
type TaskOption func(*Task)

// WithOutputLimit keeps only the last n bytes of the task's output.
// n <= 0 keeps everything.
func WithOutputLimit(n int) TaskOption {
	return func(t *Task) {
		t.output = capture.NewBuffer(n)
	}
}

// Task is a named unit of work tracked through its lifecycle. Its status,
// output and log are safe to read while the task runs.
type Task struct {
	name   string
	action Action
	output *capture.Buffer
	log    *logging.RecordBuffer

	mu         sync.RWMutex
	status     Status
	err        error
	startedAt  time.Time
	finishedAt time.Time
}

// NewTask creates a PENDING task.
func NewTask(name string, action Action, opts ...TaskOption) *Task {
	t := &Task{
		name:   name,
		action: action,
		output: capture.NewBuffer(0),
		log:    logging.NewRecordBuffer(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Action returns the task's action.
func (t *Task) Action() Action { return t.action }

// Status returns the current status.
func (t *Task) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// SetStatus moves the task to status to, recording cause (the failure for
// FAILED, the reason for SKIPPED). Invalid moves are rejected and leave
// the task unchanged.
func (t *Task) SetStatus(to Status, cause error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := Transition(t.status, to); err != nil {
		return fmt.Errorf("task %s: %w", t.name, err)
	}
	now := time.Now()
	switch to {
	case StatusRunning:
		t.startedAt = now
	case StatusSuccess, StatusFailed, StatusSkipped:
		t.finishedAt = now
		t.err = cause
	}
	t.status = to
	return nil
}

// Err returns the recorded failure, or for a skipped task the reason it
// was skipped. It is nil for every other status.
func (t *Task) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// StartedAt returns when the task entered RUNNING, or the zero time.
func (t *Task) StartedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.startedAt
}

// FinishedAt returns when the task reached a terminal status, or the zero time.
func (t *Task) FinishedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.finishedAt
}

// Duration returns the run time so far for a running task, the total run
// time for a finished one, and zero for tasks that never ran.
func (t *Task) Duration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	switch {
	case t.startedAt.IsZero():
		return 0
	case t.finishedAt.IsZero():
		return time.Since(t.startedAt)
	default:
		return t.finishedAt.Sub(t.startedAt)
	}
}

// OutputWriter returns the writer task output is captured into.
func (t *Task) OutputWriter() io.Writer { return t.output }

// Output returns a copy of the captured output.
func (t *Task) Output() []byte { return t.output.Bytes() }

// OutputFrom returns output written at offset and later, plus the next offset.
func (t *Task) OutputFrom(offset int) ([]byte, int) { return t.output.From(offset) }

// OutputTruncated reports whether the output limit dropped earlier bytes.
func (t *Task) OutputTruncated() bool { return t.output.Truncated() }

// LogBuffer returns the buffer the task's log records are captured into.
func (t *Task) LogBuffer() *logging.RecordBuffer { return t.log }

// LogRecords returns a copy of the captured log records.
func (t *Task) LogRecords() []logging.Record { return t.log.Records() }

// LogRecordsFrom returns records at index i and later, plus the next index.
func (t *Task) LogRecordsFrom(i int) ([]logging.Record, int) { return t.log.From(i) }
