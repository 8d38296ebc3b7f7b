package event

import (
	"time"

	"github.com/Iron-Ham/gtui/internal/graph"
)

// Event types published by the scheduler.
const (
	TypeTaskStarted  = "task.started"
	TypeTaskFinished = "task.finished"
	TypeTaskSkipped  = "task.skipped"
	TypeRunCompleted = "run.completed"
)

// Event is the interface that all events implement.
type Event interface {
	// EventType returns "category.action", e.g. "task.started".
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// TaskStartedEvent is emitted when a task enters RUNNING.
type TaskStartedEvent struct {
	baseEvent
	Task string
}

// NewTaskStartedEvent creates a TaskStartedEvent.
func NewTaskStartedEvent(task string) TaskStartedEvent {
	return TaskStartedEvent{baseEvent: newBaseEvent(TypeTaskStarted), Task: task}
}

// TaskFinishedEvent is emitted when a running task reaches SUCCESS or FAILED.
type TaskFinishedEvent struct {
	baseEvent
	Task     string
	Status   graph.Status
	Err      error // nil on success
	Duration time.Duration
}

// NewTaskFinishedEvent creates a TaskFinishedEvent.
func NewTaskFinishedEvent(task string, status graph.Status, err error, d time.Duration) TaskFinishedEvent {
	return TaskFinishedEvent{
		baseEvent: newBaseEvent(TypeTaskFinished),
		Task:      task,
		Status:    status,
		Err:       err,
		Duration:  d,
	}
}

// TaskSkippedEvent is emitted when a pending task is skipped because a
// task it depends on failed.
type TaskSkippedEvent struct {
	baseEvent
	Task     string
	Upstream string // the failed task that caused the skip
}

// NewTaskSkippedEvent creates a TaskSkippedEvent.
func NewTaskSkippedEvent(task, upstream string) TaskSkippedEvent {
	return TaskSkippedEvent{baseEvent: newBaseEvent(TypeTaskSkipped), Task: task, Upstream: upstream}
}

// RunCompletedEvent is emitted once, after every task is terminal and
// before the completion callback runs.
type RunCompletedEvent struct {
	baseEvent
	Title     string
	Success   bool
	Succeeded int
	Failed    int
	Skipped   int
	Duration  time.Duration
}

// NewRunCompletedEvent creates a RunCompletedEvent.
func NewRunCompletedEvent(title string, success bool, succeeded, failed, skipped int, d time.Duration) RunCompletedEvent {
	return RunCompletedEvent{
		baseEvent: newBaseEvent(TypeRunCompleted),
		Title:     title,
		Success:   success,
		Succeeded: succeeded,
		Failed:    failed,
		Skipped:   skipped,
		Duration:  d,
	}
}
