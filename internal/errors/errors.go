// Package errors provides the error taxonomy for gtui. It defines sentinel
// errors, structured error types for graph construction, capture and task
// execution failures, and classification helpers.
//
// # Error Categories
//
// Structural errors are returned synchronously while building or validating a
// graph, before any task is launched:
//   - DuplicateNameError: a task name was registered twice
//   - UnknownTaskError: an edge references a task that was never added
//   - CycleError: the waits-for edges contain a cycle
//
// Capture errors are returned when a run starts:
//   - CaptureConflictError: the ambient output sink is already owned
//
// Task-level errors never escape a run. They are recorded on the task:
//   - TaskError: the task's action returned an error or panicked
//   - SkippedError: the task was skipped because an upstream task failed
//
// # Usage
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrDependencyCycle) { ... }
//
//	var cycleErr *errors.CycleError
//	if errors.As(err, &cycleErr) {
//	    fmt.Println(cycleErr.Cycle)
//	}
//
//	if errors.IsStructural(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Graph construction sentinel errors
var (
	// ErrDuplicateTask indicates that a task name is already registered.
	ErrDuplicateTask = New("duplicate task name")
	// ErrUnknownTask indicates that a referenced task was never added.
	ErrUnknownTask = New("unknown task")
	// ErrDependencyCycle indicates a circular dependency between tasks.
	ErrDependencyCycle = New("dependency cycle detected")
	// ErrGraphFrozen indicates a mutation of a graph that is being run.
	ErrGraphFrozen = New("graph is frozen")
	// ErrGraphAlreadyRun indicates that a graph's tasks have already left PENDING.
	ErrGraphAlreadyRun = New("graph has already been run")
)

// Execution sentinel errors
var (
	// ErrCaptureConflict indicates that the ambient output sink is already owned.
	ErrCaptureConflict = New("output capture already active")
	// ErrTaskFailed indicates that a task's action returned an error.
	ErrTaskFailed = New("task failed")
	// ErrTaskPanicked indicates that a task's action panicked.
	ErrTaskPanicked = New("task panicked")
	// ErrTaskSkipped indicates that a task was skipped after an upstream failure.
	ErrTaskSkipped = New("task skipped")
	// ErrInvalidTransition indicates a disallowed task status change.
	ErrInvalidTransition = New("invalid status transition")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// GtuiError is the base interface for all gtui errors.
type GtuiError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	kind       error
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is matches the error's sentinel kind, then falls back to the cause chain.
func (e *baseError) Is(target error) bool {
	if e.kind != nil && target == e.kind {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Structural Errors
// -----------------------------------------------------------------------------

// DuplicateNameError is returned when a task name is registered twice.
//
// Example:
//
//	err := errors.NewDuplicateNameError("build")
//	fmt.Println(err) // "duplicate task name: build"
type DuplicateNameError struct {
	baseError
	Task string
}

// NewDuplicateNameError creates a new DuplicateNameError.
func NewDuplicateNameError(task string) *DuplicateNameError {
	return &DuplicateNameError{
		baseError: baseError{
			kind:       ErrDuplicateTask,
			message:    "duplicate task name",
			severity:   SeverityError,
			userFacing: true,
		},
		Task: task,
	}
}

// Error returns the formatted error message.
func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s: %s", e.message, e.Task)
}

// UnknownTaskError is returned when an edge references a task that was never
// added to the graph.
//
// Example:
//
//	err := errors.NewUnknownTaskError("lint").WithReferrer("test")
//	fmt.Println(err) // "unknown task [referenced by test]: lint"
type UnknownTaskError struct {
	baseError
	Task     string
	Referrer string
}

// NewUnknownTaskError creates a new UnknownTaskError.
func NewUnknownTaskError(task string) *UnknownTaskError {
	return &UnknownTaskError{
		baseError: baseError{
			kind:       ErrUnknownTask,
			message:    "unknown task",
			severity:   SeverityError,
			userFacing: true,
		},
		Task: task,
	}
}

// WithReferrer records the task whose declaration referenced the unknown task.
func (e *UnknownTaskError) WithReferrer(name string) *UnknownTaskError {
	e.Referrer = name
	return e
}

// Error returns the formatted error message.
func (e *UnknownTaskError) Error() string {
	if e.Referrer != "" && e.Referrer != e.Task {
		return fmt.Sprintf("%s [referenced by %s]: %s", e.message, e.Referrer, e.Task)
	}
	return fmt.Sprintf("%s: %s", e.message, e.Task)
}

// CycleError is returned when the dependency graph contains a cycle. Cycle
// holds the task names along the cycle, starting and ending at the same task.
//
// Example:
//
//	err := errors.NewCycleError([]string{"t1", "t2", "t1"})
//	fmt.Println(err) // "dependency cycle detected: t1 -> t2 -> t1"
type CycleError struct {
	baseError
	Cycle []string
}

// NewCycleError creates a new CycleError. The cycle slice is copied.
func NewCycleError(cycle []string) *CycleError {
	return &CycleError{
		baseError: baseError{
			kind:       ErrDependencyCycle,
			message:    ErrDependencyCycle.Error(),
			severity:   SeverityError,
			userFacing: true,
		},
		Cycle: append([]string(nil), cycle...),
	}
}

// Error returns the formatted error message.
func (e *CycleError) Error() string {
	if len(e.Cycle) == 0 {
		return e.message
	}
	return fmt.Sprintf("%s: %s", e.message, strings.Join(e.Cycle, " -> "))
}

// -----------------------------------------------------------------------------
// Capture Errors
// -----------------------------------------------------------------------------

// CaptureConflictError is returned when a run tries to take ownership of the
// ambient output sink while another owner holds it.
type CaptureConflictError struct {
	baseError
	Owner string
}

// NewCaptureConflictError creates a new CaptureConflictError. Owner describes
// the current holder of the sink and may be empty.
func NewCaptureConflictError(owner string) *CaptureConflictError {
	return &CaptureConflictError{
		baseError: baseError{
			kind:       ErrCaptureConflict,
			message:    ErrCaptureConflict.Error(),
			severity:   SeverityCritical,
			userFacing: true,
		},
		Owner: owner,
	}
}

// Error returns the formatted error message.
func (e *CaptureConflictError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("%s [owner=%s]", e.message, e.Owner)
	}
	return e.message
}

// -----------------------------------------------------------------------------
// Task-level Errors
// -----------------------------------------------------------------------------

// TaskError records the failure of a single task's action.
//
// Example:
//
//	err := errors.NewTaskError("build", cause)
//	fmt.Println(err) // "task failed [task=build]: exit status 1"
type TaskError struct {
	baseError
	Task  string
	Panic any
}

// NewTaskError wraps an error returned by a task's action.
func NewTaskError(task string, cause error) *TaskError {
	return &TaskError{
		baseError: baseError{
			kind:       ErrTaskFailed,
			message:    ErrTaskFailed.Error(),
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
		Task: task,
	}
}

// NewTaskPanicError wraps a value recovered from a panicking task action.
func NewTaskPanicError(task string, value any, cause error) *TaskError {
	e := NewTaskError(task, cause)
	e.kind = ErrTaskPanicked
	e.message = ErrTaskPanicked.Error()
	e.Panic = value
	return e
}

// Error returns the formatted error message.
func (e *TaskError) Error() string {
	prefix := fmt.Sprintf("%s [task=%s]", e.message, e.Task)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", prefix, e.cause)
	}
	if e.Panic != nil {
		return fmt.Sprintf("%s: %v", prefix, e.Panic)
	}
	return prefix
}

// Is matches both ErrTaskFailed and, for panics, ErrTaskPanicked.
func (e *TaskError) Is(target error) bool {
	if target == ErrTaskFailed {
		return true
	}
	return e.baseError.Is(target)
}

// SkippedError is recorded on a task that never ran because Upstream failed.
type SkippedError struct {
	baseError
	Task     string
	Upstream string
}

// NewSkippedError creates a new SkippedError.
func NewSkippedError(task, upstream string) *SkippedError {
	return &SkippedError{
		baseError: baseError{
			kind:       ErrTaskSkipped,
			message:    ErrTaskSkipped.Error(),
			severity:   SeverityInfo,
			userFacing: true,
		},
		Task:     task,
		Upstream: upstream,
	}
}

// Error returns the formatted error message.
func (e *SkippedError) Error() string {
	return fmt.Sprintf("%s [task=%s]: upstream task %s failed", e.message, e.Task, e.Upstream)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsStructural reports whether err is a graph construction or validation
// error (duplicate name, unknown task, or cycle). Structural errors must be
// fixed by the caller before running again.
func IsStructural(err error) bool {
	if err == nil {
		return false
	}
	return Is(err, ErrDuplicateTask) || Is(err, ErrUnknownTask) ||
		Is(err, ErrDependencyCycle)
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var gtuiErr GtuiError
	if As(err, &gtuiErr) {
		return gtuiErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement GtuiError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var gtuiErr GtuiError
	if As(err, &gtuiErr) {
		return gtuiErr.Severity()
	}
	return SeverityError
}

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
