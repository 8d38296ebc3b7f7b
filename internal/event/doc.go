// Package event provides a pub-sub event bus that lets the scheduler
// announce task and run lifecycle changes without knowing who listens.
//
// # Event Types
//
//   - [TaskStartedEvent] "task.started": a task entered RUNNING
//   - [TaskFinishedEvent] "task.finished": a task reached SUCCESS or FAILED
//   - [TaskSkippedEvent] "task.skipped": a task was skipped after an upstream failure
//   - [RunCompletedEvent] "run.completed": every task is terminal
//
// # Thread Safety
//
// [Bus] is safe for concurrent use. Handlers are called synchronously on
// the publishing goroutine and are protected against panics.
//
//	bus := event.NewBus(logger)
//	bus.Subscribe(event.TypeTaskFinished, func(e event.Event) {
//	    done := e.(event.TaskFinishedEvent)
//	    fmt.Println(done.Task, done.Status)
//	})
package event
