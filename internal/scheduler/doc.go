// Package scheduler executes a task graph.
//
// An [Executor] launches every task whose dependencies have all
// succeeded, each on its own goroutine, with its output bound to the
// task's buffer and a task logger in its context. When a task fails,
// every task downstream of it that has not started is marked SKIPPED;
// independent branches keep running. Once every task is terminal the
// executor publishes run.completed, invokes the callback exactly once
// from a dedicated goroutine, and closes Done.
//
//	ex := scheduler.New(g, scheduler.Options{Title: "ci", Callback: notify})
//	if err := ex.Start(ctx); err != nil {
//	    return err // cycle or reused graph; nothing ran
//	}
//	rep, err := ex.Wait(ctx)
package scheduler
