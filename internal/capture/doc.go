// Package capture routes output written by concurrently running tasks into
// each task's own buffer.
//
// A run takes exclusive ownership of the ambient output with [Acquire].
// The scheduler then runs each task action under [Sink.CaptureFor], which
// carries a [Binding] to the task's [Buffer] in the action's context. Task
// code writes through [Writer], [Printf] or [Println] with that context,
// or hands Writer(ctx) to anything that takes an io.Writer:
//
//	cmd.Stdout = capture.Writer(ctx)
//	cmd.Stderr = capture.Writer(ctx)
//
// Go has no goroutine-local storage, so a goroutine started by a task only
// sees the binding through the context it is given, and must attach its
// own binding for the duration of its work; see [AttachInherited].
//
// With SinkOptions.RedirectStdout, direct writes to os.Stdout are diverted
// to the sink's unbound destination so they cannot corrupt a terminal UI.
// Swapping os.Stdout is not synchronized with goroutines reading it, so
// the swap happens before any task starts and is undone after all finish.
package capture
