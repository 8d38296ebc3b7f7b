// Package logging provides structured logging for gtui runs.
//
// It has two halves that share the slog machinery:
//
// The engine log is a [Logger] wrapping log/slog with a JSON handler. It
// writes to {dir}/debug.log (optionally through a [RotatingWriter]) or to
// stderr, and carries run and task attributes:
//
//	logger, err := logging.NewLogger(dir, "DEBUG")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//	logger.WithRun("build").WithTask("test").Info("task started")
//
// The task log channel is a per-task [RecordBuffer] fed by a
// [RecordHandler]. The scheduler installs a task's logger in the context
// passed to its action, so task code logs with:
//
//	logging.FromContext(ctx).Info("fetched", "bytes", n)
//
// Records are kept apart from the task's captured output and rendered for
// display by a [Formatter], by default:
//
//	[2006-01-02 15:04:05][test][fetched] bytes=1024
//
// All types in this package are safe for concurrent use.
package logging
