package scheduler

import "github.com/Iron-Ham/gtui/internal/graph"

// RunContext is the bookkeeping for one execution of a graph. It is only
// touched under the executor's coordination lock and is never persisted.
type RunContext struct {
	remaining map[string]int
	terminal  int
	total     int
	success   bool
	firstErr  error
}

func newRunContext(g *graph.TaskGraph) *RunContext {
	rc := &RunContext{
		remaining: make(map[string]int, g.Len()),
		total:     g.Len(),
		success:   true,
	}
	for _, name := range g.Names() {
		rc.remaining[name] = g.InDegree(name)
	}
	return rc
}

// Remaining returns how many dependencies of name have not yet succeeded.
func (rc *RunContext) Remaining(name string) int {
	return rc.remaining[name]
}

// satisfy records that one dependency of name succeeded and reports
// whether name now has none left.
func (rc *RunContext) satisfy(name string) bool {
	rc.remaining[name]--
	return rc.remaining[name] == 0
}

func (rc *RunContext) fail(err error) {
	rc.success = false
	if rc.firstErr == nil {
		rc.firstErr = err
	}
}

func (rc *RunContext) done() bool {
	return rc.terminal == rc.total
}
