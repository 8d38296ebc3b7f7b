package graph

import "github.com/Iron-Ham/gtui/internal/errors"

// HasCycle returns the first cycle among the waits-for edges, as task
// names starting and ending with the same task, or nil if there is none.
// Tasks and edges are explored in insertion order, so the result is
// deterministic. With t1 waiting for t2 and t2 waiting for t1 it returns
// [t1 t2 t1]; a task waiting for itself yields [t t].
func (g *TaskGraph) HasCycle() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(g.tasks))
	var stack []string

	var dfs func(node string) []string
	dfs = func(node string) []string {
		color[node] = gray
		stack = append(stack, node)
		for _, next := range g.waitsFor[node] {
			switch color[next] {
			case gray:
				start := len(stack) - 1
				for stack[start] != next {
					start--
				}
				cycle := make([]string, 0, len(stack)-start+1)
				cycle = append(cycle, stack[start:]...)
				return append(cycle, next)
			case white:
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[node] = black
		return nil
	}

	for _, t := range g.tasks {
		if color[t.name] == white {
			if cycle := dfs(t.name); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// Validate returns a *errors.CycleError if the graph has a cycle.
func (g *TaskGraph) Validate() error {
	if cycle := g.HasCycle(); cycle != nil {
		return errors.NewCycleError(cycle)
	}
	return nil
}

// TopologicalOrder returns task names so that every task comes after the
// tasks it waits for. Ties keep insertion order.
func (g *TaskGraph) TopologicalOrder() ([]string, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	remaining := make(map[string]int, len(g.tasks))
	for _, t := range g.tasks {
		remaining[t.name] = len(g.waitsFor[t.name])
	}

	order := make([]string, 0, len(g.tasks))
	placed := make(map[string]bool, len(g.tasks))
	for len(order) < len(g.tasks) {
		progressed := false
		for _, t := range g.tasks {
			if placed[t.name] || remaining[t.name] > 0 {
				continue
			}
			placed[t.name] = true
			order = append(order, t.name)
			for _, succ := range g.successors[t.name] {
				remaining[succ]--
			}
			progressed = true
		}
		if !progressed {
			break
		}
	}
	return order, nil
}
