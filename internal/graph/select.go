package graph

import (
	"fmt"

	"github.com/gobwas/glob"

	"github.com/Iron-Ham/gtui/internal/errors"
)

// Select returns a new graph holding the tasks whose names match any of
// the glob patterns, plus everything they transitively wait for. Edges
// between selected tasks are preserved. The tasks themselves are shared
// with g. A pattern matching nothing is an error.
func (g *TaskGraph) Select(patterns []string) (*TaskGraph, error) {
	matchers := make([]glob.Glob, len(patterns))
	for i, p := range patterns {
		m, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid pattern %q: %v", errors.ErrInvalidInput, p, err)
		}
		matchers[i] = m
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	keep := make(map[string]bool)
	var mark func(name string)
	mark = func(name string) {
		if keep[name] {
			return
		}
		keep[name] = true
		for _, dep := range g.waitsFor[name] {
			mark(dep)
		}
	}

	for i, m := range matchers {
		matched := false
		for _, t := range g.tasks {
			if m.Match(t.name) {
				matched = true
				mark(t.name)
			}
		}
		if !matched {
			return nil, errors.NewUnknownTaskError(patterns[i])
		}
	}

	sub := New()
	for _, t := range g.tasks {
		if keep[t.name] {
			sub.insert(t)
		}
	}
	for _, t := range sub.tasks {
		for _, dep := range g.waitsFor[t.name] {
			sub.link(t.name, dep)
		}
	}
	return sub, nil
}
