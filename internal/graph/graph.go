package graph

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Iron-Ham/gtui/internal/errors"
)

// ReadyCounter reports how many dependencies of a task are still unmet.
type ReadyCounter interface {
	Remaining(name string) int
}

// TaskGraph holds tasks and the waits-for edges between them. Tasks and
// edges keep insertion order. A graph is mutable until Freeze.
type TaskGraph struct {
	mu         sync.RWMutex
	tasks      []*Task
	index      map[string]*Task
	waitsFor   map[string][]string
	successors map[string][]string
	frozen     bool
}

// New returns an empty graph.
func New() *TaskGraph {
	return &TaskGraph{
		index:      make(map[string]*Task),
		waitsFor:   make(map[string][]string),
		successors: make(map[string][]string),
	}
}

// AddTask registers task. Any waitingFor names become edges from task to
// them, exactly as if AddDependency were called next; the call either
// fully succeeds or leaves the graph unchanged.
func (g *TaskGraph) AddTask(task *Task, waitingFor ...string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkMutable(); err != nil {
		return err
	}
	if err := g.checkNew(task, nil); err != nil {
		return err
	}
	for _, dep := range waitingFor {
		if _, ok := g.index[dep]; !ok && dep != task.name {
			return errors.NewUnknownTaskError(dep).WithReferrer(task.name)
		}
	}

	g.insert(task)
	for _, dep := range waitingFor {
		g.link(task.name, dep)
	}
	return nil
}

// AddTasks registers several tasks at once. Every name is checked against
// the graph and the rest of the batch before any is inserted.
func (g *TaskGraph) AddTasks(tasks ...*Task) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkMutable(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		if err := g.checkNew(task, seen); err != nil {
			return err
		}
		seen[task.name] = true
	}
	for _, task := range tasks {
		g.insert(task)
	}
	return nil
}

// AddDependency declares that task waits for each of waitingFor. Every
// name must already be registered; nothing is inserted otherwise.
// Repeated edges are ignored. A task waiting for itself is accepted and
// reported by HasCycle.
func (g *TaskGraph) AddDependency(task string, waitingFor ...string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkMutable(); err != nil {
		return err
	}
	if _, ok := g.index[task]; !ok {
		return errors.NewUnknownTaskError(task)
	}
	for _, dep := range waitingFor {
		if _, ok := g.index[dep]; !ok {
			return errors.NewUnknownTaskError(dep).WithReferrer(task)
		}
	}
	for _, dep := range waitingFor {
		g.link(task, dep)
	}
	return nil
}

func (g *TaskGraph) checkMutable() error {
	if g.frozen {
		return errors.ErrGraphFrozen
	}
	return nil
}

// checkNew must be called with mu held.
func (g *TaskGraph) checkNew(task *Task, batch map[string]bool) error {
	if task == nil {
		return fmt.Errorf("%w: nil task", errors.ErrInvalidInput)
	}
	if task.name == "" {
		return fmt.Errorf("%w: task name is empty", errors.ErrInvalidInput)
	}
	if task.action == nil {
		return fmt.Errorf("%w: task %s has no action", errors.ErrInvalidInput, task.name)
	}
	if _, ok := g.index[task.name]; ok || batch[task.name] {
		return errors.NewDuplicateNameError(task.name)
	}
	return nil
}

func (g *TaskGraph) insert(task *Task) {
	g.tasks = append(g.tasks, task)
	g.index[task.name] = task
}

func (g *TaskGraph) link(task, dep string) {
	if slices.Contains(g.waitsFor[task], dep) {
		return
	}
	g.waitsFor[task] = append(g.waitsFor[task], dep)
	g.successors[dep] = append(g.successors[dep], task)
}

// Freeze makes every later mutation fail with errors.ErrGraphFrozen.
func (g *TaskGraph) Freeze() {
	g.mu.Lock()
	g.frozen = true
	g.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (g *TaskGraph) Frozen() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.frozen
}

// Task returns the task registered under name.
func (g *TaskGraph) Task(name string) (*Task, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t, ok := g.index[name]
	return t, ok
}

// Tasks returns every task in insertion order.
func (g *TaskGraph) Tasks() []*Task {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.tasks)
}

// Names returns every task name in insertion order.
func (g *TaskGraph) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, len(g.tasks))
	for i, t := range g.tasks {
		names[i] = t.name
	}
	return names
}

// Len returns the number of tasks.
func (g *TaskGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.tasks)
}

// Dependencies returns the tasks name waits for, in declaration order.
func (g *TaskGraph) Dependencies(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.waitsFor[name])
}

// Successors returns the tasks waiting for name, in declaration order.
func (g *TaskGraph) Successors(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.successors[name])
}

// InDegree returns how many tasks name waits for.
func (g *TaskGraph) InDegree(name string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.waitsFor[name])
}

// ReadySet returns the PENDING tasks with no unmet dependencies according
// to rc, in insertion order.
func (g *TaskGraph) ReadySet(rc ReadyCounter) []*Task {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var ready []*Task
	for _, t := range g.tasks {
		if t.Status() == StatusPending && rc.Remaining(t.name) == 0 {
			ready = append(ready, t)
		}
	}
	return ready
}

// Linear builds a graph in which each task waits for the one before it.
func Linear(tasks ...*Task) (*TaskGraph, error) {
	g := New()
	if err := g.AddTasks(tasks...); err != nil {
		return nil, err
	}
	for i := 1; i < len(tasks); i++ {
		if err := g.AddDependency(tasks[i].name, tasks[i-1].name); err != nil {
			return nil, err
		}
	}
	return g, nil
}
