// Package graph defines tasks and the dependency graph they run in.
//
// A [TaskGraph] records named [Task] values and "waits-for" edges: an edge
// from B to A means B may only start after A succeeds. The graph answers
// the structural questions the scheduler needs (cycles, in-degrees,
// successors, the ready set) and never runs anything itself.
//
//	g := graph.New()
//	_ = g.AddTask(graph.NewTask("fetch", fetch))
//	_ = g.AddTask(graph.NewTask("build", build), "fetch")
//	if cycle := g.HasCycle(); cycle != nil { ... }
package graph
