package pipeline

import (
	"runtime"

	"github.com/embergine/embergine"
)

// RunStats summarises one engine pass over a universe.
type RunStats struct {
	SystemsExecuted int
}

// Engine executes a schedule graph against a universe.
type Engine interface {
	Setup(graph Graph)
	Run(u *embergine.Universe) RunStats
}

// SequenceEngine flattens the graph into a linear vector of systems and
// invokes each in order, ignoring parallel grouping entirely.
type SequenceEngine struct {
	systems []System
}

// NewSequenceEngine constructs an empty sequence engine.
func NewSequenceEngine() *SequenceEngine {
	return &SequenceEngine{}
}

// Setup flattens the graph.
func (e *SequenceEngine) Setup(graph Graph) {
	e.systems = e.systems[:0]
	flattenSystems(graph, &e.systems)
}

func flattenSystems(graph Graph, out *[]System) {
	switch node := graph.(type) {
	case SystemNode:
		*out = append(*out, node.System)
	case SequenceNode:
		for _, child := range node.Children {
			flattenSystems(child, out)
		}
	case ParallelNode:
		for _, child := range node.Children {
			flattenSystems(child, out)
		}
	}
}

// Run invokes every system with the universe.
func (e *SequenceEngine) Run(u *embergine.Universe) RunStats {
	for _, system := range e.systems {
		if system != nil {
			system(u)
		}
	}
	return RunStats{SystemsExecuted: len(e.systems)}
}

// DefaultEngine stores the graph and walks it: Sequence nodes left to right,
// Parallel nodes concurrently when parallel mode is on and more than one
// child exists. Systems flagged single-thread always run on the dispatching
// goroutine.
type DefaultEngine struct {
	parallel bool
	graph    Graph
	pool     *workerPool
}

// NewDefaultEngine constructs an engine that executes everything serially.
func NewDefaultEngine() *DefaultEngine {
	return &DefaultEngine{}
}

// NewParallelDefaultEngine constructs an engine that fans Parallel nodes out
// over a worker pool. A worker count below one defaults to the CPU count.
func NewParallelDefaultEngine(workers int) *DefaultEngine {
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers <= 0 {
			workers = 1
		}
	}
	return &DefaultEngine{parallel: true, pool: newWorkerPool(workers)}
}

// Parallel reports whether parallel execution is enabled.
func (e *DefaultEngine) Parallel() bool {
	return e.parallel
}

// Setup stores the graph.
func (e *DefaultEngine) Setup(graph Graph) {
	e.graph = graph
}

// Close releases the worker pool.
func (e *DefaultEngine) Close() {
	e.pool.Close()
}

// Run walks the stored graph.
func (e *DefaultEngine) Run(u *embergine.Universe) RunStats {
	if e.graph == nil {
		return RunStats{}
	}
	return RunStats{SystemsExecuted: e.runNode(e.graph, u)}
}

func (e *DefaultEngine) runNode(graph Graph, u *embergine.Universe) int {
	switch node := graph.(type) {
	case SystemNode:
		if node.System == nil {
			return 0
		}
		node.System(u)
		return 1
	case SequenceNode:
		executed := 0
		for _, child := range node.Children {
			executed += e.runNode(child, u)
		}
		return executed
	case ParallelNode:
		if !e.parallel || len(node.Children) <= 1 {
			executed := 0
			for _, child := range node.Children {
				executed += e.runNode(child, u)
			}
			return executed
		}
		return e.runParallel(node, u)
	}
	return 0
}

// runParallel dispatches children to workers and joins before advancing.
// Safe because the builder guarantees disjoint write sets among siblings.
func (e *DefaultEngine) runParallel(node ParallelNode, u *embergine.Universe) int {
	handles := make([]*jobHandle, 0, len(node.Children))
	var pinned []Graph
	for _, child := range node.Children {
		if system, ok := child.(SystemNode); ok && system.LockOnSingleThread {
			pinned = append(pinned, child)
			continue
		}
		child := child
		handles = append(handles, e.pool.Submit(func() runResult {
			return runResult{executed: e.runNode(child, u)}
		}))
	}
	executed := 0
	for _, child := range pinned {
		executed += e.runNode(child, u)
	}
	for _, handle := range handles {
		res := handle.Wait()
		executed += res.executed
	}
	return executed
}

var (
	_ Engine = (*SequenceEngine)(nil)
	_ Engine = (*DefaultEngine)(nil)
)
