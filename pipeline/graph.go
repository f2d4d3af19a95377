// Package pipeline turns declarative system registrations into executable
// schedules: a tree of sequence/parallel nodes over system functions, each
// tagged with the read/write type sets used for conflict analysis.
package pipeline

import "github.com/embergine/embergine"

// System is executable logic invoked once per tick with exclusive access to
// its universe under its declared read/write contract.
type System func(u *embergine.Universe)

// Layer orders systems into three coarse buckets executed Pre, Main, Post.
type Layer uint8

const (
	LayerPre Layer = iota
	LayerMain
	LayerPost
)

// String renders the layer label.
func (l Layer) String() string {
	switch l {
	case LayerPre:
		return "pre"
	case LayerPost:
		return "post"
	default:
		return "main"
	}
}

// GraphSystem is a scheduled system together with its access metadata.
type GraphSystem struct {
	Name               string
	System             System
	Access             embergine.Access
	Layer              Layer
	LockOnSingleThread bool
}

// Graph is a recursive schedule node: a single system, an ordered sequence,
// or a group of systems safe to execute concurrently.
type Graph interface {
	isGraph()
}

// SystemNode is a leaf holding one system.
type SystemNode struct {
	GraphSystem
}

// SequenceNode executes children left to right.
type SequenceNode struct {
	Children []Graph
}

// ParallelNode executes children in unspecified order, concurrently when the
// engine allows it. The builder guarantees disjoint write sets among children.
type ParallelNode struct {
	Children []Graph
}

func (SystemNode) isGraph()   {}
func (SequenceNode) isGraph() {}
func (ParallelNode) isGraph() {}
