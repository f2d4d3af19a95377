package pipeline

import (
	"fmt"

	"github.com/embergine/embergine"
)

// DependencyNotFoundError reports a system declaration that references a
// dependency absent from its layer.
type DependencyNotFoundError struct {
	Name string
}

func (e DependencyNotFoundError) Error() string {
	return fmt.Sprintf("pipeline: dependency not found: %s", e.Name)
}

// Builder accumulates system declarations and emits a schedule graph. A
// dependency must already be present in the same layer when referenced.
type Builder interface {
	AddSystemOnLayer(name string, system System, access embergine.Access, dependencies []string, layer Layer, lockOnSingleThread bool) error
	AddSystem(name string, system System, access embergine.Access, dependencies ...string) error
	AddSystemOnSingleThread(name string, system System, access embergine.Access, dependencies ...string) error
	Graph() Graph
}

// Build finalises the builder into the given engine.
func Build(b Builder, engine Engine) Engine {
	engine.Setup(b.Graph())
	return engine
}

type builderMeta struct {
	name   string
	system GraphSystem
}

// LinearBuilder preserves declaration order per layer and emits a flat
// sequence grouped Pre, Main, Post.
type LinearBuilder struct {
	systemsPre  []builderMeta
	systemsMain []builderMeta
	systemsPost []builderMeta
}

// NewLinearBuilder constructs an empty linear builder.
func NewLinearBuilder() *LinearBuilder {
	return &LinearBuilder{}
}

func (b *LinearBuilder) layerSystems(layer Layer) *[]builderMeta {
	switch layer {
	case LayerPre:
		return &b.systemsPre
	case LayerPost:
		return &b.systemsPost
	default:
		return &b.systemsMain
	}
}

// AddSystemOnLayer registers a system on the given layer.
func (b *LinearBuilder) AddSystemOnLayer(name string, system System, access embergine.Access, dependencies []string, layer Layer, lockOnSingleThread bool) error {
	systems := b.layerSystems(layer)
	for _, dep := range dependencies {
		found := false
		for _, meta := range *systems {
			if meta.name == dep {
				found = true
				break
			}
		}
		if !found {
			return DependencyNotFoundError{Name: dep}
		}
	}
	*systems = append(*systems, builderMeta{
		name: name,
		system: GraphSystem{
			Name:               name,
			System:             system,
			Access:             access,
			Layer:              layer,
			LockOnSingleThread: lockOnSingleThread,
		},
	})
	return nil
}

// AddSystem registers a system on the main layer.
func (b *LinearBuilder) AddSystem(name string, system System, access embergine.Access, dependencies ...string) error {
	return b.AddSystemOnLayer(name, system, access, dependencies, LayerMain, false)
}

// AddSystemOnSingleThread registers a main-layer system pinned to the
// dispatching thread.
func (b *LinearBuilder) AddSystemOnSingleThread(name string, system System, access embergine.Access, dependencies ...string) error {
	return b.AddSystemOnLayer(name, system, access, dependencies, LayerMain, true)
}

// Graph emits Sequence[System...] over the three layers in order.
func (b *LinearBuilder) Graph() Graph {
	var children []Graph
	for _, metas := range [][]builderMeta{b.systemsPre, b.systemsMain, b.systemsPost} {
		for _, meta := range metas {
			children = append(children, SystemNode{GraphSystem: meta.system})
		}
	}
	return SequenceNode{Children: children}
}

// ParallelBuilder bucketises systems per layer into ordered parallel groups:
// every dependency lands in a strictly earlier group, all members of a group
// write disjoint type sets, and no group exceeds the job limit.
type ParallelBuilder struct {
	parallelJobs int
	systemsPre   [][]builderMeta
	systemsMain  [][]builderMeta
	systemsPost  [][]builderMeta
}

// NewParallelBuilder constructs a builder targeting the given job count.
func NewParallelBuilder(parallelJobs int) *ParallelBuilder {
	if parallelJobs < 1 {
		parallelJobs = 1
	}
	return &ParallelBuilder{parallelJobs: parallelJobs}
}

func (b *ParallelBuilder) layerSystems(layer Layer) *[][]builderMeta {
	switch layer {
	case LayerPre:
		return &b.systemsPre
	case LayerPost:
		return &b.systemsPost
	default:
		return &b.systemsMain
	}
}

// AddSystemOnLayer registers a system, scanning existing groups in order:
// groups are skipped until every declared dependency has been passed, then
// the system joins the first later group with room and disjoint writes, else
// opens a new trailing group.
func (b *ParallelBuilder) AddSystemOnLayer(name string, system System, access embergine.Access, dependencies []string, layer Layer, lockOnSingleThread bool) error {
	systems := b.layerSystems(layer)
	for _, dep := range dependencies {
		found := false
		for _, group := range *systems {
			for _, meta := range group {
				if meta.name == dep {
					found = true
					break
				}
			}
		}
		if !found {
			return DependencyNotFoundError{Name: dep}
		}
	}
	meta := builderMeta{
		name: name,
		system: GraphSystem{
			Name:               name,
			System:             system,
			Access:             access,
			Layer:              layer,
			LockOnSingleThread: lockOnSingleThread,
		},
	}
	if b.parallelJobs == 1 {
		*systems = append(*systems, []builderMeta{meta})
		return nil
	}
	dependenciesLeft := make(map[string]struct{}, len(dependencies))
	for _, dep := range dependencies {
		dependenciesLeft[dep] = struct{}{}
	}
	for i, group := range *systems {
		if len(dependenciesLeft) > 0 {
			for _, member := range group {
				delete(dependenciesLeft, member.name)
			}
			continue
		}
		if len(group) >= b.parallelJobs {
			continue
		}
		disjoint := true
		for _, member := range group {
			if !member.system.Access.Writes.Disjoint(meta.system.Access.Writes) {
				disjoint = false
				break
			}
		}
		if disjoint {
			(*systems)[i] = append(group, meta)
			return nil
		}
	}
	*systems = append(*systems, []builderMeta{meta})
	return nil
}

// AddSystem registers a system on the main layer.
func (b *ParallelBuilder) AddSystem(name string, system System, access embergine.Access, dependencies ...string) error {
	return b.AddSystemOnLayer(name, system, access, dependencies, LayerMain, false)
}

// AddSystemOnSingleThread registers a main-layer system pinned to the
// dispatching thread.
func (b *ParallelBuilder) AddSystemOnSingleThread(name string, system System, access embergine.Access, dependencies ...string) error {
	return b.AddSystemOnLayer(name, system, access, dependencies, LayerMain, true)
}

// Graph emits Sequence[Parallel[System...]...] over the three layers in order.
func (b *ParallelBuilder) Graph() Graph {
	var children []Graph
	for _, layer := range [][][]builderMeta{b.systemsPre, b.systemsMain, b.systemsPost} {
		for _, group := range layer {
			parallel := ParallelNode{Children: make([]Graph, 0, len(group))}
			for _, meta := range group {
				parallel.Children = append(parallel.Children, SystemNode{GraphSystem: meta.system})
			}
			children = append(children, parallel)
		}
	}
	return SequenceNode{Children: children}
}

var (
	_ Builder = (*LinearBuilder)(nil)
	_ Builder = (*ParallelBuilder)(nil)
)
