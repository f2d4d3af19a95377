package pipeline

import (
	"sync"
	"time"

	"github.com/embergine/embergine"
)

type pipelineTag struct{}

// PipelineID identifies an engine registered in a multiverse.
type PipelineID = embergine.Id[pipelineTag]

// MultiverseOption customises multiverse construction.
type MultiverseOption func(*Multiverse)

// WithParallel enables ticking bound universes on separate goroutines.
func WithParallel(mode bool) MultiverseOption {
	return func(m *Multiverse) { m.parallel = mode }
}

// WithObserver installs a tick observer.
func WithObserver(observer TickObserver) MultiverseOption {
	return func(m *Multiverse) {
		if observer != nil {
			m.observer = observer
		}
	}
}

// WithLogger installs the logger handed to every universe the multiverse
// creates.
func WithLogger(logger embergine.Logger) MultiverseOption {
	return func(m *Multiverse) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Multiverse coordinates universes, each bound to a pipeline engine, and
// ticks them together. Parallel ticking is sound because bindings are keyed
// by id-distinct universes: no two goroutines ever share a universe.
type Multiverse struct {
	parallel        bool
	universes       map[embergine.UniverseID]*embergine.Universe
	engines         map[PipelineID]Engine
	bindings        map[embergine.UniverseID]PipelineID
	defaultUniverse embergine.UniverseID
	observer        TickObserver
	logger          embergine.Logger
	tick            uint64
}

// NewMultiverse constructs a multiverse with one universe running the given
// state, bound to the given engine, set as default.
func NewMultiverse(engine Engine, state embergine.State, opts ...MultiverseOption) *Multiverse {
	m := &Multiverse{
		universes: make(map[embergine.UniverseID]*embergine.Universe),
		engines:   make(map[PipelineID]Engine),
		bindings:  make(map[embergine.UniverseID]PipelineID),
		observer:  noopObserver{},
		logger:    embergine.NoopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	universe := m.CreateUniverse(state)
	pipeline := m.InsertEngine(engine)
	m.Bind(universe, pipeline)
	m.SetDefaultUniverseID(universe)
	return m
}

// CreateUniverse adds a universe with the given initial state.
func (m *Multiverse) CreateUniverse(state embergine.State, opts ...embergine.UniverseOption) embergine.UniverseID {
	opts = append([]embergine.UniverseOption{embergine.WithUniverseLogger(m.logger)}, opts...)
	id := embergine.NewId[embergine.Universe]()
	m.universes[id] = embergine.NewUniverse(state, opts...)
	return id
}

// DeleteUniverse removes a universe and its binding.
func (m *Multiverse) DeleteUniverse(id embergine.UniverseID) *embergine.Universe {
	if m.defaultUniverse == id {
		m.defaultUniverse = embergine.UniverseID{}
	}
	delete(m.bindings, id)
	universe := m.universes[id]
	delete(m.universes, id)
	return universe
}

// Universe returns the universe with the given id.
func (m *Multiverse) Universe(id embergine.UniverseID) *embergine.Universe {
	return m.universes[id]
}

// UniverseIDs lists registered universes.
func (m *Multiverse) UniverseIDs() []embergine.UniverseID {
	out := make([]embergine.UniverseID, 0, len(m.universes))
	for id := range m.universes {
		out = append(out, id)
	}
	return out
}

// DefaultUniverseID returns the default universe id; zero when unset.
func (m *Multiverse) DefaultUniverseID() embergine.UniverseID {
	return m.defaultUniverse
}

// SetDefaultUniverseID changes the default universe.
func (m *Multiverse) SetDefaultUniverseID(id embergine.UniverseID) {
	m.defaultUniverse = id
}

// DefaultUniverse returns the default universe, nil when unset.
func (m *Multiverse) DefaultUniverse() *embergine.Universe {
	if m.defaultUniverse.IsZero() {
		return nil
	}
	return m.universes[m.defaultUniverse]
}

// InsertEngine registers a pipeline engine.
func (m *Multiverse) InsertEngine(engine Engine) PipelineID {
	id := embergine.NewId[pipelineTag]()
	m.engines[id] = engine
	return id
}

// RemoveEngine unregisters an engine and every binding pointing at it.
func (m *Multiverse) RemoveEngine(id PipelineID) {
	for universe, pipeline := range m.bindings {
		if pipeline == id {
			delete(m.bindings, universe)
		}
	}
	delete(m.engines, id)
}

// PipelineIDs lists registered engines.
func (m *Multiverse) PipelineIDs() []PipelineID {
	out := make([]PipelineID, 0, len(m.engines))
	for id := range m.engines {
		out = append(out, id)
	}
	return out
}

// Bind ties a universe to a pipeline engine.
func (m *Multiverse) Bind(universe embergine.UniverseID, pipeline PipelineID) {
	m.bindings[universe] = pipeline
}

// Unbind removes a universe's binding.
func (m *Multiverse) Unbind(universe embergine.UniverseID) {
	delete(m.bindings, universe)
}

// UnbindAll removes every binding.
func (m *Multiverse) UnbindAll() {
	m.bindings = make(map[embergine.UniverseID]PipelineID)
}

// IsRunning reports whether any bound universe is still running.
func (m *Multiverse) IsRunning() bool {
	for id := range m.bindings {
		if universe, ok := m.universes[id]; ok && universe.IsRunning() {
			return true
		}
	}
	return false
}

type boundRun struct {
	universeID embergine.UniverseID
	pipelineID PipelineID
	universe   *embergine.Universe
	engine     Engine
}

// Process ticks every bound (universe, pipeline) pair, then maintains every
// universe. With parallel mode on and more than one binding, pairs tick on
// separate goroutines and join before maintenance.
func (m *Multiverse) Process() {
	runs := make([]boundRun, 0, len(m.bindings))
	for universeID, pipelineID := range m.bindings {
		universe, ok := m.universes[universeID]
		if !ok {
			continue
		}
		engine, ok := m.engines[pipelineID]
		if !ok {
			continue
		}
		runs = append(runs, boundRun{
			universeID: universeID,
			pipelineID: pipelineID,
			universe:   universe,
			engine:     engine,
		})
	}

	tick := m.tick
	if m.parallel && len(runs) > 1 {
		summaries := make([]TickSummary, len(runs))
		var wg sync.WaitGroup
		for i, run := range runs {
			wg.Add(1)
			go func(i int, run boundRun) {
				defer wg.Done()
				summaries[i] = m.runBinding(run, tick)
			}(i, run)
		}
		wg.Wait()
		for _, summary := range summaries {
			m.observer.UniverseTicked(summary)
		}
	} else {
		for _, run := range runs {
			m.observer.UniverseTicked(m.runBinding(run, tick))
		}
	}

	for _, universe := range m.universes {
		universe.Maintain()
	}
	m.tick++
}

func (m *Multiverse) runBinding(run boundRun, tick uint64) TickSummary {
	start := time.Now()
	stats := run.engine.Run(run.universe)
	return TickSummary{
		UniverseID:      run.universeID,
		PipelineID:      run.pipelineID,
		Tick:            tick,
		Duration:        time.Since(start),
		SystemsExecuted: stats.SystemsExecuted,
		Parallel:        m.parallel,
	}
}
