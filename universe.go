package embergine

// UniverseID identifies a universe inside a multiverse.
type UniverseID = Id[Universe]

// UniverseOption customises universe construction.
type UniverseOption func(*Universe)

// WithUniverseLogger overrides the default no-op logger.
func WithUniverseLogger(logger Logger) UniverseOption {
	return func(u *Universe) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// WithUniverseWorld overrides the default world.
func WithUniverseWorld(world *World) UniverseOption {
	return func(u *Universe) {
		if world != nil {
			u.world = world
		}
	}
}

// Universe binds a world, a type-indexed resource table, a state stack, and a
// deferred command queue into one schedulable unit.
type Universe struct {
	world     *World
	resources *resourceTable
	states    []State
	startup   bool
	commands  *UniverseCommands
	logger    Logger
}

// NewUniverse constructs a universe with the given initial state.
func NewUniverse(state State, opts ...UniverseOption) *Universe {
	u := &Universe{
		world:     NewWorld(),
		resources: newResourceTable(),
		startup:   true,
		commands:  NewUniverseCommands(),
		logger:    NoopLogger(),
	}
	if state != nil {
		u.states = []State{state}
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// World exposes the universe's world.
func (u *Universe) World() *World {
	return u.world
}

// Commands exposes the deferred command queue.
func (u *Universe) Commands() *UniverseCommands {
	return u.commands
}

// Logger exposes the universe's logger.
func (u *Universe) Logger() Logger {
	return u.logger
}

// StateCount reports the depth of the state stack.
func (u *Universe) StateCount() int {
	return len(u.states)
}

// IsRunning reports whether the universe should keep advancing: a non-empty
// state stack and a lifecycle resource that reports running.
func (u *Universe) IsRunning() bool {
	if len(u.states) == 0 {
		return false
	}
	res, ok := Resource[AppLifeCycle](u)
	if !ok {
		return false
	}
	running := res.Get().Running
	res.Release()
	return running
}

// currentStateToken reads the top token without holding the lifecycle borrow
// past the call.
func (u *Universe) currentStateToken() (StateToken, bool) {
	res, ok := Resource[AppLifeCycle](u)
	if !ok {
		return StateToken{}, false
	}
	token := res.Get().CurrentStateToken()
	res.Release()
	return token, true
}

func (u *Universe) pushStateToken() {
	res, ok := ResourceMut[AppLifeCycle](u)
	if !ok {
		return
	}
	lc := res.Get()
	lc.StateTokens = append(lc.StateTokens, NewStateToken())
	res.Release()
}

func (u *Universe) popStateToken() {
	res, ok := ResourceMut[AppLifeCycle](u)
	if !ok {
		return
	}
	lc := res.Get()
	if n := len(lc.StateTokens); n > 0 {
		lc.StateTokens = lc.StateTokens[:n-1]
	}
	res.Release()
}

// Maintain advances the universe by one lifecycle step: run deferred
// commands, process the state stack, clean up non-persistent entities, apply
// the requested transition, and tick the lifecycle timer.
func (u *Universe) Maintain() {
	u.commands.Run(u)
	if len(u.states) == 0 {
		return
	}
	if u.startup {
		u.states[len(u.states)-1].OnEnter(u)
		u.startup = false
	}
	for _, state := range u.states[:len(u.states)-1] {
		state.OnProcessBackground(u)
	}
	change := u.states[len(u.states)-1].OnProcess(u)

	switch change.Kind {
	case StateChangePop, StateChangeSwap:
		if token, ok := u.currentStateToken(); ok {
			for _, entity := range u.world.nonPersistentEntities(func(t StateToken) bool { return t == token }) {
				u.world.Despawn(entity)
			}
		}
	case StateChangeQuit:
		for _, entity := range u.world.nonPersistentEntities(func(StateToken) bool { return true }) {
			u.world.Despawn(entity)
		}
	}

	switch change.Kind {
	case StateChangePush:
		u.states[len(u.states)-1].OnPause(u)
		u.pushStateToken()
		change.State.OnEnter(u)
		u.states = append(u.states, change.State)
	case StateChangePop:
		top := u.states[len(u.states)-1]
		u.states = u.states[:len(u.states)-1]
		top.OnExit(u)
		u.popStateToken()
		if len(u.states) > 0 {
			u.states[len(u.states)-1].OnResume(u)
		}
	case StateChangeSwap:
		top := u.states[len(u.states)-1]
		u.states = u.states[:len(u.states)-1]
		top.OnExit(u)
		u.popStateToken()
		u.pushStateToken()
		change.State.OnEnter(u)
		u.states = append(u.states, change.State)
	case StateChangeQuit:
		for len(u.states) > 0 {
			top := u.states[len(u.states)-1]
			u.states = u.states[:len(u.states)-1]
			top.OnExit(u)
			u.popStateToken()
		}
	}

	if res, ok := ResourceMut[AppLifeCycle](u); ok {
		res.Get().Timer.Tick()
		res.Release()
	}
}
