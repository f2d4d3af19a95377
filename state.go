package embergine

import "time"

type stateTag struct{}

// StateToken is a fresh unique id minted on every Push or Swap. Entities
// tagged NonPersistent with a token are despawned when it leaves the stack.
type StateToken = Id[stateTag]

// NewStateToken mints a token.
func NewStateToken() StateToken {
	return NewId[stateTag]()
}

// StateChangeKind enumerates the transitions a state can request.
type StateChangeKind uint8

const (
	StateChangeNone StateChangeKind = iota
	StateChangePush
	StateChangePop
	StateChangeSwap
	StateChangeQuit
)

// StateChange is the transition returned from a state's OnProcess.
type StateChange struct {
	Kind  StateChangeKind
	State State
}

// NoChange keeps the current stack.
func NoChange() StateChange { return StateChange{Kind: StateChangeNone} }

// Push pauses the current state and enters a new one on top.
func Push(state State) StateChange { return StateChange{Kind: StateChangePush, State: state} }

// Pop exits the current state and resumes the one below.
func Pop() StateChange { return StateChange{Kind: StateChangePop} }

// Swap exits the current state and enters a replacement with a fresh token.
func Swap(state State) StateChange { return StateChange{Kind: StateChangeSwap, State: state} }

// Quit exits every state in LIFO order.
func Quit() StateChange { return StateChange{Kind: StateChangeQuit} }

// State is a stage of a universe's lifetime. Only the top of the stack
// receives OnProcess; the rest receive OnProcessBackground.
type State interface {
	OnEnter(u *Universe)
	OnExit(u *Universe)
	OnPause(u *Universe)
	OnResume(u *Universe)
	OnProcess(u *Universe) StateChange
	OnProcessBackground(u *Universe)
}

// BaseState is a no-op State meant for embedding, so concrete states only
// override the hooks they care about.
type BaseState struct{}

func (BaseState) OnEnter(*Universe)  {}
func (BaseState) OnExit(*Universe)   {}
func (BaseState) OnPause(*Universe)  {}
func (BaseState) OnResume(*Universe) {}
func (BaseState) OnProcess(*Universe) StateChange {
	return NoChange()
}
func (BaseState) OnProcessBackground(*Universe) {}

// LifeCycleTimer tracks frame timing for a universe, ticked once per maintain.
type LifeCycleTimer struct {
	last  time.Time
	delta time.Duration
	total time.Duration
}

// Tick advances the timer.
func (t *LifeCycleTimer) Tick() {
	now := time.Now()
	if !t.last.IsZero() {
		t.delta = now.Sub(t.last)
		t.total += t.delta
	}
	t.last = now
}

// DeltaTime is the duration of the last tick.
func (t *LifeCycleTimer) DeltaTime() time.Duration { return t.delta }

// TotalTime is the accumulated run time.
func (t *LifeCycleTimer) TotalTime() time.Duration { return t.total }

// AppLifeCycle is the resource that gates a universe's execution and carries
// the per-push state token stack.
type AppLifeCycle struct {
	Running     bool
	StateTokens []StateToken
	Timer       LifeCycleTimer
}

// NewAppLifeCycle constructs a running lifecycle with one initial token for
// the universe's initial state.
func NewAppLifeCycle() AppLifeCycle {
	return AppLifeCycle{Running: true, StateTokens: []StateToken{NewStateToken()}}
}

// CurrentStateToken returns the token of the top state.
func (l *AppLifeCycle) CurrentStateToken() StateToken {
	if len(l.StateTokens) == 0 {
		return StateToken{}
	}
	return l.StateTokens[len(l.StateTokens)-1]
}
