// Package assetdb loads, caches, and disposes assets by protocol-routed
// string paths, driving in-flight fetches each tick under a byte budget and
// publishing per-tick load/unload deltas for observers.
package assetdb

import (
	"fmt"
	"sync"
)

// FetchState enumerates the phases of a fetch handle. Error is terminal; Done
// moves to Empty once the payload has been read, and Empty is terminal.
type FetchState uint8

const (
	FetchInProgress FetchState = iota
	FetchDone
	FetchEmpty
	FetchError
)

// FetchStatus is a snapshot of a fetch handle's state.
type FetchStatus struct {
	State FetchState
	// Progress is meaningful while InProgress, in [0, 1].
	Progress float64
	// ErrorKind names the failure when State is FetchError.
	ErrorKind string
}

func (s FetchStatus) String() string {
	switch s.State {
	case FetchInProgress:
		return fmt.Sprintf("in-progress(%.2f)", s.Progress)
	case FetchDone:
		return "done"
	case FetchEmpty:
		return "empty"
	default:
		return fmt.Sprintf("error(%s)", s.ErrorKind)
	}
}

// FetchHandle tracks one in-flight fetch. Read yields the complete payload
// exactly once, after which the handle reports Empty; the database treats the
// first non-empty read as load completion.
type FetchHandle interface {
	Read() []byte
	Status() FetchStatus
}

// FetchEngine resolves relative subpaths into fetch handles.
type FetchEngine interface {
	Fetch(subpath string) (FetchHandle, error)
}

// memoryFetchHandle is a handle whose payload is available immediately.
type memoryFetchHandle struct {
	mu    sync.Mutex
	data  []byte
	state FetchState
}

func newMemoryFetchHandle(data []byte) *memoryFetchHandle {
	return &memoryFetchHandle{data: data, state: FetchDone}
}

func (h *memoryFetchHandle) Read() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != FetchDone {
		return nil
	}
	h.state = FetchEmpty
	data := h.data
	h.data = nil
	return data
}

func (h *memoryFetchHandle) Status() FetchStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return FetchStatus{State: h.state}
}

// MapFetchEngine serves fetches from an in-memory path map. It is the
// reference engine for tests and inline asset packs.
type MapFetchEngine struct {
	Map map[string][]byte
}

// NewMapFetchEngine constructs an empty map engine.
func NewMapFetchEngine() *MapFetchEngine {
	return &MapFetchEngine{Map: make(map[string][]byte)}
}

// Fetch resolves the subpath against the map.
func (e *MapFetchEngine) Fetch(subpath string) (FetchHandle, error) {
	data, ok := e.Map[subpath]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFetch, subpath)
	}
	return newMemoryFetchHandle(data), nil
}

var _ FetchEngine = (*MapFetchEngine)(nil)
