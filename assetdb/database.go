package assetdb

import (
	"fmt"
	"sort"
	"strings"

	"github.com/embergine/embergine"
)

// ErrorReporter receives protocol load failures.
type ErrorReporter interface {
	OnReport(protocol, path, message string)
}

// LoggingErrorReporter routes load failures to an engine logger.
type LoggingErrorReporter struct {
	Logger embergine.Logger
}

// OnReport logs the failure.
func (r LoggingErrorReporter) OnReport(protocol, path, message string) {
	logger := r.Logger
	if logger == nil {
		return
	}
	logger.Error("asset loading error",
		"path", fmt.Sprintf("%s://%s", protocol, path),
		"message", message,
	)
}

type assetEntry struct {
	path  string
	asset *Asset
}

type loadingEntry struct {
	protocol string
	handle   FetchHandle
}

type yieldedEntry struct {
	protocol string
	meta     any
	deps     []Dependency
}

type delta struct {
	protocol string
	id       AssetID
}

// Option customises database construction.
type Option func(*Database)

// WithLogger installs the logger used by the default error reporter path.
func WithLogger(logger embergine.Logger) Option {
	return func(db *Database) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// WithMaxBytesPerFrame caps how many fetched bytes one Process call consumes.
// Zero means unlimited.
func WithMaxBytesPerFrame(limit int) Option {
	return func(db *Database) { db.maxBytesPerFrame = limit }
}

// Database owns fetch engines (as a LIFO stack) and protocol handlers, drives
// in-flight loads each tick under a byte budget, and publishes lately
// loaded/unloaded deltas for observers.
//
// The loading, yielded, and table collections are pairwise disjoint on their
// keys; every id in the path table exists in the asset map and vice versa.
type Database struct {
	maxBytesPerFrame int
	fetchEngines     []FetchEngine
	protocols        map[string]Protocol
	assets           map[AssetID]assetEntry
	table            map[string]AssetID
	loading          map[string]loadingEntry
	yielded          map[string]yieldedEntry
	latelyLoaded     []delta
	latelyUnloaded   []delta
	errorReporters   map[string]ErrorReporter
	// deferLatelyCleanup is a one-shot grace armed at construction, so an
	// observer registered before the first tick still sees initial loads.
	deferLatelyCleanup bool
	logger             embergine.Logger
}

// NewDatabase constructs a database with one fetch engine on the stack.
func NewDatabase(fetchEngine FetchEngine, opts ...Option) *Database {
	db := &Database{
		protocols:          make(map[string]Protocol),
		assets:             make(map[AssetID]assetEntry),
		table:              make(map[string]AssetID),
		loading:            make(map[string]loadingEntry),
		yielded:            make(map[string]yieldedEntry),
		errorReporters:     make(map[string]ErrorReporter),
		deferLatelyCleanup: true,
		logger:             embergine.NoopLogger(),
	}
	if fetchEngine != nil {
		db.fetchEngines = append(db.fetchEngines, fetchEngine)
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// RegisterErrorReporter installs a reporter under a caller-supplied name.
func (db *Database) RegisterErrorReporter(name string, reporter ErrorReporter) {
	if reporter == nil {
		return
	}
	db.errorReporters[name] = reporter
}

// UnregisterErrorReporter removes a reporter by name.
func (db *Database) UnregisterErrorReporter(name string) {
	delete(db.errorReporters, name)
}

func (db *Database) report(protocol, path, message string) {
	for _, reporter := range db.errorReporters {
		reporter.OnReport(protocol, path, message)
	}
}

// PushFetchEngine layers an engine override on the stack.
func (db *Database) PushFetchEngine(engine FetchEngine) {
	if engine != nil {
		db.fetchEngines = append(db.fetchEngines, engine)
	}
}

// PopFetchEngine removes the top engine, returning it.
func (db *Database) PopFetchEngine() FetchEngine {
	n := len(db.fetchEngines)
	if n == 0 {
		return nil
	}
	engine := db.fetchEngines[n-1]
	db.fetchEngines = db.fetchEngines[:n-1]
	return engine
}

// FetchEngine returns the active engine, nil when the stack is empty.
func (db *Database) FetchEngine() FetchEngine {
	if n := len(db.fetchEngines); n > 0 {
		return db.fetchEngines[n-1]
	}
	return nil
}

// HasFetchEngine reports whether any engine is stacked.
func (db *Database) HasFetchEngine() bool {
	return len(db.fetchEngines) > 0
}

// FetchEngineStackSize reports the engine stack depth.
func (db *Database) FetchEngineStackSize() int {
	return len(db.fetchEngines)
}

// Register installs a protocol handler under its declared name.
func (db *Database) Register(protocol Protocol) {
	if protocol == nil {
		return
	}
	protocol.OnRegister()
	db.protocols[protocol.Name()] = protocol
}

// Unregister removes a protocol handler by name, returning it.
func (db *Database) Unregister(name string) Protocol {
	protocol, ok := db.protocols[name]
	if !ok {
		return nil
	}
	protocol.OnUnregister()
	delete(db.protocols, name)
	return protocol
}

// Load starts loading the asset at "{protocol}://{path}". Already-loaded
// paths succeed immediately.
func (db *Database) Load(path string) error {
	path = cleanPath(path)
	if _, ok := db.table[path]; ok {
		return nil
	}
	parts := strings.SplitN(path, "://", 2)
	if len(parts) != 2 {
		return fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	protocol, subpath := parts[0], parts[1]
	if _, ok := db.protocols[protocol]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProtocol, protocol)
	}
	engine := db.FetchEngine()
	if engine == nil {
		return ErrNoFetchEngine
	}
	handle, err := engine.Fetch(subpath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFetch, path, err)
	}
	db.loading[subpath] = loadingEntry{protocol: protocol, handle: handle}
	return nil
}

// Insert stores an already-built asset, bypassing loading. The delta list
// still records it so observers see manual inserts.
func (db *Database) Insert(asset *Asset) AssetID {
	path := cleanPath(asset.FullPath())
	id := asset.ID()
	db.latelyLoaded = append(db.latelyLoaded, delta{protocol: asset.Protocol(), id: id})
	db.assets[id] = assetEntry{path: path, asset: asset}
	db.table[path] = id
	return id
}

// RemoveByID removes an asset, cascading through the protocol's on-unload
// dependents list.
func (db *Database) RemoveByID(id AssetID) *Asset {
	entry, ok := db.assets[id]
	if !ok {
		return nil
	}
	delete(db.assets, id)
	delete(db.table, entry.path)
	db.latelyUnloaded = append(db.latelyUnloaded, delta{protocol: entry.asset.Protocol(), id: id})
	if protocol, ok := db.protocols[entry.asset.Protocol()]; ok {
		if dependents := protocol.OnUnload(entry.asset); len(dependents) > 0 {
			db.RemoveByVariants(dependents)
		}
	}
	return entry.asset
}

// RemoveByPath removes an asset by full path, cascading like RemoveByID.
func (db *Database) RemoveByPath(path string) *Asset {
	id, ok := db.table[cleanPath(path)]
	if !ok {
		return nil
	}
	return db.RemoveByID(id)
}

// RemoveByVariants removes a batch of assets addressed by id or path.
func (db *Database) RemoveByVariants(variants []AssetVariant) {
	for _, variant := range variants {
		if !variant.ID.IsZero() {
			db.RemoveByID(variant.ID)
		} else if variant.Path != "" {
			db.RemoveByPath(variant.Path)
		}
	}
}

// IDByPath resolves a full path to an asset id.
func (db *Database) IDByPath(path string) (AssetID, bool) {
	id, ok := db.table[cleanPath(path)]
	return id, ok
}

// PathByID resolves an asset id to its full path.
func (db *Database) PathByID(id AssetID) (string, bool) {
	entry, ok := db.assets[id]
	if !ok {
		return "", false
	}
	return entry.path, true
}

// AssetByID fetches a loaded asset by id.
func (db *Database) AssetByID(id AssetID) *Asset {
	if entry, ok := db.assets[id]; ok {
		return entry.asset
	}
	return nil
}

// AssetByPath fetches a loaded asset by full path.
func (db *Database) AssetByPath(path string) *Asset {
	if id, ok := db.table[cleanPath(path)]; ok {
		return db.AssetByID(id)
	}
	return nil
}

// LoadedCount reports how many assets are resident.
func (db *Database) LoadedCount() int { return len(db.assets) }

// LoadedPaths lists resident asset paths, sorted.
func (db *Database) LoadedPaths() []string {
	out := make([]string, 0, len(db.assets))
	for _, entry := range db.assets {
		out = append(out, entry.asset.FullPath())
	}
	sort.Strings(out)
	return out
}

// LoadedIDs lists resident asset ids.
func (db *Database) LoadedIDs() []AssetID {
	out := make([]AssetID, 0, len(db.assets))
	for id := range db.assets {
		out = append(out, id)
	}
	return out
}

// LoadingCount reports how many fetches are in flight.
func (db *Database) LoadingCount() int { return len(db.loading) }

// LoadingPaths lists in-flight full paths, sorted.
func (db *Database) LoadingPaths() []string {
	out := make([]string, 0, len(db.loading))
	for subpath, entry := range db.loading {
		out = append(out, entry.protocol+"://"+subpath)
	}
	sort.Strings(out)
	return out
}

// YieldedCount reports how many loads are suspended on dependencies.
func (db *Database) YieldedCount() int { return len(db.yielded) }

// YieldedPaths lists suspended full paths, sorted.
func (db *Database) YieldedPaths() []string {
	out := make([]string, 0, len(db.yielded))
	for subpath, entry := range db.yielded {
		out = append(out, entry.protocol+"://"+subpath)
	}
	sort.Strings(out)
	return out
}

// YieldedDepsCount sums dependency counts across suspended loads.
func (db *Database) YieldedDepsCount() int {
	total := 0
	for _, entry := range db.yielded {
		total += len(entry.deps)
	}
	return total
}

// YieldedDepsPaths lists distinct dependency paths, sorted.
func (db *Database) YieldedDepsPaths() []string {
	seen := make(map[string]struct{})
	for _, entry := range db.yielded {
		for _, dep := range entry.deps {
			seen[dep.Path] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for path := range seen {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// LatelyLoaded lists assets loaded in the previous tick window.
func (db *Database) LatelyLoaded() []AssetID {
	out := make([]AssetID, 0, len(db.latelyLoaded))
	for _, d := range db.latelyLoaded {
		out = append(out, d.id)
	}
	return out
}

// LatelyLoadedProtocol filters the loaded delta by protocol.
func (db *Database) LatelyLoadedProtocol(protocol string) []AssetID {
	var out []AssetID
	for _, d := range db.latelyLoaded {
		if d.protocol == protocol {
			out = append(out, d.id)
		}
	}
	return out
}

// LatelyUnloaded lists assets unloaded in the previous tick window.
func (db *Database) LatelyUnloaded() []AssetID {
	out := make([]AssetID, 0, len(db.latelyUnloaded))
	for _, d := range db.latelyUnloaded {
		out = append(out, d.id)
	}
	return out
}

// LatelyUnloadedProtocol filters the unloaded delta by protocol.
func (db *Database) LatelyUnloadedProtocol(protocol string) []AssetID {
	var out []AssetID
	for _, d := range db.latelyUnloaded {
		if d.protocol == protocol {
			out = append(out, d.id)
		}
	}
	return out
}

// IsReady reports whether nothing is loading or suspended.
func (db *Database) IsReady() bool {
	return len(db.loading) == 0 && len(db.yielded) == 0
}

// AreReady reports whether every given path is fully resident: present in
// the table and neither loading nor suspended.
func (db *Database) AreReady(paths ...string) bool {
	for _, path := range paths {
		path = cleanPath(path)
		if _, ok := db.table[path]; !ok {
			return false
		}
		if sub, ok := stripProtocol(path); ok {
			if _, loading := db.loading[sub]; loading {
				return false
			}
			if _, yielded := db.yielded[sub]; yielded {
				return false
			}
		}
	}
	return true
}

func stripProtocol(path string) (string, bool) {
	parts := strings.SplitN(path, "://", 2)
	if len(parts) != 2 {
		return "", false
	}
	return parts[1], true
}

// Process drives one tick of the load machinery: clear the previous delta
// window (unless the construction grace is pending), drain completed fetches
// under the byte budget, evict dead handles, and resume suspended loads whose
// dependencies arrived this tick.
func (db *Database) Process() {
	if db.deferLatelyCleanup {
		db.deferLatelyCleanup = false
	} else {
		db.latelyLoaded = nil
		db.latelyUnloaded = nil
	}

	type dispatch struct {
		subpath  string
		protocol string
		data     []byte
	}
	var toDispatch []dispatch
	bytesRead := 0
	for subpath, entry := range db.loading {
		if db.maxBytesPerFrame > 0 && bytesRead >= db.maxBytesPerFrame {
			break
		}
		if entry.handle.Status().State != FetchDone {
			continue
		}
		data := entry.handle.Read()
		bytesRead += len(data)
		toDispatch = append(toDispatch, dispatch{subpath: subpath, protocol: entry.protocol, data: data})
	}
	for _, d := range toDispatch {
		protocol, ok := db.protocols[d.protocol]
		if !ok {
			continue
		}
		db.handleLoadResult(d.protocol, d.subpath, protocol.OnLoad(d.subpath, d.data))
	}
	for subpath, entry := range db.loading {
		state := entry.handle.Status().State
		if state != FetchInProgress && state != FetchDone {
			delete(db.loading, subpath)
		}
	}

	yielded := db.yielded
	db.yielded = make(map[string]yieldedEntry)
	for subpath, entry := range yielded {
		ready := true
		for _, dep := range entry.deps {
			if _, ok := db.table[cleanPath(dep.Path)]; !ok {
				ready = false
				break
			}
		}
		if !ready {
			db.yielded[subpath] = entry
			continue
		}
		protocol, ok := db.protocols[entry.protocol]
		if !ok {
			continue
		}
		resolved := make([]ResolvedDependency, 0, len(entry.deps))
		for _, dep := range entry.deps {
			resolved = append(resolved, ResolvedDependency{
				Key:   dep.Key,
				Asset: db.AssetByPath(dep.Path),
			})
		}
		db.handleLoadResult(entry.protocol, subpath, protocol.OnResume(entry.meta, resolved))
	}
}

func (db *Database) handleLoadResult(protocol, subpath string, result LoadResult) {
	switch result.Kind {
	case LoadResultData:
		db.Insert(NewAsset(protocol, subpath, result.Payload))
	case LoadResultYield:
		deps := make([]Dependency, 0, len(result.Deps))
		for _, dep := range result.Deps {
			if err := db.Load(dep.Path); err != nil {
				db.logger.Error("yield dependency load failed",
					"path", dep.Path, "err", fmt.Sprint(err))
				continue
			}
			deps = append(deps, dep)
		}
		db.yielded[subpath] = yieldedEntry{protocol: protocol, meta: result.Meta, deps: deps}
	case LoadResultError:
		db.report(protocol, subpath, result.Message)
	}
}
