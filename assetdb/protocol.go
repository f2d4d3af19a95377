package assetdb

// LoadResultKind discriminates protocol load outcomes.
type LoadResultKind uint8

const (
	// LoadResultData carries a complete decoded payload.
	LoadResultData LoadResultKind = iota
	// LoadResultYield suspends the load until named dependencies exist.
	LoadResultYield
	// LoadResultError reports a decoding failure.
	LoadResultError
)

// Dependency names one path a yielded load waits for, keyed for retrieval on
// resume.
type Dependency struct {
	Key  string
	Path string
}

// ResolvedDependency pairs a dependency key with its loaded asset.
type ResolvedDependency struct {
	Key   string
	Asset *Asset
}

// LoadResult is the outcome of a protocol's OnLoad or OnResume.
type LoadResult struct {
	Kind    LoadResultKind
	Payload any
	Meta    any
	Deps    []Dependency
	Message string
}

// LoadData completes the load with a decoded payload.
func LoadData(payload any) LoadResult {
	return LoadResult{Kind: LoadResultData, Payload: payload}
}

// LoadYield suspends the load, requesting the given dependencies. The meta
// value is handed back on resume.
func LoadYield(meta any, deps []Dependency) LoadResult {
	return LoadResult{Kind: LoadResultYield, Meta: meta, Deps: deps}
}

// LoadError fails the load with a message routed to every error reporter.
func LoadError(message string) LoadResult {
	return LoadResult{Kind: LoadResultError, Message: message}
}

// Protocol decodes fetched bytes into asset payloads. A protocol may yield,
// waiting for dependency paths, and is resumed once all of them are loaded.
type Protocol interface {
	Name() string
	OnRegister()
	OnUnregister()
	OnLoad(path string, data []byte) LoadResult
	OnResume(meta any, deps []ResolvedDependency) LoadResult
	// OnUnload may return additional assets to remove when this one goes.
	OnUnload(asset *Asset) []AssetVariant
}

// BaseProtocol provides default implementations of the optional hooks, meant
// for embedding: OnRegister, OnUnregister and OnUnload do nothing, and
// OnResume fails the load with an error result.
type BaseProtocol struct{}

func (BaseProtocol) OnRegister()   {}
func (BaseProtocol) OnUnregister() {}
func (BaseProtocol) OnResume(any, []ResolvedDependency) LoadResult {
	return LoadError("protocol does not support resuming")
}
func (BaseProtocol) OnUnload(*Asset) []AssetVariant { return nil }
