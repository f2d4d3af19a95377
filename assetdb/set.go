package assetdb

import "strings"

// SetAsset is the payload produced by the set protocol: the list of asset
// paths the set pulled in.
type SetAsset struct {
	paths []string
}

// Paths returns the member asset paths.
func (a SetAsset) Paths() []string { return a.paths }

// SetProtocol loads a newline-separated list of asset paths under the "set"
// tag, yielding until every member asset is resident. Unloading a set
// cascades onto its members.
type SetProtocol struct {
	BaseProtocol
}

func (SetProtocol) Name() string { return "set" }

func (SetProtocol) OnLoad(_ string, data []byte) LoadResult {
	var deps []Dependency
	for _, line := range strings.Split(string(data), "\n") {
		path := strings.TrimSpace(line)
		if path == "" {
			continue
		}
		deps = append(deps, Dependency{Key: path, Path: path})
	}
	return LoadYield(nil, deps)
}

func (SetProtocol) OnResume(_ any, deps []ResolvedDependency) LoadResult {
	paths := make([]string, 0, len(deps))
	for _, dep := range deps {
		paths = append(paths, dep.Key)
	}
	return LoadData(SetAsset{paths: paths})
}

func (SetProtocol) OnUnload(asset *Asset) []AssetVariant {
	set, ok := PayloadAs[SetAsset](asset)
	if !ok {
		return nil
	}
	variants := make([]AssetVariant, 0, len(set.paths))
	for _, path := range set.paths {
		variants = append(variants, ByPath(path))
	}
	return variants
}

var _ Protocol = SetProtocol{}
