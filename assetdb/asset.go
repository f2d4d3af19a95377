package assetdb

import (
	"errors"
	"strings"

	"github.com/embergine/embergine"
)

var (
	// ErrInvalidPath is returned for paths missing the protocol separator.
	ErrInvalidPath = errors.New("assetdb: invalid path")
	// ErrUnknownProtocol is returned for paths routed to an unregistered protocol.
	ErrUnknownProtocol = errors.New("assetdb: unknown protocol")
	// ErrNoFetchEngine is returned when the fetch engine stack is empty.
	ErrNoFetchEngine = errors.New("assetdb: no fetch engine")
	// ErrFetch wraps fetch engine failures.
	ErrFetch = errors.New("assetdb: fetch error")
)

// AssetID identifies a loaded asset.
type AssetID = embergine.Id[Asset]

// Asset is an opaque payload keyed by (protocol, path). The payload is the
// type-erased value the protocol decoded from fetched bytes.
type Asset struct {
	id       AssetID
	protocol string
	path     string
	payload  any
}

// NewAsset constructs an asset with a fresh id. The path is cleaned of the
// inline marker prefix.
func NewAsset(protocol, path string, payload any) *Asset {
	return &Asset{
		id:       embergine.NewId[Asset](),
		protocol: protocol,
		path:     cleanPath(path),
		payload:  payload,
	}
}

// ID returns the asset's unique id.
func (a *Asset) ID() AssetID { return a.id }

// Protocol returns the protocol tag that decoded this asset.
func (a *Asset) Protocol() string { return a.protocol }

// Path returns the protocol-relative path.
func (a *Asset) Path() string { return a.path }

// FullPath renders "{protocol}://{path}".
func (a *Asset) FullPath() string { return a.protocol + "://" + a.path }

// Payload returns the decoded value.
func (a *Asset) Payload() any { return a.payload }

// PayloadAs fetches the decoded value as a concrete type.
func PayloadAs[T any](a *Asset) (T, bool) {
	v, ok := a.payload.(T)
	return v, ok
}

// AssetVariant addresses an asset either by id or by full path, used by
// protocols to cascade unloads onto dependents.
type AssetVariant struct {
	ID   AssetID
	Path string
}

// ByID addresses an asset by id.
func ByID(id AssetID) AssetVariant { return AssetVariant{ID: id} }

// ByPath addresses an asset by full path.
func ByPath(path string) AssetVariant { return AssetVariant{Path: path} }

// cleanPath strips the leading inline marker. Applied uniformly in every
// keyed operation so marked and unmarked spellings address the same asset.
func cleanPath(path string) string {
	return strings.TrimPrefix(path, "*")
}
