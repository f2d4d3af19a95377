package embergine

import (
	"fmt"
	"reflect"
)

// TypeSet is a set of resource/component types used for access analysis.
type TypeSet map[reflect.Type]struct{}

// Contains reports membership.
func (s TypeSet) Contains(t reflect.Type) bool {
	_, ok := s[t]
	return ok
}

// Disjoint reports whether the two sets share no type.
func (s TypeSet) Disjoint(other TypeSet) bool {
	for t := range s {
		if other.Contains(t) {
			return false
		}
	}
	return true
}

// Access is the (reads, writes) pair a request tuple declares. The pipeline
// builder uses it to decide which systems may share a parallel group.
type Access struct {
	Reads  TypeSet
	Writes TypeSet
}

// AccessOf computes the combined access of a tuple of requests.
func AccessOf(requests ...AccessRequest) Access {
	access := Access{Reads: make(TypeSet), Writes: make(TypeSet)}
	for _, req := range requests {
		if req != nil {
			req.feedTypes(access.Reads, access.Writes)
		}
	}
	return access
}

// AccessRequest is one capability in a resource query tuple: a shared or
// exclusive resource borrow, an optional variant of either, a world
// reference, or a component marker that only contributes to access analysis.
type AccessRequest interface {
	feedTypes(reads, writes TypeSet)
	fetch(u *Universe, set *ResSet) error
}

// worldType keys world access in read/write sets.
var worldType = reflect.TypeOf((*World)(nil)).Elem()

type borrowEntry struct {
	cell      *resourceCell
	exclusive bool
}

// ResSet is the result of QueryResources: an atomically acquired tuple of
// borrows. Release returns every borrow at once.
type ResSet struct {
	universe *Universe
	entries  map[reflect.Type]*borrowEntry
	world    bool
	released bool
}

// World returns the universe's world when the query requested it.
func (s *ResSet) World() *World {
	if !s.world {
		panic("embergine: query did not request world access")
	}
	return s.universe.world
}

// Release returns all borrows held by the set.
func (s *ResSet) Release() {
	if s.released {
		return
	}
	s.released = true
	for _, entry := range s.entries {
		s.universe.resources.release(entry.cell, entry.exclusive)
	}
}

// GetRes extracts a fetched resource from the set, panicking when the type
// was not part of the query or was absent.
func GetRes[T any](s *ResSet) *T {
	v, ok := TryGetRes[T](s)
	if !ok {
		panic(fmt.Sprintf("embergine: resource not fetched: %s", resourceType[T]()))
	}
	return v
}

// TryGetRes extracts a fetched resource, reporting absence instead of
// panicking. Optional requests for missing resources land here.
func TryGetRes[T any](s *ResSet) (*T, bool) {
	entry, ok := s.entries[resourceType[T]()]
	if !ok || entry.cell == nil {
		return nil, false
	}
	return entry.cell.value.(*T), true
}

// QueryResources atomically borrows a declared tuple of resources and world
// references. When any borrow conflicts with a live one it rolls back every
// acquired borrow and returns ErrAlreadyBorrowed.
func (u *Universe) QueryResources(requests ...AccessRequest) (*ResSet, error) {
	set := &ResSet{universe: u, entries: make(map[reflect.Type]*borrowEntry)}
	for _, req := range requests {
		if req == nil {
			continue
		}
		if err := req.fetch(u, set); err != nil {
			set.Release()
			return nil, err
		}
	}
	return set, nil
}

type readReq struct {
	typ      reflect.Type
	optional bool
}

func (r readReq) feedTypes(reads, _ TypeSet) { reads[r.typ] = struct{}{} }

func (r readReq) fetch(u *Universe, set *ResSet) error {
	cell, ok, err := u.resources.tryBorrow(r.typ, false)
	if err != nil {
		return err
	}
	if !ok {
		if r.optional {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrResourceNotFound, r.typ)
	}
	set.entries[r.typ] = &borrowEntry{cell: cell}
	return nil
}

type writeReq struct {
	typ      reflect.Type
	optional bool
}

func (r writeReq) feedTypes(_, writes TypeSet) { writes[r.typ] = struct{}{} }

func (r writeReq) fetch(u *Universe, set *ResSet) error {
	cell, ok, err := u.resources.tryBorrow(r.typ, true)
	if err != nil {
		return err
	}
	if !ok {
		if r.optional {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrResourceNotFound, r.typ)
	}
	set.entries[r.typ] = &borrowEntry{cell: cell, exclusive: true}
	return nil
}

type worldReq struct {
	exclusive bool
}

func (r worldReq) feedTypes(reads, writes TypeSet) {
	if r.exclusive {
		writes[worldType] = struct{}{}
	} else {
		reads[worldType] = struct{}{}
	}
}

func (r worldReq) fetch(_ *Universe, set *ResSet) error {
	set.world = true
	return nil
}

type compReq struct {
	typ       reflect.Type
	exclusive bool
}

func (r compReq) feedTypes(reads, writes TypeSet) {
	if r.exclusive {
		writes[r.typ] = struct{}{}
	} else {
		reads[r.typ] = struct{}{}
	}
}

func (r compReq) fetch(*Universe, *ResSet) error { return nil }

// Read declares a required shared borrow of T.
func Read[T any]() AccessRequest { return readReq{typ: resourceType[T]()} }

// Write declares a required exclusive borrow of T.
func Write[T any]() AccessRequest { return writeReq{typ: resourceType[T]()} }

// TryRead declares an optional shared borrow of T; absence is not an error.
func TryRead[T any]() AccessRequest { return readReq{typ: resourceType[T](), optional: true} }

// TryWrite declares an optional exclusive borrow of T.
func TryWrite[T any]() AccessRequest { return writeReq{typ: resourceType[T](), optional: true} }

// WorldRef declares shared world access.
func WorldRef() AccessRequest { return worldReq{} }

// WorldMut declares exclusive world access.
func WorldMut() AccessRequest { return worldReq{exclusive: true} }

// CompRead marks component type T as read without borrowing anything.
func CompRead[T any]() AccessRequest { return compReq{typ: resourceType[T]()} }

// CompWrite marks component type T as written without borrowing anything.
func CompWrite[T any]() AccessRequest { return compReq{typ: resourceType[T](), exclusive: true} }
