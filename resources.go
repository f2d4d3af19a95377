package embergine

import (
	"fmt"
	"reflect"
	"sync"
)

// resourceCell is a single type-indexed slot with dynamic borrow accounting.
// borrow > 0 counts live readers, borrow == -1 marks a live writer.
type resourceCell struct {
	value  any
	borrow int
}

type resourceTable struct {
	mu    sync.Mutex
	cells map[reflect.Type]*resourceCell
}

func newResourceTable() *resourceTable {
	return &resourceTable{cells: make(map[reflect.Type]*resourceCell)}
}

func (t *resourceTable) insert(typ reflect.Type, value any) {
	t.mu.Lock()
	t.cells[typ] = &resourceCell{value: value}
	t.mu.Unlock()
}

func (t *resourceTable) remove(typ reflect.Type) {
	t.mu.Lock()
	delete(t.cells, typ)
	t.mu.Unlock()
}

func (t *resourceTable) has(typ reflect.Type) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.cells[typ]
	return ok
}

// tryBorrow acquires a shared or exclusive borrow. The second result is false
// when the slot is absent; an error means a conflicting borrow is live.
func (t *resourceTable) tryBorrow(typ reflect.Type, exclusive bool) (*resourceCell, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cell, ok := t.cells[typ]
	if !ok {
		return nil, false, nil
	}
	if exclusive {
		if cell.borrow != 0 {
			return nil, true, fmt.Errorf("%w: %s", ErrAlreadyBorrowed, typ)
		}
		cell.borrow = -1
	} else {
		if cell.borrow < 0 {
			return nil, true, fmt.Errorf("%w: %s", ErrAlreadyBorrowed, typ)
		}
		cell.borrow++
	}
	return cell, true, nil
}

func (t *resourceTable) release(cell *resourceCell, exclusive bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if exclusive {
		cell.borrow = 0
	} else if cell.borrow > 0 {
		cell.borrow--
	}
}

// Res is a live shared borrow of a resource. Release must be called once the
// caller is done with it.
type Res[T any] struct {
	table *resourceTable
	cell  *resourceCell
	done  bool
}

// Get returns the borrowed resource.
func (r *Res[T]) Get() *T {
	return r.cell.value.(*T)
}

// Release ends the borrow.
func (r *Res[T]) Release() {
	if r.done {
		return
	}
	r.done = true
	r.table.release(r.cell, false)
}

// ResMut is a live exclusive borrow of a resource.
type ResMut[T any] struct {
	table *resourceTable
	cell  *resourceCell
	done  bool
}

// Get returns the borrowed resource for mutation.
func (r *ResMut[T]) Get() *T {
	return r.cell.value.(*T)
}

// Release ends the borrow.
func (r *ResMut[T]) Release() {
	if r.done {
		return
	}
	r.done = true
	r.table.release(r.cell, true)
}

func resourceType[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// InsertResource stores a resource in the universe, replacing any previous
// instance of the same type.
func InsertResource[T any](u *Universe, value T) {
	u.resources.insert(resourceType[T](), &value)
}

// RemoveResource drops the resource of the given type.
func RemoveResource[T any](u *Universe) {
	u.resources.remove(resourceType[T]())
}

// HasResource reports whether a resource of the given type is present.
func HasResource[T any](u *Universe) bool {
	return u.resources.has(resourceType[T]())
}

// Resource acquires a shared borrow. It returns false when the resource is
// absent and panics when an exclusive borrow is live; holding conflicting
// borrows is a programming error, not a runtime condition.
func Resource[T any](u *Universe) (*Res[T], bool) {
	typ := resourceType[T]()
	cell, ok, err := u.resources.tryBorrow(typ, false)
	if err != nil {
		panic(fmt.Sprintf("embergine: resource %s already borrowed mutably", typ))
	}
	if !ok {
		return nil, false
	}
	return &Res[T]{table: u.resources, cell: cell}, true
}

// ResourceMut acquires an exclusive borrow. It returns false when the
// resource is absent and panics when any borrow is live.
func ResourceMut[T any](u *Universe) (*ResMut[T], bool) {
	typ := resourceType[T]()
	cell, ok, err := u.resources.tryBorrow(typ, true)
	if err != nil {
		panic(fmt.Sprintf("embergine: resource %s already borrowed", typ))
	}
	if !ok {
		return nil, false
	}
	return &ResMut[T]{table: u.resources, cell: cell}, true
}

// ExpectResource is like Resource but panics when the resource is absent.
func ExpectResource[T any](u *Universe) *Res[T] {
	res, ok := Resource[T](u)
	if !ok {
		panic(fmt.Sprintf("embergine: resource not found: %s", resourceType[T]()))
	}
	return res
}

// ExpectResourceMut is like ResourceMut but panics when the resource is absent.
func ExpectResourceMut[T any](u *Universe) *ResMut[T] {
	res, ok := ResourceMut[T](u)
	if !ok {
		panic(fmt.Sprintf("embergine: resource not found: %s", resourceType[T]()))
	}
	return res
}
