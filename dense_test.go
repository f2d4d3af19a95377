package embergine_test

import (
	"testing"

	"github.com/embergine/embergine"
)

func TestDenseStoreCRUD(t *testing.T) {
	store := embergine.NewDenseStrategy().NewStore(embergine.ComponentType("comp"))

	reg := embergine.NewEntityRegistry()
	id := reg.Create()

	if err := store.Set(id, 42); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !store.Has(id) {
		t.Fatalf("expected Has to be true")
	}
	if got, ok := store.Get(id); !ok || got.(int) != 42 {
		t.Fatalf("unexpected get result: %#v, ok=%v", got, ok)
	}

	called := false
	store.Iterate(func(e embergine.EntityID, v any) bool {
		called = true
		if e != id {
			t.Fatalf("unexpected entity: %v", e)
		}
		if v.(int) != 42 {
			t.Fatalf("unexpected value: %v", v)
		}
		return true
	})
	if !called {
		t.Fatalf("expected iterate to visit entity")
	}

	if !store.Remove(id) {
		t.Fatalf("remove failed")
	}
	if store.Has(id) {
		t.Fatalf("value should be removed")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}

func TestDenseStoreRejectsNilEntity(t *testing.T) {
	store := embergine.NewDenseStrategy().NewStore(embergine.ComponentType("comp"))
	if err := store.Set(embergine.EntityID(0), 10); err == nil {
		t.Fatalf("expected error for nil entity")
	}
}

func TestDenseStoreRejectsStaleGeneration(t *testing.T) {
	store := embergine.NewDenseStrategy().NewStore(embergine.ComponentType("comp"))
	old := embergine.EntityIDFromParts(3, 1)
	if err := store.Set(old, "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	recycled := embergine.EntityIDFromParts(3, 2)
	if store.Has(recycled) {
		t.Fatalf("recycled id should not see the stale value before set")
	}
	if err := store.Set(recycled, "v2"); err != nil {
		t.Fatalf("set recycled: %v", err)
	}
	if store.Has(old) {
		t.Fatalf("stale id should be shadowed by the new generation")
	}
}

func TestDenseStoreSpansPages(t *testing.T) {
	store := embergine.NewDenseStrategy().NewStore(embergine.ComponentType("comp"))

	// Indices straddling the page boundary and a far page.
	indices := []uint32{0, 63, 64, 65, 300}
	for _, index := range indices {
		id := embergine.EntityIDFromParts(index, 1)
		if err := store.Set(id, int(index)); err != nil {
			t.Fatalf("set %d: %v", index, err)
		}
	}
	if store.Len() != len(indices) {
		t.Fatalf("expected %d entries, got %d", len(indices), store.Len())
	}

	var visited []uint32
	store.Iterate(func(id embergine.EntityID, v any) bool {
		if v.(int) != int(id.Index()) {
			t.Fatalf("value mismatch at %d: %v", id.Index(), v)
		}
		visited = append(visited, id.Index())
		return true
	})
	for i, index := range indices {
		if visited[i] != index {
			t.Fatalf("iteration should be in index order: %v", visited)
		}
	}

	store.Clear()
	if store.Len() != 0 || store.Has(embergine.EntityIDFromParts(63, 1)) {
		t.Fatalf("clear should drop every page")
	}
}
