package embergine_test

import (
	"testing"

	"github.com/embergine/embergine"
)

func TestEntityRegistryCreateAndDestroy(t *testing.T) {
	reg := embergine.NewEntityRegistry()
	a := reg.Create()
	b := reg.Create()

	if a == b {
		t.Fatalf("expected unique entities, got same: %v", a)
	}
	if reg.Count() != 2 {
		t.Fatalf("expected 2 live entities, got %d", reg.Count())
	}
	if !reg.IsAlive(a) || !reg.IsAlive(b) {
		t.Fatalf("expected entities to be alive")
	}

	if !reg.Destroy(a) {
		t.Fatalf("expected destroy to succeed")
	}
	if reg.IsAlive(a) {
		t.Fatalf("entity should be destroyed")
	}
	if reg.Count() != 1 {
		t.Fatalf("expected 1 live entity, got %d", reg.Count())
	}

	// Recycled entity should have new generation.
	c := reg.Create()
	if c.Index() != a.Index() {
		t.Fatalf("expected recycled index %d, got %d", a.Index(), c.Index())
	}
	if c.Generation() == a.Generation() {
		t.Fatalf("expected generation to increment on recycle")
	}
}

func TestEntityRegistryRejectsStaleId(t *testing.T) {
	reg := embergine.NewEntityRegistry()
	id := reg.Create()
	if !reg.Destroy(id) {
		t.Fatalf("destroy failed")
	}

	if reg.Destroy(id) {
		t.Fatalf("expected destroy of stale id to fail")
	}
	if reg.IsAlive(id) {
		t.Fatalf("stale id should not be alive")
	}
}

func TestEntityIDPacking(t *testing.T) {
	id := embergine.EntityIDFromParts(7, 3)
	if id.Index() != 7 || id.Generation() != 3 {
		t.Fatalf("round trip lost parts: %v", id)
	}
	if id.IsZero() {
		t.Fatalf("packed handle should not be nil")
	}
	var nilID embergine.EntityID
	if !nilID.IsZero() {
		t.Fatalf("zero value must be the nil handle")
	}
	if embergine.EntityIDFromParts(7, 4) == id {
		t.Fatalf("generations must distinguish handles for one slot")
	}
}

func TestEntityRegistryRecyclesLIFO(t *testing.T) {
	reg := embergine.NewEntityRegistry()
	a := reg.Create()
	b := reg.Create()

	reg.Destroy(a)
	reg.Destroy(b)

	// The most recently freed slot comes back first.
	c := reg.Create()
	if c.Index() != b.Index() {
		t.Fatalf("expected slot %d reused first, got %d", b.Index(), c.Index())
	}
	d := reg.Create()
	if d.Index() != a.Index() {
		t.Fatalf("expected slot %d reused second, got %d", a.Index(), d.Index())
	}
	if reg.Count() != 2 {
		t.Fatalf("expected 2 live entities, got %d", reg.Count())
	}
}

func TestIdPhantomTags(t *testing.T) {
	a := embergine.NewId[embergine.Universe]()
	b := embergine.NewId[embergine.Universe]()
	if a == b {
		t.Fatalf("expected distinct ids")
	}
	if a.IsZero() {
		t.Fatalf("fresh id should not be zero")
	}
	var zero embergine.UniverseID
	if !zero.IsZero() {
		t.Fatalf("zero id should report zero")
	}
}
