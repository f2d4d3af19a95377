package embergine_test

import (
	"testing"

	"github.com/embergine/embergine"
)

func TestWorldRegisterComponent(t *testing.T) {
	world := embergine.NewWorld()

	strategy := embergine.NewDenseStrategy()
	compType := embergine.ComponentType("position")

	if err := world.RegisterComponent(compType, strategy); err != nil {
		t.Fatalf("register component: %v", err)
	}

	if err := world.RegisterComponent(compType, strategy); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}

	view, err := world.ViewComponent(compType)
	if err != nil {
		t.Fatalf("view component: %v", err)
	}
	if view.ComponentType() != compType {
		t.Fatalf("unexpected component type: %v", view.ComponentType())
	}
}

func TestWorldSpawnDespawn(t *testing.T) {
	world := embergine.NewWorld()
	compType := embergine.ComponentType("health")
	if err := world.RegisterComponent(compType, embergine.NewDenseStrategy()); err != nil {
		t.Fatalf("register component: %v", err)
	}

	id := world.Spawn()
	if err := world.SetComponent(id, compType, 42); err != nil {
		t.Fatalf("set component: %v", err)
	}
	value, ok := world.Component(id, compType)
	if !ok || value.(int) != 42 {
		t.Fatalf("unexpected component state: value=%v, ok=%v", value, ok)
	}

	if !world.Despawn(id) {
		t.Fatalf("despawn failed")
	}
	if world.Registry().IsAlive(id) {
		t.Fatalf("entity should be dead")
	}
	if _, ok := world.Component(id, compType); ok {
		t.Fatalf("component should be gone after despawn")
	}
}

func TestWorldTagNonPersistent(t *testing.T) {
	world := embergine.NewWorld()
	token := embergine.NewStateToken()

	id := world.Spawn()
	if err := world.TagNonPersistent(id, token); err != nil {
		t.Fatalf("tag non persistent: %v", err)
	}

	view, err := world.ViewComponent(embergine.NonPersistentComponent)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	value, ok := view.Get(id)
	if !ok {
		t.Fatalf("expected tag on entity")
	}
	if value.(embergine.NonPersistent).Token != token {
		t.Fatalf("unexpected token")
	}
}
