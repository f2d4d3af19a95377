package embergine

import "fmt"

// WorldOption customises world construction.
type WorldOption func(*World)

// World encapsulates entity allocation and component storage. Resources live
// on the Universe, not here; the world only answers structural questions.
type World struct {
	registry *EntityRegistry
	storage  StorageProvider
}

// NewWorld constructs a world with default registries and providers. The
// NonPersistent component is always registered so state-scoped entities work
// out of the box.
func NewWorld(opts ...WorldOption) *World {
	w := &World{
		registry: NewEntityRegistry(),
		storage:  newStorageProvider(),
	}
	for _, opt := range opts {
		opt(w)
	}
	_ = w.storage.RegisterComponent(NonPersistentComponent, NewDenseStrategy())
	return w
}

// WithEntityRegistry overrides the default registry.
func WithEntityRegistry(registry *EntityRegistry) WorldOption {
	return func(w *World) {
		if registry != nil {
			w.registry = registry
		}
	}
}

// WithStorageProvider overrides the default storage provider.
func WithStorageProvider(provider StorageProvider) WorldOption {
	return func(w *World) {
		if provider != nil {
			w.storage = provider
		}
	}
}

// Registry exposes the backing entity registry.
func (w *World) Registry() *EntityRegistry {
	return w.registry
}

// Storage returns the storage provider used by the world.
func (w *World) Storage() StorageProvider {
	return w.storage
}

// RegisterComponent allows callers to register component storage strategies.
func (w *World) RegisterComponent(t ComponentType, strategy StorageStrategy) error {
	return w.storage.RegisterComponent(t, strategy)
}

// ViewComponent retrieves a component view by type.
func (w *World) ViewComponent(t ComponentType) (ComponentView, error) {
	return w.storage.View(t)
}

// Spawn allocates a new entity.
func (w *World) Spawn() EntityID {
	return w.registry.Create()
}

// Despawn removes the entity and all of its components, returning true when
// the entity was alive.
func (w *World) Despawn(id EntityID) bool {
	if !w.registry.Destroy(id) {
		return false
	}
	w.storage.RemoveEntity(id)
	return true
}

// SetComponent attaches a component value to the entity.
func (w *World) SetComponent(id EntityID, t ComponentType, value any) error {
	if !w.registry.IsAlive(id) {
		return fmt.Errorf("embergine: set component %s on dead entity %v", t, id)
	}
	view, err := w.storage.View(t)
	if err != nil {
		return err
	}
	store, ok := view.(ComponentStore)
	if !ok {
		return fmt.Errorf("embergine: component %s is not writable", t)
	}
	return store.Set(id, value)
}

// RemoveComponent detaches a component value from the entity.
func (w *World) RemoveComponent(id EntityID, t ComponentType) error {
	view, err := w.storage.View(t)
	if err != nil {
		return err
	}
	store, ok := view.(ComponentStore)
	if !ok {
		return fmt.Errorf("embergine: component %s is not writable", t)
	}
	store.Remove(id)
	return nil
}

// Component fetches a component value for the entity.
func (w *World) Component(id EntityID, t ComponentType) (any, bool) {
	view, err := w.storage.View(t)
	if err != nil {
		return nil, false
	}
	return view.Get(id)
}

// TagNonPersistent marks the entity for despawn when the token leaves the
// state stack.
func (w *World) TagNonPersistent(id EntityID, token StateToken) error {
	return w.SetComponent(id, NonPersistentComponent, NonPersistent{Token: token})
}

// nonPersistentEntities collects entities whose NonPersistent component
// matches the predicate.
func (w *World) nonPersistentEntities(match func(StateToken) bool) []EntityID {
	view, err := w.storage.View(NonPersistentComponent)
	if err != nil {
		return nil
	}
	var out []EntityID
	view.Iterate(func(id EntityID, value any) bool {
		if tag, ok := value.(NonPersistent); ok && match(tag.Token) {
			out = append(out, id)
		}
		return true
	})
	return out
}
