package embergine

import "errors"

var (
	// ErrComponentAlreadyRegistered indicates an attempt to register the same component twice.
	ErrComponentAlreadyRegistered = errors.New("embergine: component already registered")
	// ErrComponentNotRegistered signals lookup on an unknown component type.
	ErrComponentNotRegistered = errors.New("embergine: component not registered")
	// ErrNilStorageStrategy is returned when storage registration receives a nil strategy.
	ErrNilStorageStrategy = errors.New("embergine: nil storage strategy")
	// ErrNilComponentStore is returned when a strategy produces a nil store.
	ErrNilComponentStore = errors.New("embergine: strategy returned nil store")
	// ErrAlreadyBorrowed is returned when a resource query would conflict with a live borrow.
	ErrAlreadyBorrowed = errors.New("embergine: resource already borrowed")
	// ErrResourceNotFound is returned when a required resource is absent from the universe.
	ErrResourceNotFound = errors.New("embergine: resource not found")
)
