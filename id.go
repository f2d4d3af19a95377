package embergine

import "github.com/google/uuid"

// Id is a globally unique identifier parameterised by a phantom tag type, so
// Id[Asset] and Id[NavMesh] are distinct types that cannot be mixed up.
type Id[T any] struct {
	value uuid.UUID
}

// NewId mints a fresh random identifier.
func NewId[T any]() Id[T] {
	return Id[T]{value: uuid.New()}
}

// IsZero reports whether the identifier is the zero value.
func (id Id[T]) IsZero() bool {
	return id.value == uuid.Nil
}

// String renders the identifier for debugging purposes.
func (id Id[T]) String() string {
	return id.value.String()
}
