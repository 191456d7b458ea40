// Package engine declares the boundary the console consumes from its host
// simulation: entity handles, component lookup by entity and type, and
// system lookup by type. All behavior behind these interfaces (storage,
// simulation, synchronization, AI) is owned by the host engine.
package engine

import "fmt"

// Entity is an opaque handle owned by the host engine. None means
// "no entity".
type Entity int64

const None Entity = 0

// PlayerID identifies a connected player slot in the host engine. Values
// below zero mean "no player".
type PlayerID int32

// ComponentID identifies a single component instance, regardless of which
// entity owns it.
type ComponentID int64

// ComponentType identifies a kind of component.
type ComponentType string

// SystemType identifies a kind of system.
type SystemType string

// Component is the common surface of all engine components.
type Component interface {
	ID() ComponentID
	Entity() Entity
	Type() ComponentType
}

// System is the common surface of all engine systems.
type System interface {
	SystemType() SystemType
}

// Manager is the console's window into the simulation. Implementations are
// provided by the host engine; engine/memory provides one for tests and
// local development.
type Manager interface {
	// Component returns the first component of the given type on the
	// entity, or nil.
	Component(e Entity, t ComponentType) Component
	// Components returns all components of the given type on the entity.
	Components(e Entity, t ComponentType) []Component
	// ComponentByID returns the component with the given id, or nil.
	ComponentByID(id ComponentID) Component
	// AddComponent creates a new component of the given type on the entity.
	AddComponent(e Entity, t ComponentType) (Component, error)
	// RemoveComponent detaches the component from its entity.
	RemoveComponent(c Component) error
	// System returns the system of the given type, or nil.
	System(t SystemType) System
}

// Lookup fetches the first component of type t on e and asserts it to C.
func Lookup[C Component](m Manager, e Entity, t ComponentType) (C, bool) {
	typed, ok := m.Component(e, t).(C)
	return typed, ok
}

// LookupSystem fetches the system of type t and asserts it to S.
func LookupSystem[S System](m Manager, t SystemType) (S, bool) {
	typed, ok := m.System(t).(S)
	return typed, ok
}

// UnknownEntityError is returned by manager mutations on entities the
// engine doesn't know.
type UnknownEntityError struct {
	Entity Entity
}

func (u UnknownEntityError) Error() string {
	return fmt.Sprintf("unknown entity %d", u.Entity)
}

// UnknownTypeError is returned by manager mutations for component types the
// engine can't construct.
type UnknownTypeError struct {
	Type ComponentType
}

func (u UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown component type %q", u.Type)
}
