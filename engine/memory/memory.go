// Package memory provides a minimal in-memory engine.Manager for tests and
// local development. It is a container, not a simulation: nothing ticks,
// nothing is synchronized, AI orders and floating text are only recorded.
package memory

import (
	"sync"

	"github.com/arvefors/starcon/engine"
	"github.com/arvefors/starcon/farmath"
)

// Manager implements engine.Manager over plain maps.
type Manager struct {
	mutex         sync.RWMutex
	nextEntity    engine.Entity
	nextComponent engine.ComponentID
	entities      map[engine.Entity]bool
	components    map[engine.Entity]map[engine.ComponentType][]engine.Component
	byID          map[engine.ComponentID]engine.Component

	avatars      *AvatarSystem
	floatingText *FloatingTextSystem
	shipFactory  *ShipFactory
}

func NewManager() *Manager {
	m := &Manager{
		entities:   map[engine.Entity]bool{},
		components: map[engine.Entity]map[engine.ComponentType][]engine.Component{},
		byID:       map[engine.ComponentID]engine.Component{},
	}
	m.avatars = &AvatarSystem{avatars: map[engine.PlayerID]engine.Entity{}}
	m.floatingText = &FloatingTextSystem{}
	m.shipFactory = &ShipFactory{manager: m, blueprints: map[engine.Entity]string{}}
	return m
}

// CreateEntity registers and returns a fresh entity handle.
func (m *Manager) CreateEntity() engine.Entity {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.nextEntity++
	e := m.nextEntity
	m.entities[e] = true
	return e
}

// SetAvatar binds a player slot to its avatar entity.
func (m *Manager) SetAvatar(player engine.PlayerID, e engine.Entity) {
	m.avatars.set(player, e)
}

func (m *Manager) Component(e engine.Entity, t engine.ComponentType) engine.Component {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	byType := m.components[e]
	if len(byType[t]) == 0 {
		return nil
	}
	return byType[t][0]
}

func (m *Manager) Components(e engine.Entity, t engine.ComponentType) []engine.Component {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	found := m.components[e][t]
	result := make([]engine.Component, len(found))
	copy(result, found)
	return result
}

func (m *Manager) ComponentByID(id engine.ComponentID) engine.Component {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.byID[id]
}

func (m *Manager) AddComponent(e engine.Entity, t engine.ComponentType) (engine.Component, error) {
	switch t {
	case engine.TransformType:
		return m.AttachTransform(e, farmath.FarPosition{})
	case engine.AttributesType:
		return m.AttachAttributes(e, nil)
	case engine.InventoryType:
		return m.AttachInventory(e)
	case engine.ItemType:
		return m.AttachItem(e, "", "")
	case engine.ItemSlotType:
		return m.AttachItemSlot(e, "")
	case engine.ExperienceType:
		return m.AttachExperience(e, 1, 0, 100)
	case engine.FactionType:
		return m.AttachFaction(e, 0)
	case engine.SquadType:
		return m.AttachSquad(e)
	case engine.IntelligenceType:
		return m.AttachIntelligence(e)
	}
	return nil, engine.UnknownTypeError{Type: t}
}

func (m *Manager) RemoveComponent(c engine.Component) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	byType, found := m.components[c.Entity()]
	if !found {
		return engine.UnknownEntityError{Entity: c.Entity()}
	}
	list := byType[c.Type()]
	for i, candidate := range list {
		if candidate.ID() == c.ID() {
			byType[c.Type()] = append(list[:i], list[i+1:]...)
			delete(m.byID, c.ID())
			return nil
		}
	}
	return nil
}

func (m *Manager) System(t engine.SystemType) engine.System {
	switch t {
	case engine.AvatarSystemType:
		return m.avatars
	case engine.FloatingTextSystemType:
		return m.floatingText
	case engine.ShipFactoryType:
		return m.shipFactory
	}
	return nil
}

// attach registers c on its entity, creating the entity if the caller
// seeded components before CreateEntity. Holding the write lock, it hands
// out the component id.
func (m *Manager) attach(e engine.Entity, t engine.ComponentType, build func(base component) engine.Component) (engine.Component, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !m.entities[e] {
		return nil, engine.UnknownEntityError{Entity: e}
	}
	m.nextComponent++
	c := build(component{id: m.nextComponent, entity: e, ctype: t})
	byType, found := m.components[e]
	if !found {
		byType = map[engine.ComponentType][]engine.Component{}
		m.components[e] = byType
	}
	byType[t] = append(byType[t], c)
	m.byID[c.ID()] = c
	return c, nil
}

// component carries the identity shared by all concrete component types.
type component struct {
	id     engine.ComponentID
	entity engine.Entity
	ctype  engine.ComponentType
}

func (c component) ID() engine.ComponentID     { return c.id }
func (c component) Entity() engine.Entity      { return c.entity }
func (c component) Type() engine.ComponentType { return c.ctype }

var (
	_ engine.Manager = (*Manager)(nil)
)
