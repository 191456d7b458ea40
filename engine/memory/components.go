package memory

import (
	"sync"

	"github.com/arvefors/starcon/engine"
	"github.com/arvefors/starcon/farmath"
)

// Transform implements engine.Transform.
type Transform struct {
	component
	mutex    sync.RWMutex
	position farmath.FarPosition
}

func (m *Manager) AttachTransform(e engine.Entity, at farmath.FarPosition) (*Transform, error) {
	var result *Transform
	_, err := m.attach(e, engine.TransformType, func(base component) engine.Component {
		result = &Transform{component: base, position: at}
		return result
	})
	return result, err
}

func (t *Transform) Position() farmath.FarPosition {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.position
}

func (t *Transform) SetPosition(at farmath.FarPosition) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.position = at
}

// Attributes implements engine.Attributes as a flat name/value store. It
// accepts any attribute name, since valid names are engine data this
// package doesn't carry.
type Attributes struct {
	component
	mutex sync.RWMutex
	base  map[engine.AttributeType]float64
}

func (m *Manager) AttachAttributes(e engine.Entity, base map[engine.AttributeType]float64) (*Attributes, error) {
	copied := map[engine.AttributeType]float64{}
	for t, v := range base {
		copied[t] = v
	}
	var result *Attributes
	_, err := m.attach(e, engine.AttributesType, func(b component) engine.Component {
		result = &Attributes{component: b, base: copied}
		return result
	})
	return result, err
}

func (a *Attributes) BaseValue(t engine.AttributeType) (float64, bool) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	value, found := a.base[t]
	return value, found
}

func (a *Attributes) SetBaseValue(t engine.AttributeType, value float64) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.base[t] = value
	return nil
}

// Snapshot returns a copy of the base values.
func (a *Attributes) Snapshot() map[engine.AttributeType]float64 {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	result := map[engine.AttributeType]float64{}
	for t, v := range a.base {
		result[t] = v
	}
	return result
}

// Inventory implements engine.Inventory, keeping insertion order so
// listings are stable.
type Inventory struct {
	component
	mutex sync.RWMutex
	items []engine.Entity
}

func (m *Manager) AttachInventory(e engine.Entity) (*Inventory, error) {
	var result *Inventory
	_, err := m.attach(e, engine.InventoryType, func(base component) engine.Component {
		result = &Inventory{component: base}
		return result
	})
	return result, err
}

func (i *Inventory) Contains(item engine.Entity) bool {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	for _, candidate := range i.items {
		if candidate == item {
			return true
		}
	}
	return false
}

func (i *Inventory) Add(item engine.Entity) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	for _, candidate := range i.items {
		if candidate == item {
			return
		}
	}
	i.items = append(i.items, item)
}

func (i *Inventory) Remove(item engine.Entity) bool {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	for idx, candidate := range i.items {
		if candidate == item {
			i.items = append(i.items[:idx], i.items[idx+1:]...)
			return true
		}
	}
	return false
}

func (i *Inventory) Items() []engine.Entity {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	result := make([]engine.Entity, len(i.items))
	copy(result, i.items)
	return result
}

// Item implements engine.Item. Kind is the hook for slot validation.
type Item struct {
	component
	name string
	kind string
}

func (m *Manager) AttachItem(e engine.Entity, name string, kind string) (*Item, error) {
	var result *Item
	_, err := m.attach(e, engine.ItemType, func(base component) engine.Component {
		result = &Item{component: base, name: name, kind: kind}
		return result
	})
	return result, err
}

func (i *Item) Name() string {
	return i.name
}

func (i *Item) Kind() string {
	return i.kind
}

// ItemSlot implements engine.ItemSlot. A slot accepts items whose kind
// matches its accepts string; an empty accepts string takes anything.
type ItemSlot struct {
	component
	manager *Manager
	accepts string
	mutex   sync.RWMutex
	item    engine.Entity
}

func (m *Manager) AttachItemSlot(e engine.Entity, accepts string) (*ItemSlot, error) {
	var result *ItemSlot
	_, err := m.attach(e, engine.ItemSlotType, func(base component) engine.Component {
		result = &ItemSlot{component: base, manager: m, accepts: accepts}
		return result
	})
	return result, err
}

func (s *ItemSlot) Item() engine.Entity {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.item
}

func (s *ItemSlot) SetItem(item engine.Entity) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.item = item
}

func (s *ItemSlot) Validate(item engine.Item) bool {
	if item == nil {
		return false
	}
	if s.accepts == "" {
		return true
	}
	memoryItem, ok := item.(*Item)
	if !ok {
		return false
	}
	return memoryItem.Kind() == s.accepts
}

func (s *ItemSlot) AllSlots() []engine.ItemSlot {
	result := []engine.ItemSlot{s}
	if item := s.Item(); item != engine.None {
		for _, child := range s.manager.Components(item, engine.ItemSlotType) {
			if childSlot, ok := child.(*ItemSlot); ok {
				result = append(result, childSlot.AllSlots()...)
			}
		}
	}
	return result
}

// Experience implements engine.Experience with static values; leveling is
// a simulation concern.
type Experience struct {
	component
	level    int
	value    int64
	required int64
}

func (m *Manager) AttachExperience(e engine.Entity, level int, value int64, required int64) (*Experience, error) {
	var result *Experience
	_, err := m.attach(e, engine.ExperienceType, func(base component) engine.Component {
		result = &Experience{component: base, level: level, value: value, required: required}
		return result
	})
	return result, err
}

func (x *Experience) Level() int {
	return x.level
}

func (x *Experience) Value() int64 {
	return x.value
}

func (x *Experience) RequiredForNextLevel() int64 {
	return x.required
}

// Faction implements engine.Faction.
type Faction struct {
	component
	mutex sync.RWMutex
	value engine.Factions
}

func (m *Manager) AttachFaction(e engine.Entity, value engine.Factions) (*Faction, error) {
	var result *Faction
	_, err := m.attach(e, engine.FactionType, func(base component) engine.Component {
		result = &Faction{component: base, value: value}
		return result
	})
	return result, err
}

func (f *Faction) Value() engine.Factions {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.value
}

func (f *Faction) SetValue(value engine.Factions) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.value = value
}

// Squad implements engine.Squad. The first member added becomes the leader.
type Squad struct {
	component
	mutex     sync.RWMutex
	members   []engine.Entity
	formation engine.Formation
}

func (m *Manager) AttachSquad(e engine.Entity) (*Squad, error) {
	var result *Squad
	_, err := m.attach(e, engine.SquadType, func(base component) engine.Component {
		result = &Squad{component: base, members: []engine.Entity{e}}
		return result
	})
	return result, err
}

func (s *Squad) Leader() engine.Entity {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if len(s.members) == 0 {
		return engine.None
	}
	return s.members[0]
}

func (s *Squad) Members() []engine.Entity {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	result := make([]engine.Entity, len(s.members))
	copy(result, s.members)
	return result
}

func (s *Squad) AddMember(member engine.Entity) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, candidate := range s.members {
		if candidate == member {
			return
		}
	}
	s.members = append(s.members, member)
}

func (s *Squad) RemoveMember(member engine.Entity) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for idx, candidate := range s.members {
		if candidate == member {
			s.members = append(s.members[:idx], s.members[idx+1:]...)
			return true
		}
	}
	return false
}

func (s *Squad) Formation() engine.Formation {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.formation
}

func (s *Squad) SetFormation(formation engine.Formation) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.formation = formation
}

// Intelligence implements engine.Intelligence by recording the last order.
type Intelligence struct {
	component
	mutex    sync.RWMutex
	guarding engine.Entity
}

func (m *Manager) AttachIntelligence(e engine.Entity) (*Intelligence, error) {
	var result *Intelligence
	_, err := m.attach(e, engine.IntelligenceType, func(base component) engine.Component {
		result = &Intelligence{component: base}
		return result
	})
	return result, err
}

func (i *Intelligence) Guard(target engine.Entity) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	i.guarding = target
}

// Guarding returns the entity the AI was last ordered to guard.
func (i *Intelligence) Guarding() engine.Entity {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	return i.guarding
}
