package engine

import (
	"fmt"
	"strings"

	"github.com/arvefors/starcon/farmath"
)

// Component types the console reads and writes.
const (
	TransformType    ComponentType = "Transform"
	AttributesType   ComponentType = "Attributes"
	InventoryType    ComponentType = "Inventory"
	ItemType         ComponentType = "Item"
	ItemSlotType     ComponentType = "ItemSlot"
	ExperienceType   ComponentType = "Experience"
	FactionType      ComponentType = "Faction"
	SquadType        ComponentType = "Squad"
	IntelligenceType ComponentType = "ArtificialIntelligence"
)

// Transform is an entity's spatial state.
type Transform interface {
	Component
	Position() farmath.FarPosition
	SetPosition(farmath.FarPosition)
}

// AttributeType names a stat in the engine's attribute store, like
// "Health" or "AccelerationForce". The set of valid names is engine data.
type AttributeType string

// Attributes is an entity's stat store. Modifiers and derived values are
// engine business; the console only touches base values.
type Attributes interface {
	Component
	BaseValue(t AttributeType) (float64, bool)
	SetBaseValue(t AttributeType, value float64) error
}

// Inventory is an unordered container of item entities.
type Inventory interface {
	Component
	Contains(item Entity) bool
	Add(item Entity)
	Remove(item Entity) bool
	Items() []Entity
}

// Item is the descriptive component of an item entity.
type Item interface {
	Component
	Name() string
}

// ItemSlot is one equipment slot. Slots form a tree: equipping an item
// exposes the item's own slots underneath it. Validate is the
// engine-defined predicate deciding whether an item fits the slot.
type ItemSlot interface {
	Component
	// Item returns the entity equipped in this slot, or None.
	Item() Entity
	SetItem(item Entity)
	Validate(item Item) bool
	// AllSlots returns this slot and every slot reachable through
	// currently equipped items, in tree order.
	AllSlots() []ItemSlot
}

// Experience is an entity's leveling state.
type Experience interface {
	Component
	Level() int
	Value() int64
	RequiredForNextLevel() int64
}

// Factions is a bitmask of faction memberships.
type Factions uint32

const (
	PlayerFaction Factions = 1 << iota
	NpcFactionA
	NpcFactionB
	NpcFactionC
)

func (f Factions) Has(other Factions) bool {
	return f&other == other
}

func (f Factions) String() string {
	names := []string{}
	for _, member := range []struct {
		flag Factions
		name string
	}{
		{PlayerFaction, "Player"},
		{NpcFactionA, "NpcFactionA"},
		{NpcFactionB, "NpcFactionB"},
		{NpcFactionC, "NpcFactionC"},
	} {
		if f.Has(member.flag) {
			names = append(names, member.name)
		}
	}
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, "|")
}

// Faction is an entity's faction membership component.
type Faction interface {
	Component
	Value() Factions
	SetValue(Factions)
}

// Formation is a squad movement formation.
type Formation uint8

const (
	FormationNone Formation = iota
	FormationLine
	FormationColumn
	FormationVee
	FormationBlock
)

var formationNames = map[Formation]string{
	FormationNone:   "none",
	FormationLine:   "line",
	FormationColumn: "column",
	FormationVee:    "vee",
	FormationBlock:  "block",
}

func (f Formation) String() string {
	if name, found := formationNames[f]; found {
		return name
	}
	return fmt.Sprintf("Formation(%d)", uint8(f))
}

// ParseFormation returns the formation with the given name.
func ParseFormation(s string) (Formation, error) {
	for formation, name := range formationNames {
		if strings.EqualFold(s, name) {
			return formation, nil
		}
	}
	return FormationNone, fmt.Errorf("unknown formation %q", s)
}

// Squad groups AI entities under a leader.
type Squad interface {
	Component
	Leader() Entity
	Members() []Entity
	AddMember(Entity)
	RemoveMember(Entity) bool
	Formation() Formation
	SetFormation(Formation)
}

// Intelligence is the console's handle on an entity's AI. Behaviors are
// engine-side; the console only issues orders.
type Intelligence interface {
	Component
	// Guard orders the AI to protect the target entity.
	Guard(target Entity)
}
