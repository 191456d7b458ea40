package console

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/arvefors/starcon"
	"github.com/arvefors/starcon/engine"
	"github.com/arvefors/starcon/farmath"
)

// The ship blueprint used for console-spawned squad members.
const aiShipBlueprint = "L1_AI_Ship"

// desyncRange is the maximum distance (per axis) a desync jump moves the
// avatar. Large enough that the position delta can't be explained away by
// client prediction.
const desyncRange = 1000.0

// The operations in this file are the engine-facing core of the debug
// commands. They are shared between the command handlers and the script
// bindings, and tested against the in-memory manager.

// teleport moves the avatar to an absolute position.
func teleport(env *playerEnv, x, y float64) (farmath.FarPosition, error) {
	transform, err := env.transform()
	if err != nil {
		return farmath.FarPosition{}, starcon.WithStack(err)
	}
	pos := farmath.NewPosition(x, y)
	transform.SetPosition(pos)
	return pos, nil
}

// desync jumps the avatar by a random offset so the server and client
// positions diverge and the resync path gets exercised.
func desync(env *playerEnv, r *rand.Rand) (farmath.FarPosition, error) {
	transform, err := env.transform()
	if err != nil {
		return farmath.FarPosition{}, starcon.WithStack(err)
	}
	dx := (r.Float64()*2 - 1) * desyncRange
	dy := (r.Float64()*2 - 1) * desyncRange
	pos := transform.Position().Add(dx, dy)
	transform.SetPosition(pos)
	return pos, nil
}

// setStat overwrites the base value of one of the avatar's attributes.
func setStat(env *playerEnv, name string, value float64) error {
	attributes, err := env.attributes()
	if err != nil {
		return starcon.WithStack(err)
	}
	if _, found := attributes.BaseValue(engine.AttributeType(name)); !found {
		return errors.Errorf("unknown attribute %q", name)
	}
	return starcon.WithStack(attributes.SetBaseValue(engine.AttributeType(name), value))
}

// equipItem moves an item from the inventory into the first empty slot that
// accepts it, and returns that slot.
func equipItem(env *playerEnv, itemEntity engine.Entity) (engine.ItemSlot, error) {
	item, found := engine.Lookup[engine.Item](env.manager, itemEntity, engine.ItemType)
	if !found {
		return nil, errors.Errorf("entity %d is not an item", itemEntity)
	}
	inventory, err := env.inventory()
	if err != nil {
		return nil, starcon.WithStack(err)
	}
	if !inventory.Contains(itemEntity) {
		return nil, errors.Errorf("%s is not in the inventory", item.Name())
	}
	root, err := env.equipment()
	if err != nil {
		return nil, starcon.WithStack(err)
	}
	for _, slot := range root.AllSlots() {
		if slot.Item() == engine.None && slot.Validate(item) {
			inventory.Remove(itemEntity)
			slot.SetItem(itemEntity)
			return slot, nil
		}
	}
	return nil, errors.Errorf("no empty slot accepts %s", item.Name())
}

// unequipSlot clears the given slot and returns its item to the inventory.
// An already empty slot is a no-op returning None.
func unequipSlot(env *playerEnv, slotID engine.ComponentID) (engine.Entity, error) {
	component := env.manager.ComponentByID(slotID)
	if component == nil {
		return engine.None, errors.Errorf("no component with id %d", slotID)
	}
	slot, ok := component.(engine.ItemSlot)
	if !ok {
		return engine.None, errors.Errorf("component %d is a %s, not an item slot", slotID, component.Type())
	}
	root, err := env.equipment()
	if err != nil {
		return engine.None, starcon.WithStack(err)
	}
	owned := false
	for _, candidate := range root.AllSlots() {
		if candidate.ID() == slotID {
			owned = true
			break
		}
	}
	if !owned {
		return engine.None, errors.Errorf("slot %d is not part of your equipment", slotID)
	}
	item := slot.Item()
	if item == engine.None {
		return engine.None, nil
	}
	inventory, err := env.inventory()
	if err != nil {
		return engine.None, starcon.WithStack(err)
	}
	slot.SetItem(engine.None)
	inventory.Add(item)
	return item, nil
}

// joinNpcFactions adds the avatar to both hostile NPC factions, which makes
// everything in the test sector attack on sight.
func joinNpcFactions(env *playerEnv) (engine.Factions, error) {
	faction, err := env.faction()
	if err != nil {
		return 0, starcon.WithStack(err)
	}
	value := faction.Value() | engine.NpcFactionA | engine.NpcFactionB
	faction.SetValue(value)
	return value, nil
}

// floatText displays transient text at the avatar's position.
func floatText(env *playerEnv, text string) error {
	transform, err := env.transform()
	if err != nil {
		return starcon.WithStack(err)
	}
	floating, found := engine.LookupSystem[engine.FloatingTextSystem](env.manager, engine.FloatingTextSystemType)
	if !found {
		return errors.New("floating text system unavailable")
	}
	floating.Display(text, transform.Position())
	return nil
}

// addAIShip spawns an AI ship next to the avatar, adds it to the avatar's
// squad (creating the squad with the avatar as leader if needed), and orders
// it to guard the squad leader.
func addAIShip(env *playerEnv) (engine.Entity, error) {
	squad, found := engine.Lookup[engine.Squad](env.manager, env.avatar, engine.SquadType)
	if !found {
		component, err := env.manager.AddComponent(env.avatar, engine.SquadType)
		if err != nil {
			return engine.None, starcon.WithStack(err)
		}
		if squad, found = component.(engine.Squad); !found {
			return engine.None, errors.Errorf("engine returned a %s for a squad", component.Type())
		}
	}
	if squad.Leader() == engine.None {
		squad.AddMember(env.avatar)
	}

	factions := engine.PlayerFaction
	if faction, found := engine.Lookup[engine.Faction](env.manager, env.avatar, engine.FactionType); found {
		factions = faction.Value()
	}
	transform, err := env.transform()
	if err != nil {
		return engine.None, starcon.WithStack(err)
	}

	factory, found := engine.LookupSystem[engine.ShipFactory](env.manager, engine.ShipFactoryType)
	if !found {
		return engine.None, errors.New("ship factory unavailable")
	}
	ship, err := factory.CreateAIShip(aiShipBlueprint, factions, transform.Position())
	if err != nil {
		return engine.None, starcon.WithStack(err)
	}
	squad.AddMember(ship)

	if ai, found := engine.Lookup[engine.Intelligence](env.manager, ship, engine.IntelligenceType); found {
		ai.Guard(squad.Leader())
	}
	return ship, nil
}

// setFormation changes the formation of the avatar's squad.
func setFormation(env *playerEnv, name string) (engine.Formation, error) {
	formation, err := engine.ParseFormation(name)
	if err != nil {
		return engine.FormationNone, starcon.WithStack(err)
	}
	squad, found := engine.Lookup[engine.Squad](env.manager, env.avatar, engine.SquadType)
	if !found {
		return engine.FormationNone, errors.New("you have no squad")
	}
	squad.SetFormation(formation)
	return formation, nil
}
