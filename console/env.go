package console

import (
	"github.com/pkg/errors"

	"github.com/arvefors/starcon/engine"
)

var ErrNoPlayer = errors.New("account is not bound to a player slot")

// playerEnv is the resolved view of one player's avatar. It's looked up
// fresh for every command, since avatars can be destroyed and respawned
// between commands.
type playerEnv struct {
	manager engine.Manager
	player  engine.PlayerID
	avatar  engine.Entity
}

// env resolves the session's player environment, or explains why it can't.
func (s *Session) env() (*playerEnv, error) {
	player := s.user.PlayerID()
	if player < 0 {
		return nil, ErrNoPlayer
	}
	avatars, found := engine.LookupSystem[engine.AvatarSystem](s.console.manager, engine.AvatarSystemType)
	if !found {
		return nil, errors.New("avatar system unavailable")
	}
	avatar, found := avatars.Avatar(player)
	if !found {
		return nil, errors.Errorf("player %d has no avatar in the simulation", player)
	}
	return &playerEnv{
		manager: s.console.manager,
		player:  player,
		avatar:  avatar,
	}, nil
}

func (e *playerEnv) transform() (engine.Transform, error) {
	if transform, found := engine.Lookup[engine.Transform](e.manager, e.avatar, engine.TransformType); found {
		return transform, nil
	}
	return nil, errors.Errorf("avatar %d has no transform", e.avatar)
}

func (e *playerEnv) attributes() (engine.Attributes, error) {
	if attributes, found := engine.Lookup[engine.Attributes](e.manager, e.avatar, engine.AttributesType); found {
		return attributes, nil
	}
	return nil, errors.Errorf("avatar %d has no attributes", e.avatar)
}

func (e *playerEnv) inventory() (engine.Inventory, error) {
	if inventory, found := engine.Lookup[engine.Inventory](e.manager, e.avatar, engine.InventoryType); found {
		return inventory, nil
	}
	return nil, errors.Errorf("avatar %d has no inventory", e.avatar)
}

// equipment returns the avatar's root equipment slot. The full slot tree
// hangs off it via AllSlots.
func (e *playerEnv) equipment() (engine.ItemSlot, error) {
	if slot, found := engine.Lookup[engine.ItemSlot](e.manager, e.avatar, engine.ItemSlotType); found {
		return slot, nil
	}
	return nil, errors.Errorf("avatar %d has no equipment slots", e.avatar)
}

func (e *playerEnv) experience() (engine.Experience, error) {
	if experience, found := engine.Lookup[engine.Experience](e.manager, e.avatar, engine.ExperienceType); found {
		return experience, nil
	}
	return nil, errors.Errorf("avatar %d has no experience", e.avatar)
}

func (e *playerEnv) faction() (engine.Faction, error) {
	if faction, found := engine.Lookup[engine.Faction](e.manager, e.avatar, engine.FactionType); found {
		return faction, nil
	}
	return nil, errors.Errorf("avatar %d has no faction", e.avatar)
}
