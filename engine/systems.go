package engine

import "github.com/arvefors/starcon/farmath"

// System types the console looks up.
const (
	AvatarSystemType       SystemType = "Avatar"
	FloatingTextSystemType SystemType = "FloatingText"
	ShipFactoryType        SystemType = "ShipFactory"
)

// AvatarSystem maps connected players to their avatar entities.
type AvatarSystem interface {
	System
	Avatar(player PlayerID) (Entity, bool)
}

// FloatingTextSystem renders transient text in the game world.
type FloatingTextSystem interface {
	System
	Display(text string, at farmath.FarPosition)
}

// ShipFactory assembles complete AI ship entities from engine blueprints.
type ShipFactory interface {
	System
	CreateAIShip(blueprint string, faction Factions, at farmath.FarPosition) (Entity, error)
}
