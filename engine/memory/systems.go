package memory

import (
	"sync"

	"github.com/arvefors/starcon/engine"
	"github.com/arvefors/starcon/farmath"
)

// AvatarSystem implements engine.AvatarSystem over a plain map.
type AvatarSystem struct {
	mutex   sync.RWMutex
	avatars map[engine.PlayerID]engine.Entity
}

func (a *AvatarSystem) SystemType() engine.SystemType {
	return engine.AvatarSystemType
}

func (a *AvatarSystem) set(player engine.PlayerID, e engine.Entity) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.avatars[player] = e
}

func (a *AvatarSystem) Avatar(player engine.PlayerID) (engine.Entity, bool) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	e, found := a.avatars[player]
	return e, found
}

// FloatingText is one recorded Display call.
type FloatingText struct {
	Text string
	At   farmath.FarPosition
}

// FloatingTextSystem implements engine.FloatingTextSystem by recording
// every display, so tests and the dev server can observe them.
type FloatingTextSystem struct {
	mutex    sync.RWMutex
	displays []FloatingText
}

func (f *FloatingTextSystem) SystemType() engine.SystemType {
	return engine.FloatingTextSystemType
}

func (f *FloatingTextSystem) Display(text string, at farmath.FarPosition) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.displays = append(f.displays, FloatingText{Text: text, At: at})
}

// Displays returns all recorded floating texts.
func (f *FloatingTextSystem) Displays() []FloatingText {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	result := make([]FloatingText, len(f.displays))
	copy(result, f.displays)
	return result
}

// ShipFactory implements engine.ShipFactory. The assembled ship is the bare
// minimum the console touches: transform, faction and intelligence.
type ShipFactory struct {
	manager    *Manager
	mutex      sync.RWMutex
	blueprints map[engine.Entity]string
}

func (s *ShipFactory) SystemType() engine.SystemType {
	return engine.ShipFactoryType
}

func (s *ShipFactory) CreateAIShip(blueprint string, faction engine.Factions, at farmath.FarPosition) (engine.Entity, error) {
	ship := s.manager.CreateEntity()
	if _, err := s.manager.AttachTransform(ship, at); err != nil {
		return engine.None, err
	}
	if _, err := s.manager.AttachFaction(ship, faction); err != nil {
		return engine.None, err
	}
	if _, err := s.manager.AttachIntelligence(ship); err != nil {
		return engine.None, err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.blueprints[ship] = blueprint
	return ship, nil
}

// Blueprint returns the blueprint name a ship was created from.
func (s *ShipFactory) Blueprint(e engine.Entity) string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.blueprints[e]
}
