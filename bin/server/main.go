// Command server runs the console against an in-memory demo world. Real
// deployments embed the console and server packages into the engine process
// and hand console.New the live manager instead.
package main

import (
	"flag"
	"log"

	"github.com/arvefors/starcon/console"
	"github.com/arvefors/starcon/engine"
	"github.com/arvefors/starcon/engine/memory"
	"github.com/arvefors/starcon/farmath"
	"github.com/arvefors/starcon/server"
	"github.com/arvefors/starcon/storage"
)

func main() {
	config := server.DefaultConfig()

	configPath := flag.String("config", "", "Path to a YAML config file.")
	flag.StringVar(&config.SSHAddr, "ssh", config.SSHAddr, "Where to listen to SSH connections.")
	flag.StringVar(&config.Dir, "dir", config.Dir, "Where to save database and settings.")
	flag.Parse()

	if *configPath != "" {
		loaded, err := server.LoadConfig(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		config = loaded
	}

	manager := memory.NewManager()
	if err := seedDemoWorld(manager); err != nil {
		log.Fatal(err)
	}

	store, err := storage.New(config.Dir)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	log.Fatal(server.New(config, console.New(manager, store)).ListenAndServe())
}

// seedDemoWorld gives player 0 an avatar with enough components to exercise
// every console command. Bind an account to player 0 with /bindplayer.
func seedDemoWorld(m *memory.Manager) error {
	avatar := m.CreateEntity()
	m.SetAvatar(0, avatar)
	if _, err := m.AttachTransform(avatar, farmath.NewPosition(0, 0)); err != nil {
		return err
	}
	if _, err := m.AttachAttributes(avatar, map[engine.AttributeType]float64{
		"Health":            100,
		"AccelerationForce": 5,
		"TurnRate":          2,
	}); err != nil {
		return err
	}
	inventory, err := m.AttachInventory(avatar)
	if err != nil {
		return err
	}
	// Equipment is a tree rooted in a single slot: slots on equipped items
	// become reachable once the item is in place. The avatar gets one
	// unrestricted root slot; the laser below carries a utility sub-slot.
	if _, err := m.AttachItemSlot(avatar, ""); err != nil {
		return err
	}
	if _, err := m.AttachExperience(avatar, 1, 0, 100); err != nil {
		return err
	}
	if _, err := m.AttachFaction(avatar, engine.PlayerFaction); err != nil {
		return err
	}

	for _, spec := range []struct {
		name    string
		kind    string
		subSlot string
	}{
		{"Pulse Laser", "weapon", "utility"},
		{"Mining Drill", "utility", ""},
		{"Salvaged Plating", "armor", ""},
	} {
		item := m.CreateEntity()
		if _, err := m.AttachItem(item, spec.name, spec.kind); err != nil {
			return err
		}
		if spec.subSlot != "" {
			if _, err := m.AttachItemSlot(item, spec.subSlot); err != nil {
				return err
			}
		}
		inventory.Add(item)
	}
	return nil
}
