package console

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/buildkite/shellwords"
	goccy "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rodaine/table"

	"github.com/arvefors/starcon"
	"github.com/arvefors/starcon/engine"
	"github.com/arvefors/starcon/script"
	"github.com/arvefors/starcon/storage"
)

const scriptTimeout = 5 * time.Second

// wizCommands mutate the live simulation or the account store. Only
// available to wizards, and every use is audit logged.
func (s *Session) wizCommands() commands {
	return commands{
		{names: m("/goto"), f: (*Session).gotoCommand},
		{names: m("/setstat"), f: (*Session).setStatCommand},
		{names: m("/desync"), f: (*Session).desyncCommand},
		{names: m("/equip"), f: (*Session).equipCommand},
		{names: m("/unequip"), f: (*Session).unequipCommand},
		{names: m("/factions"), f: (*Session).factionsCommand},
		{names: m("/ftext"), f: (*Session).ftextCommand},
		{names: m("/addai"), f: (*Session).addAICommand},
		{names: m("/formation"), f: (*Session).formationCommand},
		{names: m("/inspect"), f: (*Session).inspectCommand},
		{names: m("/js"), f: (*Session).jsCommand},
		{names: m("/users"), f: (*Session).usersCommand},
		{names: m("/addwiz"), f: (*Session).addWizCommand},
		{names: m("/delwiz"), f: (*Session).delWizCommand},
		{names: m("/bindplayer"), f: (*Session).bindPlayerCommand},
	}
}

func splitLine(line string) ([]string, error) {
	parts, err := shellwords.SplitPosix(strings.TrimSpace(line))
	if err != nil {
		return nil, starcon.WithStack(err)
	}
	return parts, nil
}

// rest returns the raw line after the command word, for commands taking
// free text.
func rest(line string) string {
	trimmed := strings.TrimSpace(line)
	if idx := strings.IndexAny(trimmed, " \t"); idx >= 0 {
		return strings.TrimSpace(trimmed[idx:])
	}
	return ""
}

func (s *Session) requireOwner() error {
	if !s.user.Owner {
		return errors.New("only the console owner can do that")
	}
	return nil
}

func (s *Session) gotoCommand(line string) error {
	parts, err := splitLine(line)
	if err != nil {
		return err
	}
	if len(parts) != 3 {
		return errors.New("usage: /goto <x> <y>")
	}
	x, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return errors.Errorf("bad x coordinate %q", parts[1])
	}
	y, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return errors.Errorf("bad y coordinate %q", parts[2])
	}
	env, err := s.env()
	if err != nil {
		return starcon.WithStack(err)
	}
	pos, err := teleport(env, x, y)
	if err != nil {
		return starcon.WithStack(err)
	}
	fmt.Fprintf(s.term, "Teleported to %s\n", pos)
	return nil
}

func (s *Session) setStatCommand(line string) error {
	parts, err := splitLine(line)
	if err != nil {
		return err
	}
	if len(parts) != 3 {
		return errors.New("usage: /setstat <attribute> <value>")
	}
	value, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return errors.Errorf("bad value %q", parts[2])
	}
	env, err := s.env()
	if err != nil {
		return starcon.WithStack(err)
	}
	if err := setStat(env, parts[1], value); err != nil {
		return starcon.WithStack(err)
	}
	fmt.Fprintf(s.term, "%s = %v\n", parts[1], value)
	return nil
}

func (s *Session) desyncCommand(_ string) error {
	env, err := s.env()
	if err != nil {
		return starcon.WithStack(err)
	}
	pos, err := desync(env, s.rng)
	if err != nil {
		return starcon.WithStack(err)
	}
	fmt.Fprintf(s.term, "Server position now %s, client left behind\n", pos)
	return nil
}

// findInventoryItem resolves an /equip argument: a numeric entity id, or
// the name of an item in the inventory.
func findInventoryItem(env *playerEnv, arg string) (engine.Entity, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return engine.Entity(id), nil
	}
	inventory, err := env.inventory()
	if err != nil {
		return engine.None, starcon.WithStack(err)
	}
	for _, item := range inventory.Items() {
		if it, found := engine.Lookup[engine.Item](env.manager, item, engine.ItemType); found && strings.EqualFold(it.Name(), arg) {
			return item, nil
		}
	}
	return engine.None, errors.Errorf("no item named %q in the inventory", arg)
}

func (s *Session) equipCommand(line string) error {
	parts, err := splitLine(line)
	if err != nil {
		return err
	}
	if len(parts) != 2 {
		return errors.New("usage: /equip <item entity or name>")
	}
	env, err := s.env()
	if err != nil {
		return starcon.WithStack(err)
	}
	item, err := findInventoryItem(env, parts[1])
	if err != nil {
		return starcon.WithStack(err)
	}
	slot, err := equipItem(env, item)
	if err != nil {
		return starcon.WithStack(err)
	}
	fmt.Fprintf(s.term, "Equipped %s in slot %d\n", itemName(env.manager, item), slot.ID())
	return nil
}

func (s *Session) unequipCommand(line string) error {
	parts, err := splitLine(line)
	if err != nil {
		return err
	}
	if len(parts) != 2 {
		return errors.New("usage: /unequip <slot id>")
	}
	slotID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return errors.Errorf("bad slot id %q", parts[1])
	}
	env, err := s.env()
	if err != nil {
		return starcon.WithStack(err)
	}
	item, err := unequipSlot(env, engine.ComponentID(slotID))
	if err != nil {
		return starcon.WithStack(err)
	}
	if item == engine.None {
		fmt.Fprintln(s.term, "Slot was already empty")
	} else {
		fmt.Fprintf(s.term, "Returned %s to the inventory\n", itemName(env.manager, item))
	}
	return nil
}

func (s *Session) factionsCommand(_ string) error {
	env, err := s.env()
	if err != nil {
		return starcon.WithStack(err)
	}
	factions, err := joinNpcFactions(env)
	if err != nil {
		return starcon.WithStack(err)
	}
	fmt.Fprintf(s.term, "Factions now %s\n", factions)
	return nil
}

func (s *Session) ftextCommand(line string) error {
	text := rest(line)
	if text == "" {
		return errors.New("usage: /ftext <text>")
	}
	env, err := s.env()
	if err != nil {
		return starcon.WithStack(err)
	}
	if err := floatText(env, text); err != nil {
		return starcon.WithStack(err)
	}
	fmt.Fprintln(s.term, "Displayed")
	return nil
}

func (s *Session) addAICommand(_ string) error {
	env, err := s.env()
	if err != nil {
		return starcon.WithStack(err)
	}
	ship, err := addAIShip(env)
	if err != nil {
		return starcon.WithStack(err)
	}
	fmt.Fprintf(s.term, "Spawned %s as entity %d, guarding the squad leader\n", aiShipBlueprint, ship)
	return nil
}

func (s *Session) formationCommand(line string) error {
	parts, err := splitLine(line)
	if err != nil {
		return err
	}
	if len(parts) != 2 {
		return errors.New("usage: /formation <line|column|vee|block|none>")
	}
	env, err := s.env()
	if err != nil {
		return starcon.WithStack(err)
	}
	formation, err := setFormation(env, parts[1])
	if err != nil {
		return starcon.WithStack(err)
	}
	fmt.Fprintf(s.term, "Squad formation now %s\n", formation)
	return nil
}

// componentView is the JSON shape of one component in /inspect output.
type componentView struct {
	ID   engine.ComponentID   `json:"id"`
	Type engine.ComponentType `json:"type"`
	Data any                  `json:"data,omitempty"`
}

// inspectedTypes is the order components appear in /inspect output.
var inspectedTypes = []engine.ComponentType{
	engine.TransformType,
	engine.AttributesType,
	engine.InventoryType,
	engine.ItemType,
	engine.ItemSlotType,
	engine.ExperienceType,
	engine.FactionType,
	engine.SquadType,
	engine.IntelligenceType,
}

func componentData(component engine.Component) any {
	switch c := component.(type) {
	case engine.Transform:
		return map[string]any{"position": c.Position().String()}
	case engine.Attributes:
		// Enumerating attributes isn't part of the component contract, but
		// the in-memory manager (and friendly engines) expose a snapshot.
		if snapshotter, ok := c.(interface {
			Snapshot() map[engine.AttributeType]float64
		}); ok {
			return snapshotter.Snapshot()
		}
		return nil
	case engine.Inventory:
		return map[string]any{"items": c.Items()}
	case engine.Item:
		return map[string]any{"name": c.Name()}
	case engine.ItemSlot:
		return map[string]any{"item": c.Item()}
	case engine.Experience:
		return map[string]any{
			"level":    c.Level(),
			"value":    c.Value(),
			"required": c.RequiredForNextLevel(),
		}
	case engine.Faction:
		return map[string]any{"value": c.Value().String()}
	case engine.Squad:
		return map[string]any{
			"leader":    c.Leader(),
			"members":   c.Members(),
			"formation": c.Formation().String(),
		}
	}
	return nil
}

func (s *Session) inspectCommand(line string) error {
	parts, err := splitLine(line)
	if err != nil {
		return err
	}
	var entity engine.Entity
	switch len(parts) {
	case 1:
		env, err := s.env()
		if err != nil {
			return starcon.WithStack(err)
		}
		entity = env.avatar
	case 2:
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return errors.Errorf("bad entity id %q", parts[1])
		}
		entity = engine.Entity(id)
	default:
		return errors.New("usage: /inspect [entity]")
	}

	views := []componentView{}
	for _, t := range inspectedTypes {
		for _, component := range s.console.manager.Components(entity, t) {
			views = append(views, componentView{
				ID:   component.ID(),
				Type: component.Type(),
				Data: componentData(component),
			})
		}
	}
	if len(views) == 0 {
		return errors.Errorf("entity %d has no components", entity)
	}
	rendered, err := goccy.MarshalIndent(views, "", "  ")
	if err != nil {
		return starcon.WithStack(err)
	}
	fmt.Fprintf(s.term, "%s\n", rendered)
	return nil
}

func (s *Session) jsCommand(line string) error {
	source := rest(line)
	if source == "" {
		fmt.Fprintln(s.term, "Enter script, end with a single '.' line:")
		lines := []string{}
		for {
			scriptLine, err := s.term.ReadLine()
			if err != nil {
				return starcon.WithStack(err)
			}
			if scriptLine == "." {
				break
			}
			lines = append(lines, scriptLine)
		}
		source = strings.Join(lines, "\n")
	}
	result, err := script.Target{
		Source:   source,
		Origin:   fmt.Sprintf("%s.js", s.user.Name),
		Bindings: s.scriptBindings(),
		Console:  s.term,
	}.Run(s.ctx, scriptTimeout)
	if err != nil {
		return starcon.WithStack(err)
	}
	if result != "" {
		fmt.Fprintln(s.term, result)
	}
	return nil
}

func (s *Session) usersCommand(_ string) error {
	users, err := s.console.storage.Users(s.ctx)
	if err != nil {
		return starcon.WithStack(err)
	}
	tbl := table.New("Name", "Wizard", "Owner", "Player", "Last login").WithWriter(s.term)
	for _, user := range users {
		player := "-"
		if user.Player >= 0 {
			player = fmt.Sprint(user.Player)
		}
		lastLogin := "-"
		if at := user.LastLogin(); !at.IsZero() {
			lastLogin = at.Format(time.RFC3339)
		}
		tbl.AddRow(user.Name, user.Wizard, user.Owner, player, lastLogin)
	}
	tbl.Print()
	return nil
}

func (s *Session) setWizard(name string, wizard bool) error {
	if err := s.requireOwner(); err != nil {
		return starcon.WithStack(err)
	}
	target, err := s.console.storage.LoadUser(s.ctx, name)
	if err != nil {
		return starcon.WithStack(err)
	}
	if err := s.console.storage.SetUserWizard(s.ctx, target.Name, wizard); err != nil {
		return starcon.WithStack(err)
	}
	s.console.storage.AuditLog(s.ctx, "WIZARD_GRANT", storage.AuditWizardGrant{
		Caller:  storage.Ref(s.user.Id, s.user.Name),
		Subject: storage.Ref(target.Id, target.Name),
		Granted: wizard,
	})
	// Logged in targets get the change immediately.
	if sess, found := s.console.sessionByName.GetHas(target.Name); found {
		sess.wiz = wizard
	}
	if wizard {
		fmt.Fprintf(s.term, "%s is now a wizard\n", target.Name)
	} else {
		fmt.Fprintf(s.term, "%s is no longer a wizard\n", target.Name)
	}
	return nil
}

func (s *Session) addWizCommand(line string) error {
	parts, err := splitLine(line)
	if err != nil {
		return err
	}
	if len(parts) != 2 {
		return errors.New("usage: /addwiz <user>")
	}
	return s.setWizard(parts[1], true)
}

func (s *Session) delWizCommand(line string) error {
	parts, err := splitLine(line)
	if err != nil {
		return err
	}
	if len(parts) != 2 {
		return errors.New("usage: /delwiz <user>")
	}
	return s.setWizard(parts[1], false)
}

func (s *Session) bindPlayerCommand(line string) error {
	parts, err := splitLine(line)
	if err != nil {
		return err
	}
	if len(parts) != 2 && len(parts) != 3 {
		return errors.New("usage: /bindplayer <player id> [user]")
	}
	player, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil {
		return errors.Errorf("bad player id %q", parts[1])
	}
	target := s.user
	if len(parts) == 3 {
		if err := s.requireOwner(); err != nil {
			return starcon.WithStack(err)
		}
		if target, err = s.console.storage.LoadUser(s.ctx, parts[2]); err != nil {
			return starcon.WithStack(err)
		}
	}
	target.Player = player
	if err := s.console.storage.StoreUser(s.ctx, target, true); err != nil {
		return starcon.WithStack(err)
	}
	// Logged in targets get the change immediately.
	if sess, found := s.console.sessionByName.GetHas(target.Name); found && sess.user != target {
		sess.user.Player = player
	}
	fmt.Fprintf(s.term, "%s is now bound to player %d\n", target.Name, player)
	return nil
}
