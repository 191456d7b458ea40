package console

import (
	"fmt"
	"sort"

	"github.com/rodaine/table"

	"github.com/arvefors/starcon"
	"github.com/arvefors/starcon/engine"
	"github.com/arvefors/starcon/lang"
)

// basicCommands are available to every logged in user.
func (s *Session) basicCommands() commands {
	return commands{
		{names: m("help", "?"), f: (*Session).helpCommand},
		{names: m("level"), f: (*Session).levelCommand},
		{names: m("inv", "inventory"), f: (*Session).inventoryCommand},
		{names: m("eq", "equipment"), f: (*Session).equipmentCommand},
		{names: m("who"), f: (*Session).whoCommand},
		{names: m("quit", "exit"), f: (*Session).quitCommand},
	}
}

func commandNames(sets ...commands) []string {
	names := sort.StringSlice{}
	for _, set := range sets {
		for _, cmd := range set {
			for name := range cmd.names {
				names = append(names, name)
			}
		}
	}
	sort.Sort(names)
	return names
}

func (s *Session) helpCommand(_ string) error {
	sets := []commands{s.basicCommands()}
	if s.wiz {
		sets = append(sets, s.wizCommands())
	}
	names := commandNames(sets...)
	fmt.Fprintf(s.term, "Available commands: %s\n", lang.Enumerator{}.Do(names...))
	return nil
}

func (s *Session) levelCommand(_ string) error {
	env, err := s.env()
	if err != nil {
		return starcon.WithStack(err)
	}
	experience, err := env.experience()
	if err != nil {
		return starcon.WithStack(err)
	}
	value, required := experience.Value(), experience.RequiredForNextLevel()
	percent := 0.0
	if required > 0 {
		percent = 100 * float64(value) / float64(required)
	}
	fmt.Fprintf(s.term, "Level %d, %d XP, %.1f%% towards level %d\n",
		experience.Level(), value, percent, experience.Level()+1)
	return nil
}

// itemName looks up the display name of an item entity, falling back to the
// raw entity id.
func itemName(m engine.Manager, item engine.Entity) string {
	if it, found := engine.Lookup[engine.Item](m, item, engine.ItemType); found {
		return it.Name()
	}
	return fmt.Sprintf("entity %d", item)
}

func (s *Session) inventoryCommand(_ string) error {
	env, err := s.env()
	if err != nil {
		return starcon.WithStack(err)
	}
	inventory, err := env.inventory()
	if err != nil {
		return starcon.WithStack(err)
	}
	items := inventory.Items()
	tbl := table.New("Entity", "Name").WithWriter(s.term)
	for _, item := range items {
		tbl.AddRow(item, itemName(env.manager, item))
	}
	tbl.Print()
	fmt.Fprintf(s.term, "%s\n", lang.Count(len(items), "item"))
	return nil
}

func (s *Session) equipmentCommand(_ string) error {
	env, err := s.env()
	if err != nil {
		return starcon.WithStack(err)
	}
	root, err := env.equipment()
	if err != nil {
		return starcon.WithStack(err)
	}
	slots := root.AllSlots()
	tbl := table.New("Slot", "Item", "Name").WithWriter(s.term)
	equipped := 0
	for _, slot := range slots {
		if item := slot.Item(); item == engine.None {
			tbl.AddRow(slot.ID(), "", "<empty>")
		} else {
			equipped++
			tbl.AddRow(slot.ID(), item, itemName(env.manager, item))
		}
	}
	tbl.Print()
	fmt.Fprintf(s.term, "%s, %d equipped\n", lang.Count(len(slots), "slot"), equipped)
	return nil
}

func (s *Session) whoCommand(_ string) error {
	sessions := map[string]*Session{}
	for name, sess := range s.console.sessionByName.Each() {
		sessions[name] = sess
	}
	names := make(sort.StringSlice, 0, len(sessions))
	for name := range sessions {
		names = append(names, name)
	}
	sort.Sort(names)
	tbl := table.New("User", "Wizard", "Player").WithWriter(s.term)
	for _, name := range names {
		sess := sessions[name]
		if sess.user == nil {
			continue
		}
		player := "-"
		if sess.user.Player >= 0 {
			player = fmt.Sprint(sess.user.Player)
		}
		tbl.AddRow(name, sess.wiz, player)
	}
	tbl.Print()
	return nil
}

func (s *Session) quitCommand(_ string) error {
	fmt.Fprintln(s.term, "Goodbye!")
	return errQuit
}
