package console

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"testing"

	"golang.org/x/term"

	"github.com/arvefors/starcon/engine/memory"
	"github.com/arvefors/starcon/farmath"
	"github.com/arvefors/starcon/storage"
)

type fakeTerminal struct {
	io.Reader
	io.Writer
}

// newTestSession builds a wizard session over the test environment, with
// command output captured in the returned buffer.
func newTestSession(t *testing.T) (*Session, *bytes.Buffer, *memory.Manager, *playerEnv) {
	t.Helper()
	m, env := newTestEnv(t)
	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	out := &bytes.Buffer{}
	s := &Session{
		console: New(m, store),
		term:    term.NewTerminal(fakeTerminal{Reader: strings.NewReader(""), Writer: out}, "> "),
		user: &storage.User{
			Name:   "tester",
			Wizard: true,
			Player: int64(testPlayer),
		},
		wiz: true,
		rng: rand.New(rand.NewSource(1)),
		ctx: storage.SetSessionID(context.Background(), "test-session"),
	}
	return s, out, m, env
}

func TestEnvResolution(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	env, err := s.env()
	if err != nil {
		t.Fatal(err)
	}
	if env.player != testPlayer {
		t.Errorf("env player = %d, want %d", env.player, testPlayer)
	}

	s.user.Player = -1
	if _, err := s.env(); err != ErrNoPlayer {
		t.Errorf("env with unbound account = %v, want ErrNoPlayer", err)
	}

	s.user.Player = 999
	if _, err := s.env(); err == nil {
		t.Error("expected error for a player without avatar")
	}
}

func TestGotoCommand(t *testing.T) {
	s, out, _, env := newTestSession(t)
	if err := s.gotoCommand("/goto 10 -20"); err != nil {
		t.Fatal(err)
	}
	transform, err := env.transform()
	if err != nil {
		t.Fatal(err)
	}
	if want := farmath.NewPosition(10, -20); transform.Position().Distance(want) != 0 {
		t.Errorf("avatar at %s, want %s", transform.Position(), want)
	}
	if !strings.Contains(out.String(), "Teleported to (10.00, -20.00)") {
		t.Errorf("output %q doesn't report the teleport", out.String())
	}
}

func TestGotoCommandUsage(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	for _, line := range []string{"/goto", "/goto 1", "/goto one two", "/goto 1 2 3"} {
		if err := s.gotoCommand(line); err == nil {
			t.Errorf("gotoCommand(%q) succeeded, want error", line)
		}
	}
}

func TestSetStatCommand(t *testing.T) {
	s, out, _, env := newTestSession(t)
	if err := s.setStatCommand("/setstat Health 42"); err != nil {
		t.Fatal(err)
	}
	attributes, err := env.attributes()
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := attributes.BaseValue("Health"); got != 42 {
		t.Errorf("Health = %f, want 42", got)
	}
	if !strings.Contains(out.String(), "Health = 42") {
		t.Errorf("output %q doesn't report the change", out.String())
	}
}

func TestEquipCommandByName(t *testing.T) {
	s, out, m, env := newTestSession(t)
	laser := addInventoryItem(t, m, env, "Laser", "weapon")
	if err := s.equipCommand("/equip laser"); err != nil {
		t.Fatal(err)
	}
	root, err := env.equipment()
	if err != nil {
		t.Fatal(err)
	}
	if root.Item() != laser {
		t.Errorf("slot holds %d, want %d", root.Item(), laser)
	}
	if !strings.Contains(out.String(), "Equipped Laser") {
		t.Errorf("output %q doesn't report the equip", out.String())
	}
}

func TestUnequipCommand(t *testing.T) {
	s, out, m, env := newTestSession(t)
	laser := addInventoryItem(t, m, env, "Laser", "weapon")
	slot, err := equipItem(env, laser)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.unequipCommand(fmt.Sprintf("/unequip %d", slot.ID())); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Returned Laser to the inventory") {
		t.Errorf("output %q doesn't report the unequip", out.String())
	}
}

func TestInspectCommand(t *testing.T) {
	s, out, _, _ := newTestSession(t)
	if err := s.inspectCommand("/inspect"); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"Transform"`, `"Attributes"`, `"Inventory"`, `"position"`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("inspect output doesn't contain %s:\n%s", want, out.String())
		}
	}
}

func TestInspectCommandUnknownEntity(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	if err := s.inspectCommand("/inspect 424242"); err == nil {
		t.Error("expected error inspecting an unknown entity")
	}
}

func TestHelpListsCommands(t *testing.T) {
	s, out, _, _ := newTestSession(t)
	if err := s.helpCommand("help"); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"help", "quit", "/goto", "/addai"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("help output doesn't mention %q:\n%s", want, out.String())
		}
	}

	// Non-wizards don't see wizard commands.
	s.wiz = false
	out.Reset()
	if err := s.helpCommand("help"); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "/goto") {
		t.Errorf("non-wizard help mentions wizard commands:\n%s", out.String())
	}
}

func TestInventoryCommand(t *testing.T) {
	s, out, m, env := newTestSession(t)
	addInventoryItem(t, m, env, "Laser", "weapon")
	addInventoryItem(t, m, env, "Shield", "shield")
	if err := s.inventoryCommand("inventory"); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Laser", "Shield", "2 items"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("inventory output doesn't contain %q:\n%s", want, out.String())
		}
	}
}

func TestEquipmentCommand(t *testing.T) {
	s, out, m, env := newTestSession(t)
	laser := addInventoryItem(t, m, env, "Laser", "weapon")
	if _, err := equipItem(env, laser); err != nil {
		t.Fatal(err)
	}
	if err := s.equipmentCommand("equipment"); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Laser", "1 slot, 1 equipped"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("equipment output doesn't contain %q:\n%s", want, out.String())
		}
	}
}

func TestLevelCommand(t *testing.T) {
	s, out, _, _ := newTestSession(t)
	if err := s.levelCommand("level"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Level 3, 250 XP, 62.5% towards level 4") {
		t.Errorf("unexpected level output:\n%s", out.String())
	}
}

func TestWhoCommand(t *testing.T) {
	s, out, _, _ := newTestSession(t)
	s.console.sessionByName.Set(s.user.Name, s)
	if err := s.whoCommand("who"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "tester") {
		t.Errorf("who output doesn't list the session:\n%s", out.String())
	}
}

func TestQuitCommand(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	if err := s.quitCommand("quit"); err != errQuit {
		t.Errorf("quitCommand = %v, want errQuit", err)
	}
}

func TestWizardGrantRequiresOwner(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	if err := s.addWizCommand("/addwiz somebody"); err == nil {
		t.Error("expected error granting wizard without owner flag")
	}
}

func TestWizardGrant(t *testing.T) {
	s, out, _, _ := newTestSession(t)
	s.user.Owner = true
	target := &storage.User{Name: "apprentice", Player: -1}
	if err := s.console.storage.StoreUser(s.ctx, target, false); err != nil {
		t.Fatal(err)
	}

	if err := s.addWizCommand("/addwiz apprentice"); err != nil {
		t.Fatal(err)
	}
	stored, err := s.console.storage.LoadUser(s.ctx, "apprentice")
	if err != nil {
		t.Fatal(err)
	}
	if !stored.Wizard {
		t.Error("target not a wizard after /addwiz")
	}
	if !strings.Contains(out.String(), "apprentice is now a wizard") {
		t.Errorf("output %q doesn't report the grant", out.String())
	}

	if err := s.delWizCommand("/delwiz apprentice"); err != nil {
		t.Fatal(err)
	}
	if stored, err = s.console.storage.LoadUser(s.ctx, "apprentice"); err != nil {
		t.Fatal(err)
	}
	if stored.Wizard {
		t.Error("target still a wizard after /delwiz")
	}
}

func TestBindPlayerCommand(t *testing.T) {
	s, out, _, _ := newTestSession(t)
	if err := s.console.storage.StoreUser(s.ctx, s.user, false); err != nil {
		t.Fatal(err)
	}
	if err := s.bindPlayerCommand("/bindplayer 12"); err != nil {
		t.Fatal(err)
	}
	if s.user.Player != 12 {
		t.Errorf("user bound to player %d, want 12", s.user.Player)
	}
	stored, err := s.console.storage.LoadUser(s.ctx, s.user.Name)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Player != 12 {
		t.Errorf("stored binding is %d, want 12", stored.Player)
	}
	if !strings.Contains(out.String(), "tester is now bound to player 12") {
		t.Errorf("output %q doesn't report the binding", out.String())
	}

	// Binding somebody else requires ownership.
	if err := s.bindPlayerCommand("/bindplayer 12 other"); err == nil {
		t.Error("expected error binding another account without owner flag")
	}
}

func TestBindPlayerUpdatesLiveSession(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	s.user.Owner = true

	other := &storage.User{Name: "copilot", Player: -1}
	if err := s.console.storage.StoreUser(s.ctx, other, false); err != nil {
		t.Fatal(err)
	}
	// The target is logged in with its own copy of the account.
	otherSession := &Session{
		console: s.console,
		user:    &storage.User{Id: other.Id, Name: other.Name, Player: -1},
	}
	s.console.sessionByName.Set(other.Name, otherSession)

	if err := s.bindPlayerCommand("/bindplayer 5 copilot"); err != nil {
		t.Fatal(err)
	}
	if otherSession.user.Player != 5 {
		t.Errorf("live session still bound to player %d, want 5", otherSession.user.Player)
	}
	stored, err := s.console.storage.LoadUser(s.ctx, other.Name)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Player != 5 {
		t.Errorf("stored binding is %d, want 5", stored.Player)
	}
}

func TestAttemptDispatch(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	found, err := s.basicCommands().attempt(s, "level", "level")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Error("level not found in basic commands")
	}
	found, err = s.basicCommands().attempt(s, "/goto", "/goto 1 2")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("wizard command found in basic commands")
	}
	if found, _ = s.wizCommands().attempt(s, "/goto", "/goto 1 2"); !found {
		t.Error("/goto not found in wizard commands")
	}

	// Building both tables and rendering help must terminate: help walks
	// the same tables it is listed in.
	if err := s.helpCommand("help"); err != nil {
		t.Fatal(err)
	}
}

func TestUsersCommand(t *testing.T) {
	s, out, _, _ := newTestSession(t)
	for _, user := range []*storage.User{
		{Name: "alice", Wizard: true, Player: 1},
		{Name: "bob", Player: -1},
	} {
		if err := s.console.storage.StoreUser(s.ctx, user, false); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.usersCommand("/users"); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"alice", "bob"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("users output doesn't list %q:\n%s", want, out.String())
		}
	}
}
