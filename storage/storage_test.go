package storage

import (
	"context"
	"os"
	"testing"

	"github.com/bxcodec/faker/v4"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Error(err)
		}
	})
	return s
}

func TestLoadMissingUser(t *testing.T) {
	s := newTestStorage(t)
	if _, err := s.LoadUser(context.Background(), "nobody"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadUser for missing user returned %v, want os.ErrNotExist", err)
	}
}

func TestStoreAndLoadUser(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := &User{
		Name:         faker.Username(),
		PasswordHash: faker.Password(),
		Player:       3,
	}
	if err := s.StoreUser(ctx, user, false); err != nil {
		t.Fatal(err)
	}
	if user.Id == 0 {
		t.Error("expected StoreUser to assign an id")
	}
	if user.CreatedAt == 0 {
		t.Error("expected StoreUser to set created_at")
	}

	loaded, err := s.LoadUser(ctx, user.Name)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(user, loaded); diff != "" {
		t.Errorf("loaded user mismatch (-want +got):\n%s", diff)
	}

	// Same name again must fail the unique constraint.
	if err := s.StoreUser(ctx, &User{Name: user.Name, PasswordHash: "x"}, false); err == nil {
		t.Error("expected duplicate insert to fail")
	}
}

func TestOverwriteUser(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := &User{Name: faker.Username(), PasswordHash: faker.Password()}
	if err := s.StoreUser(ctx, user, false); err != nil {
		t.Fatal(err)
	}
	user.Wizard = true
	user.Player = 7
	if err := s.StoreUser(ctx, user, true); err != nil {
		t.Fatal(err)
	}
	loaded, err := s.LoadUser(ctx, user.Name)
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.Wizard || loaded.Player != 7 {
		t.Errorf("overwrite lost changes: wizard=%v player=%d", loaded.Wizard, loaded.Player)
	}
}

func TestSetUserWizard(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := &User{Name: faker.Username(), PasswordHash: faker.Password()}
	if err := s.StoreUser(ctx, user, false); err != nil {
		t.Fatal(err)
	}
	if err := s.SetUserWizard(ctx, user.Name, true); err != nil {
		t.Fatal(err)
	}
	loaded, err := s.LoadUser(ctx, user.Name)
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.Wizard {
		t.Error("expected wizard flag set")
	}
	if err := s.SetUserWizard(ctx, "nobody", true); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("SetUserWizard for missing user returned %v, want os.ErrNotExist", err)
	}
}

func TestUsersOrderedByName(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for _, name := range []string{"charlie", "alice", "bob"} {
		if err := s.StoreUser(ctx, &User{Name: name, PasswordHash: "x"}, false); err != nil {
			t.Fatal(err)
		}
	}
	users, err := s.Users(ctx)
	if err != nil {
		t.Fatal(err)
	}
	names := []string{}
	for _, user := range users {
		names = append(names, user.Name)
	}
	if diff := cmp.Diff([]string{"alice", "bob", "charlie"}, names); diff != "" {
		t.Errorf("Users order mismatch (-want +got):\n%s", diff)
	}
	count, err := s.CountUsers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("CountUsers = %d, want 3", count)
	}
}
