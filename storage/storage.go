// Package storage persists console-layer state: developer accounts and the
// audit log. Simulation state is owned by the host engine and never stored
// here.
package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/arvefors/starcon"
	"github.com/arvefors/starcon/engine"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    wizard INTEGER NOT NULL DEFAULT 0,
    owner INTEGER NOT NULL DEFAULT 0,
    player INTEGER NOT NULL DEFAULT -1,
    last_login INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL DEFAULT 0
);
`

// User is a console account. Player binds the account to a player slot in
// the host engine; -1 means unbound.
type User struct {
	Id           int64  `db:"id"`
	Name         string `db:"name"`
	PasswordHash string `db:"password_hash"`
	Wizard       bool   `db:"wizard"`
	Owner        bool   `db:"owner"`
	Player       int64  `db:"player"`
	LastLoginAt  int64  `db:"last_login"`
	CreatedAt    int64  `db:"created_at"`
}

// PlayerID returns the engine player slot this account is bound to.
func (u *User) PlayerID() engine.PlayerID {
	return engine.PlayerID(u.Player)
}

func (u *User) LastLogin() time.Time {
	if u.LastLoginAt == 0 {
		return time.Time{}
	}
	return time.Unix(u.LastLoginAt, 0).UTC()
}

func (u *User) SetLastLogin(at time.Time) {
	u.LastLoginAt = at.Unix()
}

// Storage bundles the account database and the audit log.
type Storage struct {
	db    *sqlx.DB
	audit *AuditLogger
}

// New opens (and if necessary creates) the console database and audit log
// under dir.
func New(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, starcon.WithStack(err)
	}
	db, err := sqlx.Connect("sqlite", filepath.Join(dir, "console.db"))
	if err != nil {
		return nil, starcon.WithStack(err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, starcon.WithStack(err)
	}
	return &Storage{
		db:    db,
		audit: NewAuditLogger(filepath.Join(dir, "audit.log")),
	}, nil
}

func (s *Storage) Close() error {
	if err := s.audit.Close(); err != nil {
		return starcon.WithStack(err)
	}
	return starcon.WithStack(s.db.Close())
}

// LoadUser returns the account with the given name. Missing accounts are
// reported as os.ErrNotExist, so callers can treat "no such user" and
// "user file gone" alike.
func (s *Storage) LoadUser(ctx context.Context, name string) (*User, error) {
	user := &User{}
	if err := s.db.GetContext(ctx, user, "SELECT * FROM users WHERE name = ?", name); errors.Is(err, sql.ErrNoRows) {
		return nil, starcon.WithStack(os.ErrNotExist)
	} else if err != nil {
		return nil, starcon.WithStack(err)
	}
	return user, nil
}

// StoreUser inserts or, if overwrite is set, updates an account. New
// accounts get their Id and CreatedAt filled in.
func (s *Storage) StoreUser(ctx context.Context, user *User, overwrite bool) error {
	if overwrite && user.Id != 0 {
		_, err := s.db.ExecContext(ctx,
			`UPDATE users SET name = ?, password_hash = ?, wizard = ?, owner = ?, player = ?, last_login = ? WHERE id = ?`,
			user.Name, user.PasswordHash, user.Wizard, user.Owner, user.Player, user.LastLoginAt, user.Id)
		return starcon.WithStack(err)
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, password_hash, wizard, owner, player, last_login, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Name, user.PasswordHash, user.Wizard, user.Owner, user.Player, user.LastLoginAt, user.CreatedAt)
	if err != nil {
		return starcon.WithStack(err)
	}
	if user.Id, err = result.LastInsertId(); err != nil {
		return starcon.WithStack(err)
	}
	return nil
}

// SetUserWizard grants or revokes the wizard flag. Returns os.ErrNotExist
// for unknown accounts.
func (s *Storage) SetUserWizard(ctx context.Context, name string, wizard bool) error {
	result, err := s.db.ExecContext(ctx, "UPDATE users SET wizard = ? WHERE name = ?", wizard, name)
	if err != nil {
		return starcon.WithStack(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return starcon.WithStack(err)
	}
	if affected == 0 {
		return starcon.WithStack(os.ErrNotExist)
	}
	return nil
}

// Users returns all accounts ordered by name.
func (s *Storage) Users(ctx context.Context) ([]User, error) {
	users := []User{}
	if err := s.db.SelectContext(ctx, &users, "SELECT * FROM users ORDER BY name"); err != nil {
		return nil, starcon.WithStack(err)
	}
	return users, nil
}

// CountUsers returns the number of accounts.
func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	count := 0
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, starcon.WithStack(err)
	}
	return count, nil
}

// AuditLog writes a structured audit entry tagged with the session in ctx.
func (s *Storage) AuditLog(ctx context.Context, event string, data AuditData) {
	s.audit.Log(ctx, event, data)
}
