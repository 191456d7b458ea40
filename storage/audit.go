package storage

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	goccy "github.com/goccy/go-json"
)

type contextKey int

const (
	sessionIDKey contextKey = iota
	userKey
)

// SetSessionID tags ctx with a session identifier so all audit events from
// one connection can be correlated.
func SetSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionID returns the session identifier in ctx, if any.
func SessionID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok
}

// AuthenticateUser tags ctx with the logged in account.
func AuthenticateUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// AuthenticatedUser returns the account in ctx, if any.
func AuthenticatedUser(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userKey).(*User)
	return user, ok
}

// AuditRef identifies a user by both ID and name for audit logging. ID is
// a pointer to distinguish "ID is 0" from "no ID" (system events).
type AuditRef struct {
	ID   *int64 `json:"id,omitempty"`
	Name string `json:"name"`
}

// Ref creates an AuditRef with the given ID and name.
func Ref(id int64, name string) AuditRef {
	return AuditRef{ID: &id, Name: name}
}

// SystemRef creates an AuditRef for events without a causing user.
func SystemRef() AuditRef {
	return AuditRef{Name: "system"}
}

// AuditData is the interface for typed audit event data.
type AuditData interface {
	auditData()
}

// AuditEntry is a single audit log line.
type AuditEntry struct {
	Time      string    `json:"time"`
	SessionID string    `json:"session_id,omitempty"`
	Event     string    `json:"event"`
	Data      AuditData `json:"data"`
}

// AuditUserCreate is logged when a new account registers.
type AuditUserCreate struct {
	User   AuditRef `json:"user"`
	Remote string   `json:"remote"`
}

func (AuditUserCreate) auditData() {}

// AuditUserLogin is logged on successful login.
type AuditUserLogin struct {
	User   AuditRef `json:"user"`
	Remote string   `json:"remote"`
}

func (AuditUserLogin) auditData() {}

// AuditLoginFailed is logged on failed login attempts.
type AuditLoginFailed struct {
	User   AuditRef `json:"user"`
	Remote string   `json:"remote"`
}

func (AuditLoginFailed) auditData() {}

// AuditSessionEnd is logged when a connection closes.
type AuditSessionEnd struct {
	User AuditRef `json:"user"`
}

func (AuditSessionEnd) auditData() {}

// AuditWizardCommand is logged for every executed wizard command, since
// those mutate the live simulation.
type AuditWizardCommand struct {
	User AuditRef `json:"user"`
	Line string   `json:"line"`
}

func (AuditWizardCommand) auditData() {}

// AuditWizardGrant is logged when wizard privileges change.
type AuditWizardGrant struct {
	Caller  AuditRef `json:"caller"`
	Subject AuditRef `json:"subject"`
	Granted bool     `json:"granted"`
}

func (AuditWizardGrant) auditData() {}

// AuditLogger writes security relevant events as JSON lines to a size
// rotated file.
type AuditLogger struct {
	mutex sync.Mutex
	out   *lumberjack.Logger
}

// NewAuditLogger creates an audit logger writing to path, rotating at
// 50MB and keeping ten old files.
func NewAuditLogger(path string) *AuditLogger {
	return &AuditLogger{
		out: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    50,
			MaxBackups: 10,
		},
	}
}

// Log writes a structured audit entry. Panics if encoding fails, since
// that indicates a bug in the typed AuditData structs.
func (a *AuditLogger) Log(ctx context.Context, event string, data AuditData) {
	sessionID, _ := SessionID(ctx)
	line, err := goccy.Marshal(AuditEntry{
		Time:      time.Now().UTC().Format(time.RFC3339Nano),
		SessionID: sessionID,
		Event:     event,
		Data:      data,
	})
	if err != nil {
		panic(fmt.Sprintf("audit log encode failed: %v", err))
	}
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if _, err := a.out.Write(append(line, '\n')); err != nil {
		log.Printf("audit log write failed: %v", err)
	}
}

// Close closes the audit log file.
func (a *AuditLogger) Close() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.out.Close()
}
