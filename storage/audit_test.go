package storage

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"

	goccy "github.com/goccy/go-json"
)

func TestAuditLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")
	logger := NewAuditLogger(path)
	defer logger.Close()

	ctx := SetSessionID(context.Background(), "session-1")
	logger.Log(ctx, "USER_LOGIN", AuditUserLogin{User: Ref(1, "alice"), Remote: "127.0.0.1:9"})
	logger.Log(ctx, "WIZARD_COMMAND", AuditWizardCommand{User: Ref(1, "alice"), Line: "/goto 1 2"})
	logger.Log(context.Background(), "LOGIN_FAILED", AuditLoginFailed{User: SystemRef(), Remote: "127.0.0.1:9"})

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	type entry struct {
		Time      string         `json:"time"`
		SessionID string         `json:"session_id"`
		Event     string         `json:"event"`
		Data      map[string]any `json:"data"`
	}
	entries := []entry{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		e := entry{}
		if err := goccy.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("unparseable audit line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}

	if len(entries) != 3 {
		t.Fatalf("got %d audit entries, want 3", len(entries))
	}
	if entries[0].Event != "USER_LOGIN" || entries[0].SessionID != "session-1" {
		t.Errorf("first entry = %+v, want USER_LOGIN in session-1", entries[0])
	}
	if entries[1].Data["line"] != "/goto 1 2" {
		t.Errorf("second entry data = %v, want logged command line", entries[1].Data)
	}
	if entries[2].SessionID != "" {
		t.Errorf("third entry session = %q, want empty", entries[2].SessionID)
	}
	if entries[0].Time == "" {
		t.Error("expected timestamps on audit entries")
	}
}

func TestSessionContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := SessionID(ctx); ok {
		t.Error("expected no session id on fresh context")
	}
	ctx = SetSessionID(ctx, "abc")
	if id, ok := SessionID(ctx); !ok || id != "abc" {
		t.Errorf("SessionID = %q, %v; want abc, true", id, ok)
	}
	if _, ok := AuthenticatedUser(ctx); ok {
		t.Error("expected no user on fresh context")
	}
	user := &User{Name: "alice"}
	ctx = AuthenticateUser(ctx, user)
	if got, ok := AuthenticatedUser(ctx); !ok || got.Name != "alice" {
		t.Errorf("AuthenticatedUser = %+v, %v; want alice, true", got, ok)
	}
}
