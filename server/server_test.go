package server

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ssh_addr: 0.0.0.0:2222\n"), 0600); err != nil {
		t.Fatal(err)
	}
	config, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if config.SSHAddr != "0.0.0.0:2222" {
		t.Errorf("SSHAddr = %q, want 0.0.0.0:2222", config.SSHAddr)
	}
	// Unset keys keep their defaults.
	if config.Dir != DefaultConfig().Dir {
		t.Errorf("Dir = %q, want the default %q", config.Dir, DefaultConfig().Dir)
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ssh_adr: oops\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for unknown config key")
	}
}
