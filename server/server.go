// Package server wires the console to an SSH listener, including host key
// handling and configuration.
package server

import (
	"log"
	"os"
	"path/filepath"

	"github.com/gliderlabs/ssh"
	"gopkg.in/yaml.v3"

	gossh "golang.org/x/crypto/ssh"

	"github.com/arvefors/starcon"
	"github.com/arvefors/starcon/console"
	"github.com/arvefors/starcon/pemfile"
)

// Config is the server configuration, loadable from a YAML file.
type Config struct {
	// SSHAddr is the address the console listens on.
	SSHAddr string `yaml:"ssh_addr"`
	// Dir holds the account database, audit log and host key.
	Dir string `yaml:"dir"`
}

func DefaultConfig() Config {
	return Config{
		SSHAddr: "127.0.0.1:15000",
		Dir:     filepath.Join(os.Getenv("HOME"), ".starcon"),
	}
}

// LoadConfig reads a YAML config file on top of the defaults. Unknown keys
// are an error, since they are usually typos.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return config, starcon.WithStack(err)
	}
	defer f.Close()
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		return config, starcon.WithStack(err)
	}
	return config, nil
}

// Server serves one console over SSH.
type Server struct {
	config  Config
	console *console.Console
}

func New(config Config, c *console.Console) *Server {
	return &Server{
		config:  config,
		console: c,
	}
}

// ListenAndServe generates the host key if needed and then serves SSH
// sessions until the listener fails.
func (s *Server) ListenAndServe() error {
	if err := os.MkdirAll(s.config.Dir, 0700); err != nil {
		return starcon.WithStack(err)
	}

	keys := pemfile.KeyParams{
		KeyPath:       filepath.Join(s.config.Dir, "private.pem"),
		SSHPubKeyPath: filepath.Join(s.config.Dir, "public.pem"),
	}
	pemBytes, generated, err := keys.Ensure()
	if err != nil {
		return starcon.WithStack(err)
	}
	if generated {
		log.Printf("Generated server key pair in %q", s.config.Dir)
	}

	signer, err := gossh.ParsePrivateKey(pemBytes)
	if err != nil {
		return starcon.WithStack(err)
	}

	log.Printf("Listening on %q with public key %q", s.config.SSHAddr, gossh.FingerprintSHA256(signer.PublicKey()))
	return starcon.WithStack(ssh.ListenAndServe(s.config.SSHAddr, s.console.HandleSession, ssh.HostKeyPEM(pemBytes)))
}
