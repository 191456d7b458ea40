// Package pemfile generates and loads the SSH host key the console server
// identifies itself with.
package pemfile

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"

	gossh "golang.org/x/crypto/ssh"

	"github.com/arvefors/starcon"
)

// KeyParams names the files of one host key pair.
type KeyParams struct {
	KeyPath       string
	SSHPubKeyPath string
}

// Generate creates a fresh 4096 bit RSA key pair and writes it to the
// configured paths.
func (k KeyParams) Generate() error {
	privateKey, err := rsa.GenerateKey(rand.Reader, 4096)
	if err != nil {
		return starcon.WithStack(err)
	}

	if err := os.WriteFile(k.KeyPath, pem.EncodeToMemory(
		&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
		}),
		0600,
	); err != nil {
		return starcon.WithStack(err)
	}

	pub, err := gossh.NewPublicKey(&privateKey.PublicKey)
	if err != nil {
		return starcon.WithStack(err)
	}
	return starcon.WithStack(os.WriteFile(k.SSHPubKeyPath, gossh.MarshalAuthorizedKey(pub), 0600))
}

// Ensure loads the private key PEM, generating the pair first if the
// private key file doesn't exist. The boolean reports whether a new pair
// was generated.
func (k KeyParams) Ensure() ([]byte, bool, error) {
	generated := false
	if _, err := os.Stat(k.KeyPath); os.IsNotExist(err) {
		if err := k.Generate(); err != nil {
			return nil, false, starcon.WithStack(err)
		}
		generated = true
	} else if err != nil {
		return nil, false, starcon.WithStack(err)
	}
	pemBytes, err := os.ReadFile(k.KeyPath)
	if err != nil {
		return nil, false, starcon.WithStack(err)
	}
	return pemBytes, generated, nil
}
