package sshkey

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"

	"github.com/sidkik/dropletctl/pkg/errors"
)

// Mocked out for unit testing.
var (
	fs         = afero.NewOsFs()
	randReader = rand.Reader
)

// keyBits is the size of generated RSA keys.
const keyBits = 2048

// publicKeyComment is appended to the authorized_keys form of the public key.
const publicKeyComment = "dropletctl.local"

// Credential is the key material used to authenticate with droplets.
type Credential interface {
	PrivateKey() ssh.Signer
	PublicKeyString() string
	Fingerprint() string
}

// KeyPair is an RSA key pair loaded from disk.
type KeyPair struct {
	signer ssh.Signer
}

// PrivateKey returns the signer used for SSH public key authentication.
func (kp *KeyPair) PrivateKey() ssh.Signer {
	return kp.signer
}

// PublicKeyString returns the public key in authorized_keys format.
func (kp *KeyPair) PublicKeyString() string {
	authorized := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(kp.signer.PublicKey())))
	return fmt.Sprintf("%s %s", authorized, publicKeyComment)
}

// Fingerprint returns the colon separated MD5 fingerprint of the public key.
// This is the format DigitalOcean uses to identify account keys.
func (kp *KeyPair) Fingerprint() string {
	return ssh.FingerprintLegacyMD5(kp.signer.PublicKey())
}

// Store is the on-disk location of the application key.
type Store struct {
	Path string
}

// NewStore returns a Store backed by the key file at `path`.
func NewStore(path string) Store {
	return Store{Path: path}
}

// Load reads the key pair from disk. The boolean is false if no key has been
// generated yet.
func (s Store) Load() (*KeyPair, bool, error) {
	pemBytes, err := afero.ReadFile(fs, s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.WithContext(err, "read")
	}

	signer, err := ssh.ParsePrivateKey(pemBytes)
	if err != nil {
		return nil, false, errors.WithContext(err, fmt.Sprintf("parse %s", s.Path))
	}
	return &KeyPair{signer: signer}, true, nil
}

// GenerateAndPersist creates a new RSA key and writes it to the store,
// replacing any existing key.
func (s Store) GenerateAndPersist() (*KeyPair, error) {
	key, err := rsa.GenerateKey(randReader, keyBits)
	if err != nil {
		return nil, errors.WithContext(err, "generate")
	}

	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	if dir := filepath.Dir(s.Path); dir != "" {
		if err := fs.MkdirAll(dir, 0700); err != nil {
			return nil, errors.WithContext(err, "create key directory")
		}
	}

	if err := afero.WriteFile(fs, s.Path, pemBytes, 0600); err != nil {
		return nil, errors.WithContext(err, "write")
	}

	signer, err := ssh.NewSignerFromKey(key)
	if err != nil {
		return nil, errors.WithContext(err, "create signer")
	}
	return &KeyPair{signer: signer}, nil
}

// Get loads the key pair, generating and persisting a new one first if the
// store is empty.
func (s Store) Get() (*KeyPair, error) {
	kp, ok, err := s.Load()
	if err != nil {
		return nil, errors.WithContext(err, "load key")
	}
	if ok {
		return kp, nil
	}

	log.WithField("path", s.Path).Info("Creating SSH key")
	if _, err := s.GenerateAndPersist(); err != nil {
		return nil, errors.WithContext(err, "generate key")
	}

	kp, ok, err = s.Load()
	if err != nil {
		return nil, errors.WithContext(err, "load generated key")
	}
	if !ok {
		return nil, errors.FileNotFound{Path: s.Path}
	}
	return kp, nil
}
