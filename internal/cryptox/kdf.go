package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// PBKDF2Iterations is fixed: keys are never stored, so every client must
	// re-derive exactly the same key from (password, salt).
	PBKDF2Iterations = 200_000
	KeySize          = 32 // AES-256
	SaltSize         = 16
)

// KeyDeriver turns a master password and the account salt into an AES key.
type KeyDeriver struct {
	iterations int
}

// NewKeyDeriver checks the environment and returns a deriver using the
// standard iteration count.
func NewKeyDeriver() (*KeyDeriver, error) {
	if err := CheckEnvironment(); err != nil {
		return nil, err
	}
	return &KeyDeriver{iterations: PBKDF2Iterations}, nil
}

// Derive decodes the base64 salt and derives a 256-bit key. The result is
// deterministic for a given (password, salt) pair.
func (d *KeyDeriver) Derive(password, saltB64 string) ([]byte, error) {
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, fmt.Errorf("%w: salt is not valid base64", common.ErrValidation)
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", common.ErrValidation)
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	return pbkdf2.Key(pw, salt, d.iterations, KeySize, sha256.New), nil
}

// DeriveKey is a convenience wrapper around a standard KeyDeriver.
func DeriveKey(password, saltB64 string) ([]byte, error) {
	d, err := NewKeyDeriver()
	if err != nil {
		return nil, err
	}
	return d.Derive(password, saltB64)
}

// NewSalt returns a fresh random salt, base64 encoded for transport.
func NewSalt() (string, error) {
	salt, err := randomBytes(SaltSize)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}
