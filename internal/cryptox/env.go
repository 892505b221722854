package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

// randReader is the source for salts and IVs. Tests swap it to simulate an
// environment without a working secure random source.
var randReader io.Reader = rand.Reader

// CheckEnvironment verifies once that every primitive the vault relies on is
// usable: a secure random source, AES-256-GCM and PBKDF2-SHA256.
// A failure is reported as common.ErrUnsupportedEnvironment and is not
// retryable.
func CheckEnvironment() error {
	probe := make([]byte, 1)
	if _, err := io.ReadFull(randReader, probe); err != nil {
		return fmt.Errorf("%w: random source: %v", common.ErrUnsupportedEnvironment, err)
	}

	block, err := aes.NewCipher(make([]byte, KeySize))
	if err != nil {
		return fmt.Errorf("%w: aes: %v", common.ErrUnsupportedEnvironment, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("%w: gcm: %v", common.ErrUnsupportedEnvironment, err)
	}
	if gcm.NonceSize() != IVSize {
		return fmt.Errorf("%w: unexpected gcm nonce size %d", common.ErrUnsupportedEnvironment, gcm.NonceSize())
	}

	if len(pbkdf2.Key(probe, probe, 1, KeySize, sha256.New)) != KeySize {
		return fmt.Errorf("%w: pbkdf2", common.ErrUnsupportedEnvironment)
	}
	return nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(randReader, b); err != nil {
		return nil, fmt.Errorf("%w: random source: %v", common.ErrUnsupportedEnvironment, err)
	}
	return b, nil
}
