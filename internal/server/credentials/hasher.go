// Package credentials hashes and verifies account passwords with bcrypt.
package credentials

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches 12 bcrypt rounds.
const DefaultCost = 12

// Hasher produces salted adaptive hashes. Every Hash call draws its own salt.
type Hasher struct {
	cost int
}

// NewHasher validates cost against bcrypt's supported range.
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d out of range [%d, %d]",
			common.ErrValidation, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

// Hash returns the bcrypt hash of password. bcrypt reads at most 72 bytes;
// longer passwords are rejected instead of being silently truncated.
func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password too long", common.ErrValidation)
		}
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches hash, using bcrypt's constant-time
// comparison.
func (h *Hasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
