// Package passgen generates random passwords from configurable character
// classes.
package passgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/dmitrijs2005/zkvault/internal/common"
)

const (
	lower   = "abcdefghijklmnopqrstuvwxyz"
	upper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits  = "0123456789"
	symbols = "!@#$%^&*()-_=+[]{};:,.<>/?"

	lookAlikes = "O0Il"

	MinLength     = 8
	MaxLength     = 64
	DefaultLength = 16
)

type Options struct {
	Length            int
	Lower             bool
	Upper             bool
	Digits            bool
	Symbols           bool
	ExcludeLookAlikes bool
}

// DefaultOptions enables every class and drops look-alike characters.
func DefaultOptions() Options {
	return Options{
		Length:            DefaultLength,
		Lower:             true,
		Upper:             true,
		Digits:            true,
		Symbols:           true,
		ExcludeLookAlikes: true,
	}
}

// Charset returns the alphabet for o. With no class selected it falls back
// to letters and digits.
func (o Options) Charset() string {
	var b strings.Builder
	if o.Lower {
		b.WriteString(lower)
	}
	if o.Upper {
		b.WriteString(upper)
	}
	if o.Digits {
		b.WriteString(digits)
	}
	if o.Symbols {
		b.WriteString(symbols)
	}
	cs := b.String()
	if cs == "" {
		cs = lower + upper + digits
	}
	if o.ExcludeLookAlikes {
		cs = strings.Map(func(r rune) rune {
			if strings.ContainsRune(lookAlikes, r) {
				return -1
			}
			return r
		}, cs)
	}
	return cs
}

// Generate draws each character uniformly from the charset.
func Generate(o Options) (string, error) {
	if o.Length < MinLength || o.Length > MaxLength {
		return "", fmt.Errorf("%w: length must be between %d and %d", common.ErrValidation, MinLength, MaxLength)
	}

	cs := o.Charset()
	n := big.NewInt(int64(len(cs)))

	out := make([]byte, o.Length)
	for i := range out {
		idx, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", fmt.Errorf("%w: random source: %v", common.ErrUnsupportedEnvironment, err)
		}
		out[i] = cs[idx.Int64()]
	}
	return string(out), nil
}
