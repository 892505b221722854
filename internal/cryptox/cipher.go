package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/common"
)

// IVSize is the AES-GCM nonce length (96 bits).
const IVSize = 12

// Record is the plaintext of a vault item: username, password, url, notes
// and so on. encoding/json writes map keys in sorted order, which gives a
// canonical byte encoding.
type Record map[string]string

// Sealed is an encrypted Record as it travels to the server.
type Sealed struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
}

// ItemCipher encrypts and decrypts single vault items.
type ItemCipher struct{}

// NewItemCipher checks the environment once and returns a cipher.
func NewItemCipher() (*ItemCipher, error) {
	if err := CheckEnvironment(); err != nil {
		return nil, err
	}
	return &ItemCipher{}, nil
}

// Encrypt serializes rec and seals it with AES-GCM under key. A new random IV
// is drawn on every call; callers cannot supply one.
func (c *ItemCipher) Encrypt(rec Record, key []byte) (*Sealed, error) {
	if rec == nil {
		rec = Record{}
	}
	plaintext, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(plaintext)

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	iv, err := randomBytes(IVSize)
	if err != nil {
		return nil, err
	}

	ciphertext := aead.Seal(nil, iv, plaintext, nil)

	return &Sealed{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		IV:         base64.StdEncoding.EncodeToString(iv),
	}, nil
}

// Decrypt opens a sealed item. Any failure after the key check (bad
// encoding, wrong key, tampered bytes) is reported as
// common.ErrAuthenticationFailure without further detail.
func (c *ItemCipher) Decrypt(ciphertextB64, ivB64 string, key []byte) (Record, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	iv, err := base64.StdEncoding.DecodeString(ivB64)
	if err != nil || len(iv) != IVSize {
		return nil, common.ErrAuthenticationFailure
	}
	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return nil, common.ErrAuthenticationFailure
	}

	plaintext, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, common.ErrAuthenticationFailure
	}
	defer common.WipeByteArray(plaintext)

	var rec Record
	if err := json.Unmarshal(plaintext, &rec); err != nil {
		return nil, common.ErrAuthenticationFailure
	}
	if rec == nil {
		rec = Record{}
	}
	return rec, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes", common.ErrValidation, KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
