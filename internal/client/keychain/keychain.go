// Package keychain holds the client's vault key in memory.
//
// The salt comes from the server at login and is persisted locally; the key
// derived from it never is. That gives three states:
//
//	LoggedOut  no salt
//	Locked     salt, no key (after a restart or an explicit lock)
//	Unlocked   salt and key
//
// Decrypting requires Unlocked; a Locked keychain must be unlocked with the
// master password first.
package keychain

import (
	"sync"

	"github.com/dmitrijs2005/zkvault/internal/common"
)

type State string

const (
	StateLoggedOut State = "logged out"
	StateLocked    State = "locked"
	StateUnlocked  State = "unlocked"
)

// Deriver turns a password and base64 salt into a key.
type Deriver interface {
	Derive(password, saltB64 string) ([]byte, error)
}

type Keychain struct {
	deriver Deriver

	mu   sync.RWMutex
	salt string
	key  []byte
}

func New(d Deriver) *Keychain {
	return &Keychain{deriver: d}
}

func (k *Keychain) State() State {
	k.mu.RLock()
	defer k.mu.RUnlock()

	switch {
	case k.salt == "":
		return StateLoggedOut
	case k.key == nil:
		return StateLocked
	default:
		return StateUnlocked
	}
}

// Salt returns the stored salt, or "" when logged out.
func (k *Keychain) Salt() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.salt
}

// SetSalt records a salt and leaves the keychain Locked.
func (k *Keychain) SetSalt(salt string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.wipe()
	k.salt = salt
}

// Unlock derives the key from password and the stored salt. A wrong
// password still yields a key; it is caught later when decryption fails.
func (k *Keychain) Unlock(password string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.salt == "" {
		return common.ErrLoggedOut
	}
	key, err := k.deriver.Derive(password, k.salt)
	if err != nil {
		return err
	}
	k.wipe()
	k.key = key
	return nil
}

// Key returns a copy of the key, common.ErrLocked when only the salt is
// known and common.ErrLoggedOut when neither is.
func (k *Keychain) Key() ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	switch {
	case k.salt == "":
		return nil, common.ErrLoggedOut
	case k.key == nil:
		return nil, common.ErrLocked
	}
	return append([]byte(nil), k.key...), nil
}

// Lock forgets the key and keeps the salt.
func (k *Keychain) Lock() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.wipe()
}

// Clear forgets both key and salt.
func (k *Keychain) Clear() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.wipe()
	k.salt = ""
}

func (k *Keychain) wipe() {
	common.WipeByteArray(k.key)
	k.key = nil
}
