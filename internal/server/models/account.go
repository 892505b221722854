// Package models defines server-side data models persisted in the database.
package models

import "time"

// Account is a vault owner. EncryptionSalt is generated once at signup and
// never changes; it is the only key-derivation input the server keeps.
//
// TwoFactorEnabled implies a non-empty TOTPSecret. The secret may exist with
// the flag still false while enrollment is pending.
type Account struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"passwordHash"`
	EncryptionSalt   string    `json:"encryptionSalt"`
	TOTPSecret       string    `json:"totpSecret,omitempty"`
	TwoFactorEnabled bool      `json:"twoFactorEnabled"`
	CreatedAt        time.Time `json:"createdAt"`
}
