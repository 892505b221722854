package models

import "time"

// VaultItem is an encrypted vault entry. Ciphertext and IV are base64 and
// carry the whole sensitive payload; Title and Tags are optional cleartext.
type VaultItem struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"userId"`
	Ciphertext string    `json:"ciphertext"`
	IV         string    `json:"iv"`
	Title      string    `json:"title,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
