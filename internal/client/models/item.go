// Package models defines the client's view of vault items: the encrypted
// wire form exchanged with the server and the decrypted form shown to the
// user.
package models

import (
	"time"

	"github.com/dmitrijs2005/zkvault/internal/cryptox"
)

// Plaintext record fields. The whole record is sealed as one ciphertext.
const (
	FieldTitle    = "title"
	FieldUsername = "username"
	FieldPassword = "password"
	FieldURL      = "url"
	FieldNotes    = "notes"
)

// Fields lists the record fields in prompt and display order.
var Fields = []string{FieldTitle, FieldUsername, FieldPassword, FieldURL, FieldNotes}

// Item is a vault item as stored by the server.
type Item struct {
	ID         string    `json:"id"`
	Ciphertext string    `json:"ciphertext"`
	IV         string    `json:"iv"`
	Title      string    `json:"title,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Export is the document produced by the export endpoint and read back by
// import.
type Export struct {
	Export struct {
		Items []*Item `json:"items"`
	} `json:"export"`
}

// Entry is a decrypted item. When the ciphertext could not be opened Record
// is nil and Undecryptable is set; the rest of the list is unaffected.
type Entry struct {
	ID            string
	Record        cryptox.Record
	Tags          []string
	UpdatedAt     time.Time
	Undecryptable bool

	// ClearTitle is the server-side title, if the item was saved with one.
	ClearTitle string
}

// Title prefers the encrypted title and falls back to the cleartext one.
func (e *Entry) Title() string {
	if e.Record != nil && e.Record[FieldTitle] != "" {
		return e.Record[FieldTitle]
	}
	return e.ClearTitle
}
