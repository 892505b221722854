// Package metadata stores the client's local session state (email, salt and
// session token) in the sqlite metadata table. The vault key is never
// written here.
package metadata

import "context"

// Keys of the metadata table.
const (
	KeyEmail = "email"
	KeySalt  = "salt"
	KeyToken = "token"
)

// Session is what survives a client restart.
type Session struct {
	Email string
	Salt  string
	Token string
}

type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	SaveSession(ctx context.Context, s Session) error
	LoadSession(ctx context.Context) (*Session, error)
}
