// Package tokenstore keeps the session token between client runs, either in
// the local metadata table or in the OS keyring.
package tokenstore

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/zkvault/internal/client/repositories/metadata"
	"github.com/zalando/go-keyring"
)

const serviceName = "zkvault"

// Store is keyed by account email.
type Store interface {
	Get(ctx context.Context, email string) (string, error)
	Set(ctx context.Context, email, token string) error
	Delete(ctx context.Context, email string) error
}

// Metadata stores the token next to the salt in sqlite. The email argument
// is ignored: the table holds a single session.
type Metadata struct {
	repo metadata.Repository
}

func NewMetadata(repo metadata.Repository) *Metadata {
	return &Metadata{repo: repo}
}

func (m *Metadata) Get(ctx context.Context, _ string) (string, error) {
	return m.repo.Get(ctx, metadata.KeyToken)
}

func (m *Metadata) Set(ctx context.Context, _ string, token string) error {
	return m.repo.Set(ctx, metadata.KeyToken, token)
}

func (m *Metadata) Delete(ctx context.Context, _ string) error {
	return m.repo.Delete(ctx, metadata.KeyToken)
}

// Keyring stores the token in the OS keyring under the account email.
type Keyring struct{}

func NewKeyring() *Keyring {
	return &Keyring{}
}

// Get returns "" when no token is stored.
func (Keyring) Get(_ context.Context, email string) (string, error) {
	tok, err := keyring.Get(serviceName, email)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return tok, err
}

func (Keyring) Set(_ context.Context, email, token string) error {
	return keyring.Set(serviceName, email, token)
}

func (Keyring) Delete(_ context.Context, email string) error {
	err := keyring.Delete(serviceName, email)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
