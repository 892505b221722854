// Package vaultitems persists encrypted vault entries. Every operation is
// scoped by owner: an item that exists under another owner is reported as
// common.ErrorNotFound.
package vaultitems

import (
	"context"

	"github.com/dmitrijs2005/zkvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, item *models.VaultItem) (*models.VaultItem, error)
	Get(ctx context.Context, id, ownerID string) (*models.VaultItem, error)
	// ListByOwner returns the owner's items, most recently updated first.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.VaultItem, error)
	// Update replaces ciphertext, iv, title and tags and refreshes UpdatedAt.
	Update(ctx context.Context, item *models.VaultItem) (*models.VaultItem, error)
	Delete(ctx context.Context, id, ownerID string) error
}
