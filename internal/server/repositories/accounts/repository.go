// Package accounts persists vault owners.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/zkvault/internal/server/models"
)

// Repository stores accounts. Emails are compared case-insensitively.
// Lookups that match nothing return common.ErrorNotFound; inserting a taken
// email returns common.ErrAlreadyExists.
type Repository interface {
	Create(ctx context.Context, acc *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateTwoFactor(ctx context.Context, id string, secret string, enabled bool) error
}
