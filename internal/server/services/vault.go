package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/logging"
	"github.com/dmitrijs2005/zkvault/internal/server/models"
	"github.com/dmitrijs2005/zkvault/internal/server/repositories/vaultitems"
	"github.com/google/uuid"
)

// ItemInput is the client-supplied part of a vault item. Ciphertext and IV
// are base64 and opaque to the server.
type ItemInput struct {
	Ciphertext string
	IV         string
	Title      string
	Tags       []string
}

// Export is every item of one owner, still encrypted.
type Export struct {
	Items []*models.VaultItem `json:"items"`
}

// VaultService is owner-scoped CRUD over encrypted items. An item owned by
// someone else is indistinguishable from a missing one.
type VaultService struct {
	items vaultitems.Repository
	log   logging.Logger
}

func NewVaultService(repo vaultitems.Repository, log logging.Logger) *VaultService {
	return &VaultService{items: repo, log: log}
}

func (s *VaultService) List(ctx context.Context, ownerID string) ([]*models.VaultItem, error) {
	items, err := s.items.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, s.fail(ctx, "list items", err)
	}
	return items, nil
}

func (s *VaultService) Get(ctx context.Context, ownerID, id string) (*models.VaultItem, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	item, err := s.items.Get(ctx, id, ownerID)
	if err != nil {
		return nil, s.fail(ctx, "get item", err)
	}
	return item, nil
}

func (s *VaultService) Create(ctx context.Context, ownerID string, in ItemInput) (*models.VaultItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	item, err := s.items.Create(ctx, in.toItem(ownerID, ""))
	if err != nil {
		return nil, s.fail(ctx, "create item", err)
	}
	return item, nil
}

// Update replaces ciphertext, iv, title and tags. Omitted title or tags are
// cleared.
func (s *VaultService) Update(ctx context.Context, ownerID, id string, in ItemInput) (*models.VaultItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, common.ErrorNotFound
	}

	item, err := s.items.Update(ctx, in.toItem(ownerID, id))
	if err != nil {
		return nil, s.fail(ctx, "update item", err)
	}
	return item, nil
}

func (s *VaultService) Delete(ctx context.Context, ownerID, id string) error {
	if !validID(id) {
		return common.ErrorNotFound
	}
	if err := s.items.Delete(ctx, id, ownerID); err != nil {
		return s.fail(ctx, "delete item", err)
	}
	return nil
}

// ExportAll returns all of the owner's items for client-side backup.
func (s *VaultService) ExportAll(ctx context.Context, ownerID string) (*Export, error) {
	items, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &Export{Items: items}, nil
}

func (s *VaultService) fail(ctx context.Context, op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	s.log.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (in ItemInput) validate() error {
	if in.Ciphertext == "" || in.IV == "" {
		return fmt.Errorf("%w: missing data", common.ErrValidation)
	}
	if _, err := base64.StdEncoding.DecodeString(in.Ciphertext); err != nil {
		return fmt.Errorf("%w: ciphertext is not base64", common.ErrValidation)
	}
	if _, err := base64.StdEncoding.DecodeString(in.IV); err != nil {
		return fmt.Errorf("%w: iv is not base64", common.ErrValidation)
	}
	return nil
}

func (in ItemInput) toItem(ownerID, id string) *models.VaultItem {
	return &models.VaultItem{
		ID:         id,
		OwnerID:    ownerID,
		Ciphertext: in.Ciphertext,
		IV:         in.IV,
		Title:      strings.TrimSpace(in.Title),
		Tags:       normalizeTags(in.Tags),
	}
}

// normalizeTags trims, drops empties and duplicates, and keeps first-seen
// order.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
