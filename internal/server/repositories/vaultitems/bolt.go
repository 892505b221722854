package vaultitems

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/server/models"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// BucketItems holds one nested bucket per owner id; each maps item id to the
// JSON-encoded item.
var BucketItems = []byte("vault_items")

type BoltRepository struct {
	db  *bolt.DB
	now func() time.Time
}

func NewBoltRepository(db *bolt.DB) *BoltRepository {
	return &BoltRepository{db: db, now: time.Now}
}

func ownerBucket(tx *bolt.Tx, ownerID string) *bolt.Bucket {
	return tx.Bucket(BucketItems).Bucket([]byte(ownerID))
}

func putItem(b *bolt.Bucket, item *models.VaultItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return b.Put([]byte(item.ID), data)
}

func getItem(b *bolt.Bucket, id string) (*models.VaultItem, error) {
	if b == nil {
		return nil, common.ErrorNotFound
	}
	data := b.Get([]byte(id))
	if data == nil {
		return nil, common.ErrorNotFound
	}
	item := &models.VaultItem{}
	if err := json.Unmarshal(data, item); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *BoltRepository) Create(ctx context.Context, item *models.VaultItem) (*models.VaultItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := r.now().UTC()
	item.ID = uuid.NewString()
	item.CreatedAt = now
	item.UpdatedAt = now

	err := r.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(BucketItems).CreateBucketIfNotExists([]byte(item.OwnerID))
		if err != nil {
			return err
		}
		return putItem(b, item)
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

func (r *BoltRepository) Get(ctx context.Context, id, ownerID string) (*models.VaultItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var item *models.VaultItem
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		item, err = getItem(ownerBucket(tx, ownerID), id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *BoltRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.VaultItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := []*models.VaultItem{}
	err := r.db.View(func(tx *bolt.Tx) error {
		b := ownerBucket(tx, ownerID)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			item := &models.VaultItem{}
			if err := json.Unmarshal(v, item); err != nil {
				return err
			}
			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			return items[i].UpdatedAt.After(items[j].UpdatedAt)
		}
		return items[i].ID < items[j].ID
	})

	return items, nil
}

func (r *BoltRepository) Update(ctx context.Context, item *models.VaultItem) (*models.VaultItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated *models.VaultItem
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := ownerBucket(tx, item.OwnerID)
		existing, err := getItem(b, item.ID)
		if err != nil {
			return err
		}

		existing.Ciphertext = item.Ciphertext
		existing.IV = item.IV
		existing.Title = item.Title
		existing.Tags = item.Tags
		existing.UpdatedAt = r.now().UTC()

		updated = existing
		return putItem(b, existing)
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *BoltRepository) Delete(ctx context.Context, id, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bolt.Tx) error {
		b := ownerBucket(tx, ownerID)
		if _, err := getItem(b, id); err != nil {
			return err
		}
		return b.Delete([]byte(id))
	})
}
