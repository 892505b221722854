package repomanager

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/zkvault/internal/server/repositories/vaultitems"
	bolt "go.etcd.io/bbolt"
)

// BoltRepositoryManager keeps all data in a single bbolt file. It suits
// single-node deployments and tests.
type BoltRepositoryManager struct {
	db *bolt.DB
}

func NewBoltRepositoryManager(path string) (*BoltRepositoryManager, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	return &BoltRepositoryManager{db: db}, nil
}

func (m *BoltRepositoryManager) Accounts() accounts.Repository {
	return accounts.NewBoltRepository(m.db)
}

func (m *BoltRepositoryManager) VaultItems() vaultitems.Repository {
	return vaultitems.NewBoltRepository(m.db)
}

// RunMigrations creates the top-level buckets.
func (m *BoltRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{accounts.BucketAccounts, accounts.BucketEmails, vaultitems.BucketItems} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

func (m *BoltRepositoryManager) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(accounts.BucketAccounts) == nil {
			return fmt.Errorf("bolt: schema not initialized")
		}
		return nil
	})
}

func (m *BoltRepositoryManager) Close() error {
	return m.db.Close()
}
