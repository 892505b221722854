// Package repomanager opens a storage backend and vends the repositories
// bound to it.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/zkvault/internal/server/repositories/vaultitems"
)

const (
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Accounts() accounts.Repository
	VaultItems() vaultitems.Repository
	Ping(ctx context.Context) error
	Close() error
}

// Open returns the manager for driver. dsn is used by postgres, path by bolt.
func Open(driver, dsn, path string) (RepositoryManager, error) {
	switch driver {
	case DriverPostgres:
		return NewPostgresRepositoryManager(dsn)
	case DriverBolt:
		return NewBoltRepositoryManager(path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q: %w", driver, common.ErrValidation)
	}
}
