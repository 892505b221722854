package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/server/migrations"
	"github.com/dmitrijs2005/zkvault/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/zkvault/internal/server/repositories/vaultitems"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories sharing one
// connection pool and applies the embedded goose migrations.
type PostgresRepositoryManager struct {
	db *sql.DB
}

// NewPostgresRepositoryManager opens a pgx-backed pool for dsn. The
// connection is established lazily; use Ping to check it.
func NewPostgresRepositoryManager(dsn string) (*PostgresRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewPostgresRepositoryManagerFromDB(db), nil
}

// NewPostgresRepositoryManagerFromDB wraps an already opened pool.
func NewPostgresRepositoryManagerFromDB(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db}
}

func (m *PostgresRepositoryManager) Accounts() accounts.Repository {
	return accounts.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) VaultItems() vaultitems.Repository {
	return vaultitems.NewPostgresRepository(m.db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

func (m *PostgresRepositoryManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
