package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get returns "" for a missing key.
func (r *SQLiteRepository) Get(ctx context.Context, key string) (string, error) {
	return get(ctx, r.db, key)
}

func (r *SQLiteRepository) Set(ctx context.Context, key, value string) error {
	return set(ctx, r.db, key, value)
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata`)
	if err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}
	return nil
}

// SaveSession replaces the stored session in one transaction.
func (r *SQLiteRepository) SaveSession(ctx context.Context, s Session) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := set(ctx, tx, KeyEmail, s.Email); err != nil {
			return err
		}
		if err := set(ctx, tx, KeySalt, s.Salt); err != nil {
			return err
		}
		return set(ctx, tx, KeyToken, s.Token)
	})
}

// LoadSession returns nil when no salt is stored, i.e. the user is logged
// out.
func (r *SQLiteRepository) LoadSession(ctx context.Context) (*Session, error) {
	var s Session
	var err error

	if s.Salt, err = get(ctx, r.db, KeySalt); err != nil {
		return nil, err
	}
	if s.Salt == "" {
		return nil, nil
	}
	if s.Email, err = get(ctx, r.db, KeyEmail); err != nil {
		return nil, err
	}
	if s.Token, err = get(ctx, r.db, KeyToken); err != nil {
		return nil, err
	}
	return &s, nil
}

func get(ctx context.Context, q dbx.DBTX, key string) (string, error) {
	var value []byte
	err := q.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return string(value), nil
}

func set(ctx context.Context, q dbx.DBTX, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, []byte(value))
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}
