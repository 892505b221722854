package vaultitems

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/dbx"
	"github.com/dmitrijs2005/zkvault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeTags(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return tags, nil
}

func (r *PostgresRepository) Create(ctx context.Context, item *models.VaultItem) (*models.VaultItem, error) {

	tags, err := encodeTags(item.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	query :=
		`INSERT INTO vault_items (owner_id, ciphertext, iv, title, tags)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		item.OwnerID, item.Ciphertext, item.IV, item.Title, tags).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*models.VaultItem, error) {
	item := &models.VaultItem{}
	var tags []byte
	if err := s.Scan(&item.ID, &item.OwnerID, &item.Ciphertext, &item.IV, &item.Title, &tags, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	t, err := decodeTags(tags)
	if err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	item.Tags = t
	return item, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id, ownerID string) (*models.VaultItem, error) {
	query :=
		`SELECT id, owner_id, ciphertext, iv, title, tags, created_at, updated_at
		 FROM vault_items
		 WHERE id = $1 AND owner_id = $2
		 `

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.VaultItem, error) {
	query :=
		`SELECT id, owner_id, ciphertext, iv, title, tags, created_at, updated_at
		 FROM vault_items
		 WHERE owner_id = $1
		 ORDER BY updated_at DESC, id
		 `

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := []*models.VaultItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

func (r *PostgresRepository) Update(ctx context.Context, item *models.VaultItem) (*models.VaultItem, error) {

	tags, err := encodeTags(item.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	query :=
		`UPDATE vault_items
		 SET ciphertext = $3, iv = $4, title = $5, tags = $6, updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		 RETURNING created_at, updated_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		item.ID, item.OwnerID, item.Ciphertext, item.IV, item.Title, tags).Scan(&item.CreatedAt, &item.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id, ownerID string) error {
	query :=
		`DELETE FROM vault_items
		 WHERE id = $1 AND owner_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}
