package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/dbx"
	"github.com/dmitrijs2005/zkvault/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, acc *models.Account) (*models.Account, error) {

	query :=
		`INSERT INTO accounts (email, password_hash, encryption_salt)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		acc.Email, acc.PasswordHash, acc.EncryptionSalt).Scan(&acc.ID, &acc.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return acc, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query :=
		`SELECT id, email, password_hash, encryption_salt, totp_secret, two_factor_enabled, created_at
		 FROM accounts
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query :=
		`SELECT id, email, password_hash, encryption_salt, totp_secret, two_factor_enabled, created_at
		 FROM accounts
		 WHERE lower(email) = lower($1)
		 `
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.Account, error) {
	acc := &models.Account{}
	var secret sql.NullString

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&acc.ID, &acc.Email, &acc.PasswordHash, &acc.EncryptionSalt, &secret, &acc.TwoFactorEnabled, &acc.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	acc.TOTPSecret = secret.String
	return acc, nil
}

// UpdateTwoFactor stores the TOTP secret and flag. An empty secret is stored
// as NULL.
func (r *PostgresRepository) UpdateTwoFactor(ctx context.Context, id string, secret string, enabled bool) error {
	query :=
		`UPDATE accounts SET totp_secret = $2, two_factor_enabled = $3
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, sql.NullString{String: secret, Valid: secret != ""}, enabled)
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
