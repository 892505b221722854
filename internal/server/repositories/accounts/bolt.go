package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/server/models"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	// BucketAccounts maps account id to the JSON-encoded account.
	BucketAccounts = []byte("accounts")
	// BucketEmails maps a lowercased email to the account id.
	BucketEmails = []byte("account_emails")
)

// BoltRepository keeps accounts in an embedded bbolt file. The buckets must
// exist before use; see repomanager.BoltManager.RunMigrations.
type BoltRepository struct {
	db  *bolt.DB
	now func() time.Time
}

func NewBoltRepository(db *bolt.DB) *BoltRepository {
	return &BoltRepository{db: db, now: time.Now}
}

func emailKey(email string) []byte {
	return []byte(strings.ToLower(strings.TrimSpace(email)))
}

func (r *BoltRepository) Create(ctx context.Context, acc *models.Account) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored := *acc
	stored.ID = uuid.NewString()
	stored.CreatedAt = r.now().UTC()

	err := r.db.Update(func(tx *bolt.Tx) error {
		emails := tx.Bucket(BucketEmails)
		if emails.Get(emailKey(stored.Email)) != nil {
			return common.ErrAlreadyExists
		}

		data, err := json.Marshal(&stored)
		if err != nil {
			return err
		}
		if err := tx.Bucket(BucketAccounts).Put([]byte(stored.ID), data); err != nil {
			return err
		}
		return emails.Put(emailKey(stored.Email), []byte(stored.ID))
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	acc.ID = stored.ID
	acc.CreatedAt = stored.CreatedAt
	return acc, nil
}

func (r *BoltRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var acc *models.Account
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		acc, err = loadAccount(tx, []byte(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (r *BoltRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var acc *models.Account
	err := r.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(BucketEmails).Get(emailKey(email))
		if id == nil {
			return common.ErrorNotFound
		}
		var err error
		acc, err = loadAccount(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (r *BoltRepository) UpdateTwoFactor(ctx context.Context, id string, secret string, enabled bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bolt.Tx) error {
		acc, err := loadAccount(tx, []byte(id))
		if err != nil {
			return err
		}
		acc.TOTPSecret = secret
		acc.TwoFactorEnabled = enabled

		data, err := json.Marshal(acc)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return tx.Bucket(BucketAccounts).Put([]byte(id), data)
	})
}

func loadAccount(tx *bolt.Tx, id []byte) (*models.Account, error) {
	data := tx.Bucket(BucketAccounts).Get(id)
	if data == nil {
		return nil, common.ErrorNotFound
	}
	acc := &models.Account{}
	if err := json.Unmarshal(data, acc); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return acc, nil
}
