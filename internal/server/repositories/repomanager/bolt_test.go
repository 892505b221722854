package repomanager

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltManager_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vault.db")

	m, err := Open(DriverBolt, "", path)
	require.NoError(t, err)

	assert.Error(t, m.Ping(ctx), "ping before migrations")
	require.NoError(t, m.RunMigrations(ctx))
	require.NoError(t, m.RunMigrations(ctx), "migrations are idempotent")
	require.NoError(t, m.Ping(ctx))

	acc, err := m.Accounts().Create(ctx, &models.Account{Email: "a@b.com", PasswordHash: "h", EncryptionSalt: "s"})
	require.NoError(t, err)

	_, err = m.VaultItems().Create(ctx, &models.VaultItem{OwnerID: acc.ID, Ciphertext: "Y3Q=", IV: "aXY="})
	require.NoError(t, err)
	require.NoError(t, m.Close())

	reopened, err := NewBoltRepositoryManager(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	items, err := reopened.VaultItems().ListByOwner(ctx, acc.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()
	_, err := Open("mysql", "", "")
	assert.ErrorIs(t, err, common.ErrValidation)
}
