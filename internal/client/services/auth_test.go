package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/zkvault/internal/client/client"
	"github.com/dmitrijs2005/zkvault/internal/client/keychain"
	"github.com/dmitrijs2005/zkvault/internal/client/models"
	"github.com/dmitrijs2005/zkvault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/zkvault/internal/client/tokenstore"
	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestSignup_UnlocksAndPersistsSession(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	require.NoError(t, f.auth.Signup(ctx, "a@b.com", "password1"))
	assert.Equal(t, keychain.StateUnlocked, f.auth.State())
	assert.Equal(t, "a@b.com", f.auth.Email())

	sess, err := f.meta.LoadSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "a@b.com", sess.Email)
	assert.Equal(t, f.api.salts["a@b.com"], sess.Salt)
	assert.Equal(t, "a@b.com", sess.Token)
}

func TestSignup_Duplicate(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	require.NoError(t, f.auth.Signup(ctx, "a@b.com", "password1"))
	assert.ErrorIs(t, f.auth.Signup(ctx, "a@b.com", "password1"), common.ErrAlreadyExists)
}

func TestRestore_LeavesKeychainLocked(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	require.NoError(t, f.auth.Signup(ctx, "a@b.com", "password1"))

	// A new process: fresh keychain and API client over the same database.
	keys := keychain.New(fastDeriver{})
	api := newFakeAPI()
	c, err := cryptox.NewItemCipher()
	require.NoError(t, err)
	restored := NewAuthService(api, f.meta, nil, keys, c)

	require.NoError(t, restored.Restore(ctx))
	assert.Equal(t, keychain.StateLocked, restored.State())
	assert.Equal(t, "a@b.com", restored.Email())
	assert.Equal(t, "a@b.com", api.token)

	_, err = keys.Key()
	assert.ErrorIs(t, err, common.ErrLocked)
}

func TestRestore_NoSession(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.auth.Restore(context.Background()))
	assert.Equal(t, keychain.StateLoggedOut, f.auth.State())
}

func TestLogin_TotpRequiredLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	_, err := f.api.Signup(ctx, "a@b.com", "password1")
	require.NoError(t, err)
	f.api.totp["a@b.com"] = "654321"

	assert.ErrorIs(t, f.auth.Login(ctx, "a@b.com", "password1", ""), common.ErrTotpRequired)
	assert.Equal(t, keychain.StateLoggedOut, f.auth.State())

	assert.ErrorIs(t, f.auth.Login(ctx, "a@b.com", "password1", "000000"), common.ErrInvalidTotp)
	require.NoError(t, f.auth.Login(ctx, "a@b.com", "password1", "654321"))
	assert.Equal(t, keychain.StateUnlocked, f.auth.State())
}

func TestUnlock_VerifiesAgainstExistingItems(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	require.NoError(t, f.auth.Signup(ctx, "a@b.com", "password1"))
	_, err := f.vault.Add(ctx, cryptox.Record{models.FieldTitle: "x"}, nil)
	require.NoError(t, err)

	f.auth.Lock()
	assert.Equal(t, keychain.StateLocked, f.auth.State())

	assert.ErrorIs(t, f.auth.Unlock(ctx, "wrong-password"), common.ErrInvalidCredentials)
	assert.Equal(t, keychain.StateLocked, f.auth.State())

	require.NoError(t, f.auth.Unlock(ctx, "password1"))
	assert.Equal(t, keychain.StateUnlocked, f.auth.State())
}

func TestUnlock_EmptyVaultOrOfflineIsUnverified(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	require.NoError(t, f.auth.Signup(ctx, "a@b.com", "password1"))
	f.auth.Lock()

	require.NoError(t, f.auth.Unlock(ctx, "anything"))
	assert.Equal(t, keychain.StateUnlocked, f.auth.State())

	f.auth.Lock()
	f.api.listErr = client.ErrUnavailable
	require.NoError(t, f.auth.Unlock(ctx, "anything"))
}

func TestUnlock_LoggedOut(t *testing.T) {
	f := newFixture(t, true)
	assert.ErrorIs(t, f.auth.Unlock(context.Background(), "pw"), common.ErrLoggedOut)
}

func TestLogout_ClearsEverythingEvenOffline(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	require.NoError(t, f.auth.Signup(ctx, "a@b.com", "password1"))
	f.api.logoutErr = client.ErrUnavailable

	require.NoError(t, f.auth.Logout(ctx))
	assert.Equal(t, keychain.StateLoggedOut, f.auth.State())
	assert.Empty(t, f.auth.Email())

	sess, err := f.meta.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestLogout_ReportsServerError(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	require.NoError(t, f.auth.Signup(ctx, "a@b.com", "password1"))
	f.api.logoutErr = common.ErrorInternal

	assert.ErrorIs(t, f.auth.Logout(ctx), common.ErrorInternal)
	assert.Equal(t, keychain.StateLoggedOut, f.auth.State())
}

func TestKeyringTokenStore(t *testing.T) {
	keyring.MockInit()

	f := newFixture(t, true)
	ctx := context.Background()
	c, err := cryptox.NewItemCipher()
	require.NoError(t, err)
	auth := NewAuthService(f.api, f.meta, tokenstore.NewKeyring(), f.keys, c)

	require.NoError(t, auth.Signup(ctx, "kr@b.com", "password1"))

	tok, err := f.meta.Get(ctx, metadata.KeyToken)
	require.NoError(t, err)
	assert.Empty(t, tok, "token must not be written to sqlite")

	tok, err = tokenstore.NewKeyring().Get(ctx, "kr@b.com")
	require.NoError(t, err)
	assert.Equal(t, "kr@b.com", tok)

	api := newFakeAPI()
	restored := NewAuthService(api, f.meta, tokenstore.NewKeyring(), keychain.New(fastDeriver{}), c)
	require.NoError(t, restored.Restore(ctx))
	assert.Equal(t, "kr@b.com", api.token)

	require.NoError(t, restored.Logout(ctx))
	tok, err = tokenstore.NewKeyring().Get(ctx, "kr@b.com")
	require.NoError(t, err)
	assert.Empty(t, tok)
}
