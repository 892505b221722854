package services

import (
	"context"
	"crypto/sha256"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/client/client"
	"github.com/dmitrijs2005/zkvault/internal/client/keychain"
	"github.com/dmitrijs2005/zkvault/internal/client/models"
	"github.com/dmitrijs2005/zkvault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/cryptox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-memory client.Client. Accounts are keyed by email; the
// token is the email itself.
type fakeAPI struct {
	mu sync.Mutex

	passwords map[string]string
	salts     map[string]string
	totp      map[string]string
	items     map[string]*models.Item
	clock     time.Time

	token string

	loginErr   error
	listErr    error
	logoutErr  error
	createErr  error
	createFail int
	backup     *client.Backup

	enrollment *client.Enrollment
	verified   string
	disabled   bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		passwords: map[string]string{},
		salts:     map[string]string{},
		totp:      map[string]string{},
		items:     map[string]*models.Item{},
		clock:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeAPI) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeAPI) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

func (f *fakeAPI) Ping(context.Context) error { return nil }

func (f *fakeAPI) Signup(_ context.Context, email, password string) (*client.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.passwords[email]; ok {
		return nil, common.ErrAlreadyExists
	}
	salt, err := cryptox.NewSalt()
	if err != nil {
		return nil, err
	}
	f.passwords[email] = password
	f.salts[email] = salt
	f.token = email
	return &client.AuthResponse{OK: true, EncryptionSalt: salt, Token: email}, nil
}

func (f *fakeAPI) Login(_ context.Context, email, password, totp string) (*client.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if pw, ok := f.passwords[email]; !ok || pw != password {
		return nil, common.ErrInvalidCredentials
	}
	if want, ok := f.totp[email]; ok {
		if totp == "" {
			return nil, common.ErrTotpRequired
		}
		if totp != want {
			return nil, common.ErrInvalidTotp
		}
	}
	f.token = email
	return &client.AuthResponse{OK: true, EncryptionSalt: f.salts[email], Token: email}, nil
}

func (f *fakeAPI) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	return f.logoutErr
}

func (f *fakeAPI) TwoFactorStatus(context.Context) (bool, error) {
	return f.verified != "" && !f.disabled, nil
}

func (f *fakeAPI) TwoFactorSetup(context.Context) (*client.Enrollment, error) {
	if f.enrollment == nil {
		return nil, common.ErrorInternal
	}
	return f.enrollment, nil
}

func (f *fakeAPI) TwoFactorVerify(_ context.Context, code string) error {
	if code != "123456" {
		return common.ErrInvalidCode
	}
	f.verified = code
	return nil
}

func (f *fakeAPI) TwoFactorDisable(context.Context) error {
	f.disabled = true
	return nil
}

func (f *fakeAPI) ListItems(context.Context) ([]*models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.Item, 0, len(f.items))
	for _, it := range f.items {
		cp := *it
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeAPI) GetItem(_ context.Context, id string) (*models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *it
	return &cp, nil
}

func (f *fakeAPI) CreateItem(_ context.Context, in client.ItemInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		if f.createFail == 0 {
			return "", f.createErr
		}
		f.createFail--
	}
	id := uuid.NewString()
	now := f.tick()
	f.items[id] = &models.Item{
		ID: id, Ciphertext: in.Ciphertext, IV: in.IV, Title: in.Title, Tags: in.Tags,
		CreatedAt: now, UpdatedAt: now,
	}
	return id, nil
}

func (f *fakeAPI) UpdateItem(_ context.Context, id string, in client.ItemInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return common.ErrorNotFound
	}
	it.Ciphertext, it.IV, it.Title, it.Tags = in.Ciphertext, in.IV, in.Title, in.Tags
	it.UpdatedAt = f.tick()
	return nil
}

func (f *fakeAPI) DeleteItem(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeAPI) Export(ctx context.Context) (*models.Export, error) {
	items, err := f.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	var e models.Export
	e.Export.Items = items
	return &e, nil
}

func (f *fakeAPI) Backup(context.Context) (*client.Backup, error) {
	if f.backup == nil {
		return nil, common.ErrorNotFound
	}
	return f.backup, nil
}

// fastDeriver stands in for PBKDF2 so tests do not pay for 200k rounds.
type fastDeriver struct{}

func (fastDeriver) Derive(password, salt string) ([]byte, error) {
	sum := sha256.Sum256([]byte(password + "\x00" + salt))
	return sum[:], nil
}

type fixture struct {
	api   *fakeAPI
	meta  *metadata.SQLiteRepository
	keys  *keychain.Keychain
	auth  *AuthService
	vault *VaultService
}

func newFixture(t *testing.T, encryptTitles bool) *fixture {
	t.Helper()

	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c, err := cryptox.NewItemCipher()
	require.NoError(t, err)

	api := newFakeAPI()
	meta := metadata.NewSQLiteRepository(db)
	keys := keychain.New(fastDeriver{})

	return &fixture{
		api:   api,
		meta:  meta,
		keys:  keys,
		auth:  NewAuthService(api, meta, nil, keys, c),
		vault: NewVaultService(api, keys, c, encryptTitles),
	}
}
