package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/server/models"
	"github.com/google/uuid"
)

type fakeAccounts struct {
	mu   sync.Mutex
	byID map[string]*models.Account

	createErr error
	getErr    error
	updateErr error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byID: map[string]*models.Account{}}
}

func (f *fakeAccounts) Create(_ context.Context, acc *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, a := range f.byID {
		if strings.EqualFold(a.Email, acc.Email) {
			return nil, common.ErrAlreadyExists
		}
	}
	acc.ID = uuid.NewString()
	acc.CreatedAt = time.Now()
	cp := *acc
	f.byID[acc.ID] = &cp
	return acc, nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, a := range f.byID {
		if strings.EqualFold(a.Email, email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccounts) UpdateTwoFactor(_ context.Context, id, secret string, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	a, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.TOTPSecret = secret
	a.TwoFactorEnabled = enabled
	return nil
}

type fakeItems struct {
	mu    sync.Mutex
	items map[string]*models.VaultItem
	clock time.Time

	err error
}

func newFakeItems() *fakeItems {
	return &fakeItems{items: map[string]*models.VaultItem{}, clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeItems) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeItems) Create(_ context.Context, item *models.VaultItem) (*models.VaultItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	item.ID = uuid.NewString()
	item.CreatedAt = f.tick()
	item.UpdatedAt = item.CreatedAt
	cp := *item
	f.items[item.ID] = &cp
	return item, nil
}

func (f *fakeItems) Get(_ context.Context, id, ownerID string) (*models.VaultItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	it, ok := f.items[id]
	if !ok || it.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	cp := *it
	return &cp, nil
}

func (f *fakeItems) ListByOwner(_ context.Context, ownerID string) ([]*models.VaultItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []*models.VaultItem{}
	for _, it := range f.items {
		if it.OwnerID == ownerID {
			cp := *it
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeItems) Update(_ context.Context, item *models.VaultItem) (*models.VaultItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	it, ok := f.items[item.ID]
	if !ok || it.OwnerID != item.OwnerID {
		return nil, common.ErrorNotFound
	}
	it.Ciphertext, it.IV, it.Title, it.Tags = item.Ciphertext, item.IV, item.Title, item.Tags
	it.UpdatedAt = f.tick()
	cp := *it
	return &cp, nil
}

func (f *fakeItems) Delete(_ context.Context, id, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	it, ok := f.items[id]
	if !ok || it.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	delete(f.items, id)
	return nil
}
