package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/zkvault/internal/client/client"
	"github.com/dmitrijs2005/zkvault/internal/client/keychain"
	"github.com/dmitrijs2005/zkvault/internal/client/models"
	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/cryptox"
	"github.com/dmitrijs2005/zkvault/internal/filex"
	"github.com/dmitrijs2005/zkvault/internal/netx"
)

// VaultService encrypts records before they leave the client and decrypts
// them on the way back. With encryptTitles off the title is also sent in
// cleartext so the server can show it; tags are always cleartext.
type VaultService struct {
	api           client.Client
	keys          *keychain.Keychain
	cipher        *cryptox.ItemCipher
	encryptTitles bool

	download func(ctx context.Context, url string, w io.Writer) (int64, error)
}

func NewVaultService(api client.Client, keys *keychain.Keychain, c *cryptox.ItemCipher, encryptTitles bool) *VaultService {
	return &VaultService{
		api:           api,
		keys:          keys,
		cipher:        c,
		encryptTitles: encryptTitles,
		download: func(ctx context.Context, url string, w io.Writer) (int64, error) {
			return netx.DownloadPresigned(ctx, http.DefaultClient, url, w)
		},
	}
}

// List returns every item, most recently updated first. An item that fails
// to decrypt is returned with Undecryptable set instead of failing the list.
func (s *VaultService) List(ctx context.Context) ([]*models.Entry, error) {
	key, err := s.keys.Key()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	items, err := s.api.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Entry, 0, len(items))
	for _, it := range items {
		out = append(out, s.open(it, key))
	}
	return out, nil
}

func (s *VaultService) Get(ctx context.Context, id string) (*models.Entry, error) {
	key, err := s.keys.Key()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	it, err := s.api.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.open(it, key), nil
}

func (s *VaultService) Add(ctx context.Context, rec cryptox.Record, tags []string) (string, error) {
	in, err := s.seal(rec, tags)
	if err != nil {
		return "", err
	}
	return s.api.CreateItem(ctx, *in)
}

// Edit replaces the item's record and tags.
func (s *VaultService) Edit(ctx context.Context, id string, rec cryptox.Record, tags []string) error {
	in, err := s.seal(rec, tags)
	if err != nil {
		return err
	}
	return s.api.UpdateItem(ctx, id, *in)
}

// Duplicate stores a copy of an item under a fresh IV, its title suffixed
// with " (Copy)".
func (s *VaultService) Duplicate(ctx context.Context, id string) (string, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if e.Undecryptable {
		return "", common.ErrAuthenticationFailure
	}

	rec := cryptox.Record{}
	for k, v := range e.Record {
		rec[k] = v
	}
	title := e.Title()
	if title == "" {
		title = "Untitled"
	}
	rec[models.FieldTitle] = title + " (Copy)"

	return s.Add(ctx, rec, e.Tags)
}

func (s *VaultService) Delete(ctx context.Context, id string) error {
	return s.api.DeleteItem(ctx, id)
}

// ExportTo writes the server's export, still encrypted, to path.
func (s *VaultService) ExportTo(ctx context.Context, path string) (int, error) {
	exp, err := s.api.Export(ctx)
	if err != nil {
		return 0, err
	}
	if exp.Export.Items == nil {
		exp.Export.Items = []*models.Item{}
	}

	b, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return 0, err
	}
	if err := filex.WritePrivate(path, b); err != nil {
		return 0, err
	}
	return len(exp.Export.Items), nil
}

// ImportFrom replays Create for each item in the file. The file is either
// an export envelope or a bare {"items": [...]} document. Items are sent
// as they are; ones sealed under another key stay undecryptable.
func (s *VaultService) ImportFrom(ctx context.Context, path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var doc struct {
		Export *struct {
			Items []*models.Item `json:"items"`
		} `json:"export"`
		Items []*models.Item `json:"items"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return 0, fmt.Errorf("%w: invalid import file", common.ErrValidation)
	}
	items := doc.Items
	if doc.Export != nil {
		items = doc.Export.Items
	}

	n := 0
	for _, it := range items {
		if it == nil {
			continue
		}
		_, err := s.api.CreateItem(ctx, client.ItemInput{
			Ciphertext: it.Ciphertext,
			IV:         it.IV,
			Title:      it.Title,
			Tags:       it.Tags,
		})
		if err != nil {
			return n, fmt.Errorf("import item %d: %w", n+1, err)
		}
		n++
	}
	return n, nil
}

// Backup asks the server to store an encrypted backup. With a non-empty
// path the backup is also downloaded there through the presigned URL.
func (s *VaultService) Backup(ctx context.Context, path string) (*client.Backup, error) {
	b, err := s.api.Backup(ctx)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return b, nil
	}

	var buf bytes.Buffer
	if _, err := s.download(ctx, b.URL, &buf); err != nil {
		return nil, fmt.Errorf("download backup: %w", err)
	}
	if err := filex.WritePrivate(path, buf.Bytes()); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *VaultService) seal(rec cryptox.Record, tags []string) (*client.ItemInput, error) {
	key, err := s.keys.Key()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	sealed, err := s.cipher.Encrypt(rec, key)
	if err != nil {
		return nil, err
	}

	in := &client.ItemInput{Ciphertext: sealed.Ciphertext, IV: sealed.IV, Tags: tags}
	if !s.encryptTitles {
		in.Title = rec[models.FieldTitle]
	}
	return in, nil
}

func (s *VaultService) open(it *models.Item, key []byte) *models.Entry {
	e := &models.Entry{
		ID:         it.ID,
		Tags:       it.Tags,
		UpdatedAt:  it.UpdatedAt,
		ClearTitle: it.Title,
	}
	rec, err := s.cipher.Decrypt(it.Ciphertext, it.IV, key)
	if err != nil {
		e.Undecryptable = true
		return e
	}
	e.Record = rec
	return e
}
