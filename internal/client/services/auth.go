// Package services contains the client's application services. They sit
// between the CLI and the API client: AuthService owns the local session and
// the keychain, VaultService encrypts and decrypts items, TwoFactorService
// forwards second-factor management.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/client/client"
	"github.com/dmitrijs2005/zkvault/internal/client/keychain"
	"github.com/dmitrijs2005/zkvault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/zkvault/internal/client/tokenstore"
	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/cryptox"
)

type AuthService struct {
	api    client.Client
	meta   metadata.Repository
	tokens tokenstore.Store
	keys   *keychain.Keychain
	cipher *cryptox.ItemCipher

	email string
}

// NewAuthService wires the session store. tokens may be nil, in which case
// the token is kept in the metadata table.
func NewAuthService(api client.Client, meta metadata.Repository, tokens tokenstore.Store, keys *keychain.Keychain, c *cryptox.ItemCipher) *AuthService {
	if tokens == nil {
		tokens = tokenstore.NewMetadata(meta)
	}
	return &AuthService{api: api, meta: meta, tokens: tokens, keys: keys, cipher: c}
}

func (s *AuthService) State() keychain.State {
	return s.keys.State()
}

func (s *AuthService) Email() string {
	return s.email
}

// Restore loads a saved session. With one present the keychain ends up
// Locked and the API client carries the saved token.
func (s *AuthService) Restore(ctx context.Context) error {
	sess, err := s.meta.LoadSession(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		s.keys.Clear()
		return nil
	}

	tok, err := s.tokens.Get(ctx, sess.Email)
	if err != nil {
		return fmt.Errorf("load session token: %w", err)
	}

	s.email = sess.Email
	s.keys.SetSalt(sess.Salt)
	s.api.SetToken(tok)
	return nil
}

func (s *AuthService) Signup(ctx context.Context, email, password string) error {
	res, err := s.api.Signup(ctx, email, password)
	if err != nil {
		return err
	}
	return s.establish(ctx, email, password, res)
}

// Login returns common.ErrTotpRequired when the account has a second factor
// and totp was empty; the caller asks for a code and calls Login again.
func (s *AuthService) Login(ctx context.Context, email, password, totp string) error {
	res, err := s.api.Login(ctx, email, password, totp)
	if err != nil {
		return err
	}
	return s.establish(ctx, email, password, res)
}

func (s *AuthService) establish(ctx context.Context, email, password string, res *client.AuthResponse) error {
	sess := metadata.Session{Email: email, Salt: res.EncryptionSalt, Token: res.Token}
	if _, inMeta := s.tokens.(*tokenstore.Metadata); !inMeta {
		sess.Token = ""
		if err := s.tokens.Set(ctx, email, res.Token); err != nil {
			return fmt.Errorf("save session token: %w", err)
		}
	}
	if err := s.meta.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	s.email = email
	s.keys.SetSalt(res.EncryptionSalt)
	return s.keys.Unlock(password)
}

// Unlock re-derives the key from the stored salt. When the vault has items
// and none of them opens with the new key the password was wrong: the
// keychain stays Locked and common.ErrInvalidCredentials is returned. If the
// server cannot be asked the key is kept unverified.
func (s *AuthService) Unlock(ctx context.Context, password string) error {
	if err := s.keys.Unlock(password); err != nil {
		return err
	}

	items, err := s.api.ListItems(ctx)
	if err != nil || len(items) == 0 {
		return nil
	}

	key, err := s.keys.Key()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	for _, it := range items {
		if _, err := s.cipher.Decrypt(it.Ciphertext, it.IV, key); err == nil {
			return nil
		}
	}

	s.keys.Lock()
	return common.ErrInvalidCredentials
}

func (s *AuthService) Lock() {
	s.keys.Lock()
}

// Logout drops the local session even when the server cannot be reached.
func (s *AuthService) Logout(ctx context.Context) error {
	apiErr := s.api.Logout(ctx)
	if errors.Is(apiErr, client.ErrUnavailable) || errors.Is(apiErr, client.ErrUnauthorized) {
		apiErr = nil
	}

	var errs []error
	if s.email != "" {
		errs = append(errs, s.tokens.Delete(ctx, s.email))
	}
	errs = append(errs, s.meta.Clear(ctx), apiErr)

	s.keys.Clear()
	s.email = ""
	return errors.Join(errs...)
}

// Ping proxies a liveness check to the server.
func (s *AuthService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx)
}
