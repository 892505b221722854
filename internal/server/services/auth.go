// Package services contains the server-side business logic. Services take
// repositories and crypto primitives as dependencies, return sentinel errors
// from internal/common and log unexpected failures.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/cryptox"
	"github.com/dmitrijs2005/zkvault/internal/logging"
	"github.com/dmitrijs2005/zkvault/internal/server/credentials"
	"github.com/dmitrijs2005/zkvault/internal/server/models"
	"github.com/dmitrijs2005/zkvault/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/zkvault/internal/server/session"
	"github.com/dmitrijs2005/zkvault/internal/server/totp"
)

// MinPasswordLength is the shortest accepted master password.
const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`.+@.+\..+`)

// NormalizeEmail trims and lowercases email and checks its shape.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return "", fmt.Errorf("%w: invalid email", common.ErrValidation)
	}
	return email, nil
}

// AuthResult is returned by a successful signup or login. EncryptionSalt is
// what the client needs to re-derive its vault key.
type AuthResult struct {
	Token          string
	EncryptionSalt string
	UserID         string
	Email          string
}

// AuthService signs accounts up, logs them in and resolves session tokens.
type AuthService struct {
	accounts accounts.Repository
	hasher   *credentials.Hasher
	totp     *totp.Engine
	sessions *session.Authority
	log      logging.Logger

	newSalt func() (string, error)

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(repo accounts.Repository, h *credentials.Hasher, e *totp.Engine, a *session.Authority, log logging.Logger) *AuthService {
	return &AuthService{
		accounts: repo,
		hasher:   h,
		totp:     e,
		sessions: a,
		log:      log,
		newSalt:  cryptox.NewSalt,
	}
}

// Signup creates an account and opens a session for it.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*AuthResult, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, MinPasswordLength)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return nil, err
		}
		return nil, s.internal(ctx, "hash password", err)
	}

	salt, err := s.newSalt()
	if err != nil {
		return nil, s.internal(ctx, "generate salt", err)
	}

	acc, err := s.accounts.Create(ctx, &models.Account{Email: email, PasswordHash: hash, EncryptionSalt: salt})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, err
		}
		return nil, s.internal(ctx, "create account", err)
	}

	s.log.Info(ctx, "account created", "user_id", acc.ID)
	return s.open(ctx, acc)
}

// Login checks the password and, when the second factor is on, the TOTP
// code. An unknown email and a wrong password both yield
// common.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password, code string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: missing credentials", common.ErrValidation)
	}

	acc, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// same bcrypt work as a password mismatch
			s.hasher.Verify(password, s.dummy())
			return nil, common.ErrInvalidCredentials
		}
		return nil, s.internal(ctx, "load account", err)
	}

	if !s.hasher.Verify(password, acc.PasswordHash) {
		s.log.Info(ctx, "login rejected", "user_id", acc.ID, "reason", "password")
		return nil, common.ErrInvalidCredentials
	}

	if totp.Status(acc) {
		if strings.TrimSpace(code) == "" {
			return nil, common.ErrTotpRequired
		}
		if err := s.totp.VerifyLogin(acc, code); err != nil {
			s.log.Info(ctx, "login rejected", "user_id", acc.ID, "reason", "totp")
			return nil, common.ErrInvalidTotp
		}
	}

	return s.open(ctx, acc)
}

// Logout has nothing to revoke server-side; sessions are stateless and the
// transport drops the token.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if id, err := s.sessions.Validate(token); err == nil {
		s.log.Info(ctx, "logout", "user_id", id.UserID)
	}
}

// Authenticate resolves a session token.
func (s *AuthService) Authenticate(token string) (*session.Identity, error) {
	return s.sessions.Validate(token)
}

func (s *AuthService) open(ctx context.Context, acc *models.Account) (*AuthResult, error) {
	token, err := s.sessions.Issue(acc.ID, acc.Email)
	if err != nil {
		return nil, s.internal(ctx, "issue session", err)
	}
	return &AuthResult{Token: token, EncryptionSalt: acc.EncryptionSalt, UserID: acc.ID, Email: acc.Email}, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("zkvault-dummy-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func (s *AuthService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}
