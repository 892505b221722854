package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/logging"
	"github.com/dmitrijs2005/zkvault/internal/server/models"
	"github.com/dmitrijs2005/zkvault/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/zkvault/internal/server/totp"
)

// TwoFactorService manages TOTP enrollment for a signed-in account and
// persists every state change.
type TwoFactorService struct {
	accounts accounts.Repository
	totp     *totp.Engine
	log      logging.Logger
}

func NewTwoFactorService(repo accounts.Repository, e *totp.Engine, log logging.Logger) *TwoFactorService {
	return &TwoFactorService{accounts: repo, totp: e, log: log}
}

func (s *TwoFactorService) Status(ctx context.Context, userID string) (bool, error) {
	acc, err := s.load(ctx, userID)
	if err != nil {
		return false, err
	}
	return totp.Status(acc), nil
}

// BeginEnrollment generates and stores a new secret. The second factor stays
// off until ConfirmEnrollment succeeds.
func (s *TwoFactorService) BeginEnrollment(ctx context.Context, userID string) (*totp.Enrollment, error) {
	acc, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	enr, err := s.totp.BeginEnrollment(acc)
	if err != nil {
		return nil, s.internal(ctx, "begin 2fa enrollment", err)
	}

	if err := s.save(ctx, acc); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "2fa enrollment started", "user_id", userID)
	return enr, nil
}

func (s *TwoFactorService) ConfirmEnrollment(ctx context.Context, userID, code string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: missing token", common.ErrValidation)
	}

	acc, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.totp.ConfirmEnrollment(acc, code); err != nil {
		return err
	}

	if err := s.save(ctx, acc); err != nil {
		return err
	}

	s.log.Info(ctx, "2fa enabled", "user_id", userID)
	return nil
}

// Disable turns the second factor off without asking for a code.
func (s *TwoFactorService) Disable(ctx context.Context, userID string) error {
	acc, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	s.totp.Disable(acc)
	if err := s.save(ctx, acc); err != nil {
		return err
	}

	s.log.Info(ctx, "2fa disabled", "user_id", userID)
	return nil
}

// load maps a missing account to common.ErrUnauthenticated: the session
// outlived the account.
func (s *TwoFactorService) load(ctx context.Context, userID string) (*models.Account, error) {
	acc, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, s.internal(ctx, "load account", err)
	}
	return acc, nil
}

func (s *TwoFactorService) save(ctx context.Context, acc *models.Account) error {
	if err := s.accounts.UpdateTwoFactor(ctx, acc.ID, acc.TOTPSecret, acc.TwoFactorEnabled); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrUnauthenticated
		}
		return s.internal(ctx, "save 2fa state", err)
	}
	return nil
}

func (s *TwoFactorService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}
