package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/zkvault/internal/client/client"
	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/filex"
)

const qrPrefix = "data:image/png;base64,"

type TwoFactorService struct {
	api client.Client
}

func NewTwoFactorService(api client.Client) *TwoFactorService {
	return &TwoFactorService{api: api}
}

func (s *TwoFactorService) Status(ctx context.Context) (bool, error) {
	return s.api.TwoFactorStatus(ctx)
}

// Setup starts enrollment. With a non-empty qrPath the QR code is also
// written there as a PNG.
func (s *TwoFactorService) Setup(ctx context.Context, qrPath string) (*client.Enrollment, error) {
	enr, err := s.api.TwoFactorSetup(ctx)
	if err != nil {
		return nil, err
	}
	if qrPath == "" {
		return enr, nil
	}

	png, err := decodeQR(enr.QR)
	if err != nil {
		return nil, err
	}
	if err := filex.WritePrivate(qrPath, png); err != nil {
		return nil, err
	}
	return enr, nil
}

func (s *TwoFactorService) Verify(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: missing code", common.ErrValidation)
	}
	return s.api.TwoFactorVerify(ctx, code)
}

func (s *TwoFactorService) Disable(ctx context.Context) error {
	return s.api.TwoFactorDisable(ctx)
}

func decodeQR(dataURL string) ([]byte, error) {
	if !strings.HasPrefix(dataURL, qrPrefix) {
		return nil, fmt.Errorf("%w: unexpected qr format", common.ErrValidation)
	}
	b, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, qrPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: qr is not valid base64", common.ErrValidation)
	}
	return b, nil
}
