package client

import (
	"context"

	"github.com/dmitrijs2005/zkvault/internal/client/models"
)

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	OK             bool   `json:"ok"`
	EncryptionSalt string `json:"encryptionSalt"`
	Token          string `json:"token"`
}

// Enrollment is returned by 2FA setup.
type Enrollment struct {
	Secret  string `json:"secret"`
	Otpauth string `json:"otpauth"`
	QR      string `json:"qr"`
}

// Backup names a stored backup and a time-limited download URL.
type Backup struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ItemInput is the body of create and update requests.
type ItemInput struct {
	Ciphertext string   `json:"ciphertext"`
	IV         string   `json:"iv"`
	Title      string   `json:"title,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

type Client interface {
	SetToken(token string)
	Ping(ctx context.Context) error

	Signup(ctx context.Context, email, password string) (*AuthResponse, error)
	Login(ctx context.Context, email, password, totp string) (*AuthResponse, error)
	Logout(ctx context.Context) error

	TwoFactorStatus(ctx context.Context) (bool, error)
	TwoFactorSetup(ctx context.Context) (*Enrollment, error)
	TwoFactorVerify(ctx context.Context, code string) error
	TwoFactorDisable(ctx context.Context) error

	ListItems(ctx context.Context) ([]*models.Item, error)
	GetItem(ctx context.Context, id string) (*models.Item, error)
	CreateItem(ctx context.Context, in ItemInput) (string, error)
	UpdateItem(ctx context.Context, id string, in ItemInput) error
	DeleteItem(ctx context.Context, id string) error
	Export(ctx context.Context) (*models.Export, error)
	Backup(ctx context.Context) (*Backup, error)
}
