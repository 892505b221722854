// Package totp implements second-factor enrollment and verification with
// RFC 6238 time-based one-time codes (30 s step, 6 digits, SHA-1).
//
// Per account the engine drives a small state machine:
//
//	Disabled  --BeginEnrollment-->  Enrolling  --ConfirmEnrollment(ok)-->  Enabled
//	Enrolling/Enabled  --Disable-->  Disabled
//
// The engine mutates the Account it is given; persisting the change is the
// caller's job.
package totp

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"image/png"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/server/models"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	DefaultIssuer = "Secure Password Vault"
	DefaultSkew   = 1

	period     = 30
	secretSize = 20
	qrSize     = 200
)

// State is the enrollment state of an account.
type State string

const (
	StateDisabled  State = "disabled"
	StateEnrolling State = "enrolling"
	StateEnabled   State = "enabled"
)

// Enrollment is returned when a new secret is generated. ProvisioningURI is
// the otpauth:// URI; QRCode is the same URI rendered as a PNG data URL.
type Enrollment struct {
	Secret          string
	ProvisioningURI string
	QRCode          string
}

// Engine generates secrets and checks codes against a clock.
type Engine struct {
	issuer string
	skew   uint
	now    func() time.Time
	rand   io.Reader
}

// NewEngine returns an engine. skew is the number of 30 s steps accepted on
// either side of the current one. A nil clock means time.Now.
func NewEngine(issuer string, skew uint, now func() time.Time) *Engine {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{issuer: issuer, skew: skew, now: now, rand: rand.Reader}
}

// StateOf reports where acc is in the enrollment state machine.
func StateOf(acc *models.Account) State {
	switch {
	case acc.TwoFactorEnabled && acc.TOTPSecret != "":
		return StateEnabled
	case acc.TOTPSecret != "":
		return StateEnrolling
	default:
		return StateDisabled
	}
}

// Status reports whether the second factor is active for acc.
func Status(acc *models.Account) bool {
	return StateOf(acc) == StateEnabled
}

// BeginEnrollment stores a fresh secret on acc and moves it to Enrolling.
// Calling it again replaces a pending or active secret.
func (e *Engine) BeginEnrollment(acc *models.Account) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.issuer,
		AccountName: acc.Email,
		Period:      period,
		SecretSize:  secretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
		Rand:        e.rand,
	})
	if err != nil {
		return nil, fmt.Errorf("generating totp secret: %w", err)
	}

	qr, err := qrDataURL(key)
	if err != nil {
		return nil, err
	}

	acc.TOTPSecret = key.Secret()
	acc.TwoFactorEnabled = false

	return &Enrollment{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		QRCode:          qr,
	}, nil
}

// ConfirmEnrollment enables the second factor when code matches the stored
// secret. On a bad code acc is left unchanged and common.ErrInvalidCode is
// returned.
func (e *Engine) ConfirmEnrollment(acc *models.Account, code string) error {
	if acc.TOTPSecret == "" {
		return common.ErrTotpNotEnrolled
	}
	if !e.valid(acc.TOTPSecret, code) {
		return common.ErrInvalidCode
	}
	acc.TwoFactorEnabled = true
	return nil
}

// Disable drops the secret from either Enrolling or Enabled.
func (e *Engine) Disable(acc *models.Account) {
	acc.TOTPSecret = ""
	acc.TwoFactorEnabled = false
}

// VerifyLogin checks a login code. It is only meaningful in the Enabled state.
func (e *Engine) VerifyLogin(acc *models.Account, code string) error {
	if !Status(acc) {
		return common.ErrTotpNotEnrolled
	}
	if !e.valid(acc.TOTPSecret, code) {
		return common.ErrInvalidTotp
	}
	return nil
}

// GenerateCode returns the code for secret at t.
func (e *Engine) GenerateCode(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t, e.opts())
}

func (e *Engine) valid(secret, code string) bool {
	code = strings.TrimSpace(code)
	if len(code) != 6 {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, e.now(), e.opts())
	return err == nil && ok
}

func (e *Engine) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    period,
		Skew:      e.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

func qrDataURL(key *otp.Key) (string, error) {
	img, err := key.Image(qrSize, qrSize)
	if err != nil {
		return "", fmt.Errorf("rendering qr code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encoding qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
