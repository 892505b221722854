// Package session issues and validates stateless bearer tokens (HS256 JWT)
// that bind a user id and email for a fixed validity window.
package session

import (
	"time"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultValidity is the session lifetime used when none is configured.
const DefaultValidity = 7 * 24 * time.Hour

// Claims includes the registered claims and the two identity fields.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// Identity is what a valid token proves.
type Identity struct {
	UserID    string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Authority signs and checks tokens with a server-held secret.
type Authority struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

// NewAuthority fails with common.ErrSecretNotConfigured when secret is
// empty; the server cannot serve authenticated requests without it.
func NewAuthority(secret string, validity time.Duration) (*Authority, error) {
	if secret == "" {
		return nil, common.ErrSecretNotConfigured
	}
	if validity <= 0 {
		validity = DefaultValidity
	}
	return &Authority{secret: []byte(secret), validity: validity, now: time.Now}, nil
}

// Validity returns the configured token lifetime.
func (a *Authority) Validity() time.Duration {
	return a.validity
}

// Issue returns a signed token for the user.
func (a *Authority) Issue(userID, email string) (string, error) {
	if len(a.secret) == 0 {
		return "", common.ErrSecretNotConfigured
	}

	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.validity)),
		},
		UserID: userID,
		Email:  email,
	})

	return token.SignedString(a.secret)
}

// Validate returns the identity carried by token. Every failure (missing,
// malformed, expired, wrong signature or algorithm) is
// common.ErrUnauthenticated.
func (a *Authority) Validate(token string) (*Identity, error) {
	if token == "" || len(a.secret) == 0 {
		return nil, common.ErrUnauthenticated
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return nil, common.ErrUnauthenticated
	}

	id := &Identity{UserID: claims.UserID, Email: claims.Email}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}
