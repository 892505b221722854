package cli

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/zkvault/internal/client/client"
	"github.com/dmitrijs2005/zkvault/internal/common"
)

var messages = []struct {
	err error
	msg string
}{
	{common.ErrLocked, "vault is locked, use 'unlock'"},
	{common.ErrLoggedOut, "not logged in"},
	{common.ErrInvalidCredentials, "invalid credentials"},
	{common.ErrTotpRequired, "a 2FA code is required"},
	{common.ErrInvalidTotp, "invalid 2FA code"},
	{common.ErrInvalidCode, "invalid code"},
	{common.ErrTotpNotEnrolled, "2FA is not set up, run '2fa setup' first"},
	{common.ErrAlreadyExists, "email already registered"},
	{common.ErrorNotFound, "not found"},
	{common.ErrAuthenticationFailure, "item cannot be decrypted with this key"},
	{client.ErrUnauthorized, "session expired, log in again"},
	{client.ErrUnavailable, "server unavailable"},
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	var u errUsage
	if errors.As(err, &u) {
		return err.Error()
	}
	if errors.Is(err, common.ErrValidation) {
		return strings.TrimPrefix(err.Error(), common.ErrValidation.Error()+": ")
	}
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return err.Error()
}
