package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

func (a *App) readSecret(prompt string) (string, error) {
	b, err := getPassword(a.out, prompt)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(b)
	return string(b), nil
}

// Signup asks for an email and the master password twice.
func (a *App) Signup(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := a.readSecret("Master password")
	if err != nil {
		return err
	}
	confirm, err := a.readSecret("Repeat master password")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("%w: passwords do not match", common.ErrValidation)
	}

	if err := a.auth.Signup(ctx, email, password); err != nil {
		return err
	}
	printlnFn("Account created. Vault unlocked.")
	return nil
}

// Login asks for credentials and, when the server wants one, a TOTP code.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := a.readSecret("Master password")
	if err != nil {
		return err
	}

	err = a.auth.Login(ctx, email, password, "")
	if errors.Is(err, common.ErrTotpRequired) {
		code, cerr := getSimpleText(a.reader, "Enter 2FA code", a.out)
		if cerr != nil {
			return cerr
		}
		err = a.auth.Login(ctx, email, password, code)
	}
	if err != nil {
		return err
	}

	printlnFn("Logged in. Vault unlocked.")
	return nil
}

func (a *App) Unlock(ctx context.Context) error {
	password, err := a.readSecret("Master password")
	if err != nil {
		return err
	}
	if err := a.auth.Unlock(ctx, password); err != nil {
		return err
	}
	printlnFn("Vault unlocked.")
	return nil
}

func (a *App) Lock(context.Context) error {
	a.auth.Lock()
	printlnFn("Vault locked.")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	err := a.auth.Logout(ctx)
	printlnFn("Logged out.")
	return err
}
