package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/zkvault/internal/client/passgen"
)

func generatePassword(length int) (string, error) {
	o := passgen.DefaultOptions()
	if length > 0 {
		o.Length = length
	}
	return passgen.Generate(o)
}

// Generate prints a random password. It needs no session.
func (a *App) Generate(_ context.Context, args []string) error {
	n := 0
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return errUsage("generate [length]")
		}
		n = v
	}
	pw, err := generatePassword(n)
	if err != nil {
		return err
	}
	printlnFn(pw)
	return nil
}

func (a *App) Export(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage("export <file>")
	}
	n, err := a.vault.ExportTo(ctx, args[0])
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Exported %d item(s) to %s.", n, args[0]))
	return nil
}

func (a *App) Import(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage("import <file>")
	}
	n, err := a.vault.ImportFrom(ctx, args[0])
	if n > 0 {
		printlnFn(fmt.Sprintf("Imported %d item(s).", n))
	}
	return err
}

// Backup asks the server for a stored backup and prints where it went.
// With a file argument the backup is downloaded there too.
func (a *App) Backup(ctx context.Context, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	b, err := a.vault.Backup(ctx, path)
	if err != nil {
		return err
	}
	printlnFn("Backup stored as", b.Key)
	if path != "" {
		printlnFn("Downloaded to", path)
	} else {
		printlnFn("Download link:", b.URL)
	}
	return nil
}

// TwoFactor handles "2fa status|setup [qr.png]|verify|disable".
func (a *App) TwoFactor(ctx context.Context, args []string) error {
	const usage = errUsage("2fa status|setup [qr.png]|verify|disable")
	if len(args) == 0 {
		return usage
	}

	switch args[0] {
	case "status":
		on, err := a.twoFactor.Status(ctx)
		if err != nil {
			return err
		}
		if on {
			printlnFn("Two-factor authentication is enabled.")
		} else {
			printlnFn("Two-factor authentication is disabled.")
		}

	case "setup":
		qr := ""
		if len(args) > 1 {
			qr = args[1]
		}
		enr, err := a.twoFactor.Setup(ctx, qr)
		if err != nil {
			return err
		}
		printlnFn("Secret:", enr.Secret)
		printlnFn("URI:   ", enr.Otpauth)
		if qr != "" {
			printlnFn("QR code written to", qr)
		}
		printlnFn("Add it to your authenticator, then run '2fa verify'.")

	case "verify":
		code, err := getSimpleText(a.reader, "Enter 2FA code", a.out)
		if err != nil {
			return err
		}
		if err := a.twoFactor.Verify(ctx, code); err != nil {
			return err
		}
		printlnFn("Two-factor authentication enabled.")

	case "disable":
		if err := a.twoFactor.Disable(ctx); err != nil {
			return err
		}
		printlnFn("Two-factor authentication disabled.")

	default:
		return usage
	}
	return nil
}
