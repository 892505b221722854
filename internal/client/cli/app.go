package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/client/client"
	"github.com/dmitrijs2005/zkvault/internal/client/config"
	"github.com/dmitrijs2005/zkvault/internal/client/keychain"
	"github.com/dmitrijs2005/zkvault/internal/client/models"
	"github.com/dmitrijs2005/zkvault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/zkvault/internal/client/services"
	"github.com/dmitrijs2005/zkvault/internal/client/tokenstore"
	"github.com/dmitrijs2005/zkvault/internal/cryptox"
	"github.com/dmitrijs2005/zkvault/internal/logging"
)

type authService interface {
	State() keychain.State
	Email() string
	Restore(ctx context.Context) error
	Signup(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password, totp string) error
	Unlock(ctx context.Context, password string) error
	Lock()
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
}

type vaultService interface {
	List(ctx context.Context) ([]*models.Entry, error)
	Get(ctx context.Context, id string) (*models.Entry, error)
	Add(ctx context.Context, rec cryptox.Record, tags []string) (string, error)
	Edit(ctx context.Context, id string, rec cryptox.Record, tags []string) error
	Duplicate(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
	ExportTo(ctx context.Context, path string) (int, error)
	ImportFrom(ctx context.Context, path string) (int, error)
	Backup(ctx context.Context, path string) (*client.Backup, error)
}

type twoFactorService interface {
	Status(ctx context.Context) (bool, error)
	Setup(ctx context.Context, qrPath string) (*client.Enrollment, error)
	Verify(ctx context.Context, code string) error
	Disable(ctx context.Context) error
}

type App struct {
	config    *config.Config
	db        *sql.DB
	log       logging.Logger
	auth      authService
	vault     vaultService
	twoFactor twoFactorService
	reader    *bufio.Reader
	out       io.Writer

	// pending clipboard clears; Close cancels clipCtx and waits for them
	clipCtx  context.Context
	clipStop context.CancelFunc
	clips    []<-chan struct{}
}

// NewApp opens the local database, builds the API client and services and
// restores a saved session, which leaves the vault Locked.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	l, err := logging.NewLogger("console", "warn", os.Stderr)
	if err != nil {
		return nil, err
	}

	if err := cryptox.CheckEnvironment(); err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	api, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	if err != nil {
		db.Close()
		return nil, err
	}

	kdf, err := cryptox.NewKeyDeriver()
	if err != nil {
		db.Close()
		return nil, err
	}
	cipher, err := cryptox.NewItemCipher()
	if err != nil {
		db.Close()
		return nil, err
	}

	var tokens tokenstore.Store
	if c.UseKeyring {
		tokens = tokenstore.NewKeyring()
	}

	meta := metadata.NewSQLiteRepository(db)
	keys := keychain.New(kdf)
	auth := services.NewAuthService(api, meta, tokens, keys, cipher)
	if err := auth.Restore(ctx); err != nil {
		l.Warn(ctx, "could not restore session", "error", err)
	}

	return &App{
		config:    c,
		db:        db,
		log:       l,
		auth:      auth,
		vault:     services.NewVaultService(api, keys, cipher, c.EncryptTitles),
		twoFactor: services.NewTwoFactorService(api),
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
	}, nil
}

// Run reads commands until exit, EOF or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	printlnFn("zkvault (type 'help' for commands)")
	if err := a.auth.Ping(ctx); err != nil {
		a.log.Warn(ctx, "server ping failed", "error", err)
		printlnFn("Server unavailable, only local commands will work.")
	}
	if a.auth.State() == keychain.StateLocked {
		printlnFn("Vault is locked. Use 'unlock'.")
	}
	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) Close() {
	a.auth.Lock()
	if a.clipStop != nil {
		a.clipStop()
		for _, done := range a.clips {
			<-done
		}
		a.clips = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn(context.Background(), "close database", "error", err)
		}
	}
}

func (a *App) state() keychain.State {
	return a.auth.State()
}

func (a *App) status() string {
	st := a.auth.State()
	if email := a.auth.Email(); email != "" && st != keychain.StateLoggedOut {
		return fmt.Sprintf("(%s %s)", email, st)
	}
	return fmt.Sprintf("(%s)", st)
}

func (a *App) clipContext() context.Context {
	if a.clipCtx == nil {
		a.clipCtx, a.clipStop = context.WithCancel(context.Background())
	}
	return a.clipCtx
}

func (a *App) clipboardClear() time.Duration {
	if a.config == nil || a.config.ClipboardClear <= 0 {
		return 0
	}
	return a.config.ClipboardClear
}
