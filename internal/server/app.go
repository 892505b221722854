// Package server wires configuration, storage, services and transports
// into the vault server process and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/zkvault/internal/cryptox"
	"github.com/dmitrijs2005/zkvault/internal/logging"
	"github.com/dmitrijs2005/zkvault/internal/server/config"
	"github.com/dmitrijs2005/zkvault/internal/server/credentials"
	"github.com/dmitrijs2005/zkvault/internal/server/health"
	"github.com/dmitrijs2005/zkvault/internal/server/httpapi"
	"github.com/dmitrijs2005/zkvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/zkvault/internal/server/services"
	"github.com/dmitrijs2005/zkvault/internal/server/session"
	"github.com/dmitrijs2005/zkvault/internal/server/totp"
)

type App struct {
	config *config.Config
	logger logging.Logger
	store  repomanager.RepositoryManager
	http   *httpapi.HTTPServer
	health *health.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.NewLogger(c.LogFormat, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	if err := cryptox.CheckEnvironment(); err != nil {
		return nil, err
	}

	hasher, err := credentials.NewHasher(c.BcryptCost)
	if err != nil {
		return nil, err
	}

	authority, err := session.NewAuthority(c.SecretKey, c.SessionValidity)
	if err != nil {
		return nil, err
	}

	store, err := repomanager.Open(c.StorageDriver, c.DatabaseDSN, c.BoltPath)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	if err := store.RunMigrations(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	engine := totp.NewEngine(c.TOTPIssuer, c.TOTPSkew, nil)
	vault := services.NewVaultService(store.VaultItems(), logger.With("service", "vault"))

	svc := httpapi.Services{
		Auth:      services.NewAuthService(store.Accounts(), hasher, engine, authority, logger.With("service", "auth")),
		TwoFactor: services.NewTwoFactorService(store.Accounts(), engine, logger.With("service", "2fa")),
		Vault:     vault,
		Backup:    services.NewBackupService(vault, c, logger.With("service", "backup")),
	}

	return &App{
		config: c,
		logger: logger,
		store:  store,
		http: httpapi.NewHTTPServer(c.HTTPAddr, logger, svc, httpapi.CookieOptions{
			Secure: c.CookieSecure,
			MaxAge: authority.Validity(),
		}),
		health: health.NewGRPCServer(c.HealthAddrGRPC, logger, store, health.DefaultInterval),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// runServer runs one transport; a failure stops the others.
func (app *App) runServer(ctx context.Context, cancelFunc context.CancelFunc, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		app.logger.Error(ctx, name+" server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageDriver, "backups", app.config.BackupsEnabled())

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runServer(ctx, cancelFunc, "http", app.http.Run)
	}()

	if app.config.HealthAddrGRPC != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.runServer(ctx, cancelFunc, "health", app.health.Run)
		}()
	}

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Error(context.Background(), "storage close", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
