// Package httpapi exposes the vault services as a JSON API over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/logging"
	"github.com/dmitrijs2005/zkvault/internal/server/services"
	"github.com/gorilla/mux"
)

const (
	maxBodyBytes    = 4 << 20
	shutdownTimeout = 5 * time.Second
)

// Services bundles what the handlers call into.
type Services struct {
	Auth      *services.AuthService
	TwoFactor *services.TwoFactorService
	Vault     *services.VaultService
	Backup    *services.BackupService
}

// CookieOptions controls the session cookie.
type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

type HTTPServer struct {
	address string
	logger  logging.Logger
	svc     Services
	cookie  CookieOptions
}

func NewHTTPServer(addr string, l logging.Logger, svc Services, cookie CookieOptions) *HTTPServer {
	return &HTTPServer{
		address: addr,
		logger:  l.With("module", "http_server"),
		svc:     svc,
		cookie:  cookie,
	}
}

// Handler returns the routed API with logging and session middleware.
func (s *HTTPServer) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	pub := r.PathPrefix("/api").Subrouter()
	pub.HandleFunc("/auth/signup", s.handleSignup).Methods(http.MethodPost)
	pub.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	pub.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)

	priv := r.PathPrefix("/api").Subrouter()
	priv.Use(s.requireSession)
	priv.HandleFunc("/2fa/status", s.handle2FAStatus).Methods(http.MethodGet)
	priv.HandleFunc("/2fa/setup", s.handle2FASetup).Methods(http.MethodPost)
	priv.HandleFunc("/2fa/verify", s.handle2FAVerify).Methods(http.MethodPost)
	priv.HandleFunc("/2fa/disable", s.handle2FADisable).Methods(http.MethodPost)
	priv.HandleFunc("/vault", s.handleVaultList).Methods(http.MethodGet)
	priv.HandleFunc("/vault", s.handleVaultCreate).Methods(http.MethodPost)
	priv.HandleFunc("/vault/{id}", s.handleVaultGet).Methods(http.MethodGet)
	priv.HandleFunc("/vault/{id}", s.handleVaultUpdate).Methods(http.MethodPut)
	priv.HandleFunc("/vault/{id}", s.handleVaultDelete).Methods(http.MethodDelete)
	priv.HandleFunc("/export", s.handleExport).Methods(http.MethodPost)
	priv.HandleFunc("/export/backup", s.handleBackup).Methods(http.MethodPost)

	r.NotFoundHandler = s.logRequests(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
	}))

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
