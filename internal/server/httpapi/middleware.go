package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/server/session"
	"github.com/gorilla/mux"
)

type ctxKey string

const identityKey ctxKey = "identity"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests logs one line per request. The route template is logged
// instead of the raw path when the route matched.
func (s *HTTPServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// sessionToken reads the session cookie, falling back to a bearer token.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(common.SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get(common.AuthorizationHeaderName)
	if strings.HasPrefix(h, common.BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, common.BearerPrefix))
	}
	return ""
}

func (s *HTTPServer) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := s.svc.Auth.Authenticate(sessionToken(r))
		if err != nil {
			writeError(w, common.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

func identityFrom(ctx context.Context) *session.Identity {
	id, _ := ctx.Value(identityKey).(*session.Identity)
	return id
}
