package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/server/services"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Totp     string `json:"totp,omitempty"`
}

type authResponse struct {
	OK             bool   `json:"ok"`
	EncryptionSalt string `json:"encryptionSalt"`
	Token          string `json:"token"`
}

func (s *HTTPServer) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := s.svc.Auth.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeSession(w, res)
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := s.svc.Auth.Login(r.Context(), req.Email, req.Password, req.Totp)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeSession(w, res)
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.svc.Auth.Logout(r.Context(), sessionToken(r))
	http.SetCookie(w, s.sessionCookie("", -1))
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

func (s *HTTPServer) writeSession(w http.ResponseWriter, res *services.AuthResult) {
	http.SetCookie(w, s.sessionCookie(res.Token, s.cookie.MaxAge))
	writeJSON(w, http.StatusOK, authResponse{
		OK:             true,
		EncryptionSalt: res.EncryptionSalt,
		Token:          res.Token,
	})
}

// sessionCookie builds the session cookie. A negative maxAge expires it.
func (s *HTTPServer) sessionCookie(value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(maxAge.Seconds())
	}
	return c
}
