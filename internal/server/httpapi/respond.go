package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/zkvault/internal/common"
)

type errorBody struct {
	Error       string `json:"error"`
	RequireTotp bool   `json:"requireTotp,omitempty"`
}

type okBody struct {
	OK bool   `json:"ok"`
	ID string `json:"id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps a service error to an HTTP status and public message.
func statusFor(err error) (int, errorBody) {
	switch {
	case errors.Is(err, common.ErrTotpRequired):
		return http.StatusUnauthorized, errorBody{Error: "TOTP required", RequireTotp: true}
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorBody{Error: "Invalid credentials"}
	case errors.Is(err, common.ErrInvalidTotp):
		return http.StatusUnauthorized, errorBody{Error: "Invalid TOTP code"}
	case errors.Is(err, common.ErrInvalidCode):
		return http.StatusUnauthorized, errorBody{Error: "Invalid code"}
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized, errorBody{Error: "Unauthorized"}
	case errors.Is(err, common.ErrTotpNotEnrolled):
		return http.StatusBadRequest, errorBody{Error: "2FA not setup"}
	case errors.Is(err, common.ErrAlreadyExists):
		return http.StatusBadRequest, errorBody{Error: "Email already registered"}
	case errors.Is(err, common.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), common.ErrValidation.Error()+": ")
		return http.StatusBadRequest, errorBody{Error: msg}
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, errorBody{Error: "Not found"}
	default:
		return http.StatusInternalServerError, errorBody{Error: "Internal error"}
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, body := statusFor(err)
	writeJSON(w, status, body)
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: malformed request body", common.ErrValidation)
	}
	return nil
}
