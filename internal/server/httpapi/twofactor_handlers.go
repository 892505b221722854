package httpapi

import (
	"net/http"
)

type statusResponse struct {
	Enabled bool `json:"enabled"`
}

type setupResponse struct {
	Secret  string `json:"secret"`
	Otpauth string `json:"otpauth"`
	QR      string `json:"qr"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

func (s *HTTPServer) handle2FAStatus(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	enabled, err := s.svc.TwoFactor.Status(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Enabled: enabled})
}

func (s *HTTPServer) handle2FASetup(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	enr, err := s.svc.TwoFactor.BeginEnrollment(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setupResponse{
		Secret:  enr.Secret,
		Otpauth: enr.ProvisioningURI,
		QR:      enr.QRCode,
	})
}

func (s *HTTPServer) handle2FAVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	id := identityFrom(r.Context())
	if err := s.svc.TwoFactor.ConfirmEnrollment(r.Context(), id.UserID, req.Token); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

func (s *HTTPServer) handle2FADisable(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	if err := s.svc.TwoFactor.Disable(r.Context(), id.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}
