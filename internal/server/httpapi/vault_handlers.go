package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/server/models"
	"github.com/dmitrijs2005/zkvault/internal/server/services"
	"github.com/gorilla/mux"
)

type itemRequest struct {
	Ciphertext string   `json:"ciphertext"`
	IV         string   `json:"iv"`
	Title      string   `json:"title,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

func (r itemRequest) input() services.ItemInput {
	return services.ItemInput{Ciphertext: r.Ciphertext, IV: r.IV, Title: r.Title, Tags: r.Tags}
}

type listResponse struct {
	Items []*models.VaultItem `json:"items"`
}

type itemResponse struct {
	Item *models.VaultItem `json:"item"`
}

func (s *HTTPServer) handleVaultList(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	items, err := s.svc.Vault.List(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []*models.VaultItem{}
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items})
}

func (s *HTTPServer) handleVaultCreate(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	id := identityFrom(r.Context())
	item, err := s.svc.Vault.Create(r.Context(), id.UserID, req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true, ID: item.ID})
}

func (s *HTTPServer) handleVaultGet(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	item, err := s.svc.Vault.Get(r.Context(), id.UserID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse{Item: item})
}

func (s *HTTPServer) handleVaultUpdate(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	id := identityFrom(r.Context())
	if _, err := s.svc.Vault.Update(r.Context(), id.UserID, mux.Vars(r)["id"], req.input()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

func (s *HTTPServer) handleVaultDelete(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	if err := s.svc.Vault.Delete(r.Context(), id.UserID, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	export, err := s.svc.Vault.ExportAll(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if export.Items == nil {
		export.Items = []*models.VaultItem{}
	}
	writeJSON(w, http.StatusOK, services.ExportEnvelope{Export: export})
}

func (s *HTTPServer) handleBackup(w http.ResponseWriter, r *http.Request) {
	if s.svc.Backup == nil || !s.svc.Backup.Enabled() {
		writeError(w, common.ErrorNotFound)
		return
	}

	id := identityFrom(r.Context())
	res, err := s.svc.Backup.Backup(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
