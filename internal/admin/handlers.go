package admin

import (
	"encoding/json"
	"net/http"

	"github.com/iyulab/shell-tunnel/internal/keystore"
)

// Handlers wires the admin login + key-management endpoints onto a mux.
// Purely a keystore (C8) front-end: it never touches the session
// registry or executor.
type Handlers struct {
	auth  *Manager
	store *keystore.Store
}

// NewHandlers constructs the admin HTTP surface.
func NewHandlers(auth *Manager, store *keystore.Store) *Handlers {
	return &Handlers{auth: auth, store: store}
}

// Register mounts the admin routes onto mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/admin/login", h.handleLogin)
	mux.HandleFunc("POST /api/v1/admin/logout", h.handleLogout)
	mux.Handle("GET /api/v1/admin/keys", h.auth.Middleware(http.HandlerFunc(h.handleListKeys)))
	mux.Handle("POST /api/v1/admin/keys", h.auth.Middleware(http.HandlerFunc(h.handleCreateKey)))
	mux.Handle("DELETE /api/v1/admin/keys/{key}", h.auth.Middleware(http.HandlerFunc(h.handleDeleteKey)))
}

type loginRequest struct {
	Password string `json:"password"`
	TOTPCode string `json:"totp_code"`
}

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if err := h.auth.Verify(req.Password, req.TOTPCode); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	token, err := h.auth.IssueToken()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.auth.SetCookie(w, token)
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.auth.ClearCookie(w)
	w.WriteHeader(http.StatusOK)
}

type keyListResponse struct {
	Keys []string `json:"keys"`
}

func (h *Handlers) handleListKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, keyListResponse{Keys: h.store.List()})
}

type createKeyResponse struct {
	Key string `json:"key"`
}

func (h *Handlers) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	key, err := keystore.GenerateKey()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.store.Add(key)
	writeJSON(w, http.StatusCreated, createKeyResponse{Key: key})
}

func (h *Handlers) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	h.store.Remove(key)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
