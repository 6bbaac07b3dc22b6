package handlers

import (
	"encoding/json"
	"net/http"

	"nexgig/internal/middleware"
)

// Handler wraps Storage for data access.
type Handler struct {
	Store     StorageInterface
	JWTSecret string
}

// NewHandler creates a new Handler.
func NewHandler(store StorageInterface, jwtSecret string) *Handler {
	return &Handler{Store: store, JWTSecret: jwtSecret}
}

// PingHandler responds "ok" for liveness checks.
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError sends {"error": msg}; messages stay generic so ownership
// failures don't leak what exists.
func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// identity pulls the verified caller from the request context, optionally
// requiring a role. Returns false after writing the error response.
func (h *Handler) identity(w http.ResponseWriter, r *http.Request, role string) (middleware.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return middleware.Identity{}, false
	}
	if role != "" && id.Role != role {
		writeError(w, "Forbidden", http.StatusForbidden)
		return middleware.Identity{}, false
	}
	return id, true
}
