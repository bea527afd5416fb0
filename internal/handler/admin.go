package handler

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// handlePurgeCache drops every cached generation result so the next
// request reaches the model again. Requires the configured admin password.
func (h *Handler) handlePurgeCache(w http.ResponseWriter, r *http.Request) {
	if len(h.config.AdminHash) == 0 {
		respondError(w, http.StatusForbidden, "Admin actions are not configured")
		return
	}

	password := r.FormValue("password")
	if password == "" {
		respondError(w, http.StatusBadRequest, "Missing required parameter: password")
		return
	}
	if err := bcrypt.CompareHashAndPassword(h.config.AdminHash, []byte(password)); err != nil {
		slog.Warn("cache purge rejected", "remote", r.RemoteAddr)
		respondError(w, http.StatusForbidden, "Invalid password")
		return
	}

	n := h.cache.Purge()
	slog.Info("cache purged", "entries", n)
	respondJSON(w, http.StatusOK, map[string]int{"purged": n})
}
