package api

import (
	"log/slog"
	"net/http"

	"github.com/starnotify/starnotify/internal/store"
)

type AdminHandler struct {
	store  store.Store
	apiKey string
	logger *slog.Logger
}

func NewAdminHandler(st store.Store, apiKey string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{store: st, apiKey: apiKey, logger: logger}
}

// Subscriptions lists every subscription. Requires the x-api-key
// header; an unconfigured admin key disables the endpoint entirely.
func (h *AdminHandler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	if h.apiKey == "" || r.Header.Get("x-api-key") != h.apiKey {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	subs, err := h.store.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list subscriptions", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"count":         len(subs),
		"subscriptions": subs,
	})
}
