package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starnotify/starnotify/internal/domain"
	"github.com/starnotify/starnotify/internal/mailer"
	"github.com/starnotify/starnotify/internal/store"
)

type SubscriptionHandler struct {
	store  store.Store
	mailer mailer.Mailer
	secret string
	appURL string
	logger *slog.Logger
}

func NewSubscriptionHandler(st store.Store, m mailer.Mailer, secret, appURL string, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		store:  st,
		mailer: m,
		secret: secret,
		appURL: appURL,
		logger: logger,
	}
}

// Subscribe creates a pending subscription and returns the shared
// secret and webhook callback URL the user needs to configure on the
// repository.
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req domain.SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Owner == "" || req.Repo == "" || req.Email == "" {
		respondError(w, http.StatusBadRequest, "owner, repo and email are required")
		return
	}

	sub, err := h.store.Create(r.Context(), req.Owner, req.Repo, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateActive) {
			respondError(w, http.StatusConflict, "an active subscription already exists")
			return
		}
		h.logger.Error("failed to create subscription",
			"owner", req.Owner,
			"repo", req.Repo,
			"email", req.Email,
			"error", err,
		)
		respondError(w, http.StatusInternalServerError, "failed to create subscription")
		return
	}

	h.logger.Info("subscription created",
		"owner", sub.Owner,
		"repo", sub.Repo,
		"email", sub.Email,
		"status", sub.Status,
	)

	respondJSON(w, http.StatusOK, domain.SubscribeResponse{
		Success:    true,
		Owner:      sub.Owner,
		Repo:       sub.Repo,
		Email:      sub.Email,
		Secret:     h.secret,
		WebhookURL: h.appURL + "/api/v1/webhook",
		Warning:    h.storageWarning(),
	})
}

// Verify activates a pending subscription after checking the supplied
// secret, then sends the confirmation email. A missing record is an
// error here: subscriptions must be created through Subscribe first.
func (h *SubscriptionHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Owner == "" || req.Repo == "" || req.Email == "" || req.Secret == "" {
		respondError(w, http.StatusBadRequest, "owner, repo, email and secret are required")
		return
	}

	if req.Secret != h.secret {
		h.logger.Warn("verification secret mismatch",
			"owner", req.Owner,
			"repo", req.Repo,
			"email", req.Email,
		)
		respondError(w, http.StatusUnauthorized, "secret mismatch")
		return
	}

	sub, err := h.store.Activate(r.Context(), req.Owner, req.Repo, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "subscription not found")
			return
		}
		h.logger.Error("failed to activate subscription",
			"owner", req.Owner,
			"repo", req.Repo,
			"email", req.Email,
			"error", err,
		)
		respondError(w, http.StatusInternalServerError, "failed to activate subscription")
		return
	}

	h.logger.Info("subscription activated",
		"owner", sub.Owner,
		"repo", sub.Repo,
		"email", sub.Email,
	)

	subject, body, err := mailer.SubscriptionConfirmation(sub.Owner, sub.Repo)
	if err == nil {
		err = h.mailer.Send(r.Context(), sub.Email, subject, body)
	}
	if err != nil {
		h.logger.Error("confirmation email failed",
			"owner", sub.Owner,
			"repo", sub.Repo,
			"email", sub.Email,
			"error", err,
		)
		respondError(w, http.StatusInternalServerError, "subscription activated but confirmation email failed")
		return
	}

	resp := map[string]any{
		"success": true,
		"message": "subscription verified, confirmation email sent",
	}
	if warning := h.storageWarning(); warning != "" {
		resp["warning"] = warning
	}
	respondJSON(w, http.StatusOK, resp)
}

// storageWarning surfaces the degraded fallback mode to callers.
func (h *SubscriptionHandler) storageWarning() string {
	type degrader interface{ Degraded() bool }
	if d, ok := h.store.(degrader); ok && d.Degraded() {
		return "storage degraded: subscription data is held in an ephemeral in-memory store"
	}
	return ""
}
