package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v66/github"
	"github.com/starnotify/starnotify/internal/domain"
	"github.com/starnotify/starnotify/internal/engine"
)

type WebhookHandler struct {
	notifier *engine.Notifier
	secret   string
	logger   *slog.Logger
}

func NewWebhookHandler(notifier *engine.Notifier, secret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{notifier: notifier, secret: secret, logger: logger}
}

type webhookResponse struct {
	Success      bool                 `json:"success"`
	Message      string               `json:"message,omitempty"`
	EmailResults []domain.EmailResult `json:"emailResults"`
}

// Handle processes an inbound GitHub webhook: signature check, event
// routing, then notification fanout for new stars.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read request body")
		return
	}

	if !engine.VerifySignature(body, h.secret, r.Header.Get(engine.SignatureHeader)) {
		// The received signature is deliberately not logged.
		h.logger.Warn("webhook signature verification failed")
		respondError(w, http.StatusUnauthorized, "signature verification failed")
		return
	}

	eventType := github.WebHookType(r)

	class, star, err := engine.Classify(eventType, body)
	if err != nil {
		// The signature checked out, so a body we cannot parse is our
		// problem, not the caller's.
		h.logger.Error("malformed webhook payload", "event_type", eventType, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to process payload")
		return
	}

	switch class {
	case engine.ClassPing:
		respondJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "pong",
		})

	case engine.ClassIgnored:
		respondJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": fmt.Sprintf("ignored %s event", eventType),
		})

	case engine.ClassStarCreated:
		h.logger.Info("star event received",
			"owner", star.Owner,
			"repo", star.Repo,
			"stargazer", star.Stargazer,
		)

		results, err := h.notifier.Notify(r.Context(), star)
		if err != nil {
			h.logger.Error("notification fanout failed",
				"owner", star.Owner,
				"repo", star.Repo,
				"error", err,
			)
			respondError(w, http.StatusInternalServerError, "failed to notify subscribers")
			return
		}

		respondJSON(w, http.StatusOK, webhookResponse{
			Success:      true,
			Message:      fmt.Sprintf("processed star event for %s", star.FullName),
			EmailResults: results,
		})
	}
}
