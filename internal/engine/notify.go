package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starnotify/starnotify/internal/domain"
	"github.com/starnotify/starnotify/internal/mailer"
	"github.com/starnotify/starnotify/internal/store"
	ws "github.com/starnotify/starnotify/internal/websocket"
)

// Notifier fans a star event out to every matching subscriber by email
// and reports each delivery independently.
type Notifier struct {
	store  store.Store
	mailer mailer.Mailer
	hub    *ws.Hub
	logger *slog.Logger

	// recipient, when set, enables single-recipient mode: every star
	// event notifies this address and the store is not consulted.
	recipient string
}

func NewNotifier(st store.Store, m mailer.Mailer, hub *ws.Hub, logger *slog.Logger, recipient string) *Notifier {
	return &Notifier{
		store:     st,
		mailer:    m,
		hub:       hub,
		logger:    logger,
		recipient: recipient,
	}
}

// Notify matches active subscriptions for the starred repository and
// sends one notification email per recipient, in parallel, joining
// before returning. A failed send is reported in its result, never as
// an error; the only error is a store read failure.
func (n *Notifier) Notify(ctx context.Context, star *StarContext) ([]domain.EmailResult, error) {
	var recipients []string
	if n.recipient != "" {
		recipients = []string{n.recipient}
	} else {
		subs, err := n.store.ListActive(ctx, star.Owner, star.Repo)
		if err != nil {
			return nil, fmt.Errorf("finding subscribers: %w", err)
		}
		for _, sub := range subs {
			recipients = append(recipients, sub.Email)
		}
	}

	if len(recipients) == 0 {
		n.logger.Info("no matching subscribers",
			"owner", star.Owner,
			"repo", star.Repo,
			"stargazer", star.Stargazer,
		)
		return []domain.EmailResult{}, nil
	}

	subject, body, err := mailer.StarNotification(star.FullName, star.Stargazer, star.StargazerURL, star.StarCount, time.Now())
	if err != nil {
		return nil, err
	}

	// One goroutine per recipient; a failure for one recipient must not
	// block delivery to the others.
	results := make([]domain.EmailResult, len(recipients))
	var wg sync.WaitGroup
	for i, email := range recipients {
		wg.Add(1)
		go func(i int, email string) {
			defer wg.Done()
			if err := n.mailer.Send(ctx, email, subject, body); err != nil {
				results[i] = domain.EmailResult{Email: email, Error: err.Error()}
				return
			}
			results[i] = domain.EmailResult{Email: email, Success: true}
		}(i, email)
	}
	wg.Wait()

	for _, res := range results {
		n.report(star, res)
	}

	return results, nil
}

func (n *Notifier) report(star *StarContext, res domain.EmailResult) {
	if res.Success {
		n.logger.Info("notification sent",
			"owner", star.Owner,
			"repo", star.Repo,
			"email", res.Email,
		)
	} else {
		n.logger.Warn("notification failed",
			"owner", star.Owner,
			"repo", star.Repo,
			"email", res.Email,
			"error", res.Error,
		)
	}

	if n.hub == nil {
		return
	}

	eventType := "email_sent"
	if !res.Success {
		eventType = "email_failed"
	}
	n.hub.Broadcast(ws.NotificationEvent{
		Type:      eventType,
		Repo:      star.FullName,
		Stargazer: star.Stargazer,
		Recipient: res.Email,
		Error:     res.Error,
		Timestamp: time.Now(),
	})
}
