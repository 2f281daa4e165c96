package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/starnotify/starnotify/internal/api"
	"github.com/starnotify/starnotify/internal/config"
	"github.com/starnotify/starnotify/internal/engine"
	"github.com/starnotify/starnotify/internal/mailer"
	"github.com/starnotify/starnotify/internal/store"
	ws "github.com/starnotify/starnotify/internal/websocket"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	st, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize store", "error", err, "backend", cfg.StoreBackend)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("store ready", "backend", cfg.StoreBackend, "fallback_memory", cfg.FallbackMemory)

	smtp := mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom, logger)

	hub := ws.NewHub(logger)
	go hub.Run()

	notifier := engine.NewNotifier(st, smtp, hub, logger, cfg.RecipientEmail)

	router := api.NewRouter(
		api.NewSubscriptionHandler(st, smtp, cfg.WebhookSecret, cfg.AppURL, logger),
		api.NewWebhookHandler(notifier, cfg.WebhookSecret, logger),
		api.NewAdminHandler(st, cfg.AdminAPIKey, logger),
		hub,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// newStore builds the configured storage backend, wrapped in the
// in-memory fallback when degraded mode is enabled.
func newStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	var primary store.Store

	switch cfg.StoreBackend {
	case config.StorePostgres:
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.RunMigrations(ctx, "migrations"); err != nil {
			return nil, err
		}
		logger.Info("database migrations applied")
		primary = pg
	case config.StoreRedis:
		rs, err := store.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		primary = rs
	default:
		primary = store.NewMemory()
	}

	if cfg.FallbackMemory && cfg.StoreBackend != config.StoreMemory {
		return store.NewFallback(primary, logger), nil
	}
	return primary, nil
}
