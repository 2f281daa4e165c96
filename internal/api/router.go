package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	ws "github.com/starnotify/starnotify/internal/websocket"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(subscriptions *SubscriptionHandler, webhook *WebhookHandler, admin *AdminHandler, hub *ws.Hub) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	r.Use(corsMiddleware)

	// Live delivery stream for admin clients
	r.Get("/ws", hub.HandleWebSocket)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthHandler())

		r.Post("/webhook", webhook.Handle)
		r.Post("/subscribe", subscriptions.Subscribe)
		r.Post("/verify", subscriptions.Verify)

		r.Get("/admin/subscriptions", admin.Subscriptions)
	})

	return r
}

// corsMiddleware adds CORS headers for the subscription form frontend.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, x-api-key")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
