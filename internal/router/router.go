package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"folio-backend/internal/handlers"
	"folio-backend/internal/middleware"
	"folio-backend/internal/services"
	"folio-backend/internal/websocket"
)

func New(
	chatHandler *handlers.ChatHandler,
	wsHub *websocket.Hub,
	chatLimiter middleware.Limiter,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	limited := func(r chi.Router) {
		if chatLimiter != nil {
			r.Use(middleware.RateLimit(chatLimiter, services.CategoryRateLimit.Message()))
		}
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/chat", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				limited(r)
				r.Post("/", chatHandler.Chat)
			})

			// ──── WebSocket ────
			r.Get("/ws", wsHub.HandleWebSocket)
		})
	})

	// Legacy path still used by deployed widgets.
	r.Group(func(r chi.Router) {
		limited(r)
		r.Post("/api/chat", chatHandler.Chat)
	})

	return r
}
