package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"folio-backend/internal/config"
	"folio-backend/internal/database"
	"folio-backend/internal/handlers"
	"folio-backend/internal/middleware"
	"folio-backend/internal/models"
	"folio-backend/internal/profile"
	"folio-backend/internal/router"
	"folio-backend/internal/services"
	"folio-backend/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		slog.Error("✗ Folio backend stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	setupLogging(cfg)
	slog.Info("🚀 Starting Folio Backend...", "env", cfg.Env)
	slog.Info("✓ Environment variables loaded")

	// ──── Step 2: Load Profile ────
	prof, err := profile.Load(cfg.ProfilePath)
	if err != nil {
		return fmt.Errorf("profile load failed: %w", err)
	}
	persona := services.NewPersonaBuilder(prof)
	filter := services.NewRelevanceFilter(prof)
	slog.Info("✓ Profile loaded", "name", prof.Name)

	// ──── Step 3: Initialize Gemini Provider ────
	generation := models.GenerationConfig{
		Temperature:     cfg.GeminiTemperature,
		MaxOutputTokens: cfg.GeminiMaxOutputTokens,
	}
	provider, closeProvider, err := newProvider(cfg, generation)
	if err != nil {
		return fmt.Errorf("gemini initialization failed: %w", err)
	}
	defer closeProvider()
	gateway := services.NewGateway(provider, persona, filter, generation, cfg.GeminiConcurrentReqs)

	// ──── Step 4: Initialize Rate Limiter ────
	limiter, closeLimiter, err := newLimiter(cfg)
	if err != nil {
		return fmt.Errorf("rate limiter initialization failed: %w", err)
	}
	defer closeLimiter()

	// ──── Step 5: Start WebSocket Hub ────
	wsHub := websocket.NewHub(gateway, cfg.FrontendURL)
	slog.Info("✓ WebSocket hub started")

	// ──── Step 6: Start HTTP Server ────
	r := router.New(handlers.NewChatHandler(gateway), wsHub, limiter, cfg.FrontendURL)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// long enough for a full streamed reply
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info(fmt.Sprintf("✓ Folio Backend ready on http://localhost:%s", cfg.Port))
		slog.Info(fmt.Sprintf("  API: http://localhost:%s/api/v1/chat", cfg.Port))
		slog.Info(fmt.Sprintf("  WS:  ws://localhost:%s/api/v1/chat/ws", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down...", "websockets", wsHub.Count())
		wsHub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// newProvider picks the Gemini transport. Without an API key it returns a
// nil provider and the gateway answers every chat with a configuration error.
func newProvider(cfg *config.Config, generation models.GenerationConfig) (services.Provider, func(), error) {
	noop := func() {}
	if cfg.GeminiAPIKey == "" {
		slog.Warn("⚠ GEMINI_API_KEY not set, chat requests will fail with a configuration error")
		return nil, noop, nil
	}

	if cfg.GeminiTransport == "sdk" {
		p, err := services.NewSDKProvider(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, generation)
		if err != nil {
			return nil, noop, err
		}
		slog.Info("✓ Gemini SDK client initialized", "model", cfg.GeminiModel)
		return p, p.Close, nil
	}

	opts := []services.GeminiOption{services.WithBaseURL(cfg.GeminiBaseURL)}
	if cfg.GeminiStreamAlt != "" {
		opts = append(opts, services.WithStreamAlt(cfg.GeminiStreamAlt))
	}
	slog.Info("✓ Gemini REST client initialized", "model", cfg.GeminiModel)
	return services.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout, opts...), noop, nil
}

// newLimiter prefers the shared Redis limiter when REDIS_URL is set. A
// non-positive CHAT_RATE_LIMIT disables limiting.
func newLimiter(cfg *config.Config) (middleware.Limiter, func(), error) {
	noop := func() {}
	if cfg.ChatRateLimit <= 0 {
		slog.Info("✓ Chat rate limiting disabled")
		return nil, noop, nil
	}

	if cfg.RedisURL != "" {
		client, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		slog.Info("✓ Redis connected, using shared rate limiter", "limit", cfg.ChatRateLimit, "window", cfg.ChatRateWindow)
		return middleware.NewRedisLimiter(client, cfg.ChatRateLimit, cfg.ChatRateWindow), func() { client.Close() }, nil
	}

	rl := middleware.NewMemoryLimiter(cfg.ChatRateLimit, cfg.ChatRateWindow)
	slog.Info("✓ In-memory rate limiter ready", "limit", cfg.ChatRateLimit, "window", cfg.ChatRateWindow)
	return rl, rl.Close, nil
}
