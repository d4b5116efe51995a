package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio-backend/internal/handlers"
	"folio-backend/internal/middleware"
	"folio-backend/internal/models"
	"folio-backend/internal/profile"
	"folio-backend/internal/services"
	"folio-backend/internal/websocket"
)

func newTestRouter(t *testing.T, limiter middleware.Limiter) http.Handler {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	}))
	t.Cleanup(upstream.Close)

	prof := profile.Default()
	client := services.NewGeminiClient("test-key", "gemini-test", time.Second, services.WithBaseURL(upstream.URL))
	gw := services.NewGateway(client, services.NewPersonaBuilder(prof), services.NewRelevanceFilter(prof), services.DefaultGenerationConfig(), 2)
	return New(handlers.NewChatHandler(gw), websocket.NewHub(gw, "*"), limiter, "http://localhost:3000")
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestChatRoutes(t *testing.T) {
	h := newTestRouter(t, nil)

	for _, path := range []string{"/api/v1/chat?stream=false", "/api/chat?stream=false"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"userMessage":"hello"}`)))

		require.Equal(t, http.StatusOK, rec.Code, path)
		var resp models.ChatResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "ok", resp.Content)
	}
}

func TestChatRateLimited(t *testing.T) {
	limiter := middleware.NewMemoryLimiter(1, time.Hour)
	defer limiter.Close()
	h := newTestRouter(t, limiter)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat?stream=false", strings.NewReader(`{"userMessage":"hello"}`))
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rate Limit Exceeded")
}

func TestUnknownRoute(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/summaries", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
