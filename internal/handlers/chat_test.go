package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio-backend/internal/models"
	"folio-backend/internal/profile"
	"folio-backend/internal/services"
	"folio-backend/internal/sse"
)

// fakeGemini serves both generation endpoints with canned bodies.
type fakeGemini struct {
	streamStatus int
	streamBody   string
	generateBody string
	streamHits   atomic.Int32
	generateHits atomic.Int32
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasSuffix(r.URL.Path, ":streamGenerateContent"):
		f.streamHits.Add(1)
		if f.streamStatus != 0 {
			w.WriteHeader(f.streamStatus)
		}
		io.WriteString(w, f.streamBody)
	case strings.HasSuffix(r.URL.Path, ":generateContent"):
		f.generateHits.Add(1)
		io.WriteString(w, f.generateBody)
	default:
		http.NotFound(w, r)
	}
}

func newChatHandler(t *testing.T, upstream http.Handler) *ChatHandler {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	prof := profile.Default()
	client := services.NewGeminiClient("test-key", "gemini-test", time.Second, services.WithBaseURL(srv.URL))
	gw := services.NewGateway(client, services.NewPersonaBuilder(prof), services.NewRelevanceFilter(prof), services.DefaultGenerationConfig(), 4)
	return NewChatHandler(gw)
}

func postChat(h http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func readEvents(t *testing.T, body io.Reader) []map[string]any {
	t.Helper()
	var out []map[string]any
	scanner := sse.NewScanner(body)
	for scanner.Next() {
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(scanner.Event().Data), &ev))
		out = append(out, ev)
	}
	require.NoError(t, scanner.Err())
	return out
}

func TestChat_StreamsEvents(t *testing.T) {
	up := &fakeGemini{streamBody: `[{"candidates":[{"content":{"parts":[{"text":"Hi! "}]}}]},` +
		`{"candidates":[{"content":{"parts":[{"text":"I'm Patrick."}]},"finishReason":"STOP"}]}]`}
	h := newChatHandler(t, up)

	rec := postChat(h.Chat, "/api/v1/chat", `{"userMessage":"hello"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	events := readEvents(t, rec.Body)
	require.Len(t, events, 3)
	assert.Equal(t, map[string]any{"chunk": "Hi! ", "accumulated": "Hi! "}, events[0])
	assert.Equal(t, map[string]any{"chunk": "I'm Patrick.", "accumulated": "Hi! I'm Patrick."}, events[1])
	assert.Equal(t, map[string]any{"done": true, "content": "Hi! I'm Patrick."}, events[2])
	assert.Zero(t, up.generateHits.Load())
}

func TestChat_InvalidBody(t *testing.T) {
	h := newChatHandler(t, &fakeGemini{})

	for _, body := range []string{`not json`, `{"userMessage": 42}`, `{}`, `{"userMessage":"  "}`} {
		rec := postChat(h.Chat, "/api/v1/chat", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)

		var resp models.ChatResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, services.MissingMessageError, resp.Error)
	}
}

func TestChat_MissingCredential(t *testing.T) {
	gw := services.NewGateway(nil, services.NewPersonaBuilder(profile.Default()), nil, services.DefaultGenerationConfig(), 0)
	h := NewChatHandler(gw)

	rec := postChat(h.Chat, "/api/v1/chat", `{"userMessage":"hello"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Configuration Error")
}

func TestChat_RefusalIsPlainJSON(t *testing.T) {
	up := &fakeGemini{}
	h := newChatHandler(t, up)

	rec := postChat(h.Chat, "/api/v1/chat", `{"userMessage":"What is React?"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp models.ChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, services.RefusalMessage, resp.Content)
	assert.Zero(t, up.streamHits.Load()+up.generateHits.Load())
}

func TestChat_AuthErrorIsTerminal(t *testing.T) {
	up := &fakeGemini{
		streamStatus: http.StatusForbidden,
		streamBody:   `{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`,
	}
	h := newChatHandler(t, up)

	rec := postChat(h.Chat, "/api/v1/chat", `{"userMessage":"hello"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var resp models.ChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, services.CategoryAuthentication.Message(), resp.Error)
	assert.Zero(t, up.generateHits.Load())
}

func TestChat_NonStreamingQuery(t *testing.T) {
	up := &fakeGemini{generateBody: `{"candidates":[{"content":{"parts":[{"text":"Single shot."}]}}]}`}
	h := newChatHandler(t, up)

	rec := postChat(h.Chat, "/api/v1/chat?stream=false", `{"userMessage":"hello","conversationHistory":[]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp models.ChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Single shot.", resp.Content)
	assert.Zero(t, up.streamHits.Load())
}

func TestChat_SafetyBlockEmitsErrorEvent(t *testing.T) {
	up := &fakeGemini{streamBody: `[{"candidates":[{"finishReason":"SAFETY"}]}]`}
	h := newChatHandler(t, up)

	rec := postChat(h.Chat, "/api/v1/chat", `{"userMessage":"hello"}`)

	events := readEvents(t, rec.Body)
	require.Len(t, events, 1)
	assert.Equal(t, services.CategorySafetyBlocked.Message(), events[0]["error"])
}
