package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"folio-backend/internal/models"
	"folio-backend/internal/services"
	"folio-backend/internal/sse"
)

// maxChatBody bounds the request body, history included.
const maxChatBody = 1 << 20

type ChatHandler struct {
	gateway *services.Gateway
}

func NewChatHandler(gateway *services.Gateway) *ChatHandler {
	return &ChatHandler{gateway: gateway}
}

// sseSink adapts an SSE writer to the gateway's event sink.
type sseSink struct {
	w *sse.Writer
}

func (s *sseSink) Send(ev models.StreamEvent) error {
	return s.w.Send(ev)
}

// Chat answers one visitor message. The reply streams as server-sent events
// unless ?stream=false is set or the connection cannot flush.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxChatBody)).Decode(&req); err != nil {
		slog.Debug("Invalid chat request body", "error", err, "request_id", chimiddleware.GetReqID(r.Context()))
		writeJSON(w, http.StatusBadRequest, models.ChatResponse{Error: services.MissingMessageError})
		return
	}
	req.SkipStreaming = r.URL.Query().Get("stream") == "false"

	var sink services.EventSink
	if !req.SkipStreaming {
		sw, err := sse.NewWriter(w)
		if errors.Is(err, sse.ErrStreamingUnsupported) {
			req.SkipStreaming = true
		} else {
			sink = &sseSink{w: sw}
		}
	}

	reply := h.gateway.Reply(r.Context(), req, sink)
	if reply.Streamed {
		return
	}
	if reply.Error != "" {
		writeJSON(w, reply.Status, models.ChatResponse{Error: reply.Error})
		return
	}
	writeJSON(w, reply.Status, models.ChatResponse{Content: reply.Content})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
