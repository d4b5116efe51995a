package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"folio-backend/internal/middleware"
	"folio-backend/internal/models"
	"folio-backend/internal/services"
	"folio-backend/internal/sse"
)

const maxReplyBody = 1 << 20

// Callbacks receive the progress of one Send. OnChunk may fire any number of
// times; then exactly one of OnComplete or OnError fires.
type Callbacks struct {
	OnChunk    func(chunk, accumulated string)
	OnComplete func(content string)
	OnError    func(message string)
}

// errNoContent means the stream finished without anything worth showing.
var errNoContent = errors.New("chat stream ended without content")

// gatewayError is an error reply from the gateway. Its message has already
// been classified server-side.
type gatewayError struct {
	status  int
	message string
}

func (e *gatewayError) Error() string {
	return fmt.Sprintf("chat gateway returned %d: %s", e.status, e.message)
}

// statusError is a non-2xx reply without a usable error body.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("chat endpoint returned HTTP %d", e.status)
}

// describe turns any failure into the message shown to the visitor.
func describe(err error) string {
	var ge *gatewayError
	var se *statusError
	switch {
	case errors.As(err, &ge):
		return services.Classify(ge.status, ge.message)
	case errors.As(err, &se):
		return services.Classify(se.status, "")
	}
	return services.ClassifyError(err)
}

type Option func(*Orchestrator)

func WithHTTPClient(c *http.Client) Option {
	return func(o *Orchestrator) { o.httpClient = c }
}

// WithRelevanceFilter rejects off-topic messages locally, before any
// network call.
func WithRelevanceFilter(f *services.RelevanceFilter) Option {
	return func(o *Orchestrator) { o.filter = f }
}

// Orchestrator drives one visitor turn against the chat gateway: stream
// first, then at most one single-shot call.
type Orchestrator struct {
	endpoint   string
	httpClient *http.Client
	filter     *services.RelevanceFilter
}

// New returns an orchestrator for the chat endpoint URL, for example
// http://localhost:8080/api/v1/chat.
func New(endpoint string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		endpoint:   endpoint,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// turn is one Send. It guarantees a single terminal callback.
type turn struct {
	id       string
	logger   *slog.Logger
	cb       Callbacks
	finished bool
}

func (t *turn) chunk(chunk, accumulated string) {
	if !t.finished && t.cb.OnChunk != nil {
		t.cb.OnChunk(chunk, accumulated)
	}
}

func (t *turn) complete(content string) {
	if t.finished {
		return
	}
	t.finished = true
	if t.cb.OnComplete != nil {
		t.cb.OnComplete(content)
	}
}

func (t *turn) fail(message string) {
	if t.finished {
		return
	}
	t.finished = true
	if t.cb.OnError != nil {
		t.cb.OnError(message)
	}
}

// Send delivers userMessage with the prior history and reports the reply
// through cb. It blocks until a terminal callback has fired.
func (o *Orchestrator) Send(ctx context.Context, userMessage string, cb Callbacks, history []models.ChatMessage) {
	id := uuid.NewString()
	t := &turn{id: id, logger: slog.With("request_id", id), cb: cb}

	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("Chat orchestrator panic", "panic", r)
			t.fail(services.CategoryUnexpected.Message())
		}
	}()

	if o.filter != nil {
		if refusal, rejected := o.filter.Validate(userMessage); rejected {
			t.complete(refusal)
			return
		}
	}

	body, err := json.Marshal(models.ChatRequest{
		UserMessage:         &userMessage,
		ConversationHistory: services.PruneHistory(history),
	})
	if err != nil {
		t.fail(describe(err))
		return
	}

	err = o.stream(ctx, t, body)
	if err == nil {
		return
	}
	t.logger.Warn("Chat stream failed, falling back", "error", err)

	content, err := o.single(ctx, t, body)
	if err != nil {
		t.logger.Error("Chat fallback failed", "error", err)
		t.fail(describe(err))
		return
	}
	t.complete(content)
}

// stream makes the streaming call. A nil return means a terminal callback
// has fired; any error asks for the fallback.
func (o *Orchestrator) stream(ctx context.Context, t *turn, body []byte) error {
	resp, err := o.post(ctx, t, o.endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !isEventStream(resp) {
		content, err := decodeReply(resp)
		var ge *gatewayError
		if errors.As(err, &ge) {
			t.fail(describe(ge))
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(content) == "" {
			return errNoContent
		}
		t.complete(content)
		return nil
	}

	var acc string
	scanner := sse.NewScanner(resp.Body)
	for scanner.Next() {
		data := strings.TrimSpace(scanner.Event().Data)
		if data == "" || data == "[DONE]" {
			continue
		}
		var ev models.StreamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			t.logger.Debug("Skipping unparsable chat event", "error", err)
			continue
		}

		switch {
		case ev.Error != "":
			t.fail(services.Classify(0, ev.Error))
			return nil
		case ev.Done:
			if ev.Content != "" {
				acc = ev.Content
			}
			if strings.TrimSpace(acc) == "" {
				return errNoContent
			}
			t.complete(acc)
			return nil
		case ev.Chunk != "":
			if ev.Accumulated != "" {
				acc = ev.Accumulated
			} else {
				acc += ev.Chunk
			}
			t.chunk(ev.Chunk, acc)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading chat stream: %w", err)
	}

	// no done event; keep whatever arrived
	if strings.TrimSpace(acc) == "" {
		return errNoContent
	}
	t.complete(acc)
	return nil
}

// single makes the non-streaming call. Empty content becomes the
// placeholder apology.
func (o *Orchestrator) single(ctx context.Context, t *turn, body []byte) (string, error) {
	u, err := url.Parse(o.endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing chat endpoint: %w", err)
	}
	q := u.Query()
	q.Set("stream", "false")
	u.RawQuery = q.Encode()

	resp, err := o.post(ctx, t, u.String(), body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	content, err := decodeReply(resp)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return services.FallbackPlaceholder, nil
	}
	return content, nil
}

// post sends body with the turn's request ID so both calls of a turn share it
// in the server logs.
func (o *Orchestrator) post(ctx context.Context, t *turn, target string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream, application/json")
	req.Header.Set(middleware.RequestIDHeader, t.id)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling chat endpoint: %w", err)
	}
	t.logger.Debug("Chat endpoint responded", "url", target, "status", resp.StatusCode)
	return resp, nil
}

func isEventStream(resp *http.Response) bool {
	mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return err == nil && mt == "text/event-stream"
}

// decodeReply reads a single JSON reply. Error bodies from the gateway come
// back as *gatewayError, other non-2xx replies as *statusError.
func decodeReply(resp *http.Response) (string, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBody))
	if err != nil {
		return "", fmt.Errorf("reading chat reply: %w", err)
	}

	var out models.ChatResponse
	jsonErr := json.Unmarshal(data, &out)
	switch {
	case jsonErr == nil && out.Error != "":
		return "", &gatewayError{status: resp.StatusCode, message: out.Error}
	case resp.StatusCode >= http.StatusBadRequest:
		return "", &statusError{status: resp.StatusCode}
	case jsonErr != nil:
		return "", fmt.Errorf("decoding chat reply: %w", jsonErr)
	}
	return out.Content, nil
}
