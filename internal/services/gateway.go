package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"folio-backend/internal/models"
)

// FallbackPlaceholder replaces an empty single-shot reply.
const FallbackPlaceholder = "I apologize, but I'm having trouble connecting right now. Please try again later."

// MissingMessageError is returned when a request carries no usable message.
const MissingMessageError = "**Invalid Request**: userMessage is required and must be a non-empty string."

// EventSink receives normalized stream events in order. The first Send
// commits the response to streaming.
type EventSink interface {
	Send(ev models.StreamEvent) error
}

// Reply is the outcome of one chat request. When Streamed is set, the
// result has already been delivered through the sink and Status is 200.
type Reply struct {
	Status   int
	Content  string
	Error    string
	Streamed bool
}

type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeRetryable
	outcomeTerminal
)

// outcome is the tagged result of one transport step.
type outcome struct {
	kind  outcomeKind
	reply Reply
	err   error
}

type step struct {
	name string
	run  func(ctx context.Context, req *models.GenerateRequest, a *attempt) outcome
}

// attempt carries the per-request delivery state shared by the steps.
type attempt struct {
	sink     EventSink
	streamed bool
	fallback bool
	logger   *slog.Logger
}

func (a *attempt) send(ev models.StreamEvent) error {
	if a.sink == nil {
		return nil
	}
	a.streamed = true
	return a.sink.Send(ev)
}

// complete finishes with content. Streaming steps always emit done; other
// steps only when the stream is already open.
func (a *attempt) complete(content string, stream bool) Reply {
	if stream || a.streamed {
		if err := a.send(models.DoneEvent(content)); err != nil {
			a.logger.Debug("Failed to deliver done event", "error", err)
		}
		return Reply{Status: http.StatusOK, Content: content, Streamed: true}
	}
	return Reply{Status: http.StatusOK, Content: content}
}

// fail finishes with a classified error.
func (a *attempt) fail(status int, message string, stream bool) Reply {
	if stream || a.streamed {
		if err := a.send(models.ErrorEvent(message)); err != nil {
			a.logger.Debug("Failed to deliver error event", "error", err)
		}
		return Reply{Status: http.StatusOK, Error: message, Streamed: true}
	}
	return Reply{Status: status, Error: message}
}

// Gateway forwards chat requests to the provider, streaming first and
// falling back to a single-shot call.
type Gateway struct {
	provider   Provider
	persona    *PersonaBuilder
	filter     *RelevanceFilter
	generation models.GenerationConfig
	slots      chan struct{}
}

// NewGateway builds a gateway. A nil provider means no credential is
// configured; every request then fails with a configuration error.
// maxConcurrent bounds simultaneous upstream calls; zero means unbounded.
func NewGateway(provider Provider, persona *PersonaBuilder, filter *RelevanceFilter, generation models.GenerationConfig, maxConcurrent int) *Gateway {
	g := &Gateway{
		provider:   provider,
		persona:    persona,
		filter:     filter,
		generation: generation,
	}
	if maxConcurrent > 0 {
		g.slots = make(chan struct{}, maxConcurrent)
		for i := 0; i < maxConcurrent; i++ {
			g.slots <- struct{}{}
		}
	}
	return g
}

// acquire blocks until an upstream slot is free.
func (g *Gateway) acquire(ctx context.Context) error {
	if g.slots == nil {
		return nil
	}
	select {
	case <-g.slots:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for upstream slot: %w", ctx.Err())
	}
}

func (g *Gateway) release() {
	if g.slots != nil {
		g.slots <- struct{}{}
	}
}

// Reply runs one chat request. sink may be nil for callers that only take a
// single reply. It never panics.
func (g *Gateway) Reply(ctx context.Context, req models.ChatRequest, sink EventSink) (reply Reply) {
	a := &attempt{
		sink:   sink,
		logger: slog.With("request_id", middleware.GetReqID(ctx)),
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Chat gateway panic", "panic", r)
			reply = a.fail(http.StatusInternalServerError, CategoryUnexpected.Message(), false)
		}
	}()

	if g.provider == nil {
		return Reply{Status: http.StatusInternalServerError, Error: CategoryConfiguration.Message()}
	}

	message := req.Message()
	if strings.TrimSpace(message) == "" {
		return Reply{Status: http.StatusBadRequest, Error: MissingMessageError}
	}

	if g.filter != nil {
		if refusal, rejected := g.filter.Validate(message); rejected {
			a.logger.Info("Chat message rejected by relevance filter")
			return Reply{Status: http.StatusOK, Content: refusal}
		}
	}

	history := PruneHistory(SanitizeHistory(req.ConversationHistory))
	envelope := BuildRequest(message, g.persona.Context(), g.persona.Name(), history, len(history) == 0, g.generation)

	if err := g.acquire(ctx); err != nil {
		c := CategorizeError(err)
		return a.fail(c.Status(), c.Message(), false)
	}
	defer g.release()

	steps := []step{
		{name: "stream", run: g.streamStep},
		{name: "generate", run: g.generateStep},
	}
	if req.SkipStreaming || sink == nil {
		steps = steps[1:]
	}

	var lastErr error
	for _, s := range steps {
		out := s.run(ctx, envelope, a)
		switch out.kind {
		case outcomeSuccess, outcomeTerminal:
			return out.reply
		case outcomeRetryable:
			a.logger.Warn("Chat transport failed, falling back", "step", s.name, "error", out.err)
			lastErr = out.err
			a.fallback = true
		}
	}

	return a.fail(http.StatusBadGateway, fallbackFailureMessage(CategorizeError(lastErr).Message()), false)
}

// streamStep opens the streaming transport and relays every unit. Failures
// that another transport cannot fix are terminal; the rest are retryable.
func (g *Gateway) streamStep(ctx context.Context, req *models.GenerateRequest, a *attempt) outcome {
	stream, err := g.provider.OpenStream(ctx, req)
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) && pe.Category().Terminal() {
			a.logger.Warn("Gemini rejected stream", "status", pe.Status, "error", pe.Message)
			return outcome{kind: outcomeTerminal, reply: a.fail(upstreamStatus(err, pe.Category()), pe.Category().Message(), false)}
		}
		return outcome{kind: outcomeRetryable, err: err}
	}
	defer stream.Close()

	var acc strings.Builder
	for {
		unit, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return outcome{kind: outcomeRetryable, err: fmt.Errorf("stream interrupted after %d bytes: %w", acc.Len(), err)}
		}

		if unit.Text != "" {
			acc.WriteString(unit.Text)
			if err := a.send(models.ChunkEvent(unit.Text, acc.String())); err != nil {
				a.logger.Info("Client went away mid-stream", "error", err)
				return outcome{kind: outcomeTerminal, reply: Reply{Status: http.StatusOK, Content: acc.String(), Streamed: true}}
			}
		}

		if unit.Err != nil {
			a.logger.Warn("Gemini stream ended with error", "error", unit.Err)
			return outcome{kind: outcomeTerminal, reply: a.fail(http.StatusOK, unit.Err.Category().Message(), true)}
		}
	}

	return outcome{kind: outcomeSuccess, reply: a.complete(acc.String(), true)}
}

// generateStep makes one single-shot call. Every failure here is terminal.
func (g *Gateway) generateStep(ctx context.Context, req *models.GenerateRequest, a *attempt) outcome {
	unit, err := g.provider.Generate(ctx, req)
	if err != nil {
		a.logger.Error("Gemini generate failed", "error", err, "fallback", a.fallback)
		c := CategorizeError(err)
		msg := c.Message()
		if a.fallback {
			msg = fallbackFailureMessage(msg)
		}
		return outcome{kind: outcomeTerminal, reply: a.fail(upstreamStatus(err, c), msg, false)}
	}

	if unit.Err != nil {
		a.logger.Warn("Gemini generate returned error payload", "error", unit.Err)
		c := unit.Err.Category()
		return outcome{kind: outcomeTerminal, reply: a.fail(upstreamStatus(unit.Err, c), c.Message(), false)}
	}

	content := unit.Text
	if strings.TrimSpace(content) == "" {
		content = FallbackPlaceholder
	}
	return outcome{kind: outcomeSuccess, reply: a.complete(content, false)}
}

// upstreamStatus passes provider error statuses through and falls back to
// the category's status otherwise.
func upstreamStatus(err error, c ErrorCategory) int {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Status >= 400 && pe.Block == BlockNone {
		return pe.Status
	}
	return c.Status()
}

func fallbackFailureMessage(msg string) string {
	if strings.Contains(msg, ContactSuggestion) {
		return msg
	}
	return msg + " " + ContactSuggestion
}
