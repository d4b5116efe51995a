package services

import (
	"context"
	"fmt"
	"strings"

	"folio-backend/internal/models"
)

// Provider is an LLM backend reachable through a streaming and a
// single-shot transport.
type Provider interface {
	// OpenStream starts a streaming generation. A non-2xx reply is returned
	// as a *ProviderError.
	OpenStream(ctx context.Context, req *models.GenerateRequest) (UnitStream, error)
	// Generate performs one non-streaming generation.
	Generate(ctx context.Context, req *models.GenerateRequest) (Unit, error)
}

// UnitStream yields decoded provider units until io.EOF.
type UnitStream interface {
	Next() (Unit, error)
	Close() error
}

// Unit is one decoded provider response object. Err is set when the object
// described an error or a blocked generation.
type Unit struct {
	Text string
	Err  *ProviderError
}

// BlockKind tells a content-filter termination apart from other errors.
type BlockKind int

const (
	BlockNone BlockKind = iota
	BlockSafety
	BlockPolicy
)

// ProviderError is a failure reported by the provider itself, either as a
// non-2xx reply or as an error/block marker inside a response body.
type ProviderError struct {
	Status  int
	Message string
	Block   BlockKind
}

func (e *ProviderError) Error() string {
	switch e.Block {
	case BlockSafety:
		return "gemini: blocked by safety filters: " + e.Message
	case BlockPolicy:
		return "gemini: blocked by content policy: " + e.Message
	}
	if e.Status != 0 {
		return fmt.Sprintf("gemini: status %d: %s", e.Status, e.Message)
	}
	return "gemini: " + e.Message
}

func (e *ProviderError) Category() ErrorCategory {
	switch e.Block {
	case BlockSafety:
		return CategorySafetyBlocked
	case BlockPolicy:
		return CategoryPolicyBlocked
	}
	return Categorize(e.Status, e.Message)
}

// generateResponse is the subset of a Gemini response object the gateway
// reads. Streamed units share the same shape.
type generateResponse struct {
	Candidates     []responseCandidate `json:"candidates"`
	PromptFeedback *promptFeedback     `json:"promptFeedback"`
	Text           string              `json:"text"`
	Error          *apiErrorBody       `json:"error"`
}

type responseCandidate struct {
	Content *struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
	Delta *struct {
		Text string `json:"text"`
	} `json:"delta"`
	FinishReason string `json:"finishReason"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason"`
}

type apiErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// blockKindFor maps a Gemini finish or block reason to a block kind.
func blockKindFor(reason string) BlockKind {
	switch strings.ToUpper(reason) {
	case "SAFETY", "IMAGE_SAFETY":
		return BlockSafety
	case "PROHIBITED_CONTENT", "BLOCKLIST", "SPII", "RECITATION", "OTHER":
		return BlockPolicy
	}
	return BlockNone
}

// text pulls the delta from the first populated known field path.
func (r *generateResponse) text() string {
	if len(r.Candidates) > 0 {
		c := r.Candidates[0]
		if c.Content != nil && len(c.Content.Parts) > 0 {
			var sb strings.Builder
			for _, p := range c.Content.Parts {
				sb.WriteString(p.Text)
			}
			if sb.Len() > 0 {
				return sb.String()
			}
		}
		if c.Delta != nil && c.Delta.Text != "" {
			return c.Delta.Text
		}
	}
	return r.Text
}

func (r *generateResponse) unit() Unit {
	if r.Error != nil {
		msg := r.Error.Message
		if msg == "" {
			msg = r.Error.Status
		}
		return Unit{Err: &ProviderError{Status: r.Error.Code, Message: msg}}
	}

	if r.PromptFeedback != nil {
		if kind := blockKindFor(r.PromptFeedback.BlockReason); kind != BlockNone {
			return Unit{Err: &ProviderError{Block: kind, Message: "prompt blocked: " + r.PromptFeedback.BlockReason}}
		}
	}

	u := Unit{Text: r.text()}
	if len(r.Candidates) > 0 {
		reason := r.Candidates[0].FinishReason
		if kind := blockKindFor(reason); kind != BlockNone {
			u.Err = &ProviderError{Block: kind, Message: "finish reason " + reason}
		}
	}
	return u
}
