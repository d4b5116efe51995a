package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"folio-backend/internal/models"
)

// SDKProvider serves the same contract as GeminiClient through the official
// Go SDK.
type SDKProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewSDKProvider(ctx context.Context, apiKey, modelName string, cfg models.GenerationConfig) (*SDKProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(float32(cfg.Temperature))
	model.SetMaxOutputTokens(int32(cfg.MaxOutputTokens))

	return &SDKProvider{client: client, model: model}, nil
}

func (p *SDKProvider) Close() {
	p.client.Close()
}

// session loads everything but the last entry into a chat session and
// returns the parts of the last one. The model's generation config is fixed
// at construction.
func (p *SDKProvider) session(req *models.GenerateRequest) (*genai.ChatSession, []genai.Part, error) {
	contents := toGenaiContents(req.Contents)
	if len(contents) == 0 {
		return nil, nil, &ProviderError{Status: http.StatusBadRequest, Message: "contents is empty"}
	}

	cs := p.model.StartChat()
	cs.History = contents[:len(contents)-1]
	return cs, contents[len(contents)-1].Parts, nil
}

func (p *SDKProvider) OpenStream(ctx context.Context, req *models.GenerateRequest) (UnitStream, error) {
	cs, parts, err := p.session(req)
	if err != nil {
		return nil, err
	}

	it := cs.SendMessageStream(ctx, parts...)

	// The first pull carries the HTTP status, so failures surface here like
	// a non-2xx on the REST transport.
	resp, err := it.Next()
	if err != nil && err != iterator.Done {
		if u, blocked := blockedUnit(err); blocked {
			return &sdkStream{first: &u}, nil
		}
		return nil, sdkError(err)
	}

	s := &sdkStream{it: it}
	if err == iterator.Done {
		s.done = true
	} else {
		u := sdkUnit(resp)
		s.first = &u
	}
	return s, nil
}

func (p *SDKProvider) Generate(ctx context.Context, req *models.GenerateRequest) (Unit, error) {
	cs, parts, err := p.session(req)
	if err != nil {
		return Unit{}, err
	}

	resp, err := cs.SendMessage(ctx, parts...)
	if err != nil {
		if u, blocked := blockedUnit(err); blocked {
			return u, nil
		}
		return Unit{}, sdkError(err)
	}
	return sdkUnit(resp), nil
}

type sdkStream struct {
	it    *genai.GenerateContentResponseIterator
	first *Unit
	done  bool
}

func (s *sdkStream) Next() (Unit, error) {
	if s.first != nil {
		u := *s.first
		s.first = nil
		if s.it == nil {
			s.done = true
		}
		return u, nil
	}
	if s.done {
		return Unit{}, io.EOF
	}

	resp, err := s.it.Next()
	if err == iterator.Done {
		s.done = true
		return Unit{}, io.EOF
	}
	if err != nil {
		if u, blocked := blockedUnit(err); blocked {
			s.done = true
			return u, nil
		}
		return Unit{}, sdkError(err)
	}
	return sdkUnit(resp), nil
}

func (s *sdkStream) Close() error {
	return nil
}

func toGenaiContents(contents []models.Content) []*genai.Content {
	out := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		role := c.Role
		if role == "" {
			role = "user"
		}
		gc := &genai.Content{Role: role}
		for _, p := range c.Parts {
			gc.Parts = append(gc.Parts, genai.Text(p.Text))
		}
		out = append(out, gc)
	}
	return out
}

func sdkUnit(resp *genai.GenerateContentResponse) Unit {
	if resp == nil {
		return Unit{}
	}
	return Unit{Text: extractText(resp)}
}

func extractText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String()
}

// blockedUnit converts an SDK block into an error unit.
func blockedUnit(err error) (Unit, bool) {
	var be *genai.BlockedError
	if !errors.As(err, &be) {
		return Unit{}, false
	}

	kind := BlockPolicy
	switch {
	case be.PromptFeedback != nil && be.PromptFeedback.BlockReason == genai.BlockReasonSafety:
		kind = BlockSafety
	case be.Candidate != nil && be.Candidate.FinishReason == genai.FinishReasonSafety:
		kind = BlockSafety
	}

	u := Unit{Err: &ProviderError{Block: kind, Message: be.Error()}}
	if be.Candidate != nil && be.Candidate.Content != nil {
		u.Text = extractText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{be.Candidate}})
	}
	return u, true
}

// sdkError recovers the HTTP status of an SDK failure. Errors without one
// (network, context) are returned unchanged for the classifier.
func sdkError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = gerr.Body
		}
		return &ProviderError{Status: gerr.Code, Message: msg}
	}

	if ae, ok := apierror.FromError(err); ok {
		status := ae.HTTPCode()
		if status <= 0 {
			status = httpStatusForCode(ae.GRPCStatus().Code())
		}
		if status > 0 {
			msg := ae.GRPCStatus().Message()
			if msg == "" {
				msg = ae.Error()
			}
			return &ProviderError{Status: status, Message: msg}
		}
	}
	return err
}

func httpStatusForCode(c codes.Code) int {
	switch c {
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.NotFound:
		return http.StatusNotFound
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.Internal, codes.Unknown, codes.DataLoss:
		return http.StatusInternalServerError
	}
	return 0
}
