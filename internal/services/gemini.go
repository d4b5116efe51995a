package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/googleapi"

	"folio-backend/internal/models"
)

const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient talks to the Gemini REST API. The API key travels as the
// "key" query parameter.
type GeminiClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
	streamAlt  string
}

type GeminiOption func(*GeminiClient)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(g *GeminiClient) { g.httpClient = c }
}

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(base string) GeminiOption {
	return func(g *GeminiClient) { g.baseURL = strings.TrimRight(base, "/") }
}

// WithStreamAlt sets the "alt" query parameter of the streaming call. "sse"
// asks for server-sent events; empty leaves the JSON array default.
func WithStreamAlt(alt string) GeminiOption {
	return func(g *GeminiClient) { g.streamAlt = alt }
}

// NewGeminiClient builds a REST client. timeout bounds the wait for response
// headers; streamed bodies are bounded only by the request context.
func NewGeminiClient(apiKey, model string, timeout time.Duration, opts ...GeminiOption) *GeminiClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if timeout > 0 {
		transport.ResponseHeaderTimeout = timeout
	}

	g := &GeminiClient{
		httpClient: &http.Client{Transport: transport},
		baseURL:    DefaultGeminiBaseURL,
		model:      model,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GeminiClient) endpoint(method string, extra url.Values) string {
	q := url.Values{}
	q.Set("key", g.apiKey)
	for k, v := range extra {
		q[k] = v
	}
	return fmt.Sprintf("%s/models/%s:%s?%s", g.baseURL, url.PathEscape(g.model), method, q.Encode())
}

func (g *GeminiClient) post(ctx context.Context, method string, extra url.Values, req *models.GenerateRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(method, extra), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini %s: %w", method, err)
	}

	if err := googleapi.CheckResponse(resp); err != nil {
		resp.Body.Close()
		return nil, providerErrorFromResponse(resp.StatusCode, err)
	}
	return resp, nil
}

// providerErrorFromResponse keeps the upstream status and the most specific
// message googleapi could recover from the body.
func providerErrorFromResponse(status int, err error) *ProviderError {
	pe := &ProviderError{Status: status, Message: err.Error()}
	if gerr, ok := err.(*googleapi.Error); ok {
		switch {
		case gerr.Message != "":
			pe.Message = gerr.Message
		case gerr.Body != "":
			pe.Message = strings.TrimSpace(gerr.Body)
		default:
			pe.Message = http.StatusText(status)
		}
	}
	return pe
}

func (g *GeminiClient) OpenStream(ctx context.Context, req *models.GenerateRequest) (UnitStream, error) {
	var extra url.Values
	if g.streamAlt != "" {
		extra = url.Values{"alt": {g.streamAlt}}
	}
	resp, err := g.post(ctx, "streamGenerateContent", extra, req)
	if err != nil {
		return nil, err
	}
	return newStreamDecoder(resp.Body), nil
}

func (g *GeminiClient) Generate(ctx context.Context, req *models.GenerateRequest) (Unit, error) {
	resp, err := g.post(ctx, "generateContent", nil, req)
	if err != nil {
		return Unit{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Unit{}, fmt.Errorf("failed to read gemini response: %w", err)
	}

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return Unit{}, fmt.Errorf("failed to decode gemini response: %w", err)
	}
	return out.unit(), nil
}
