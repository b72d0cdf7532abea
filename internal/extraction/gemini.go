package extraction

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/genai"

	"treasury-backend/internal/models"
	"treasury-backend/internal/timeutil"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com"
	DefaultModel    = "gemini-2.5-flash"
)

// GeminiConfig configures the Generative Language API client.
type GeminiConfig struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
}

// NewClient builds a genai client for the Gemini API backend. It returns
// ErrNotConfigured when no API key is set.
func NewClient(ctx context.Context, cfg GeminiConfig) (*genai.Client, error) {
	if cfg.APIKey == "" {
		return nil, newError(ErrNotConfigured, "missing_api_key", "extraction API key is not configured")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: strings.TrimSuffix(endpoint, "/") + "/"},
	})
}

// GeminiExtractor calls generateContent with a JSON response schema.
// One request per Extract call, no retries; the context deadline is honored.
// The API key and the response body are never logged.
type GeminiExtractor struct {
	client *genai.Client
	model  string
	now    func() time.Time
}

func NewGeminiExtractor(cfg GeminiConfig) *GeminiExtractor {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	client, err := NewClient(context.Background(), cfg)
	if err != nil && !errors.Is(err, ErrNotConfigured) {
		log.Printf("[Extraction] Client setup failed: %v", err)
	}
	return &GeminiExtractor{client: client, model: model, now: timeutil.Now}
}

// Client returns the underlying genai client, nil when not configured.
func (g *GeminiExtractor) Client() *genai.Client {
	return g.client
}

// Model returns the configured model name.
func (g *GeminiExtractor) Model() string {
	return g.model
}

// Extract implements Extractor.
func (g *GeminiExtractor) Extract(ctx context.Context, sheetText string, roster []models.Member) (*models.CandidateReport, error) {
	if g.client == nil {
		return nil, newError(ErrNotConfigured, "missing_api_key", "extraction API key is not configured")
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(Instructions(roster, g.now()))}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    ResponseSchema(),
		Temperature:       genai.Ptr[float32](0),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(Prompt(sheetText)), config)
	if err != nil {
		return nil, ClassifyError(ctx, err)
	}

	text, err := ResponseText(resp)
	if err != nil {
		return nil, err
	}
	return DecodeResponse(text)
}

// ResponseText joins the non-thought parts of the first candidate.
func ResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", newError(ErrUnavailable, "blocked", "extraction service blocked the request: "+string(resp.PromptFeedback.BlockReason))
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", newError(ErrMalformed, "empty_response", "extraction service returned no candidates")
	}

	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		text.WriteString(p.Text)
	}
	return text.String(), nil
}

// ClassifyError maps a genai call failure to a failure class. The service
// reports an invalid key as 400 with "API key not valid" in the message.
func ClassifyError(ctx context.Context, err error) error {
	if apiErr, ok := asAPIError(err); ok {
		return classifyStatus(apiErr.Code, apiErr.Status, apiErr.Message)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return newError(ErrUnavailable, "timeout", "extraction service timed out")
	}
	var ue *url.Error
	if errors.As(err, &ue) || errors.Is(err, context.Canceled) {
		return newError(ErrUnavailable, "network_error", "could not reach the extraction service")
	}
	return newError(ErrMalformed, "parse_error", "extraction service returned an unreadable envelope")
}

func asAPIError(err error) (genai.APIError, bool) {
	var v genai.APIError
	if errors.As(err, &v) {
		return v, true
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return *p, true
	}
	return genai.APIError{}, false
}

func classifyStatus(code int, status, msg string) error {
	if code == http.StatusUnauthorized || code == http.StatusForbidden ||
		strings.Contains(msg, "API key not valid") ||
		status == "UNAUTHENTICATED" || status == "PERMISSION_DENIED" {
		return newError(ErrAuth, "http_"+statusBucket(code), "the extraction API key is not valid")
	}
	message := "extraction service returned HTTP " + http.StatusText(code)
	if msg != "" {
		message += ": " + msg
	}
	return newError(ErrUnavailable, "http_"+statusBucket(code), message)
}

func statusBucket(code int) string {
	switch {
	case code == 400:
		return "bad_request"
	case code == 401:
		return "unauthorized"
	case code == 403:
		return "forbidden"
	case code == 404:
		return "not_found"
	case code == 429:
		return "rate_limited"
	case code >= 500:
		return "server_error"
	default:
		return "unknown_error"
	}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
