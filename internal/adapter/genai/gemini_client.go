package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"cinequery/internal/domain"
)

const (
	defaultMaxAttempts = 5
	defaultBaseDelay   = 1 * time.Second
	defaultTemperature = 0.1
)

type contentPart struct {
	Text string `json:"text"`
}

type content struct {
	Parts []contentPart `json:"parts"`
	Role  string        `json:"role,omitempty"`
}

type generationConfig struct {
	Temperature      float64        `json:"temperature"`
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	Tools             []map[string]any `json:"tools,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []contentPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GeminiClient implements domain.GenerationClient against a Gemini-style
// generateContent endpoint.
type GeminiClient struct {
	baseURL     string
	model       string
	apiKey      string
	temperature float64
	maxAttempts int
	baseDelay   time.Duration
	limiter     *rate.Limiter
	client      *http.Client
	logger      *slog.Logger
}

// Option tweaks client construction beyond the required configuration.
type Option func(*GeminiClient)

// WithRetryPolicy overrides the attempt count and base backoff delay.
func WithRetryPolicy(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *GeminiClient) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if baseDelay > 0 {
			c.baseDelay = baseDelay
		}
	}
}

// WithTemperature overrides the decoding temperature.
func WithTemperature(temperature float64) Option {
	return func(c *GeminiClient) {
		c.temperature = temperature
	}
}

// WithRateLimit caps outgoing requests per second across retries.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *GeminiClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// NewGeminiClient constructs a client for the given endpoint, model, and key.
// If client is nil, a default http.Client with the given timeout is used.
func NewGeminiClient(baseURL, model, apiKey string, timeout time.Duration, logger *slog.Logger, client *http.Client, opts ...Option) *GeminiClient {
	c := client
	if c == nil {
		c = &http.Client{Timeout: timeout}
	}
	g := &GeminiClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		apiKey:      apiKey,
		temperature: defaultTemperature,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		client:      c,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ModelName returns the configured model identifier.
func (g *GeminiClient) ModelName() string {
	return g.model
}

// Generate issues one logical generateContent call, retrying transient
// failures with exponential backoff. Attempt n (n >= 1) waits
// baseDelay * 2^n first; the sleep is a cancellation checkpoint.
// Rate-limit responses (429) are retried on the same schedule without
// honoring any server-provided wait hint, trading politeness for a bounded
// worst-case latency.
func (g *GeminiClient) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("generation api key is not configured")
	}

	payload, err := json.Marshal(g.buildPayload(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generation request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)

	var lastErr error
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := g.baseDelay * (1 << attempt)
			g.logger.Warn("generation_retrying",
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.String("model", g.model))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		result, retryable, err := g.doRequest(ctx, url, payload)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	g.logger.Error("generation_exhausted_retries",
		slog.Int("attempts", g.maxAttempts),
		slog.String("model", g.model),
		slog.String("error", lastErr.Error()))
	return nil, fmt.Errorf("generation failed after %d attempts: %w", g.maxAttempts, lastErr)
}

func (g *GeminiClient) buildPayload(req domain.GenerationRequest) generateRequest {
	payload := generateRequest{
		Contents: []content{{Parts: []contentPart{{Text: req.Prompt}}}},
		GenerationConfig: generationConfig{
			Temperature: g.temperature,
		},
	}
	if req.SystemInstruction != "" {
		payload.SystemInstruction = &content{Parts: []contentPart{{Text: req.SystemInstruction}}}
	}
	if req.ResponseSchema != nil {
		payload.GenerationConfig.ResponseMimeType = "application/json"
		payload.GenerationConfig.ResponseSchema = req.ResponseSchema
	}
	if req.EnableSearch {
		payload.Tools = []map[string]any{{"google_search": map[string]any{}}}
	}
	return payload
}

// doRequest performs a single attempt. The second return value reports
// whether the failure is worth retrying.
func (g *GeminiClient) doRequest(ctx context.Context, url string, payload []byte) (*domain.GenerationResult, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, true, fmt.Errorf("failed to call generation endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		g.logger.Warn("generation_rate_limited",
			slog.String("retry_after", resp.Header.Get("Retry-After")),
			slog.String("model", g.model))
		return nil, true, fmt.Errorf("generation endpoint rate limited (429)")
	case resp.StatusCode >= http.StatusInternalServerError:
		body, _ := io.ReadAll(resp.Body)
		return nil, true, fmt.Errorf("generation endpoint returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, false, fmt.Errorf("generation endpoint returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, false, fmt.Errorf("failed to decode generation response: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, false, domain.ErrNoContent
	}

	return &domain.GenerationResult{Text: genResp.Candidates[0].Content.Parts[0].Text}, false, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

var _ domain.GenerationClient = (*GeminiClient)(nil)
