// internal/common/gemini/client.go
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"google.golang.org/genai"

	"rental-workers/internal/common/config"
	httpclient "rental-workers/internal/common/http"
	"rental-workers/internal/common/logger"
	"rental-workers/internal/common/metrics"
	"rental-workers/internal/recommendation"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash"

	PingPrompt = "balas 1 kata: ok"
	dryRunPong = "ok (dry run)"
)

var ErrNotConfigured = errors.New("gemini api key is not configured")

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	DryRun  bool
}

func ConfigFrom(cfg config.GeminiConfig) Config {
	return Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: config.GetDuration(cfg.Timeout),
		DryRun:  cfg.DryRun,
	}
}

// Client wraps the Gemini SDK and implements recommendation.Analyzer. It
// never retries.
type Client struct {
	cfg     Config
	models  generator
	initErr error
	logger  logger.Logger
}

// generator is the part of the SDK the client calls.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewClient builds the SDK client unless the key is missing or DryRun is
// set. Construction errors surface on the first call.
func NewClient(cfg Config, log logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := &Client{
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "gemini", "model": cfg.Model}),
	}
	if cfg.DryRun || cfg.APIKey == "" {
		return c
	}

	sdk, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  httpclient.NewClient(cfg.Timeout),
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		c.initErr = err
		return c
	}
	c.models = sdk.Models
	return c
}

func (c *Client) Model() string {
	return c.cfg.Model
}

// Analyze extracts rental criteria. API errors, transport failures and
// context expiry wrap recommendation.ErrUpstreamUnavailable. A reply that
// cannot be parsed yields a degraded extraction and no error.
func (c *Client) Analyze(ctx context.Context, prompt string) (*recommendation.ExtractionResult, error) {
	if c.cfg.DryRun {
		metrics.GenAIRequests.WithLabelValues("dry_run").Inc()
		return recommendation.DryRunExtraction(), nil
	}

	text, err := c.generate(ctx, genai.Text(BuildSystemPrompt(prompt)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if errors.Is(err, recommendation.ErrUpstreamUnavailable) {
		metrics.GenAIRequests.WithLabelValues("unavailable").Inc()
		c.logger.Error("analysis request failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	result, perr := parseExtraction(text)
	if err != nil {
		perr = err
	}
	if perr != nil {
		metrics.GenAIRequests.WithLabelValues("degraded").Inc()
		c.logger.Warn("analysis response unusable", map[string]interface{}{"error": perr.Error()})
		return recommendation.DegradedExtraction(perr.Error()), nil
	}

	metrics.GenAIRequests.WithLabelValues("ok").Inc()
	return result, nil
}

// Ping sends a one-word prompt and returns the model's reply text.
func (c *Client) Ping(ctx context.Context) (string, error) {
	if c.cfg.DryRun {
		return dryRunPong, nil
	}

	text, err := c.generate(ctx, genai.Text(PingPrompt), nil)
	if errors.Is(err, errEmptyText) {
		return "", nil
	}
	return text, err
}

var errEmptyText = errors.New("empty response text")

func (c *Client) generate(ctx context.Context, contents []*genai.Content, gc *genai.GenerateContentConfig) (string, error) {
	if c.models == nil {
		if c.initErr != nil {
			return "", fmt.Errorf("%w: %v", recommendation.ErrUpstreamUnavailable, c.initErr)
		}
		return "", fmt.Errorf("%w: %v", recommendation.ErrUpstreamUnavailable, ErrNotConfigured)
	}

	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, contents, gc)
	if err != nil {
		if upstreamFailure(ctx, err) {
			return "", fmt.Errorf("%w: %v", recommendation.ErrUpstreamUnavailable, err)
		}
		return "", fmt.Errorf("%w: %v", errEmptyText, err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errEmptyText
	}
	return text, nil
}

// upstreamFailure reports whether err came from the API or the network
// rather than from an unreadable reply.
func upstreamFailure(ctx context.Context, err error) bool {
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	var netErr net.Error
	switch {
	case ctx.Err() != nil,
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.As(err, &apiErr),
		errors.As(err, &apiErrPtr),
		errors.As(err, &netErr):
		return true
	}
	return false
}

var codeFence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if m := codeFence.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}

func parseExtraction(text string) (*recommendation.ExtractionResult, error) {
	text = stripCodeFences(text)
	if text == "" {
		return nil, errEmptyText
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("response is not a JSON object")
	}

	var result recommendation.ExtractionResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
