// Package anthropic implements the gitscribe.Generator interface against
// the Anthropic messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gitscribe/gitscribe"
	"github.com/gitscribe/gitscribe/provider"
)

// Compile-time interface verification.
var _ gitscribe.Generator = (*Client)(nil)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	envAPIKey      = "ANTHROPIC_API_KEY"
)

// Client talks to the Anthropic API.
type Client struct {
	baseURL  string
	apiKey   string
	settings provider.Settings
	http     *http.Client
}

// New creates a Client from settings, falling back to the
// ANTHROPIC_API_KEY environment variable for the key.
func New(settings provider.Settings) *Client {
	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	apiKey := settings.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(envAPIKey)
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		settings: settings,
		http:     &http.Client{Timeout: settings.Timeout},
	}
}

// Name implements gitscribe.Generator.
func (c *Client) Name() string {
	return "anthropic"
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Temperature float32   `json:"temperature"`
}

type messagesResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Generate produces text via /v1/messages, retrying transient failures
// with linear backoff.
func (c *Client) Generate(ctx context.Context, req gitscribe.GenerationRequest) (*gitscribe.GenerationResponse, error) {
	return provider.Retry(ctx, c.settings.MaxRetries, c.settings.RetryDelay, func() (*gitscribe.GenerationResponse, error) {
		return c.generate(ctx, req)
	})
}

func (c *Client) generate(ctx context.Context, req gitscribe.GenerationRequest) (*gitscribe.GenerationResponse, error) {
	model := req.Model
	if model == "" {
		model = c.settings.Model
	}
	temperature := c.settings.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.settings.MaxTokens
	}

	body, err := json.Marshal(messagesRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		System:      req.System,
		Messages:    []message{{Role: "user", Content: req.Prompt}},
		Temperature: temperature,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}

	out, err := c.do(ctx, http.MethodPost, "/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var parsed messagesResponse
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, errors.New("response carried no text content")
	}

	return &gitscribe.GenerationResponse{
		Content:    strings.TrimSpace(text.String()),
		Model:      parsed.Model,
		TokensUsed: parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
	}, nil
}

// HealthCheck reports whether the API answers /v1/models with the
// configured credentials.
func (c *Client) HealthCheck(ctx context.Context) bool {
	_, err := c.Models(ctx)
	return err == nil
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Models lists the models the API offers.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	out, err := c.do(ctx, http.MethodGet, "/v1/models", nil)
	if err != nil {
		return nil, err
	}

	var parsed modelsResponse
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}

	names := make([]string, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		names = append(names, m.ID)
	}
	return names, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	if c.apiKey == "" {
		return nil, errors.Mark(errors.Mark(
			errors.Newf("no API key configured; set %s", envAPIKey),
			gitscribe.ErrProviderUnavailable), provider.ErrPermanent)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, errors.Mark(errors.Mark(
			errors.New("authentication failed; check the API key"),
			gitscribe.ErrProviderUnavailable), provider.ErrPermanent)
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Newf("anthropic returned HTTP %d: %s",
			resp.StatusCode, strings.TrimSpace(string(out)))
	}
	return out, nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return errors.Mark(
			errors.Wrap(err, "request timed out"),
			gitscribe.ErrGenerationTimeout)
	}
	return errors.Mark(
		errors.Wrap(err, "cannot reach anthropic"),
		gitscribe.ErrProviderUnavailable)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
