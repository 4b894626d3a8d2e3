// Package openai implements the gitscribe.Generator interface against
// OpenAI-compatible chat completion APIs. The lmstudio provider reuses
// this client, since LM Studio serves the same wire format.
package openai

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

const defaultBaseURL = "https://api.openai.com/v1"

// envAPIKey is consulted when the settings carry no key.
const envAPIKey = "OPENAI_API_KEY"

// Client talks to one OpenAI-compatible endpoint.
type Client struct {
	baseURL  string
	apiKey   string
	settings provider.Settings
	http     *http.Client
}

// New creates a Client from settings, falling back to the OPENAI_API_KEY
// environment variable for the key.
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
	return "openai"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate produces text via /chat/completions, retrying transient
// failures with linear backoff.
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

	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}

	out, err := c.post(ctx, "/chat/completions", body)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("response carried no choices")
	}

	return &gitscribe.GenerationResponse{
		Content:    strings.TrimSpace(parsed.Choices[0].Message.Content),
		Model:      parsed.Model,
		TokensUsed: parsed.Usage.TotalTokens,
	}, nil
}

// HealthCheck reports whether the endpoint answers /models with the
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

// Models lists the models the endpoint offers.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	out, err := c.get(ctx, "/models")
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

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body))
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

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
		return nil, errors.Newf("endpoint returned HTTP %d: %s",
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
		errors.Wrap(err, "cannot reach endpoint"),
		gitscribe.ErrProviderUnavailable)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
