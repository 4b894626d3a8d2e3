// Package ollama implements the gitscribe.Generator interface against a
// local Ollama server's HTTP API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gitscribe/gitscribe"
	"github.com/gitscribe/gitscribe/provider"
)

// Compile-time interface verification.
var _ gitscribe.Generator = (*Client)(nil)

const defaultBaseURL = "http://localhost:11434"

// Client talks to one Ollama server.
type Client struct {
	baseURL  string
	settings provider.Settings
	http     *http.Client
}

// New creates a Client from settings. The HTTP client timeout comes from
// the settings; a zero timeout means no limit.
func New(settings provider.Settings) *Client {
	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		settings: settings,
		http:     &http.Client{Timeout: settings.Timeout},
	}
}

// Name implements gitscribe.Generator.
func (c *Client) Name() string {
	return "ollama"
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float32 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Model     string `json:"model"`
	Response  string `json:"response"`
	EvalCount int    `json:"eval_count"`
}

// Generate produces text via /api/generate, retrying transient failures
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

	body, err := json.Marshal(generateRequest{
		Model:  model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
		Options: generateOptions{
			Temperature: temperature,
			NumPredict:  maxTokens,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.Newf("ollama returned HTTP %d: %s",
			resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}

	return &gitscribe.GenerationResponse{
		Content:    strings.TrimSpace(out.Response),
		Model:      out.Model,
		TokensUsed: out.EvalCount,
	}, nil
}

// HealthCheck reports whether the server answers /api/tags.
func (c *Client) HealthCheck(ctx context.Context) bool {
	models, err := c.listModels(ctx)
	return err == nil && models != nil
}

// Models lists the models the server has pulled.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	return c.listModels(ctx)
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (c *Client) listModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("ollama returned HTTP %d", resp.StatusCode)
	}

	var out tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}

	names := make([]string, 0, len(out.Models))
	for _, m := range out.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// classifyTransportError marks timeouts and connection failures with the
// sentinel errors the CLI maps to remediation hints.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return errors.Mark(
			errors.Wrap(err, "ollama request timed out"),
			gitscribe.ErrGenerationTimeout)
	}
	return errors.Mark(
		errors.Wrap(err, "cannot reach ollama"),
		gitscribe.ErrProviderUnavailable)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
