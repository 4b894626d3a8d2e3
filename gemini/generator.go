package gemini

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gitscribe/gitscribe"
	"github.com/gitscribe/gitscribe/provider"
)

// Compile-time interface verification.
var _ gitscribe.Generator = (*Generator)(nil)

// Generator produces text through a GenerativeClient.
type Generator struct {
	client   GenerativeClient
	settings provider.Settings
}

// NewGenerator creates a Generator over an already constructed client.
func NewGenerator(client GenerativeClient, settings provider.Settings) *Generator {
	if settings.Model == "" {
		settings.Model = DefaultModel
	}
	return &Generator{client: client, settings: settings}
}

// Name implements gitscribe.Generator.
func (g *Generator) Name() string {
	return "gemini"
}

// Generate produces text for the request, retrying transient API errors
// with linear backoff.
func (g *Generator) Generate(ctx context.Context, req gitscribe.GenerationRequest) (*gitscribe.GenerationResponse, error) {
	return provider.Retry(ctx, g.settings.MaxRetries, g.settings.RetryDelay, func() (*gitscribe.GenerationResponse, error) {
		return g.generate(ctx, req)
	})
}

func (g *Generator) generate(ctx context.Context, req gitscribe.GenerationRequest) (*gitscribe.GenerationResponse, error) {
	if g.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.settings.Timeout)
		defer cancel()
	}

	model := req.Model
	if model == "" {
		model = g.settings.Model
	}
	temperature := g.settings.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = g.settings.MaxTokens
	}

	config := &GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(maxTokens),
	}
	if req.System != "" {
		config.SystemInstruction = &Content{Parts: []*Part{{Text: req.System}}}
	}

	contents := []*Content{{Parts: []*Part{{Text: req.Prompt}}}}

	resp, err := g.client.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, classifyError(err)
	}
	if resp == nil || resp.Text == "" {
		return nil, errors.New("gemini returned an empty response")
	}

	return &gitscribe.GenerationResponse{
		Content: strings.TrimSpace(resp.Text),
		Model:   model,
	}, nil
}

// HealthCheck reports whether credentials are present. The API offers no
// cheap liveness endpoint, so reachability surfaces on the first call.
func (g *Generator) HealthCheck(ctx context.Context) bool {
	return g.client != nil
}

// Models lists the configured model. The seam intentionally stays at
// content generation, so no catalog query is made.
func (g *Generator) Models(ctx context.Context) ([]string, error) {
	return []string{g.settings.Model}, nil
}

// classifyError maps API errors onto the sentinel taxonomy: timeouts and
// rate limits are transient, client errors are permanent.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Mark(
			errors.Wrap(err, "gemini request timed out"),
			gitscribe.ErrGenerationTimeout)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != 429 {
			return errors.Mark(err, provider.ErrPermanent)
		}
	}
	return err
}
