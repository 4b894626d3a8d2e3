package gitscribe

import "context"

// GenerationRequest carries a composed prompt to a generation back-end.
type GenerationRequest struct {
	Prompt      string
	System      string
	Model       string   // empty selects the provider's configured model
	MaxTokens   int      // zero lets the provider decide
	Temperature *float32 // nil lets the provider decide
}

// GenerationResponse is the text produced by a generation back-end.
type GenerationResponse struct {
	Content    string
	Model      string
	TokensUsed int
}

// Generator is the capability surface of a generation back-end. Back-ends
// are selected by name through a registry rather than by type.
type Generator interface {
	// Name identifies the back-end in configuration and the registry.
	Name() string
	// Generate produces text for the request.
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResponse, error)
	// HealthCheck reports whether the back-end is reachable.
	HealthCheck(ctx context.Context) bool
	// Models lists the models the back-end offers.
	Models(ctx context.Context) ([]string, error)
}
