package mock

import (
	"context"

	"github.com/gitscribe/gitscribe"
)

// Compile-time interface verification.
var _ gitscribe.Generator = (*Generator)(nil)

// Generator is a mock implementation of gitscribe.Generator.
type Generator struct {
	NameFn        func() string
	GenerateFn    func(ctx context.Context, req gitscribe.GenerationRequest) (*gitscribe.GenerationResponse, error)
	HealthCheckFn func(ctx context.Context) bool
	ModelsFn      func(ctx context.Context) ([]string, error)
}

func (g *Generator) Name() string {
	if g.NameFn != nil {
		return g.NameFn()
	}
	return "mock"
}

func (g *Generator) Generate(ctx context.Context, req gitscribe.GenerationRequest) (*gitscribe.GenerationResponse, error) {
	return g.GenerateFn(ctx, req)
}

func (g *Generator) HealthCheck(ctx context.Context) bool {
	if g.HealthCheckFn != nil {
		return g.HealthCheckFn(ctx)
	}
	return true
}

func (g *Generator) Models(ctx context.Context) ([]string, error) {
	if g.ModelsFn != nil {
		return g.ModelsFn(ctx)
	}
	return nil, nil
}
