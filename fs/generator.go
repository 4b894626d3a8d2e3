package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gitscribe/gitscribe"
)

// Compile-time interface verification.
var _ gitscribe.Generator = (*Generator)(nil)

// Generator wraps a generation back-end with file-based response caching.
// Identical requests hit the cache instead of the back-end, so re-running
// a command over an unchanged change set is free.
type Generator struct {
	inner    gitscribe.Generator
	cacheDir string
}

// NewGenerator creates a caching generator.
func NewGenerator(inner gitscribe.Generator, cacheDir string) *Generator {
	return &Generator{
		inner:    inner,
		cacheDir: cacheDir,
	}
}

// Name implements gitscribe.Generator.
func (g *Generator) Name() string {
	return g.inner.Name()
}

// Generate returns a cached response or delegates to the inner back-end.
func (g *Generator) Generate(ctx context.Context, req gitscribe.GenerationRequest) (*gitscribe.GenerationResponse, error) {
	hash := g.hashRequest(req)

	if cached, err := g.loadFromCache(hash); err == nil {
		return cached, nil
	}

	resp, err := g.inner.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	// Store in cache (best-effort)
	_ = g.saveToCache(hash, resp)

	return resp, nil
}

// HealthCheck implements gitscribe.Generator.
func (g *Generator) HealthCheck(ctx context.Context) bool {
	return g.inner.HealthCheck(ctx)
}

// Models implements gitscribe.Generator.
func (g *Generator) Models(ctx context.Context) ([]string, error) {
	return g.inner.Models(ctx)
}

// hashRequest keys the cache on everything that shapes the output,
// including the back-end name so switching providers never aliases.
func (g *Generator) hashRequest(req gitscribe.GenerationRequest) string {
	key := struct {
		Provider string
		Request  gitscribe.GenerationRequest
	}{
		Provider: g.inner.Name(),
		Request:  req,
	}
	data, _ := json.Marshal(key)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (g *Generator) cachePath(hash string) string {
	return filepath.Join(g.cacheDir, hash+".json")
}

func (g *Generator) loadFromCache(hash string) (*gitscribe.GenerationResponse, error) {
	data, err := os.ReadFile(g.cachePath(hash))
	if err != nil {
		return nil, err
	}

	var resp gitscribe.GenerationResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *Generator) saveToCache(hash string, resp *gitscribe.GenerationResponse) error {
	if err := os.MkdirAll(g.cacheDir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return os.WriteFile(g.cachePath(hash), data, 0o644)
}
