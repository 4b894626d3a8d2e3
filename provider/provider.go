// Package provider wires generation back-ends into a name-keyed registry
// and carries the settings and retry behavior they share.
package provider

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/gitscribe/gitscribe"
)

// Settings is the connection configuration a factory receives. It
// mirrors one provider section of the merged configuration.
type Settings struct {
	BaseURL     string
	Model       string
	APIKey      string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
	MaxRetries  int
	RetryDelay  time.Duration
}

// Factory constructs a generator from settings.
type Factory func(ctx context.Context, settings Settings) (gitscribe.Generator, error)

// Registry maps provider names to factories. The zero value is unusable;
// create one with NewRegistry.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under a name, replacing any previous entry.
func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

// Names lists the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New constructs the named provider. Unknown names are marked
// gitscribe.ErrProviderUnavailable.
func (r *Registry) New(ctx context.Context, name string, settings Settings) (gitscribe.Generator, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, errors.Mark(
			errors.Newf("unknown provider %q", name),
			gitscribe.ErrProviderUnavailable)
	}
	return factory(ctx, settings)
}

// NewWithFallback constructs the first healthy provider from the given
// chain. A provider that constructs but fails its health check is skipped.
func (r *Registry) NewWithFallback(ctx context.Context, names []string, settings func(name string) Settings) (gitscribe.Generator, error) {
	var lastErr error
	for _, name := range names {
		gen, err := r.New(ctx, name, settings(name))
		if err != nil {
			lastErr = err
			continue
		}
		if !gen.HealthCheck(ctx) {
			lastErr = errors.Mark(
				errors.Newf("provider %q failed its health check", name),
				gitscribe.ErrProviderUnavailable)
			continue
		}
		return gen, nil
	}
	if lastErr == nil {
		lastErr = errors.Mark(
			errors.New("no providers configured"), gitscribe.ErrProviderUnavailable)
	}
	return nil, lastErr
}

// Health is one provider's health check outcome.
type Health struct {
	Name    string
	Healthy bool
	Err     error
}

// CheckAll constructs every registered provider and runs its health check
// concurrently. Construction failures report as unhealthy.
func (r *Registry) CheckAll(ctx context.Context, settings func(name string) Settings) []Health {
	names := r.Names()
	results := make([]Health, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			gen, err := r.New(ctx, name, settings(name))
			if err != nil {
				results[i] = Health{Name: name, Err: err}
				return nil
			}
			results[i] = Health{Name: name, Healthy: gen.HealthCheck(ctx)}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Retry runs fn up to attempts times, backing off linearly: the wait
// after attempt n is delay*(n+1), matching the back-ends' rate-limit
// guidance. Context cancellation stops the loop immediately.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() (*gitscribe.GenerationResponse, error)) (*gitscribe.GenerationResponse, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !Retryable(err) || attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.CombineErrors(ctx.Err(), lastErr)
		case <-time.After(delay * time.Duration(attempt+1)):
		}
	}
	return nil, lastErr
}

// ErrPermanent marks failures that are pointless to retry, such as
// rejected credentials.
var ErrPermanent = errors.New("permanent provider failure")

// Retryable reports whether an error is worth another attempt. Timeouts,
// cancellation and permanent failures are terminal; connection failures
// and server errors retry.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, gitscribe.ErrGenerationTimeout):
		return false
	case errors.Is(err, ErrPermanent):
		return false
	}
	return true
}
