package mock

import "github.com/gitscribe/gitscribe"

// Compile-time interface verification.
var _ gitscribe.Renderer = (*Renderer)(nil)

// Renderer is a mock implementation of gitscribe.Renderer.
type Renderer struct {
	RenderFn func(name, category string, ctx *gitscribe.TemplateContext) (string, error)
	ListFn   func() ([]gitscribe.TemplateInfo, error)
}

func (r *Renderer) Render(name, category string, ctx *gitscribe.TemplateContext) (string, error) {
	return r.RenderFn(name, category, ctx)
}

func (r *Renderer) List() ([]gitscribe.TemplateInfo, error) {
	if r.ListFn != nil {
		return r.ListFn()
	}
	return nil, nil
}
