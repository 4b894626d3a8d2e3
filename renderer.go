package gitscribe

import "time"

// TemplateContext is the data handed to prompt templates. Its field names
// are the rendering contract: templates reference them directly, so they
// must not be renamed.
type TemplateContext struct {
	Changes    *EnhancedDiffAnalysis
	Repository RepositoryInfo
	User       UserInfo
	BaseBranch string
	HeadBranch string
	Timestamp  string
}

// NewCommitContext builds the template context for commit message
// generation.
func NewCommitContext(changes *EnhancedDiffAnalysis, repo RepositoryInfo, user UserInfo) *TemplateContext {
	return &TemplateContext{
		Changes:    changes,
		Repository: repo,
		User:       user,
		Timestamp:  time.Now().Format(time.RFC3339),
	}
}

// NewPRContext builds the template context for pull-request description
// generation.
func NewPRContext(changes *EnhancedDiffAnalysis, repo RepositoryInfo, user UserInfo, baseBranch, headBranch string) *TemplateContext {
	ctx := NewCommitContext(changes, repo, user)
	ctx.BaseBranch = baseBranch
	ctx.HeadBranch = headBranch
	return ctx
}

// TemplateInfo describes one discovered template.
type TemplateInfo struct {
	Name     string
	Category string // "commit" or "pr"
	Source   string // search path or "builtin"
}

// Renderer turns a named template and a context into prompt text.
type Renderer interface {
	// Render renders the named template from the given category.
	Render(name, category string, ctx *TemplateContext) (string, error)
	// List enumerates every discoverable template.
	List() ([]TemplateInfo, error)
}
