package main

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/gitscribe/gitscribe"
	"github.com/gitscribe/gitscribe/config"
	"github.com/gitscribe/gitscribe/history"
	"github.com/gitscribe/gitscribe/prompt"
)

// App holds the wired pipeline for one invocation. Commands construct it
// from real components; tests substitute mocks.
type App struct {
	VCS       gitscribe.VCS
	Config    *config.Config
	Renderer  gitscribe.Renderer
	Generator gitscribe.Generator
	Composer  *prompt.Composer
	History   *history.Store // nil disables history recording
	Log       *zap.Logger
}

// branchDiffer is the optional capability of producing the full raw diff
// against a base reference. The git adapter has it; mocks may not.
type branchDiffer interface {
	DiffPatchAll(ctx context.Context, baseRef string) (string, error)
}

// committer is the optional capability of creating a commit.
type committer interface {
	Commit(ctx context.Context, message string) error
}

// CommitOptions configures commit message generation.
type CommitOptions struct {
	Template         string
	IncludeUntracked bool
}

// CommitMessage analyzes the staged index and generates a commit message.
func (a *App) CommitMessage(ctx context.Context, opts CommitOptions) (string, error) {
	analyzer := gitscribe.NewAnalyzer(a.VCS, gitscribe.WithLogger(a.Log))

	analysis, err := analyzer.StagedChanges(ctx, opts.IncludeUntracked)
	if err != nil {
		return "", err
	}
	enhanced := gitscribe.Enrich(analysis)

	name := opts.Template
	if name == "" {
		name = a.Config.Templates.Commit
	}
	tmplCtx := gitscribe.NewCommitContext(enhanced, analysis.Repository, a.userInfo(ctx, analyzer))
	rendered, err := a.Renderer.Render(name, "commit", tmplCtx)
	if err != nil {
		return "", err
	}

	composed, report, err := a.Composer.Compose(rendered, a.stagedDiff(ctx))
	if err != nil {
		return "", err
	}
	a.logTruncation(report)

	message, resp, err := a.generate(ctx, composed, prompt.SystemPrompt("commit"))
	if err != nil {
		return "", err
	}
	a.record("commit", analysis, resp, message)
	return message, nil
}

// PROptions configures pull request description generation.
type PROptions struct {
	Template   string
	BaseBranch string
}

// PRDescription analyzes the branch against its base and generates a pull
// request description.
func (a *App) PRDescription(ctx context.Context, opts PROptions) (string, error) {
	base := opts.BaseBranch
	if base == "" {
		base = "main"
	}

	analyzer := gitscribe.NewAnalyzer(a.VCS, gitscribe.WithLogger(a.Log))

	analysis, err := analyzer.BranchChanges(ctx, base)
	if err != nil {
		return "", err
	}
	if analysis.FileCount() == 0 {
		return "", errors.Mark(
			errors.Newf("no changes between %s and HEAD", base),
			gitscribe.ErrNoChanges)
	}
	enhanced := gitscribe.Enrich(analysis)

	name := opts.Template
	if name == "" {
		name = a.Config.Templates.PR
	}
	tmplCtx := gitscribe.NewPRContext(enhanced, analysis.Repository,
		a.userInfo(ctx, analyzer), base, analysis.CommitContext.Branch)
	rendered, err := a.Renderer.Render(name, "pr", tmplCtx)
	if err != nil {
		return "", err
	}

	rawDiff := ""
	if bd, ok := a.VCS.(branchDiffer); ok {
		rawDiff, err = bd.DiffPatchAll(ctx, analysis.CommitContext.BaseRef)
		if err != nil {
			a.Log.Warn("could not read the full branch diff; generating from file summaries only",
				zap.Error(err))
			rawDiff = ""
		}
	}
	composed, report, err := a.Composer.Compose(rendered, rawDiff)
	if err != nil {
		return "", err
	}
	a.logTruncation(report)

	description, resp, err := a.generate(ctx, composed, prompt.SystemPrompt("pr"))
	if err != nil {
		return "", err
	}
	a.record("pr", analysis, resp, description)
	return description, nil
}

// CommitChanges creates a commit with the given message. Fails when the
// underlying VCS adapter cannot commit.
func (a *App) CommitChanges(ctx context.Context, message string) error {
	c, ok := a.VCS.(committer)
	if !ok {
		return errors.Mark(
			errors.New("this repository adapter cannot create commits"),
			gitscribe.ErrVCSOperation)
	}
	return c.Commit(ctx, message)
}

func (a *App) generate(ctx context.Context, promptText, system string) (string, *gitscribe.GenerationResponse, error) {
	resp, err := a.Generator.Generate(ctx, gitscribe.GenerationRequest{
		Prompt: promptText,
		System: system,
	})
	if err != nil {
		return "", nil, err
	}
	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", nil, errors.Newf("provider %s returned an empty response", a.Generator.Name())
	}
	a.Log.Debug("generation complete",
		zap.String("provider", a.Generator.Name()),
		zap.String("model", resp.Model),
		zap.Int("tokens_used", resp.TokensUsed))
	return content, resp, nil
}

// record appends the outcome to the history store, best-effort.
func (a *App) record(category string, analysis *gitscribe.DiffAnalysis, resp *gitscribe.GenerationResponse, message string) {
	if a.History == nil {
		return
	}
	err := a.History.Append(history.Record{
		Timestamp:  time.Now(),
		Category:   category,
		Provider:   a.Generator.Name(),
		Model:      resp.Model,
		Repository: analysis.Repository.Name,
		Branch:     analysis.CommitContext.Branch,
		Message:    message,
	})
	if err != nil {
		a.Log.Warn("could not record history", zap.Error(err))
	}
}

// userInfo resolves the author identity, letting the configuration
// override what the repository reports.
func (a *App) userInfo(ctx context.Context, analyzer *gitscribe.Analyzer) gitscribe.UserInfo {
	info := analyzer.UserInfo(ctx)
	if a.Config.User.Name != "" {
		info.Name = a.Config.User.Name
	}
	if a.Config.User.Email != "" {
		info.Email = a.Config.User.Email
	}
	return info
}

// stagedDiff concatenates the staged patches for prompt composition.
// Failures degrade to an empty diff since the rendered template already
// carries per-file previews.
func (a *App) stagedDiff(ctx context.Context) string {
	entries, err := a.VCS.StagedEntries(ctx)
	if err != nil {
		a.Log.Warn("could not read staged patches for the prompt", zap.Error(err))
		return ""
	}
	var sb strings.Builder
	for _, entry := range entries {
		sb.WriteString(entry.Patch)
	}
	return sb.String()
}

func (a *App) logTruncation(report prompt.Report) {
	if report.Level == prompt.LevelNone {
		return
	}
	a.Log.Debug("diff truncated for the prompt",
		zap.String("level", string(report.Level)),
		zap.Int("files_preserved", report.FilesPreserved),
		zap.Strings("truncated_files", report.TruncatedFiles))
}
