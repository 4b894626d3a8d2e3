package gitscribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Analyzer extracts change sets from a repository through the read-only
// VCS surface. One Analyzer serves one repository; each call recomputes
// from scratch.
type Analyzer struct {
	vcs VCS
	log *zap.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithLogger sets the logger used for best-effort warnings.
func WithLogger(log *zap.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		a.log = log
	}
}

// NewAnalyzer creates an Analyzer over the given repository surface.
func NewAnalyzer(vcs VCS, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		vcs: vcs,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// StagedChanges analyzes the staged index, optionally including untracked
// working-tree files as additions. Returns ErrNoChanges when there is
// nothing to analyze.
func (a *Analyzer) StagedChanges(ctx context.Context, includeUntracked bool) (*DiffAnalysis, error) {
	entries, err := a.vcs.StagedEntries(ctx)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "list staged changes"), ErrVCSOperation)
	}

	var untracked []string
	if includeUntracked {
		untracked, err = a.vcs.UntrackedFiles(ctx)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "list untracked files"), ErrVCSOperation)
		}
	}

	if len(entries) == 0 && len(untracked) == 0 {
		return nil, ErrNoChanges
	}

	files := make([]FileChange, 0, len(entries)+len(untracked))
	totalAdditions, totalDeletions := 0, 0

	for _, entry := range entries {
		fc := stagedFileChange(entry)
		files = append(files, fc)
		totalAdditions += fc.LinesAdded
		totalDeletions += fc.LinesRemoved
	}

	for _, path := range untracked {
		content, err := a.vcs.ReadFile(path)
		if err != nil {
			a.log.Warn("skipping unreadable untracked file",
				zap.String("path", path), zap.Error(err))
			continue
		}
		lines := countLines(string(content))
		files = append(files, FileChange{
			Path:           path,
			Kind:           Added,
			LinesAdded:     lines,
			ContentPreview: FilePreview(content),
		})
		totalAdditions += lines
	}

	analysis := &DiffAnalysis{
		FilesChanged:   files,
		TotalAdditions: totalAdditions,
		TotalDeletions: totalDeletions,
		ChangeSummary:  changeSummary(files),
		CommitContext:  a.headContext(ctx),
		Repository:     a.RepositoryInfo(ctx),
	}

	a.log.Info("staged changes analyzed",
		zap.Int("file_count", len(files)),
		zap.Int("total_additions", totalAdditions),
		zap.Int("total_deletions", totalDeletions))

	return analysis, nil
}

// BranchChanges analyzes the range between a base branch and the checked
// out head. An empty diff is a valid result with an empty file list, not
// an error.
func (a *Analyzer) BranchChanges(ctx context.Context, baseBranch string) (*DiffAnalysis, error) {
	if err := a.vcs.Fetch(ctx, "origin", baseBranch); err != nil {
		a.log.Warn("fetch failed; comparing against the local ref, which may be stale",
			zap.String("base_branch", baseBranch), zap.Error(err))
	}

	currentBranch, err := a.vcs.CurrentBranch(ctx)
	if err != nil {
		a.log.Warn("could not resolve current branch", zap.Error(err))
	}

	// The numstat query and the per-file status queries must use the same
	// resolved base, otherwise a stale local ref could mix histories.
	baseRef := baseBranch
	if ok, err := a.vcs.HasRef(ctx, "origin/"+baseBranch); err == nil && ok {
		baseRef = "origin/" + baseBranch
	}

	stats, err := a.vcs.DiffNumstat(ctx, baseRef)
	if err != nil {
		return nil, errors.Mark(
			errors.Wrapf(err, "diff %s...HEAD", baseRef), ErrVCSOperation)
	}

	if len(stats) == 0 {
		return &DiffAnalysis{
			FilesChanged:  []FileChange{},
			ChangeSummary: "No changes found",
			CommitContext: CommitContext{
				Branch:     currentBranch,
				BaseBranch: baseBranch,
				BaseRef:    baseRef,
			},
			Repository: a.RepositoryInfo(ctx),
		}, nil
	}

	files := make([]FileChange, 0, len(stats))
	totalAdditions, totalDeletions := 0, 0

	for _, stat := range stats {
		kind, err := a.vcs.DiffStatus(ctx, baseRef, stat.Path)
		if err != nil {
			// Documented fallback: an undeterminable status reads as a
			// plain modification.
			kind = Modified
		}

		preview := ""
		if patch, err := a.vcs.DiffPatch(ctx, baseRef, stat.Path); err == nil {
			preview = PatchPreview(patch)
		}

		files = append(files, FileChange{
			Path:           stat.Path,
			Kind:           kind,
			LinesAdded:     stat.Additions,
			LinesRemoved:   stat.Deletions,
			ContentPreview: preview,
		})
		totalAdditions += stat.Additions
		totalDeletions += stat.Deletions
	}

	commitCount, err := a.vcs.CommitCount(ctx, baseRef)
	if err != nil {
		a.log.Warn("could not count commits ahead of base",
			zap.String("base_ref", baseRef), zap.Error(err))
	}

	analysis := &DiffAnalysis{
		FilesChanged:   files,
		TotalAdditions: totalAdditions,
		TotalDeletions: totalDeletions,
		ChangeSummary:  changeSummary(files),
		CommitContext: CommitContext{
			Branch:      currentBranch,
			BaseBranch:  baseBranch,
			BaseRef:     baseRef,
			CommitCount: commitCount,
		},
		Repository: a.RepositoryInfo(ctx),
	}

	a.log.Info("branch changes analyzed",
		zap.String("current_branch", currentBranch),
		zap.String("base_branch", baseBranch),
		zap.Int("file_count", len(files)),
		zap.Int("total_additions", totalAdditions),
		zap.Int("total_deletions", totalDeletions))

	return analysis, nil
}

// RepositoryInfo gathers repository metadata. Every lookup is best-effort:
// missing remotes or a detached head degrade to empty fields.
func (a *Analyzer) RepositoryInfo(ctx context.Context) RepositoryInfo {
	root := a.vcs.Root()
	info := RepositoryInfo{
		Name: filepath.Base(root),
		Path: root,
	}
	if name, url, err := a.vcs.RemoteURL(ctx); err == nil {
		info.Remote = name
		info.RemoteURL = url
	}
	if branch, err := a.vcs.CurrentBranch(ctx); err == nil {
		info.Branch = branch
	}
	return info
}

// UserInfo resolves the author identity from the VCS configuration,
// falling back to environment-derived identity when it is absent.
func (a *Analyzer) UserInfo(ctx context.Context) UserInfo {
	var info UserInfo
	if name, email, err := a.vcs.User(ctx); err == nil {
		info.Name = name
		info.Email = email
	}
	if info.Name == "" {
		info.Name = firstEnv("GIT_AUTHOR_NAME", "USER")
	}
	if info.Email == "" {
		info.Email = firstEnv("GIT_AUTHOR_EMAIL")
	}
	return info
}

// headContext gathers branch and last-commit metadata, best-effort.
func (a *Analyzer) headContext(ctx context.Context) CommitContext {
	var cc CommitContext
	if branch, err := a.vcs.CurrentBranch(ctx); err == nil {
		cc.Branch = branch
	} else {
		a.log.Warn("could not resolve current branch", zap.Error(err))
	}
	if message, author, err := a.vcs.HeadCommit(ctx); err == nil {
		cc.LastCommit = strings.TrimSpace(message)
		cc.Author = author
	}
	return cc
}

func stagedFileChange(entry StagedEntry) FileChange {
	var kind ChangeKind
	switch {
	case entry.New:
		kind = Added
	case entry.Deleted:
		kind = Deleted
	case entry.Renamed:
		kind = Renamed
	case entry.Copied:
		kind = Copied
	default:
		kind = Modified
	}

	path := entry.Path
	if path == "" {
		path = entry.OldPath
	}

	oldPath := ""
	if kind == Renamed || kind == Copied {
		oldPath = entry.OldPath
	}

	added, removed := CountPatchLines(entry.Patch)

	return FileChange{
		Path:           path,
		Kind:           kind,
		LinesAdded:     added,
		LinesRemoved:   removed,
		ContentPreview: PatchPreview(entry.Patch),
		OldPath:        oldPath,
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// changeSummary renders a short count-by-kind description, for example
// "3 files (1 added, 2 modified)".
func changeSummary(files []FileChange) string {
	if len(files) == 0 {
		return "No changes"
	}

	counts := make(map[ChangeKind]int)
	for _, fc := range files {
		counts[fc.Kind]++
	}

	var parts []string
	for _, kind := range []ChangeKind{Added, Modified, Deleted, Renamed} {
		if n := counts[kind]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, kind.Label()))
		}
	}

	joined := strings.Join(parts, ", ")
	if len(files) == 1 {
		return "1 file " + joined
	}
	return fmt.Sprintf("%d files (%s)", len(files), joined)
}
