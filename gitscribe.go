// Package gitscribe provides domain types for analyzing version-control
// changes and describing them to a text-generation back-end.
package gitscribe

import (
	"context"
	"path"
	"sort"
	"strings"
)

// FileChange represents a single changed file in a diff.
type FileChange struct {
	Path           string     `json:"path"`
	Kind           ChangeKind `json:"kind"`
	LinesAdded     int        `json:"lines_added"`
	LinesRemoved   int        `json:"lines_removed"`
	ContentPreview string     `json:"content_preview,omitempty"`
	OldPath        string     `json:"old_path,omitempty"` // set only for renames and copies
}

// IsBinary reports whether the file appears to be binary. Binary files
// produce no countable lines and no textual preview.
func (f FileChange) IsBinary() bool {
	return f.LinesAdded == 0 && f.LinesRemoved == 0 && f.ContentPreview == ""
}

// NetLines returns the net line change, positive for growth.
func (f FileChange) NetLines() int {
	return f.LinesAdded - f.LinesRemoved
}

// CommitContext carries branch and commit metadata gathered during analysis.
// Staged-changes analysis fills Branch, LastCommit and Author; branch-range
// analysis fills Branch, BaseBranch, BaseRef and CommitCount.
type CommitContext struct {
	Branch      string `json:"branch,omitempty"`
	LastCommit  string `json:"last_commit,omitempty"`
	Author      string `json:"author,omitempty"`
	BaseBranch  string `json:"base_branch,omitempty"`
	BaseRef     string `json:"base_ref,omitempty"` // resolved reference the diff was taken against
	CommitCount int    `json:"commit_count,omitempty"`
}

// RepositoryInfo describes the repository a change set belongs to.
type RepositoryInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	RemoteURL string `json:"remote_url,omitempty"`
	Remote    string `json:"remote,omitempty"`
	Branch    string `json:"branch,omitempty"`
}

// UserInfo identifies the author generating the change description.
type UserInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// DiffAnalysis is the raw result of extracting a change set, either the
// staged index or the range between two branches. File order follows the
// underlying VCS enumeration and is stable across runs.
type DiffAnalysis struct {
	FilesChanged   []FileChange   `json:"files_changed"`
	TotalAdditions int            `json:"total_additions"`
	TotalDeletions int            `json:"total_deletions"`
	ChangeSummary  string         `json:"change_summary"`
	CommitContext  CommitContext  `json:"commit_context"`
	Repository     RepositoryInfo `json:"repository_info"`
}

// FileCount returns the number of changed files.
func (d *DiffAnalysis) FileCount() int {
	return len(d.FilesChanged)
}

// NetLines returns the net line change across all files.
func (d *DiffAnalysis) NetLines() int {
	return d.TotalAdditions - d.TotalDeletions
}

// FilesByKind groups the changed files by their change kind.
func (d *DiffAnalysis) FilesByKind() map[ChangeKind][]FileChange {
	grouped := make(map[ChangeKind][]FileChange)
	for _, fc := range d.FilesChanged {
		grouped[fc.Kind] = append(grouped[fc.Kind], fc)
	}
	return grouped
}

// Extensions returns the sorted set of file extensions present in the
// change set, lowercased and without the leading dot.
func (d *DiffAnalysis) Extensions() []string {
	seen := make(map[string]struct{})
	for _, fc := range d.FilesChanged {
		if i := strings.LastIndex(fc.Path, "."); i >= 0 && i < len(fc.Path)-1 {
			seen[strings.ToLower(fc.Path[i+1:])] = struct{}{}
		}
	}
	exts := make([]string, 0, len(seen))
	for ext := range seen {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Directories returns the sorted set of directories containing changed
// files. Files at the repository root contribute no entry.
func (d *DiffAnalysis) Directories() []string {
	seen := make(map[string]struct{})
	for _, fc := range d.FilesChanged {
		if dir := path.Dir(fc.Path); dir != "." && dir != "/" {
			seen[dir] = struct{}{}
		}
	}
	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// primaryExtensions are the extensions usable as a scope label on their own.
var primaryExtensions = map[string]struct{}{
	"py": {}, "js": {}, "ts": {}, "java": {}, "cpp": {}, "c": {}, "go": {}, "rs": {},
}

// commonScopes are directory names recognized as a generic scope label.
var commonScopes = []string{"src", "lib", "tests", "docs", "config"}

// ChangeScope derives a short label qualifying the change set, suitable for
// a conventional-commit scope: the single shared directory, then the single
// shared primary-language extension, then a well-known root directory name,
// then "core" for multi-file changes.
func (d *DiffAnalysis) ChangeScope() string {
	dirs := d.Directories()
	if len(dirs) == 1 {
		return dirs[0]
	}
	if exts := d.Extensions(); len(exts) == 1 {
		if _, ok := primaryExtensions[exts[0]]; ok {
			return exts[0]
		}
	}
	for _, scope := range commonScopes {
		for _, dir := range dirs {
			if strings.Contains(dir, scope) {
				return scope
			}
		}
	}
	if d.FileCount() > 1 {
		return "core"
	}
	return ""
}

// IsLikelyFeature reports whether the change set looks like new
// functionality: growth dominates, several files, at least one new file.
func (d *DiffAnalysis) IsLikelyFeature() bool {
	if d.TotalAdditions <= d.TotalDeletions*2 || d.FileCount() <= 1 {
		return false
	}
	for _, fc := range d.FilesChanged {
		if fc.Kind == Added {
			return true
		}
	}
	return false
}

// IsLikelyFix reports whether the change set looks like a bug fix: a small
// number of touched files, no new files, edits in both directions.
func (d *DiffAnalysis) IsLikelyFix() bool {
	if d.FileCount() == 0 || d.FileCount() > 3 {
		return false
	}
	for _, fc := range d.FilesChanged {
		if fc.Kind == Added {
			return false
		}
	}
	return d.TotalAdditions > 0 && d.TotalDeletions > 0
}

// IsLikelyRefactor reports whether the change set looks like a refactoring:
// additions and deletions roughly balance and files were renamed or copied.
func (d *DiffAnalysis) IsLikelyRefactor() bool {
	larger := d.TotalAdditions
	if d.TotalDeletions > larger {
		larger = d.TotalDeletions
	}
	diff := d.TotalAdditions - d.TotalDeletions
	if diff < 0 {
		diff = -diff
	}
	if float64(diff) >= float64(larger)*0.3 {
		return false
	}
	for _, fc := range d.FilesChanged {
		if fc.Kind == Renamed || fc.Kind == Copied {
			return true
		}
	}
	return false
}

// StagedEntry is one staged change as reported by the VCS adapter: the
// status flags, both path fields and the raw patch text.
type StagedEntry struct {
	Path    string
	OldPath string
	New     bool
	Deleted bool
	Renamed bool
	Copied  bool
	Patch   string
}

// NumstatEntry is one line of a numeric-stat diff between two revisions.
// Binary files carry zero counts and the Binary flag.
type NumstatEntry struct {
	Additions int
	Deletions int
	Binary    bool
	Path      string
}

// VCS is the read-only repository surface the analyzer consumes. The
// analyzer never writes to the repository through this interface.
type VCS interface {
	// Root returns the absolute path of the repository working tree.
	Root() string
	// CurrentBranch returns the name of the checked-out branch.
	CurrentBranch(ctx context.Context) (string, error)
	// HeadCommit returns the head commit's message and author.
	HeadCommit(ctx context.Context) (message, author string, err error)
	// RemoteURL returns the preferred remote's name and first URL.
	RemoteURL(ctx context.Context) (name, url string, err error)
	// User returns user.name and user.email from the VCS configuration.
	User(ctx context.Context) (name, email string, err error)
	// StagedEntries lists the index-versus-head changes with raw patches.
	StagedEntries(ctx context.Context) ([]StagedEntry, error)
	// UntrackedFiles lists working-tree files unknown to version control.
	UntrackedFiles(ctx context.Context) ([]string, error)
	// ReadFile reads a working-tree file by repository-relative path.
	ReadFile(relPath string) ([]byte, error)
	// Fetch updates the named branch from the named remote.
	Fetch(ctx context.Context, remote, branch string) error
	// HasRef reports whether a reference resolves in this repository.
	HasRef(ctx context.Context, ref string) (bool, error)
	// DiffNumstat returns per-file line counts for baseRef...HEAD.
	DiffNumstat(ctx context.Context, baseRef string) ([]NumstatEntry, error)
	// DiffStatus returns the change kind of one path in baseRef...HEAD.
	DiffStatus(ctx context.Context, baseRef, relPath string) (ChangeKind, error)
	// DiffPatch returns raw patch text for baseRef...HEAD, optionally
	// restricted to a single path (empty relPath means the whole diff).
	DiffPatch(ctx context.Context, baseRef, relPath string) (string, error)
	// CommitCount returns the number of commits in baseRef..HEAD.
	CommitCount(ctx context.Context, baseRef string) (int, error)
}
