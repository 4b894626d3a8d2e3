package gitscribe_test

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gitscribe/gitscribe"
	"github.com/gitscribe/gitscribe/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addFuncPatch = `diff --git a/pkg/math.go b/pkg/math.go
--- a/pkg/math.go
+++ b/pkg/math.go
@@ -1,3 +1,6 @@
 package pkg
+
+func Double(n int) int {
+	return n * 2
+}
`

func TestAnalyzerStagedChanges(t *testing.T) {
	t.Parallel()

	t.Run("analyzes staged entries", func(t *testing.T) {
		t.Parallel()

		vcs := &mock.VCS{
			StagedEntriesFn: func(ctx context.Context) ([]gitscribe.StagedEntry, error) {
				return []gitscribe.StagedEntry{
					{Path: "pkg/math.go", Patch: addFuncPatch},
					{Path: "pkg/new.go", New: true, Patch: "+package pkg\n"},
				}, nil
			},
			CurrentBranchFn: func(ctx context.Context) (string, error) {
				return "feature/doubling", nil
			},
			HeadCommitFn: func(ctx context.Context) (string, string, error) {
				return "previous commit\n", "Dev <dev@example.com>", nil
			},
		}

		analysis, err := gitscribe.NewAnalyzer(vcs).StagedChanges(context.Background(), false)
		require.NoError(t, err)

		require.Len(t, analysis.FilesChanged, 2)
		first := analysis.FilesChanged[0]
		assert.Equal(t, "pkg/math.go", first.Path)
		assert.Equal(t, gitscribe.Modified, first.Kind)
		assert.Equal(t, 3, first.LinesAdded)
		assert.Equal(t, 0, first.LinesRemoved)
		assert.NotEmpty(t, first.ContentPreview)

		second := analysis.FilesChanged[1]
		assert.Equal(t, gitscribe.Added, second.Kind)
		assert.Equal(t, 1, second.LinesAdded)

		assert.Equal(t, 4, analysis.TotalAdditions)
		assert.Equal(t, 0, analysis.TotalDeletions)
		assert.Equal(t, "2 files (1 added, 1 modified)", analysis.ChangeSummary)
		assert.Equal(t, "feature/doubling", analysis.CommitContext.Branch)
		assert.Equal(t, "previous commit", analysis.CommitContext.LastCommit)
		assert.Equal(t, "repo", analysis.Repository.Name)
	})

	t.Run("includes untracked files as additions", func(t *testing.T) {
		t.Parallel()

		vcs := &mock.VCS{
			UntrackedFilesFn: func(ctx context.Context) ([]string, error) {
				return []string{"notes.txt"}, nil
			},
			ReadFileFn: func(relPath string) ([]byte, error) {
				return []byte("line one\nline two\n"), nil
			},
		}

		analysis, err := gitscribe.NewAnalyzer(vcs).StagedChanges(context.Background(), true)
		require.NoError(t, err)

		require.Len(t, analysis.FilesChanged, 1)
		fc := analysis.FilesChanged[0]
		assert.Equal(t, "notes.txt", fc.Path)
		assert.Equal(t, gitscribe.Added, fc.Kind)
		assert.Equal(t, 2, fc.LinesAdded)
		assert.Contains(t, fc.ContentPreview, "line one")
		assert.Equal(t, 2, analysis.TotalAdditions)
		assert.Equal(t, "1 file 1 added", analysis.ChangeSummary)
	})

	t.Run("skips unreadable untracked files", func(t *testing.T) {
		t.Parallel()

		vcs := &mock.VCS{
			StagedEntriesFn: func(ctx context.Context) ([]gitscribe.StagedEntry, error) {
				return []gitscribe.StagedEntry{{Path: "a.go", Patch: "+x\n"}}, nil
			},
			UntrackedFilesFn: func(ctx context.Context) ([]string, error) {
				return []string{"broken.bin"}, nil
			},
			ReadFileFn: func(relPath string) ([]byte, error) {
				return nil, errors.New("permission denied")
			},
		}

		analysis, err := gitscribe.NewAnalyzer(vcs).StagedChanges(context.Background(), true)
		require.NoError(t, err)

		require.Len(t, analysis.FilesChanged, 1)
		assert.Equal(t, "a.go", analysis.FilesChanged[0].Path)
	})

	t.Run("returns ErrNoChanges on an empty index", func(t *testing.T) {
		t.Parallel()

		_, err := gitscribe.NewAnalyzer(&mock.VCS{}).StagedChanges(context.Background(), true)
		require.Error(t, err)
		assert.ErrorIs(t, err, gitscribe.ErrNoChanges)
	})

	t.Run("marks listing failures as VCS errors", func(t *testing.T) {
		t.Parallel()

		vcs := &mock.VCS{
			StagedEntriesFn: func(ctx context.Context) ([]gitscribe.StagedEntry, error) {
				return nil, errors.New("index locked")
			},
		}

		_, err := gitscribe.NewAnalyzer(vcs).StagedChanges(context.Background(), false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, gitscribe.ErrVCSOperation))
	})

	t.Run("renamed entry keeps both paths", func(t *testing.T) {
		t.Parallel()

		vcs := &mock.VCS{
			StagedEntriesFn: func(ctx context.Context) ([]gitscribe.StagedEntry, error) {
				return []gitscribe.StagedEntry{
					{Path: "pkg/new_name.go", OldPath: "pkg/old_name.go", Renamed: true},
				}, nil
			},
		}

		analysis, err := gitscribe.NewAnalyzer(vcs).StagedChanges(context.Background(), false)
		require.NoError(t, err)

		fc := analysis.FilesChanged[0]
		assert.Equal(t, gitscribe.Renamed, fc.Kind)
		assert.Equal(t, "pkg/new_name.go", fc.Path)
		assert.Equal(t, "pkg/old_name.go", fc.OldPath)
	})
}

func TestAnalyzerBranchChanges(t *testing.T) {
	t.Parallel()

	t.Run("prefers the remote tracking ref", func(t *testing.T) {
		t.Parallel()

		var numstatRef, statusRef string
		vcs := &mock.VCS{
			HasRefFn: func(ctx context.Context, ref string) (bool, error) {
				return ref == "origin/main", nil
			},
			DiffNumstatFn: func(ctx context.Context, baseRef string) ([]gitscribe.NumstatEntry, error) {
				numstatRef = baseRef
				return []gitscribe.NumstatEntry{
					{Path: "cmd/root.go", Additions: 12, Deletions: 4},
				}, nil
			},
			DiffStatusFn: func(ctx context.Context, baseRef, relPath string) (gitscribe.ChangeKind, error) {
				statusRef = baseRef
				return gitscribe.Modified, nil
			},
			CommitCountFn: func(ctx context.Context, baseRef string) (int, error) {
				return 3, nil
			},
			CurrentBranchFn: func(ctx context.Context) (string, error) {
				return "feature/cli", nil
			},
		}

		analysis, err := gitscribe.NewAnalyzer(vcs).BranchChanges(context.Background(), "main")
		require.NoError(t, err)

		assert.Equal(t, "origin/main", numstatRef)
		assert.Equal(t, "origin/main", statusRef)
		assert.Equal(t, "origin/main", analysis.CommitContext.BaseRef)
		assert.Equal(t, "main", analysis.CommitContext.BaseBranch)
		assert.Equal(t, "feature/cli", analysis.CommitContext.Branch)
		assert.Equal(t, 3, analysis.CommitContext.CommitCount)
		assert.Equal(t, 12, analysis.TotalAdditions)
		assert.Equal(t, 4, analysis.TotalDeletions)
	})

	t.Run("falls back to the local ref", func(t *testing.T) {
		t.Parallel()

		vcs := &mock.VCS{
			FetchFn: func(ctx context.Context, remote, branch string) error {
				return errors.New("no network")
			},
			DiffNumstatFn: func(ctx context.Context, baseRef string) ([]gitscribe.NumstatEntry, error) {
				assert.Equal(t, "main", baseRef)
				return []gitscribe.NumstatEntry{{Path: "a.go", Additions: 1}}, nil
			},
		}

		analysis, err := gitscribe.NewAnalyzer(vcs).BranchChanges(context.Background(), "main")
		require.NoError(t, err)
		assert.Equal(t, "main", analysis.CommitContext.BaseRef)
	})

	t.Run("binary files carry zero line counts", func(t *testing.T) {
		t.Parallel()

		vcs := &mock.VCS{
			DiffNumstatFn: func(ctx context.Context, baseRef string) ([]gitscribe.NumstatEntry, error) {
				return []gitscribe.NumstatEntry{
					{Path: "assets/logo.png", Binary: true},
					{Path: "main.go", Additions: 7, Deletions: 2},
				}, nil
			},
		}

		analysis, err := gitscribe.NewAnalyzer(vcs).BranchChanges(context.Background(), "main")
		require.NoError(t, err)

		require.Len(t, analysis.FilesChanged, 2)
		logo := analysis.FilesChanged[0]
		assert.Equal(t, 0, logo.LinesAdded)
		assert.Equal(t, 0, logo.LinesRemoved)
		assert.True(t, logo.IsBinary())
		assert.Equal(t, 7, analysis.TotalAdditions)
		assert.Equal(t, 2, analysis.TotalDeletions)
	})

	t.Run("status lookup failure degrades to modified", func(t *testing.T) {
		t.Parallel()

		vcs := &mock.VCS{
			DiffNumstatFn: func(ctx context.Context, baseRef string) ([]gitscribe.NumstatEntry, error) {
				return []gitscribe.NumstatEntry{{Path: "a.go", Additions: 1}}, nil
			},
			DiffStatusFn: func(ctx context.Context, baseRef, relPath string) (gitscribe.ChangeKind, error) {
				return gitscribe.Unknown, errors.New("ambiguous rename")
			},
		}

		analysis, err := gitscribe.NewAnalyzer(vcs).BranchChanges(context.Background(), "main")
		require.NoError(t, err)
		assert.Equal(t, gitscribe.Modified, analysis.FilesChanged[0].Kind)
	})

	t.Run("empty diff is a result, not an error", func(t *testing.T) {
		t.Parallel()

		analysis, err := gitscribe.NewAnalyzer(&mock.VCS{}).BranchChanges(context.Background(), "main")
		require.NoError(t, err)

		assert.Empty(t, analysis.FilesChanged)
		assert.Equal(t, "No changes found", analysis.ChangeSummary)
		assert.Equal(t, "main", analysis.CommitContext.BaseBranch)
	})

	t.Run("numstat failure is a VCS error", func(t *testing.T) {
		t.Parallel()

		vcs := &mock.VCS{
			DiffNumstatFn: func(ctx context.Context, baseRef string) ([]gitscribe.NumstatEntry, error) {
				return nil, errors.New("bad ref")
			},
		}

		_, err := gitscribe.NewAnalyzer(vcs).BranchChanges(context.Background(), "main")
		require.Error(t, err)
		assert.True(t, errors.Is(err, gitscribe.ErrVCSOperation))
	})
}

func TestAnalyzerRepositoryInfo(t *testing.T) {
	t.Parallel()

	vcs := &mock.VCS{
		RootFn: func() string { return "/home/dev/projects/gitscribe" },
		RemoteURLFn: func(ctx context.Context) (string, string, error) {
			return "origin", "git@example.com:dev/gitscribe.git", nil
		},
		CurrentBranchFn: func(ctx context.Context) (string, error) {
			return "main", nil
		},
	}

	info := gitscribe.NewAnalyzer(vcs).RepositoryInfo(context.Background())

	assert.Equal(t, "gitscribe", info.Name)
	assert.Equal(t, "/home/dev/projects/gitscribe", info.Path)
	assert.Equal(t, "origin", info.Remote)
	assert.Equal(t, "git@example.com:dev/gitscribe.git", info.RemoteURL)
	assert.Equal(t, "main", info.Branch)
}

func TestAnalyzerUserInfo(t *testing.T) {
	t.Parallel()

	vcs := &mock.VCS{
		UserFn: func(ctx context.Context) (string, string, error) {
			return "Dev Example", "dev@example.com", nil
		},
	}

	info := gitscribe.NewAnalyzer(vcs).UserInfo(context.Background())

	assert.Equal(t, "Dev Example", info.Name)
	assert.Equal(t, "dev@example.com", info.Email)
}
