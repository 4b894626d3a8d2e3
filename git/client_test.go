package git_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gitscribe/gitscribe"
	"github.com/gitscribe/gitscribe/git"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRepo creates a temporary git repository with a single commit
// on main and returns its path.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	runGit(t, dir, "init", "-b", "main")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")

	writeFile(t, dir, "README.md", "# Test Repo\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "Initial commit")

	return dir
}

// runGit executes a git command in the given directory.
func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "command git %v failed: %s", args, string(output))
	return string(output)
}

// writeFile creates a file with the given content, creating parent
// directories as needed.
func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("opens an existing repository", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)

		client, err := git.Open(dir)

		require.NoError(t, err)
		assert.Equal(t, dir, client.Root())
	})

	t.Run("detects the repository from a subdirectory", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)
		sub := filepath.Join(dir, "pkg", "deep")
		require.NoError(t, os.MkdirAll(sub, 0o755))

		client, err := git.Open(sub)

		require.NoError(t, err)
		assert.Equal(t, dir, client.Root())
	})

	t.Run("rejects a directory outside any repository", func(t *testing.T) {
		t.Parallel()

		_, err := git.Open(t.TempDir())

		require.Error(t, err)
		assert.True(t, errors.Is(err, gitscribe.ErrInvalidRepository))
	})
}

func TestClient_Metadata(t *testing.T) {
	t.Parallel()

	t.Run("current branch", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)
		runGit(t, dir, "checkout", "-b", "feature/api")

		client, err := git.Open(dir)
		require.NoError(t, err)

		branch, err := client.CurrentBranch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "feature/api", branch)
	})

	t.Run("head commit", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)

		client, err := git.Open(dir)
		require.NoError(t, err)

		message, author, err := client.HeadCommit(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Initial commit", strings.TrimSpace(message))
		assert.Equal(t, "Test User <test@example.com>", author)
	})

	t.Run("user identity", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)

		client, err := git.Open(dir)
		require.NoError(t, err)

		name, email, err := client.User(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Test User", name)
		assert.Equal(t, "test@example.com", email)
	})

	t.Run("remote url", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)
		runGit(t, dir, "remote", "add", "origin", "git@example.com:dev/project.git")

		client, err := git.Open(dir)
		require.NoError(t, err)

		name, url, err := client.RemoteURL(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "origin", name)
		assert.Equal(t, "git@example.com:dev/project.git", url)
	})
}

func TestClient_StagedEntries(t *testing.T) {
	t.Parallel()

	t.Run("reports staged changes with patches", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)

		writeFile(t, dir, "README.md", "# Test Repo\n\nMore detail.\n")
		writeFile(t, dir, "pkg/new.go", "package pkg\n")
		runGit(t, dir, "add", ".")

		client, err := git.Open(dir)
		require.NoError(t, err)

		entries, err := client.StagedEntries(context.Background())
		require.NoError(t, err)
		require.Len(t, entries, 2)

		byPath := make(map[string]gitscribe.StagedEntry)
		for _, e := range entries {
			byPath[e.Path] = e
		}

		readme := byPath["README.md"]
		assert.False(t, readme.New)
		assert.Contains(t, readme.Patch, "+More detail.")

		added := byPath["pkg/new.go"]
		assert.True(t, added.New)
		assert.Contains(t, added.Patch, "+package pkg")
	})

	t.Run("detects staged renames", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)

		runGit(t, dir, "mv", "README.md", "GUIDE.md")

		client, err := git.Open(dir)
		require.NoError(t, err)

		entries, err := client.StagedEntries(context.Background())
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].Renamed)
		assert.Equal(t, "GUIDE.md", entries[0].Path)
		assert.Equal(t, "README.md", entries[0].OldPath)
	})

	t.Run("empty index yields no entries", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)

		client, err := git.Open(dir)
		require.NoError(t, err)

		entries, err := client.StagedEntries(context.Background())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestClient_UntrackedFiles(t *testing.T) {
	t.Parallel()

	dir := setupTestRepo(t)
	writeFile(t, dir, "scratch.txt", "notes\n")
	writeFile(t, dir, "ignored.log", "noise\n")
	writeFile(t, dir, ".gitignore", "*.log\n")

	client, err := git.Open(dir)
	require.NoError(t, err)

	files, err := client.UntrackedFiles(context.Background())
	require.NoError(t, err)

	assert.Contains(t, files, "scratch.txt")
	assert.Contains(t, files, ".gitignore")
	assert.NotContains(t, files, "ignored.log")
}

func TestClient_BranchDiff(t *testing.T) {
	t.Parallel()

	// setupFeatureBranch commits a change on a feature branch so that
	// main...HEAD has exactly one modified file.
	setupFeatureBranch := func(t *testing.T) string {
		t.Helper()
		dir := setupTestRepo(t)
		runGit(t, dir, "checkout", "-b", "feature")
		writeFile(t, dir, "README.md", "# Test Repo\n\nFeature docs.\n")
		runGit(t, dir, "add", ".")
		runGit(t, dir, "commit", "-m", "Document the feature")
		return dir
	}

	t.Run("numstat", func(t *testing.T) {
		t.Parallel()
		dir := setupFeatureBranch(t)

		client, err := git.Open(dir)
		require.NoError(t, err)

		stats, err := client.DiffNumstat(context.Background(), "main")
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, "README.md", stats[0].Path)
		assert.Equal(t, 2, stats[0].Additions)
		assert.Equal(t, 0, stats[0].Deletions)
	})

	t.Run("status", func(t *testing.T) {
		t.Parallel()
		dir := setupFeatureBranch(t)

		client, err := git.Open(dir)
		require.NoError(t, err)

		kind, err := client.DiffStatus(context.Background(), "main", "README.md")
		require.NoError(t, err)
		assert.Equal(t, gitscribe.Modified, kind)
	})

	t.Run("patch", func(t *testing.T) {
		t.Parallel()
		dir := setupFeatureBranch(t)

		client, err := git.Open(dir)
		require.NoError(t, err)

		patch, err := client.DiffPatch(context.Background(), "main", "README.md")
		require.NoError(t, err)
		assert.Contains(t, patch, "+Feature docs.")

		full, err := client.DiffPatchAll(context.Background(), "main")
		require.NoError(t, err)
		assert.Contains(t, full, "+Feature docs.")
	})

	t.Run("commit count", func(t *testing.T) {
		t.Parallel()
		dir := setupFeatureBranch(t)

		client, err := git.Open(dir)
		require.NoError(t, err)

		count, err := client.CommitCount(context.Background(), "main")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("identical refs diff to nothing", func(t *testing.T) {
		t.Parallel()
		dir := setupTestRepo(t)

		client, err := git.Open(dir)
		require.NoError(t, err)

		stats, err := client.DiffNumstat(context.Background(), "main")
		require.NoError(t, err)
		assert.Empty(t, stats)
	})
}

func TestClient_HasRef(t *testing.T) {
	t.Parallel()

	dir := setupTestRepo(t)

	client, err := git.Open(dir)
	require.NoError(t, err)

	ok, err := client.HasRef(context.Background(), "main")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.HasRef(context.Background(), "origin/main")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_Commit(t *testing.T) {
	t.Parallel()

	dir := setupTestRepo(t)
	writeFile(t, dir, "feature.txt", "content\n")
	runGit(t, dir, "add", ".")

	client, err := git.Open(dir)
	require.NoError(t, err)

	require.NoError(t, client.Commit(context.Background(), "Add feature file"))

	out := runGit(t, dir, "log", "-1", "--format=%s")
	assert.Equal(t, "Add feature file", strings.TrimSpace(out))
}
