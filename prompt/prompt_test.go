package prompt_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gitscribe/gitscribe/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileDiff builds a minimal valid diff chunk adding n lines to path.
func fileDiff(path string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "diff --git a/%s b/%s\n", path, path)
	fmt.Fprintf(&b, "--- a/%s\n", path)
	fmt.Fprintf(&b, "+++ b/%s\n", path)
	fmt.Fprintf(&b, "@@ -0,0 +1,%d @@\n", n)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "+line %d\n", i)
	}
	return b.String()
}

func TestSystemPrompt(t *testing.T) {
	t.Parallel()

	assert.Contains(t, prompt.SystemPrompt("commit"), "commit messages")
	assert.Contains(t, prompt.SystemPrompt("pr"), "pull request")
	assert.Contains(t, prompt.SystemPrompt("unknown"), "commit messages")
}

func TestComposerCompose(t *testing.T) {
	t.Parallel()

	t.Run("empty diff passes the rendered text through", func(t *testing.T) {
		t.Parallel()

		out, report, err := prompt.NewComposer().Compose("rendered prompt", "")

		require.NoError(t, err)
		assert.Equal(t, "rendered prompt", out)
		assert.False(t, report.Truncated)
		assert.Equal(t, prompt.LevelNone, report.Level)
	})

	t.Run("small diff is included whole", func(t *testing.T) {
		t.Parallel()

		raw := fileDiff("main.go", 3) + fileDiff("util.go", 2)

		out, report, err := prompt.NewComposer().Compose("rendered", raw)

		require.NoError(t, err)
		assert.Contains(t, out, "rendered\n\nFull diff:")
		assert.Contains(t, out, "diff --git a/main.go b/main.go")
		assert.Contains(t, out, "diff --git a/util.go b/util.go")
		assert.False(t, report.Truncated)
		assert.Equal(t, 2, report.TotalFiles)
		assert.Equal(t, 2, report.FilesPreserved)
	})

	t.Run("lockfile noise collapses to one line", func(t *testing.T) {
		t.Parallel()

		raw := fileDiff("main.go", 3) + fileDiff("package-lock.json", 500)

		out, report, err := prompt.NewComposer().Compose("rendered", raw)

		require.NoError(t, err)
		assert.Contains(t, out, "### package-lock.json (generated or lockfile")
		assert.NotContains(t, out, "diff --git a/package-lock.json")
		assert.True(t, report.Truncated)
		assert.Equal(t, prompt.LevelModerate, report.Level)
		assert.Equal(t, []string{"package-lock.json"}, report.TruncatedFiles)
		assert.Equal(t, 1, report.FilesPreserved)
	})

	t.Run("oversized patches are cut at the per-file budget", func(t *testing.T) {
		t.Parallel()

		raw := fileDiff("big.go", 50)

		out, report, err := prompt.NewComposer(prompt.WithPerFileLines(10)).Compose("rendered", raw)

		require.NoError(t, err)
		assert.Contains(t, out, "... (patch truncated)")
		assert.Contains(t, out, "+line 1")
		assert.NotContains(t, out, "+line 49")
		assert.True(t, report.Truncated)
		assert.Equal(t, prompt.LevelModerate, report.Level)
	})

	t.Run("files beyond the total budget are dropped", func(t *testing.T) {
		t.Parallel()

		raw := fileDiff("a.go", 20) + fileDiff("b.go", 20) + fileDiff("c.go", 20)

		out, report, err := prompt.NewComposer(
			prompt.WithMaxLines(30), prompt.WithPerFileLines(25)).Compose("rendered", raw)

		require.NoError(t, err)
		assert.Contains(t, out, "diff --git a/a.go")
		assert.NotContains(t, out, "diff --git a/c.go")
		assert.Equal(t, prompt.LevelAggressive, report.Level)
		assert.Contains(t, report.TruncatedFiles, "c.go")
		assert.Contains(t, out, "... (patch truncated)")
		assert.Contains(t, out, "files truncated to fit the prompt budget")
	})

	t.Run("unparseable diff is an error", func(t *testing.T) {
		t.Parallel()

		raw := "diff --git a/x b/x\n--- a/x\n+++ b/x\n@@ -1,5 +1,5 @@\njunk line without a diff prefix\n"

		_, _, err := prompt.NewComposer().Compose("rendered", raw)

		require.Error(t, err)
	})
}
