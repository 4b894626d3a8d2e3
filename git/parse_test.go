package git_test

import (
	"testing"

	"github.com/gitscribe/gitscribe"
	"github.com/gitscribe/gitscribe/git"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumstat(t *testing.T) {
	t.Parallel()

	t.Run("parses text and binary entries", func(t *testing.T) {
		t.Parallel()

		out := "12\t4\tcmd/root.go\n-\t-\tassets/logo.png\n0\t31\tinternal/legacy.go\n"

		entries, err := git.ParseNumstat(out)

		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, gitscribe.NumstatEntry{Additions: 12, Deletions: 4, Path: "cmd/root.go"}, entries[0])
		assert.Equal(t, gitscribe.NumstatEntry{Binary: true, Path: "assets/logo.png"}, entries[1])
		assert.Equal(t, gitscribe.NumstatEntry{Deletions: 31, Path: "internal/legacy.go"}, entries[2])
	})

	t.Run("empty output parses to no entries", func(t *testing.T) {
		t.Parallel()

		entries, err := git.ParseNumstat("")

		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("rejects malformed lines", func(t *testing.T) {
		t.Parallel()

		_, err := git.ParseNumstat("12 4 missing-tabs.go\n")
		require.Error(t, err)
	})
}

func TestParseNameStatus(t *testing.T) {
	t.Parallel()

	t.Run("parses all status kinds", func(t *testing.T) {
		t.Parallel()

		out := "M\tpkg/a.go\nA\tpkg/b.go\nD\tpkg/c.go\nR100\tpkg/old.go\tpkg/new.go\nC75\tpkg/src.go\tpkg/copy.go\n"

		entries, err := git.ParseNameStatus(out)

		require.NoError(t, err)
		require.Len(t, entries, 5)

		assert.Equal(t, gitscribe.StagedEntry{Path: "pkg/a.go"}, entries[0])
		assert.Equal(t, gitscribe.StagedEntry{Path: "pkg/b.go", New: true}, entries[1])
		assert.Equal(t, gitscribe.StagedEntry{Path: "pkg/c.go", Deleted: true}, entries[2])
		assert.Equal(t, gitscribe.StagedEntry{Path: "pkg/new.go", OldPath: "pkg/old.go", Renamed: true}, entries[3])
		assert.Equal(t, gitscribe.StagedEntry{Path: "pkg/copy.go", OldPath: "pkg/src.go", Copied: true}, entries[4])
	})

	t.Run("rejects unknown status letters", func(t *testing.T) {
		t.Parallel()

		_, err := git.ParseNameStatus("X\tpkg/a.go\n")
		require.Error(t, err)
	})

	t.Run("rejects a rename without a destination", func(t *testing.T) {
		t.Parallel()

		_, err := git.ParseNameStatus("R100\tpkg/old.go\n")
		require.Error(t, err)
	})
}
