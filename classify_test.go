package gitscribe_test

import (
	"testing"

	"github.com/gitscribe/gitscribe"
	"github.com/stretchr/testify/assert"
)

func TestIsTestPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"tests/test_payments.py", true},
		{"pkg/store/store_test.go", true},
		{"src/app.spec.js", true},
		{"src/app.test.ts", true},
		{"__tests__/render.js", true},
		{"spec/models/user.rb", true},
		{"TESTS/fixtures.json", true},
		{"src/payments/charge.go", false},
		{"main.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, gitscribe.IsTestPath(tt.path))
		})
	}
}

func TestIsConfigPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"package.json", true},
		{"package-lock.json", true},
		{"go.mod", true},
		{"go.sum", true},
		{"Cargo.lock", true},
		{".env.production", true},
		{"Dockerfile.dev", true},
		{"webpack.config.js", true},
		{"pyproject.toml", true},
		{"requirements-dev.txt", true},
		{"setup.cfg", true},
		{"src/server.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, gitscribe.IsConfigPath(tt.path))
		})
	}
}

func TestIsDocsPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"README.md", true},
		{"readme.md", true},
		{"docs/guide.html", true},
		{"CHANGELOG", true},
		{"LICENSE.txt", true},
		{"notes.rst", true},
		{"cmd/serve.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, gitscribe.IsDocsPath(tt.path))
		})
	}
}

func TestClassificationIsIndependent(t *testing.T) {
	t.Parallel()

	// A test plan in markdown is both a test path and a docs path.
	path := "tests/plan.md"

	assert.True(t, gitscribe.IsTestPath(path))
	assert.True(t, gitscribe.IsDocsPath(path))
}

func TestDetectLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"app.PY", "python"},
		{"index.ts", "typescript"},
		{"schema.SQL", "sql"},
		{"deploy.yml", "yaml"},
		{"Makefile", ""},
		{"archive.xyz", ""},
		{"trailingdot.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, gitscribe.DetectLanguage(tt.path))
		})
	}
}

func TestDescribeChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fc   gitscribe.FileChange
		want string
	}{
		{
			name: "test file wins over added",
			fc:   gitscribe.FileChange{Path: "pkg/x_test.go", Kind: gitscribe.Added},
			want: "Test file",
		},
		{
			name: "config file",
			fc:   gitscribe.FileChange{Path: "go.mod", Kind: gitscribe.Modified},
			want: "Configuration file",
		},
		{
			name: "docs",
			fc:   gitscribe.FileChange{Path: "README.md", Kind: gitscribe.Modified},
			want: "Documentation",
		},
		{
			name: "new file",
			fc:   gitscribe.FileChange{Path: "pkg/new.go", Kind: gitscribe.Added},
			want: "New file",
		},
		{
			name: "major additions",
			fc:   gitscribe.FileChange{Path: "pkg/big.go", Kind: gitscribe.Modified, LinesAdded: 40, LinesRemoved: 10},
			want: "Major additions",
		},
		{
			name: "major deletions",
			fc:   gitscribe.FileChange{Path: "pkg/gone.go", Kind: gitscribe.Modified, LinesAdded: 2, LinesRemoved: 30},
			want: "Major deletions",
		},
		{
			name: "default",
			fc:   gitscribe.FileChange{Path: "pkg/even.go", Kind: gitscribe.Modified, LinesAdded: 5, LinesRemoved: 5},
			want: "Updated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, gitscribe.DescribeChange(tt.fc))
		})
	}
}
