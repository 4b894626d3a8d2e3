package gitscribe

import (
	"regexp"
	"strings"
)

// Path classification is pure and content-free: the same path always yields
// the same flags regardless of what changed inside the file. The flags are
// not mutually exclusive.

var testPathPatterns = compileAll(
	`test_.*\.py$`,
	`.*_test\.py$`,
	`.*_test\.go$`,
	`.*\.test\.(js|ts)$`,
	`.*\.spec\.(js|ts)$`,
	`tests?/.*`,
	`spec/.*`,
	`__tests__/.*`,
)

var configPathPatterns = compileAll(
	`.*\.config\.(js|ts|json|yaml|yml)$`,
	`.*\.env.*`,
	`Dockerfile.*`,
	`.*\.ini$`,
	`.*\.cfg$`,
	`pyproject\.toml$`,
	`package\.json$`,
	`package-lock\.json$`,
	`requirements.*\.txt$`,
	`Gemfile$`,
	`pom\.xml$`,
	`go\.(mod|sum)$`,
	`.*\.lock$`,
)

var docsPathPatterns = compileAll(
	`.*\.md$`,
	`.*\.rst$`,
	`.*\.txt$`,
	`docs?/.*`,
	`README.*`,
	`CHANGELOG.*`,
	`LICENSE.*`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(`(?i)` + p)
	}
	return compiled
}

func matchesAny(path string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// IsTestPath reports whether the path follows a test-file convention.
func IsTestPath(path string) bool {
	return matchesAny(path, testPathPatterns)
}

// IsConfigPath reports whether the path is a build, dependency or
// environment manifest.
func IsConfigPath(path string) bool {
	return matchesAny(path, configPathPatterns)
}

// IsDocsPath reports whether the path is documentation.
func IsDocsPath(path string) bool {
	return matchesAny(path, docsPathPatterns)
}

var languageByExtension = map[string]string{
	"py":    "python",
	"js":    "javascript",
	"ts":    "typescript",
	"java":  "java",
	"cpp":   "cpp",
	"c":     "c",
	"h":     "c",
	"rs":    "rust",
	"go":    "go",
	"php":   "php",
	"rb":    "ruby",
	"swift": "swift",
	"kt":    "kotlin",
	"cs":    "csharp",
	"html":  "html",
	"css":   "css",
	"scss":  "scss",
	"json":  "json",
	"yaml":  "yaml",
	"yml":   "yaml",
	"xml":   "xml",
	"sql":   "sql",
	"sh":    "shell",
}

// DetectLanguage returns the programming language implied by the file
// extension, or the empty string when the extension is unknown or absent.
func DetectLanguage(path string) string {
	i := strings.LastIndex(path, ".")
	if i < 0 || i == len(path)-1 {
		return ""
	}
	return languageByExtension[strings.ToLower(path[i+1:])]
}

// DescribeChange produces a short display description for a file change.
// Role flags win over size-based descriptions; a file growing past three
// times its removals is "Major additions" and the reverse "Major deletions".
func DescribeChange(fc FileChange) string {
	switch {
	case IsTestPath(fc.Path):
		return "Test file"
	case IsConfigPath(fc.Path):
		return "Configuration file"
	case IsDocsPath(fc.Path):
		return "Documentation"
	case fc.Kind == Added:
		return "New file"
	case fc.LinesAdded > fc.LinesRemoved*3:
		return "Major additions"
	case fc.LinesRemoved > fc.LinesAdded*3:
		return "Major deletions"
	default:
		return "Updated"
	}
}
