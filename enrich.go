package gitscribe

import (
	"regexp"
	"sort"
	"strings"
)

// EnhancedFileChange is a FileChange with classification flags and a
// rendered change-type label. The JSON names are referenced by templates
// and must not change.
type EnhancedFileChange struct {
	Path         string `json:"path"`
	ChangeType   string `json:"change_type"`
	LinesAdded   int    `json:"lines_added"`
	LinesDeleted int    `json:"lines_deleted"`
	Description  string `json:"description,omitempty"`
	IsTest       bool   `json:"is_test"`
	IsConfig     bool   `json:"is_config"`
	IsDocs       bool   `json:"is_docs"`
	Language     string `json:"language,omitempty"`
}

// EnhancedDiffAnalysis is the fully classified change set handed to the
// template renderer. The kind-based file lists partition AffectedFiles for
// added, modified and deleted files; TestFiles is an overlapping view.
type EnhancedDiffAnalysis struct {
	Summary string `json:"summary"`
	Scope   string `json:"scope,omitempty"`

	IsFeature  bool `json:"is_feature"`
	IsFix      bool `json:"is_fix"`
	IsRefactor bool `json:"is_refactor"`
	IsDocs     bool `json:"is_docs"`
	IsTest     bool `json:"is_test"`

	AffectedFiles []EnhancedFileChange `json:"affected_files"`
	AddedFiles    []EnhancedFileChange `json:"added_files"`
	ModifiedFiles []EnhancedFileChange `json:"modified_files"`
	DeletedFiles  []EnhancedFileChange `json:"deleted_files"`
	TestFiles     []EnhancedFileChange `json:"test_files"`

	LinesAdded   int `json:"lines_added"`
	LinesDeleted int `json:"lines_deleted"`

	RelatedIssues []string `json:"related_issues"`
}

// EnhanceFileChange classifies a single file change and renders its kind
// as a template-facing label.
func EnhanceFileChange(fc FileChange) EnhancedFileChange {
	return EnhancedFileChange{
		Path:         fc.Path,
		ChangeType:   fc.Kind.Label(),
		LinesAdded:   fc.LinesAdded,
		LinesDeleted: fc.LinesRemoved,
		Description:  DescribeChange(fc),
		IsTest:       IsTestPath(fc.Path),
		IsConfig:     IsConfigPath(fc.Path),
		IsDocs:       IsDocsPath(fc.Path),
		Language:     DetectLanguage(fc.Path),
	}
}

// Enrich composes classification, change-set heuristics and issue
// extraction into the structure templates consume. It performs no I/O and
// is deterministic: the same analysis always enriches to the same result.
func Enrich(d *DiffAnalysis) *EnhancedDiffAnalysis {
	enhanced := make([]EnhancedFileChange, 0, len(d.FilesChanged))
	added := []EnhancedFileChange{}
	modified := []EnhancedFileChange{}
	deleted := []EnhancedFileChange{}
	testFiles := []EnhancedFileChange{}

	for _, fc := range d.FilesChanged {
		ef := EnhanceFileChange(fc)
		enhanced = append(enhanced, ef)

		switch ef.ChangeType {
		case "added":
			added = append(added, ef)
		case "modified":
			modified = append(modified, ef)
		case "deleted":
			deleted = append(deleted, ef)
		}
		if ef.IsTest {
			testFiles = append(testFiles, ef)
		}
	}

	isDocs := isDocsChange(enhanced)
	isTest := isTestChange(enhanced)

	return &EnhancedDiffAnalysis{
		Summary:       deriveSummary(d, enhanced),
		Scope:         d.ChangeScope(),
		IsFeature:     d.IsLikelyFeature(),
		IsFix:         d.IsLikelyFix(),
		IsRefactor:    d.IsLikelyRefactor(),
		IsDocs:        isDocs,
		IsTest:        isTest,
		AffectedFiles: enhanced,
		AddedFiles:    added,
		ModifiedFiles: modified,
		DeletedFiles:  deleted,
		TestFiles:     testFiles,
		LinesAdded:    d.TotalAdditions,
		LinesDeleted:  d.TotalDeletions,
		RelatedIssues: ExtractIssueRefs(d.ChangeSummary),
	}
}

// isDocsChange reports whether documentation dominates the change set.
func isDocsChange(files []EnhancedFileChange) bool {
	if len(files) == 0 {
		return false
	}
	docs := 0
	for _, f := range files {
		if f.IsDocs {
			docs++
		}
	}
	return float64(docs) > float64(len(files))*0.7
}

// isTestChange reports whether test files dominate the change set.
func isTestChange(files []EnhancedFileChange) bool {
	if len(files) == 0 {
		return false
	}
	tests := 0
	for _, f := range files {
		if f.IsTest {
			tests++
		}
	}
	return float64(tests) > float64(len(files))*0.7
}

// deriveSummary prefers the raw change summary and otherwise falls back to
// a generic description chosen from the heuristic flags.
func deriveSummary(d *DiffAnalysis, files []EnhancedFileChange) string {
	if s := strings.TrimSpace(d.ChangeSummary); s != "" {
		return s
	}
	switch {
	case isDocsChange(files):
		return "Update documentation"
	case isTestChange(files):
		return "Update tests"
	case d.IsLikelyFeature():
		return "Add new feature"
	case d.IsLikelyFix():
		return "Fix bug"
	case d.IsLikelyRefactor():
		return "Refactor code"
	default:
		return "Update code"
	}
}

var issuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`#(\d+)`),
	regexp.MustCompile(`(?i)closes?\s+#(\d+)`),
	regexp.MustCompile(`(?i)fixes?\s+#(\d+)`),
	regexp.MustCompile(`(?i)resolves?\s+#(\d+)`),
}

// ExtractIssueRefs collects issue references of the form "#123" from prose,
// deduplicated and sorted.
func ExtractIssueRefs(text string) []string {
	if text == "" {
		return []string{}
	}
	seen := make(map[string]struct{})
	for _, re := range issuePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			seen["#"+m[1]] = struct{}{}
		}
	}
	issues := make([]string, 0, len(seen))
	for issue := range seen {
		issues = append(issues, issue)
	}
	sort.Strings(issues)
	return issues
}
