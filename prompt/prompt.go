// Package prompt assembles the provider prompt from a rendered template
// and optional raw diff context. Raw branch diffs can be arbitrarily
// large, so they pass through a per-file truncation budget before
// inclusion: lockfile and generated-file noise is collapsed, oversized
// patches are cut, and whole files are dropped only when the total budget
// runs out.
package prompt

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/cockroachdb/errors"
)

// System prompts sent alongside the composed user prompt.
const (
	CommitSystemPrompt = "You are a helpful assistant that generates clear, concise commit " +
		"messages based on git changes. Follow the template format provided " +
		"exactly and focus on the actual changes made."
	PRSystemPrompt = "You are a helpful assistant that generates clear, concise pull request " +
		"descriptions based on git changes. Follow the template format provided " +
		"exactly and focus on the actual changes made."
)

// SystemPrompt returns the system prompt for a template category.
// Unknown categories get the commit prompt.
func SystemPrompt(category string) string {
	if category == "pr" {
		return PRSystemPrompt
	}
	return CommitSystemPrompt
}

// Level describes how much of the diff was cut.
type Level string

const (
	// LevelNone means the diff fit the budget unchanged.
	LevelNone Level = ""
	// LevelModerate means some file patches were collapsed or shortened.
	LevelModerate Level = "moderate"
	// LevelAggressive means whole files were dropped to fit the budget.
	LevelAggressive Level = "aggressive"
)

// Report describes what truncation did to the diff.
type Report struct {
	Truncated      bool
	Level          Level
	TotalFiles     int
	FilesPreserved int
	FilesTruncated int
	TruncatedFiles []string
}

// noisePathPatterns match files whose full patches add bulk but no
// signal. Their chunks are collapsed to a single line.
var noisePathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(^|/)package-lock\.json$`),
	regexp.MustCompile(`(?i)(^|/)yarn\.lock$`),
	regexp.MustCompile(`(?i)(^|/)pnpm-lock\.yaml$`),
	regexp.MustCompile(`(?i)\.lock$`),
	regexp.MustCompile(`(?i)(^|/)go\.sum$`),
	regexp.MustCompile(`(?i)\.min\.(js|css)$`),
	regexp.MustCompile(`(?i)(^|/)vendor/`),
	regexp.MustCompile(`(?i)\.pb\.go$`),
	regexp.MustCompile(`(?i)(^|/)node_modules/`),
}

// Composer builds prompts under a line budget.
type Composer struct {
	maxLines     int
	perFileLines int
}

// Option configures a Composer.
type Option func(*Composer)

// WithMaxLines sets the total diff line budget.
func WithMaxLines(n int) Option {
	return func(c *Composer) { c.maxLines = n }
}

// WithPerFileLines sets the per-file patch line budget.
func WithPerFileLines(n int) Option {
	return func(c *Composer) { c.perFileLines = n }
}

// NewComposer creates a Composer with a 10000-line total budget and a
// 400-line per-file budget.
func NewComposer(opts ...Option) *Composer {
	c := &Composer{
		maxLines:     10000,
		perFileLines: 400,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose appends the raw diff to the rendered template, truncated to the
// configured budgets. An empty diff returns the rendered text unchanged.
func (c *Composer) Compose(rendered, rawDiff string) (string, Report, error) {
	rawDiff = strings.TrimSpace(rawDiff)
	if rawDiff == "" {
		return rendered, Report{}, nil
	}

	files, _, err := gitdiff.Parse(strings.NewReader(rawDiff))
	if err != nil {
		return "", Report{}, errors.Wrap(err, "parse diff")
	}

	chunks := splitChunks(rawDiff)
	if len(chunks) != len(files) {
		// The splitter and the parser disagree on file boundaries; treat
		// the diff as one opaque chunk rather than mislabel files.
		return c.composeOpaque(rendered, rawDiff), Report{
			Truncated:      countLines(rawDiff) > c.maxLines,
			Level:          levelFor(countLines(rawDiff) > c.maxLines, false),
			TotalFiles:     len(files),
			FilesPreserved: len(files),
		}, nil
	}

	var (
		parts          []string
		usedLines      int
		truncatedFiles []string
		dropped        bool
	)

	for i, file := range files {
		path := filePath(file)
		chunk := chunks[i]
		chunkLines := countLines(chunk)

		switch {
		case isNoisePath(path):
			parts = append(parts,
				"### "+path+" (generated or lockfile, "+strconv.Itoa(chunkLines)+" lines omitted)")
			truncatedFiles = append(truncatedFiles, path)
			usedLines++
		case usedLines >= c.maxLines:
			dropped = true
			truncatedFiles = append(truncatedFiles, path)
		case chunkLines > c.perFileLines || usedLines+chunkLines > c.maxLines:
			budget := c.perFileLines
			if remaining := c.maxLines - usedLines; remaining < budget {
				budget = remaining
			}
			cut := firstLines(chunk, budget)
			parts = append(parts, cut+"\n... (patch truncated)")
			truncatedFiles = append(truncatedFiles, path)
			usedLines += budget + 1
		default:
			parts = append(parts, chunk)
			usedLines += chunkLines
		}
	}

	report := Report{
		Truncated:      len(truncatedFiles) > 0,
		Level:          levelFor(len(truncatedFiles) > 0, dropped),
		TotalFiles:     len(files),
		FilesPreserved: len(files) - len(truncatedFiles),
		FilesTruncated: len(truncatedFiles),
		TruncatedFiles: truncatedFiles,
	}

	// The parts are already within budget; join them without a second
	// cut so the per-file annotations and the trailer survive intact.
	body := strings.Join(parts, "\n")
	if dropped {
		body += "\n\n... (" + strconv.Itoa(len(files)-report.FilesPreserved) +
			" of " + strconv.Itoa(len(files)) + " files truncated to fit the prompt budget)"
	}
	return appendDiff(rendered, body), report, nil
}

// composeOpaque caps a diff the splitter could not divide into per-file
// chunks. It is the only path that truncates after assembly.
func (c *Composer) composeOpaque(rendered, diff string) string {
	lines := strings.Split(strings.TrimSpace(diff), "\n")
	if len(lines) > c.maxLines {
		lines = append(lines[:c.maxLines], "... (diff truncated)")
	}
	return appendDiff(rendered, strings.Join(lines, "\n"))
}

func appendDiff(rendered, diff string) string {
	return rendered + "\n\nFull diff:\n\n" + strings.TrimSpace(diff)
}

// splitChunks splits a unified diff into per-file chunks on the
// "diff --git" header lines.
func splitChunks(raw string) []string {
	var chunks []string
	var current []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(line, "diff --git ") && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = current[:0]
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}
	return chunks
}

func filePath(f *gitdiff.File) string {
	if f.NewName != "" {
		return f.NewName
	}
	return f.OldName
}

func isNoisePath(path string) bool {
	for _, re := range noisePathPatterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func levelFor(truncated, dropped bool) Level {
	switch {
	case dropped:
		return LevelAggressive
	case truncated:
		return LevelModerate
	default:
		return LevelNone
	}
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

func firstLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n")
}

