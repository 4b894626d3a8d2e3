package gitscribe

import "strings"

const (
	previewLines = 5
	previewWidth = 100
)

// CountPatchLines counts added and removed lines in raw patch text. A line
// counts as an addition when it starts with '+' followed by a character
// other than '+', which excludes the "+++" file header; deletions are
// symmetric with '-' and "---". Context lines, hunk headers and bare '+'
// or '-' markers for empty lines are not counted. The approximation trades
// exactness for independence from hunk structure.
func CountPatchLines(patch string) (added, removed int) {
	for _, line := range strings.Split(patch, "\n") {
		switch {
		case len(line) >= 2 && line[0] == '+' && line[1] != '+':
			added++
		case len(line) >= 2 && line[0] == '-' && line[1] != '-':
			removed++
		}
	}
	return added, removed
}

// PatchPreview extracts a short sample of changed content from raw patch
// text: up to five '+' or '-' lines, skipping hunk and file headers, each
// truncated to a hundred characters.
func PatchPreview(patch string) string {
	var lines []string
	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "@@") ||
			strings.HasPrefix(line, "+++") ||
			strings.HasPrefix(line, "---") {
			continue
		}
		if strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-") {
			lines = append(lines, truncate(line, previewWidth))
			if len(lines) == previewLines {
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

// FilePreview returns the first five lines of file content, each truncated
// to a hundred characters. Used for untracked files, which have no patch.
func FilePreview(content []byte) string {
	lines := strings.Split(string(content), "\n")
	if len(lines) > previewLines {
		lines = lines[:previewLines]
	}
	for i, line := range lines {
		lines[i] = truncate(line, previewWidth)
	}
	return strings.Join(lines, "\n")
}

// countLines counts lines the way splitting on newlines does, without
// counting a trailing newline as an extra empty line.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width])
}
