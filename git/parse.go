package git

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gitscribe/gitscribe"
)

// ParseNumstat parses `git diff --numstat` output. Binary files report
// "-" in both count columns and parse to a Binary entry with zero counts.
func ParseNumstat(out string) ([]gitscribe.NumstatEntry, error) {
	lines := splitLines(out)
	entries := make([]gitscribe.NumstatEntry, 0, len(lines))
	for _, line := range lines {
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) != 3 {
			return nil, errors.Newf("malformed numstat line %q", line)
		}
		entry := gitscribe.NumstatEntry{Path: fields[2]}
		if fields[0] == "-" && fields[1] == "-" {
			entry.Binary = true
		} else {
			added, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, errors.Wrapf(err, "parse additions in %q", line)
			}
			removed, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, errors.Wrapf(err, "parse deletions in %q", line)
			}
			entry.Additions = added
			entry.Deletions = removed
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ParseNameStatus parses `git diff --name-status` output into staged
// entries without patches. Rename and copy lines carry two paths; the
// similarity score after the status letter is ignored.
func ParseNameStatus(out string) ([]gitscribe.StagedEntry, error) {
	lines := splitLines(out)
	entries := make([]gitscribe.StagedEntry, 0, len(lines))
	for _, line := range lines {
		fields := strings.Split(line, "\t")
		if len(fields) < 2 || fields[0] == "" {
			return nil, errors.Newf("malformed name-status line %q", line)
		}
		kind, err := gitscribe.ParseChangeKind(fields[0][0])
		if err != nil {
			return nil, errors.Wrapf(err, "parse status in %q", line)
		}

		var entry gitscribe.StagedEntry
		switch kind {
		case gitscribe.Renamed, gitscribe.Copied:
			if len(fields) < 3 {
				return nil, errors.Newf("missing destination path in %q", line)
			}
			entry.OldPath = fields[1]
			entry.Path = fields[2]
			entry.Renamed = kind == gitscribe.Renamed
			entry.Copied = kind == gitscribe.Copied
		case gitscribe.Added:
			entry.Path = fields[1]
			entry.New = true
		case gitscribe.Deleted:
			entry.Path = fields[1]
			entry.Deleted = true
		default:
			entry.Path = fields[1]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
