package gitscribe

import "github.com/cockroachdb/errors"

// ChangeKind classifies how a file changed. It maps one-to-one to the
// single-character status codes emitted by git.
type ChangeKind int

// Change kinds.
const (
	Modified ChangeKind = iota
	Added
	Deleted
	Renamed
	Copied
	Unmerged
	Broken
	Unknown
)

var kindCodes = map[ChangeKind]byte{
	Modified: 'M',
	Added:    'A',
	Deleted:  'D',
	Renamed:  'R',
	Copied:   'C',
	Unmerged: 'U',
	Broken:   'B',
	Unknown:  '?',
}

var kindLabels = map[ChangeKind]string{
	Modified: "modified",
	Added:    "added",
	Deleted:  "deleted",
	Renamed:  "renamed",
	Copied:   "copied",
}

// ParseChangeKind maps a git status code to its ChangeKind. Codes outside
// the known set are rejected; callers that need the documented
// fallback-to-Modified behavior handle that themselves.
func ParseChangeKind(code byte) (ChangeKind, error) {
	for kind, c := range kindCodes {
		if c == code {
			return kind, nil
		}
	}
	return Modified, errors.Newf("unknown change status code %q", string(code))
}

// Code returns the single-character git status code for the kind.
func (k ChangeKind) Code() byte {
	if c, ok := kindCodes[k]; ok {
		return c
	}
	return '?'
}

// Label returns the lowercase label used in rendered output. Kinds without
// a conventional label render as "changed".
func (k ChangeKind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return "changed"
}

// String implements fmt.Stringer.
func (k ChangeKind) String() string {
	switch k {
	case Modified:
		return "Modified"
	case Added:
		return "Added"
	case Deleted:
		return "Deleted"
	case Renamed:
		return "Renamed"
	case Copied:
		return "Copied"
	case Unmerged:
		return "Unmerged"
	case Broken:
		return "Broken"
	default:
		return "Unknown"
	}
}
