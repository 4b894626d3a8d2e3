package gitscribe

import "github.com/cockroachdb/errors"

// Sentinel error kinds. Callers classify failures with errors.Is; the
// implementing packages attach operation context with errors.Wrap and keep
// the kind attached with errors.Mark.
var (
	// ErrInvalidRepository means the target path is not inside a working tree.
	ErrInvalidRepository = errors.New("not a git repository")
	// ErrNoChanges means staged-change analysis found nothing to analyze.
	ErrNoChanges = errors.New("no staged changes found")
	// ErrVCSOperation means an underlying git query failed.
	ErrVCSOperation = errors.New("git operation failed")
	// ErrAnalysis wraps unexpected failures during change extraction.
	ErrAnalysis = errors.New("change analysis failed")
	// ErrProviderUnavailable means a generation back-end cannot be reached.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrGenerationTimeout means a generation request exceeded its deadline.
	ErrGenerationTimeout = errors.New("generation timed out")
	// ErrTemplateNotFound means no search path contains the named template.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrInvalidConfig means the merged configuration failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)
