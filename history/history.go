// Package history persists generated messages as JSONL so past runs can
// be reviewed and reused.
package history

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// maxLineSize is the maximum size for a single JSONL line (4MB). This
// accommodates long PR descriptions while preventing memory issues.
const maxLineSize = 4 * 1024 * 1024

// Record is one generation outcome.
type Record struct {
	Timestamp  time.Time `json:"timestamp"`
	Category   string    `json:"category"` // "commit" or "pr"
	Provider   string    `json:"provider"`
	Model      string    `json:"model,omitempty"`
	Repository string    `json:"repository,omitempty"`
	Branch     string    `json:"branch,omitempty"`
	Message    string    `json:"message"`
}

// Store appends and loads Record entries in a JSONL file.
type Store struct {
	path string
}

// NewStore creates a store over the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the standard history location, honoring
// XDG_STATE_HOME.
func DefaultPath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "gitscribe", "history.jsonl")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "gitscribe", "history.jsonl")
	}
	return filepath.Join(home, ".local", "state", "gitscribe", "history.jsonl")
}

// Append adds a record to the file, creating parent directories as
// needed.
func (s *Store) Append(record Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "create history directory")
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open history file")
	}
	defer f.Close()

	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "encode history record")
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return errors.Wrap(err, "write history record")
	}
	return nil
}

// Load reads every record in file order. A missing file is an empty
// history, not an error.
func (s *Store) Load() ([]Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "open history file")
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, maxLineSize), maxLineSize)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var r Record
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			return nil, errors.Wrapf(err, "history line %d", lineNum)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read history file")
	}
	return records, nil
}

// Last returns the most recent n records, newest last. Fewer records than
// n returns them all.
func (s *Store) Last(n int) ([]Record, error) {
	records, err := s.Load()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}
