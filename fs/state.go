// Package fs provides file-based persistence for crawl resume state.
package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	jptransit "github.com/anhlt/jp-transit-search"
)

// Ensure StateStore implements jptransit.StateStore at compile time.
var _ jptransit.StateStore = (*StateStore)(nil)

// StateStore persists CrawlState as a JSON file. Saves are atomic (temp
// file + rename) so a kill mid-write can never leave a torn state file.
type StateStore struct {
	path string
}

// NewStateStore creates a StateStore backed by the file at path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Path returns the backing file path.
func (s *StateStore) Path() string {
	return s.path
}

// Load reads the persisted state. A missing or unparsable file yields an
// empty state, never an error: resume must survive state corruption.
func (s *StateStore) Load(ctx context.Context) (*jptransit.CrawlState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return jptransit.NewCrawlState(), nil
	}

	var state jptransit.CrawlState
	if err := json.Unmarshal(data, &state); err != nil {
		return jptransit.NewCrawlState(), nil
	}
	if state.CompletedPrefectures == nil {
		state.CompletedPrefectures = []string{}
	}
	if state.CompletedLines == nil {
		state.CompletedLines = map[string][]string{}
	}
	return &state, nil
}

// Save durably writes the state with a fresh timestamp.
func (s *StateStore) Save(ctx context.Context, state *jptransit.CrawlState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	state.Timestamp = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(dir, ".crawl_state-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Clear removes the persisted state, if any.
func (s *StateStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
