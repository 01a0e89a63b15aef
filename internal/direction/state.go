package direction

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"facetflow/internal/fileutil"
)

// LoadOutcome classifies the result of LoadState.
type LoadOutcome int

const (
	// LoadOK means the persisted snapshot was restored.
	LoadOK LoadOutcome = iota
	// LoadMissing means no snapshot exists; the caller keeps fresh state.
	LoadMissing
	// LoadCorrupt means a snapshot exists but could not be read; the
	// caller keeps fresh state.
	LoadCorrupt
)

// LoadResult reports how LoadState resolved. Err carries the underlying
// cause for diagnostics; it is never fatal.
type LoadResult struct {
	Outcome LoadOutcome
	Err     error
}

// OK reports whether persisted state was restored.
func (r LoadResult) OK() bool { return r.Outcome == LoadOK }

// List loads every direction with a readable snapshot under workingDir,
// sorted by name. Unreadable snapshots are skipped, not fatal.
func List(workingDir string) ([]*Direction, error) {
	matches, err := filepath.Glob(filepath.Join(workingDir, "state", "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan state directory: %w", err)
	}
	sort.Strings(matches)

	directions := make([]*Direction, 0, len(matches))
	for _, match := range matches {
		name := strings.TrimSuffix(filepath.Base(match), ".json")
		d := New(name, Params{}, workingDir)
		if result := d.LoadState(); result.OK() {
			directions = append(directions, d)
		}
	}
	return directions, nil
}

// SaveState snapshots the direction to its state file. The write goes
// through a temp file and rename, so a failed save leaves the previous
// snapshot intact. A save failure is fatal for the direction's current
// run; continuing past inconsistent state is unsafe.
func (d *Direction) SaveState() error {
	if err := os.MkdirAll(filepath.Dir(d.stateFile), 0o755); err != nil {
		return fmt.Errorf("ensure state directory: %w", err)
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode direction %s: %w", d.Name, err)
	}
	if err := fileutil.WriteAtomic(d.stateFile, data, 0o644); err != nil {
		return fmt.Errorf("save direction %s: %w", d.Name, err)
	}
	return nil
}

// LoadState restores the direction from its state file. It never fails
// hard: a missing or unreadable snapshot is reported through the result
// and the direction keeps its current (freshly constructed) state.
func (d *Direction) LoadState() LoadResult {
	data, err := os.ReadFile(d.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return LoadResult{Outcome: LoadMissing, Err: err}
		}
		return LoadResult{Outcome: LoadCorrupt, Err: err}
	}

	var restored Direction
	if err := json.Unmarshal(data, &restored); err != nil {
		return LoadResult{Outcome: LoadCorrupt, Err: fmt.Errorf("decode direction state: %w", err)}
	}
	if restored.Name != "" && restored.Name != d.Name {
		return LoadResult{Outcome: LoadCorrupt, Err: fmt.Errorf("state file names direction %q, expected %q", restored.Name, d.Name)}
	}

	restored.workingDir = d.workingDir
	restored.stateFile = d.stateFile
	restored.pipelineDir = d.pipelineDir
	*d = restored
	return LoadResult{Outcome: LoadOK}
}
