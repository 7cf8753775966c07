// Package persist durably snapshots queue daemon state to a flat JSON
// file: pending tasks, confirmation entries, and the id counter. The
// in-flight set is intentionally not persisted.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/npsgd-project/npsgd/task"
)

// ConfirmationEntry is the durable shape of a confirmation.Entry; expiry
// metadata is recreated from config on reload rather than round-tripped,
// so only CreatedAt is carried.
type ConfirmationEntry struct {
	Code         string    `json:"code"`
	Task         task.Dict `json:"task"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Snapshot is the full durable state: exactly the three keys the wire
// format names.
type Snapshot struct {
	Pending         []task.Dict         `json:"pending"`
	ConfirmationMap []ConfirmationEntry `json:"confirmationMap"`
	IDCounter       int64               `json:"idCounter"`
}

// Save writes snap to path atomically: marshal, write to a sibling .tmp
// file, then rename over path. A reader never observes a partial file.
func Save(path string, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("persist: marshal: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("persist: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("persist: rename: %w", err)
	}
	return nil
}

// Load reads and decodes the snapshot at path. A missing file is reported
// through ok=false with a nil error, distinct from corruption: callers
// should start fresh either way, but only log a warning for the latter.
func Load(path string) (snap Snapshot, ok bool, err error) {
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("persist: read: %w", readErr)
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("persist: corrupt_state_file: %w", err)
	}
	return snap, true, nil
}

// EnsureDir creates the parent directory of path if it does not exist, so
// Save never fails purely because the state directory is missing.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
