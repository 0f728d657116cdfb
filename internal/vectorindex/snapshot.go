package vectorindex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type snapshot struct {
	SavedAt time.Time    `json:"saved_at"`
	Dim     int          `json:"dim"`
	Docs    []indexedDoc `json:"docs"`
}

// Persist writes the full index to its snapshot file, replacing whatever was
// there. The snapshot is never appended to.
func (x *Index) Persist() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.persistLocked()
}

func (x *Index) persistLocked() error {
	snap := snapshot{
		SavedAt: time.Now().UTC(),
		Dim:     x.dim,
		Docs:    x.docs,
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if dir := filepath.Dir(x.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	// Write-then-rename so a crash mid-write cannot leave a torn snapshot.
	tmp := x.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, x.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Reload replaces the in-memory index with the persisted snapshot. Missing
// and corrupt files both leave the index empty; neither is fatal.
func (x *Index) Reload() {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.docs = nil
	x.dim = 0

	raw, err := os.ReadFile(x.path)
	if err != nil {
		if !os.IsNotExist(err) {
			x.log.Warn("snapshot unreadable, starting empty", "path", x.path, "error", err)
		}
		return
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		x.log.Warn("snapshot corrupt, starting empty", "path", x.path, "error", err)
		return
	}

	for _, doc := range snap.Docs {
		if snap.Dim != 0 && len(doc.Embedding) != snap.Dim {
			x.log.Warn("snapshot has inconsistent dimensions, starting empty", "path", x.path)
			x.docs = nil
			x.dim = 0
			return
		}
	}

	x.docs = snap.Docs
	x.dim = snap.Dim
	if x.dim == 0 && len(x.docs) > 0 {
		x.dim = len(x.docs[0].Embedding)
	}
	x.log.Info("snapshot loaded", "path", x.path, "docs", len(x.docs), "dim", x.dim)
}
