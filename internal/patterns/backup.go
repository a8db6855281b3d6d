package patterns

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Backup writes a zstd-compressed copy of the current snapshot next to the
// state file and prunes old copies beyond the configured retention count.
// Returns the backup path.
func (s *Store) Backup() (string, error) {
	if s.opts.StatePath == "" {
		return "", fmt.Errorf("store has no state path, nothing to back up")
	}
	s.ensureLoaded()

	data, err := json.Marshal(s.snap)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	compressed := enc.EncodeAll(data, nil)
	enc.Close()

	dir := filepath.Join(filepath.Dir(s.opts.StatePath), "backups")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("patterns-%s.json.zst", time.Now().UTC().Format("20060102T150405Z"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, compressed, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	s.pruneBackups(dir)

	s.logger.Info("Snapshot backup written", map[string]interface{}{
		"path":       path,
		"rawBytes":   len(data),
		"compressed": len(compressed),
	})

	return path, nil
}

// LoadBackup reads a compressed backup into a Snapshot without touching the
// live store.
func LoadBackup(path string) (*Snapshot, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer dec.Close()

	data, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress backup: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse backup: %w", err)
	}
	return &snap, nil
}

// Restore replaces the live store's state with a previously exported
// snapshot and persists it. The snapshot is deep-copied so the caller's
// copy stays independent of later mutations.
func (s *Store) Restore(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("cannot restore a nil snapshot")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to copy snapshot: %w", err)
	}
	var adopted Snapshot
	if err := json.Unmarshal(data, &adopted); err != nil {
		return fmt.Errorf("failed to copy snapshot: %w", err)
	}
	if adopted.Patterns == nil {
		adopted.Patterns = make(map[string]*Record)
	}
	if adopted.DetectorStats == nil {
		adopted.DetectorStats = make(map[string]DetectorStats)
	}

	s.loaded = true
	s.snap = &adopted
	s.recomputeStats(time.Now().UTC())
	s.persist()

	s.logger.Info("Snapshot restored", map[string]interface{}{
		"patterns": len(adopted.Patterns),
	})
	return nil
}

// pruneBackups removes the oldest backups beyond the retention count.
// Timestamped names sort chronologically.
func (s *Store) pruneBackups(dir string) {
	keep := s.opts.BackupCount
	if keep <= 0 {
		keep = DefaultOptions().BackupCount
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".zst" {
			names = append(names, e.Name())
		}
	}
	if len(names) <= keep {
		return
	}

	sort.Strings(names)
	for _, name := range names[:len(names)-keep] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			s.logger.Warn("Failed to prune old backup", map[string]interface{}{
				"path":  filepath.Join(dir, name),
				"error": err.Error(),
			})
		}
	}
}
