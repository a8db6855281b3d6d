package patterns

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBackupRoundTrip(t *testing.T) {
	store := newTestStore(t)
	signature := sig("database", "missing-index", "db.go", 1)
	for i := 0; i < 5; i++ {
		if err := store.RecordSuccess(signature, 80, nil); err != nil {
			t.Fatal(err)
		}
	}

	path, err := store.Backup()
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if !strings.HasSuffix(path, ".json.zst") {
		t.Errorf("backup path = %s", path)
	}

	snap, err := LoadBackup(path)
	if err != nil {
		t.Fatalf("LoadBackup: %v", err)
	}
	rec, ok := snap.Patterns[signature.PatternID()]
	if !ok {
		t.Fatal("pattern missing from backup")
	}
	if rec.Performance.DetectionCount != 5 {
		t.Errorf("DetectionCount = %d, want 5", rec.Performance.DetectionCount)
	}
	if snap.GlobalStats != store.GlobalStats() {
		t.Error("backup stats should match live stats")
	}
}

func TestRestoreAdoptsBackupIntoLiveStore(t *testing.T) {
	store := newTestStore(t)
	signature := sig("database", "missing-index", "db.go", 1)
	for i := 0; i < 5; i++ {
		if err := store.RecordSuccess(signature, 80, nil); err != nil {
			t.Fatal(err)
		}
	}
	wantStats := store.GlobalStats()

	path, err := store.Backup()
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}

	// Lose the learned state, then bring it back from the backup.
	store.Reset()
	if store.GlobalStats().PatternCount != 0 {
		t.Fatal("reset store should be empty")
	}

	snap, err := LoadBackup(path)
	if err != nil {
		t.Fatalf("LoadBackup: %v", err)
	}
	if err := store.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	rec, ok := store.Lookup(signature)
	if !ok {
		t.Fatal("restored store should know the pattern")
	}
	if rec.Performance.DetectionCount != 5 {
		t.Errorf("DetectionCount = %d, want 5", rec.Performance.DetectionCount)
	}
	if got := store.GlobalStats(); got != wantStats {
		t.Errorf("GlobalStats = %+v, want %+v", got, wantStats)
	}

	// Restore persists: a fresh store on the same state file sees it too.
	reopened := NewStore(store.opts, nil)
	if rec, ok := reopened.Lookup(signature); !ok || rec.Performance.DetectionCount != 5 {
		t.Error("restored state should survive reopening")
	}
}

func TestRestoreRejectsNilSnapshot(t *testing.T) {
	store := newTestStore(t)
	if err := store.Restore(nil); err == nil {
		t.Error("restoring a nil snapshot should fail")
	}
}

func TestBackupPrunesOldCopies(t *testing.T) {
	store := newTestStore(t)
	if err := store.RecordSuccess(sig("database", "missing-index", "db.go", 1), 80, nil); err != nil {
		t.Fatal(err)
	}

	// Pre-seed stale backups; the timestamped names sort before any new one.
	dir := filepath.Join(filepath.Dir(store.opts.StatePath), "backups")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	stale := []string{
		"patterns-20200101T000000Z.json.zst",
		"patterns-20200102T000000Z.json.zst",
		"patterns-20200103T000000Z.json.zst",
		"patterns-20200104T000000Z.json.zst",
	}
	for _, name := range stale {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("old"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	path, err := store.Backup()
	if err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != store.opts.BackupCount {
		t.Errorf("len(backups) = %d, want %d", len(entries), store.opts.BackupCount)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("the newest backup must survive pruning")
	}
	if _, err := os.Stat(filepath.Join(dir, stale[0])); !os.IsNotExist(err) {
		t.Error("the oldest backup should be pruned")
	}
}

func TestBackupRequiresStatePath(t *testing.T) {
	store := NewStore(Options{Enabled: true, MinDetectionsForStability: 10}, nil)
	if _, err := store.Backup(); err == nil {
		t.Error("in-memory store should refuse to back up")
	}
}
