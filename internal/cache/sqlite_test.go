package cache

import (
	"path/filepath"
	"testing"

	"github.com/oktsec/secretsentinel/internal/finding"
)

func TestSQLiteStorePutGetRoundTrips(t *testing.T) {
	s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	entry := Entry{MtimeMs: 42, Size: 7, Findings: []finding.Finding{{RuleName: "r", FilePath: "a.txt"}}}
	s.Put("a.txt", entry)

	got, ok := s.Get("a.txt")
	if !ok {
		t.Fatal("expected a hit")
	}
	if got.MtimeMs != 42 || got.Size != 7 || len(got.Findings) != 1 {
		t.Errorf("unexpected entry: %+v", got)
	}
	if err := s.Save(""); err != nil {
		t.Errorf("expected no sticky error, got: %v", err)
	}
}

func TestSQLiteStoreGetMissIsNotFound(t *testing.T) {
	s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, ok := s.Get("missing.txt"); ok {
		t.Error("expected a miss")
	}
}

func TestSQLiteStorePruneDropsUnvisited(t *testing.T) {
	s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// Put always marks visited=1, the same as a file re-scanned this run.
	s.Put("kept.txt", Entry{MtimeMs: 1, Size: 1})
	// A row left over from a prior run, never touched by this one.
	if _, err := s.db.Exec(
		`INSERT INTO cache_entries (rel_path, mtime_ms, size, hash, findings_json, visited) VALUES (?, ?, ?, '', '[]', 0)`,
		"stale.txt", 1, 1,
	); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 entries before prune, got %d", s.Len())
	}

	s.Prune()
	if s.Len() != 1 {
		t.Fatalf("expected prune to drop only the unvisited row, got %d entries", s.Len())
	}
	if _, ok := s.Get("kept.txt"); !ok {
		t.Error("expected the visited row to survive prune")
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	dir := t.TempDir()

	jsonStore, err := Open(filepath.Join(dir, "cache.json"), "json")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := jsonStore.(*Cache); !ok {
		t.Errorf("expected *Cache for driver %q, got %T", "json", jsonStore)
	}

	sqliteStore, err := Open(filepath.Join(dir, "cache.db"), "sqlite")
	if err != nil {
		t.Fatal(err)
	}
	defer sqliteStore.Close()
	if _, ok := sqliteStore.(*SQLiteStore); !ok {
		t.Errorf("expected *SQLiteStore for driver %q, got %T", "sqlite", sqliteStore)
	}
}
