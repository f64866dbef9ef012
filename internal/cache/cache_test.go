package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oktsec/secretsentinel/internal/finding"
)

func TestLoadMissingReturnsEmpty(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Version != CurrentVersion || len(c.Entries) != 0 {
		t.Errorf("expected empty v%d cache, got %+v", CurrentVersion, c)
	}
}

func TestLoadEmptyFileReturnsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	os.WriteFile(path, []byte("   \n"), 0o644)
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Entries) != 0 {
		t.Errorf("expected empty cache")
	}
}

func TestLoadCorruptQuarantinesAndReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	os.WriteFile(path, []byte("{not json"), 0o644)

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Entries) != 0 {
		t.Error("expected empty cache after corruption")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected original corrupt file to be removed")
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "cache.json.corrupted.*"))
	if len(matches) != 1 {
		t.Errorf("expected one quarantined file, found %d", len(matches))
	}
}

func TestLoadV1UpgradesToV2(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	os.WriteFile(path, []byte(`{"version":1,"entries":{"a.txt":{"mtime_ms":1,"size":2,"findings":[]}}}`), 0o644)

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Version != 2 {
		t.Errorf("version = %d, want 2", c.Version)
	}
	if _, ok := c.Entries["a.txt"]; !ok {
		t.Error("expected v1 entry to survive upgrade")
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	c := Empty(path)
	c.Put("a.txt", Entry{MtimeMs: 100, Size: 5, Findings: []finding.Finding{{Match: "x"}}})

	if err := c.Save(path); err != nil {
		t.Fatal(err)
	}
	matches, _ := filepath.Glob(path + ".tmp.*")
	if len(matches) != 0 {
		t.Errorf("expected no leftover temp files, found %v", matches)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	e, ok := loaded.Get("a.txt")
	if !ok || e.Size != 5 {
		t.Errorf("roundtrip entry = %+v, ok=%v", e, ok)
	}
}

func TestPruneDropsUnvisitedEntries(t *testing.T) {
	c := Empty("x")
	c.Entries["stale.txt"] = Entry{Size: 1}
	c.Get("fresh.txt") // mark visited without an entry present
	c.Put("kept.txt", Entry{Size: 2})

	c.Prune()

	if _, ok := c.Entries["stale.txt"]; ok {
		t.Error("expected stale entry to be pruned")
	}
	if _, ok := c.Entries["kept.txt"]; !ok {
		t.Error("expected visited entry to survive prune")
	}
}

func TestEntryHitModes(t *testing.T) {
	e := Entry{MtimeMs: 10, Size: 20, Hash: "abc"}
	if !e.Hit(10, 20, "", false) {
		t.Error("expected mtime-mode hit")
	}
	if e.Hit(11, 20, "", false) {
		t.Error("expected mtime-mode miss on mtime change")
	}
	if !e.Hit(0, 0, "abc", true) {
		t.Error("expected hash-mode hit")
	}
	if e.Hit(0, 0, "xyz", true) {
		t.Error("expected hash-mode miss")
	}
}
