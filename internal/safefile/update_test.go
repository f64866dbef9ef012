package safefile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSafeUpdateReplacesContentAndKeepsBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.txt")
	if err := os.WriteFile(path, []byte("before SECRET after\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	u := NewUpdater(dir)

	res := u.SafeUpdate(path, func(s string) (string, error) {
		return strings.ReplaceAll(s, "SECRET", "__MASKED__"), nil
	})
	if !res.Success {
		t.Fatalf("update failed: %v", res.Error)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "before __MASKED__ after\n" {
		t.Errorf("content = %q", got)
	}

	backup, err := os.ReadFile(res.BackupPath)
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if string(backup) != "before SECRET after\n" {
		t.Errorf("backup content = %q", backup)
	}
}

func TestSafeUpdateRollsBackOnTransformError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.txt")
	original := "before SECRET after\n"
	if err := os.WriteFile(path, []byte(original), 0o644); err != nil {
		t.Fatal(err)
	}
	u := NewUpdater(dir)

	res := u.SafeUpdate(path, func(s string) (string, error) {
		return "", errors.New("boom")
	})
	if res.Success {
		t.Fatal("expected failure")
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != original {
		t.Errorf("file content changed after failed transform: %q", got)
	}
}

func TestSafeUpdateRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	u := NewUpdater(dir)
	res := u.SafeUpdate(filepath.Join(dir, "..", "escape.txt"), func(s string) (string, error) { return s, nil })
	if res.Error == nil {
		t.Fatal("expected error for path traversal")
	}
}

func TestUndoRestoresMostRecentBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.txt")
	if err := os.WriteFile(path, []byte("v1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	u := NewUpdater(dir)

	res1 := u.SafeUpdate(path, func(s string) (string, error) { return "v2\n", nil })
	if !res1.Success {
		t.Fatalf("first update failed: %v", res1.Error)
	}
	res2 := u.SafeUpdate(path, func(s string) (string, error) { return "v3\n", nil })
	if !res2.Success {
		t.Fatalf("second update failed: %v", res2.Error)
	}

	undoRes, err := u.Undo(path)
	if err != nil {
		t.Fatal(err)
	}
	if undoRes.BackupPath != res2.BackupPath {
		t.Errorf("undo restored %q, want most recent backup %q", undoRes.BackupPath, res2.BackupPath)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v2\n" {
		t.Errorf("after undo content = %q, want v2", got)
	}
}

func TestListBackupsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.txt")
	if err := os.WriteFile(path, []byte("v1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	u := NewUpdater(dir)
	u.SafeUpdate(path, func(s string) (string, error) { return "v2\n", nil })
	u.SafeUpdate(path, func(s string) (string, error) { return "v3\n", nil })

	backups, err := u.ListBackups(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(backups))
	}
}
