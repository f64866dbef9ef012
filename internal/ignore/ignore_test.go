package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewReadsGitignoreAndSecretignore(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("node_modules/\n*.log\n"), 0o644)
	os.WriteFile(filepath.Join(dir, ".secretignore"), []byte("testdata/fixtures/\n"), 0o644)

	m, err := New(dir, []string{"*.tmp"})
	if err != nil {
		t.Fatal(err)
	}

	cases := map[string]bool{
		"node_modules/foo.js":    true,
		"app.log":                true,
		"testdata/fixtures/a.go": true,
		"scratch.tmp":            true,
		"src/main.go":            false,
	}
	for path, want := range cases {
		if got := m.Match(path); got != want {
			t.Errorf("Match(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestNewWithoutIgnoreFiles(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if m.Match("anything.go") {
		t.Error("expected no matches with no ignore sources")
	}
}

func TestNewCLIPatternsOnly(t *testing.T) {
	m, err := New(t.TempDir(), []string{"vendor/"})
	if err != nil {
		t.Fatal(err)
	}
	if !m.Match("vendor/pkg/file.go") {
		t.Error("expected vendor/ CLI pattern to match")
	}
}
