package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestMarketplaceInstallCommandFetchesFromLocalCatalog(t *testing.T) {
	dir := t.TempDir()
	rulesetPath := filepath.Join(dir, "aws.ruleset.json")
	if err := os.WriteFile(rulesetPath, []byte(`{"patterns":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	catalog := map[string]interface{}{
		"rulesets": []map[string]string{
			{"name": "aws", "url": rulesetPath},
		},
	}
	catalogBytes, err := json.Marshal(catalog)
	if err != nil {
		t.Fatal(err)
	}
	catalogPath := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(catalogPath, catalogBytes, 0o644); err != nil {
		t.Fatal(err)
	}

	cacheDir := filepath.Join(dir, "installed")
	root := NewRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{
		"marketplace", "install",
		"--catalog", catalogPath,
		"--ruleset", "aws",
		"--cache-dir", cacheDir,
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("marketplace install failed: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("installed aws ->")) {
		t.Errorf("expected an install confirmation, got: %s", out.String())
	}
	if _, err := os.Stat(filepath.Join(cacheDir, "aws.ruleset.json")); err != nil {
		t.Errorf("expected the ruleset to be cached: %v", err)
	}
}

func TestMarketplaceInstallCommandRequiresCatalog(t *testing.T) {
	root := NewRoot()
	root.SetArgs([]string{"marketplace", "install", "--ruleset", "aws"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected an error when --catalog is omitted")
	}
}
