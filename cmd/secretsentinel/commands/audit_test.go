package commands

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/oktsec/secretsentinel/internal/audit"
)

func TestAuditVerifyCommandOnCleanLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.ndjson")

	w, err := audit.NewWriter(path, []byte("signing-key"), "k1")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(audit.NewRotationEvent("2026-01-01T00:00:00Z", "creds.env", 1, "AWS Secret Access Key", "file_updated", "ref-1")); err != nil {
		t.Fatal(err)
	}

	root := NewRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"audit", "verify", "--path", path, "--key", "signing-key"})

	if err := root.Execute(); err != nil {
		t.Fatalf("audit verify failed: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("OK")) {
		t.Errorf("expected an OK confirmation, got: %s", out.String())
	}
}

func TestAuditVerifyCommandRequiresPath(t *testing.T) {
	root := NewRoot()
	root.SetArgs([]string{"audit", "verify"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected an error when --path is omitted")
	}
}
