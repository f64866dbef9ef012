package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/oktsec/secretsentinel/internal/finding"
)

func TestRenderFindingsJSON(t *testing.T) {
	findings := []finding.Finding{
		{FilePath: "a.env", Line: 1, Column: 1, Match: "x", RuleName: "r", Severity: finding.High},
	}
	root := NewRoot()
	var buf bytes.Buffer
	root.SetOut(&buf)

	if err := renderFindings(root, findings, "json"); err != nil {
		t.Fatal(err)
	}
	var decoded []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected 1 record, got %d", len(decoded))
	}
}

func TestRenderFindingsUnknownFormat(t *testing.T) {
	root := NewRoot()
	if err := renderFindings(root, nil, "xml"); err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
}

const seededSecret = "aws_secret_access_key=AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA\n"

func TestScanCommandFindsSeededSecret(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "creds.env"), []byte(seededSecret), 0o644); err != nil {
		t.Fatal(err)
	}

	root := NewRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"scan", dir, "--config-dir", dir})

	if err := root.Execute(); err != nil {
		t.Fatalf("scan command failed: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("finding(s)")) {
		t.Errorf("expected a findings summary in output, got: %s", out.String())
	}
}

func TestScanCommandFailsPolicyOnForbiddenRule(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "creds.env"), []byte(seededSecret), 0o644); err != nil {
		t.Fatal(err)
	}

	root := NewRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"scan", dir, "--config-dir", dir, "--fail-on-findings", "--forbid-rule", "AWS Secret Access Key"})

	if err := root.Execute(); err == nil {
		t.Fatal("expected the policy gate to fail")
	}
}
