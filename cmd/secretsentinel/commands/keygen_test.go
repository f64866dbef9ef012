package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestKeygenCommandWritesKeypair(t *testing.T) {
	dir := t.TempDir()
	root := NewRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"keygen", "--name", "audit", "--out", dir})

	if err := root.Execute(); err != nil {
		t.Fatalf("keygen command failed: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("Generated keypair for audit")) {
		t.Errorf("expected a confirmation message, got: %s", out.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "audit.key")); err != nil {
		t.Errorf("expected a private key file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "audit.pub")); err != nil {
		t.Errorf("expected a public key file: %v", err)
	}
}

func TestKeygenCommandRequiresName(t *testing.T) {
	root := NewRoot()
	root.SetArgs([]string{"keygen", "--out", t.TempDir()})
	if err := root.Execute(); err == nil {
		t.Fatal("expected an error when --name is omitted")
	}
}
