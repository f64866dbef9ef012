package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadYAML(t *testing.T) {
	content := `
version: "1"
patterns:
  - name: internal-token
    regex: "itk_[0-9a-f]{32}"
    severity: high
policy:
  min_severity: medium
  thresholds:
    high: 0
entropy:
  enabled: false
rules:
  engine: re2
`
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".secretsentinel.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Patterns) != 1 || cfg.Patterns[0].Name != "internal-token" {
		t.Errorf("patterns = %+v", cfg.Patterns)
	}
	if cfg.Policy == nil || cfg.Policy.MinSeverity != "medium" {
		t.Errorf("policy = %+v", cfg.Policy)
	}
	if cfg.Entropy.Enabled {
		t.Error("entropy.enabled should be false")
	}
	if cfg.Rules.Engine != "re2" {
		t.Errorf("rules.engine = %q, want re2", cfg.Rules.Engine)
	}
	// defaults survive partial override
	if cfg.Scan.Concurrency != 8 {
		t.Errorf("scan.concurrency = %d, want default 8", cfg.Scan.Concurrency)
	}
}

func TestLoadJSONFallback(t *testing.T) {
	content := `{"version":"1","patterns":[{"name":"x","regex":"x{3}"}]}`
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".secretsentinel.json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Patterns) != 1 {
		t.Errorf("patterns = %+v", cfg.Patterns)
	}
}

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scan.Concurrency != 8 {
		t.Errorf("concurrency = %d, want 8", cfg.Scan.Concurrency)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Entropy.MinLength != 32 || cfg.Entropy.Threshold != 3.5 {
		t.Errorf("entropy defaults = %+v", cfg.Entropy)
	}
	if cfg.Backend.Name != "file" {
		t.Errorf("backend default = %q, want file", cfg.Backend.Name)
	}
}

func TestValidateValidConfig(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidateInvalidMinSeverity(t *testing.T) {
	cfg := Defaults()
	cfg.Policy = &Policy{MinSeverity: "critical"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid min_severity")
	}
}

func TestValidateInvalidEngine(t *testing.T) {
	cfg := Defaults()
	cfg.Rules.Engine = "pcre"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid rules.engine")
	}
}

func TestValidateDuplicatePatternName(t *testing.T) {
	cfg := Defaults()
	cfg.Patterns = []Pattern{{Name: "a", Regex: "a"}, {Name: "a", Regex: "b"}}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for duplicate pattern name")
	}
}

func TestValidateInvalidBackend(t *testing.T) {
	cfg := Defaults()
	cfg.Backend.Name = "redis"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid backend.name")
	}
}
