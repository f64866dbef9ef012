// Package config loads and validates secretsentinel's project
// configuration: pattern overrides, policy thresholds, cache/backend
// selection, and ML hook wiring, per spec.md §6.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Pattern is a user-supplied rule definition merged in by the rule
// compiler (internal/rules) alongside built-ins and curated rulesets.
type Pattern struct {
	Name     string `yaml:"name" json:"name"`
	Regex    string `yaml:"regex" json:"regex"`
	Severity string `yaml:"severity,omitempty" json:"severity,omitempty"`
	Enabled  *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// Thresholds are upper bounds on finding counts; exceeding any one
// yields a policy failure.
type Thresholds struct {
	Total  *int `yaml:"total,omitempty" json:"total,omitempty"`
	High   *int `yaml:"high,omitempty" json:"high,omitempty"`
	Medium *int `yaml:"medium,omitempty" json:"medium,omitempty"`
	Low    *int `yaml:"low,omitempty" json:"low,omitempty"`
}

// Policy is the project's pass/fail gate configuration, spec.md §3/§4.K.
type Policy struct {
	Thresholds  *Thresholds `yaml:"thresholds,omitempty" json:"thresholds,omitempty"`
	ForbidRules []string    `yaml:"forbid_rules,omitempty" json:"forbid_rules,omitempty"`
	MinSeverity string      `yaml:"min_severity,omitempty" json:"min_severity,omitempty"`
}

// EntropyConfig tunes the high-entropy heuristic (spec.md §4.B).
type EntropyConfig struct {
	Enabled   bool    `yaml:"enabled" json:"enabled"`
	MinLength int     `yaml:"min_length,omitempty" json:"min_length,omitempty"`
	Threshold float64 `yaml:"threshold,omitempty" json:"threshold,omitempty"`
}

// MLHookConfig names and configures the external analyzer bridge
// (spec.md §4.C).
type MLHookConfig struct {
	Path     string `yaml:"path,omitempty" json:"path,omitempty"`
	Mode     string `yaml:"mode,omitempty" json:"mode,omitempty"` // line|file|both
	BudgetMs int    `yaml:"budget_ms,omitempty" json:"budget_ms,omitempty"`
}

// RulesConfig controls which rule sources are merged (spec.md §4.A).
type RulesConfig struct {
	DisableBuiltins bool     `yaml:"disable_builtins,omitempty" json:"disable_builtins,omitempty"`
	Rulesets        []string `yaml:"rulesets,omitempty" json:"rulesets,omitempty"`
	RulesetDirs     []string `yaml:"ruleset_dirs,omitempty" json:"ruleset_dirs,omitempty"`
	Engine          string   `yaml:"engine,omitempty" json:"engine,omitempty"` // native|re2
}

// ScanConfig controls the orchestrator's budgets and concurrency
// (spec.md §4.E/§4.F).
type ScanConfig struct {
	Concurrency      int   `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`
	MaxFileBytes     int64 `yaml:"max_file_bytes,omitempty" json:"max_file_bytes,omitempty"`
	MaxLineBytes     int   `yaml:"max_line_bytes,omitempty" json:"max_line_bytes,omitempty"`
	MaxTotalBytes    int64 `yaml:"max_total_bytes,omitempty" json:"max_total_bytes,omitempty"`
	EnableBinary     bool  `yaml:"enable_binary,omitempty" json:"enable_binary,omitempty"`
	MaxArchiveBytes  int64 `yaml:"max_archive_bytes,omitempty" json:"max_archive_bytes,omitempty"`
	MaxArchiveEntry  int64 `yaml:"max_archive_entry_bytes,omitempty" json:"max_archive_entry_bytes,omitempty"`
	MaxArchiveCount  int   `yaml:"max_archive_entries,omitempty" json:"max_archive_entries,omitempty"`
	GlobalArchiveCap int64 `yaml:"global_archive_bytes_cap,omitempty" json:"global_archive_bytes_cap,omitempty"`
}

// CacheConfig controls the finding cache (spec.md §4.G).
type CacheConfig struct {
	Path   string `yaml:"path,omitempty" json:"path,omitempty"`
	Mode   string `yaml:"mode,omitempty" json:"mode,omitempty"` // mtime|hash
	Driver string `yaml:"driver,omitempty" json:"driver,omitempty"` // json|sqlite
}

// BackendConfig selects and configures a secret backend (spec.md §4.J).
type BackendConfig struct {
	Name       string `yaml:"name,omitempty" json:"name,omitempty"` // file|aws|vault
	FilePath   string `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	AWSPrefix  string `yaml:"aws_prefix,omitempty" json:"aws_prefix,omitempty"`
	VaultMount string `yaml:"vault_mount,omitempty" json:"vault_mount,omitempty"`
	VaultBase  string `yaml:"vault_base,omitempty" json:"vault_base,omitempty"`
}

// AuditConfig controls the NDJSON audit writer (spec.md §4.L).
type AuditConfig struct {
	Path          string `yaml:"path,omitempty" json:"path,omitempty"`
	SigningKey    string `yaml:"signing_key,omitempty" json:"signing_key,omitempty"`
	KeyID         string `yaml:"key_id,omitempty" json:"key_id,omitempty"`
}

// Config is secretsentinel's top-level project configuration, loaded
// from .secretsentinel.yaml/.json at the scan base directory.
type Config struct {
	Version  string         `yaml:"version,omitempty" json:"version,omitempty"`
	Patterns []Pattern      `yaml:"patterns,omitempty" json:"patterns,omitempty"`
	Policy   *Policy        `yaml:"policy,omitempty" json:"policy,omitempty"`
	Entropy  EntropyConfig  `yaml:"entropy,omitempty" json:"entropy,omitempty"`
	MLHook   *MLHookConfig  `yaml:"ml_hook,omitempty" json:"ml_hook,omitempty"`
	Rules    RulesConfig    `yaml:"rules,omitempty" json:"rules,omitempty"`
	Scan     ScanConfig     `yaml:"scan,omitempty" json:"scan,omitempty"`
	Cache    CacheConfig    `yaml:"cache,omitempty" json:"cache,omitempty"`
	Backend  BackendConfig  `yaml:"backend,omitempty" json:"backend,omitempty"`
	Audit    AuditConfig    `yaml:"audit,omitempty" json:"audit,omitempty"`
	TempDir  string         `yaml:"temp_dir,omitempty" json:"temp_dir,omitempty"`
}

// Defaults returns a Config with spec.md's documented default values.
func Defaults() *Config {
	return &Config{
		Version: "1",
		Entropy: EntropyConfig{Enabled: true, MinLength: 32, Threshold: 3.5},
		Rules:   RulesConfig{Engine: "native"},
		Scan: ScanConfig{
			Concurrency:     8,
			MaxLineBytes:    10_000,
			MaxArchiveCount: 10_000,
			MaxArchiveEntry: 50 * 1024 * 1024,
			MaxArchiveBytes: 200 * 1024 * 1024,
		},
		Cache:   CacheConfig{Mode: "mtime", Driver: "json"},
		Backend: BackendConfig{Name: "file", FilePath: "secrets.json"},
	}
}

// Load reads and parses a project config file, trying base/.secretsentinel.yaml,
// then .yml, then .json, then falling back to base/config/defaults.json per
// spec.md §6. A missing file is not an error: Defaults() is returned.
func Load(baseDir string) (*Config, error) {
	candidates := []string{
		filepath.Join(baseDir, ".secretsentinel.yaml"),
		filepath.Join(baseDir, ".secretsentinel.yml"),
		filepath.Join(baseDir, ".secretsentinel.json"),
		filepath.Join(baseDir, "config", "defaults.json"),
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		cfg := Defaults()
		if filepath.Ext(path) == ".json" {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("validating config %s: %w", path, err)
		}
		return cfg, nil
	}

	return Defaults(), nil
}

// Save writes the config as YAML to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks the config for internal consistency. Invalid
// per-pattern regexes are not caught here; the rule compiler drops
// those individually with a warning rather than failing the whole load.
func (c *Config) Validate() error {
	if c.Policy != nil && c.Policy.MinSeverity != "" {
		switch c.Policy.MinSeverity {
		case "low", "medium", "high":
		default:
			return fmt.Errorf("policy.min_severity %q must be low, medium, or high", c.Policy.MinSeverity)
		}
	}
	switch c.Rules.Engine {
	case "", "native", "re2":
	default:
		return fmt.Errorf("rules.engine %q must be native or re2", c.Rules.Engine)
	}
	switch c.Cache.Mode {
	case "", "mtime", "hash":
	default:
		return fmt.Errorf("cache.mode %q must be mtime or hash", c.Cache.Mode)
	}
	switch c.Backend.Name {
	case "", "file", "aws", "vault":
	default:
		return fmt.Errorf("backend.name %q must be file, aws, or vault", c.Backend.Name)
	}
	if c.MLHook != nil {
		switch c.MLHook.Mode {
		case "", "line", "file", "both":
		default:
			return fmt.Errorf("ml_hook.mode %q must be line, file, or both", c.MLHook.Mode)
		}
	}
	seen := make(map[string]bool, len(c.Patterns))
	for _, p := range c.Patterns {
		if p.Name == "" {
			return fmt.Errorf("pattern with empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate pattern name %q", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}
