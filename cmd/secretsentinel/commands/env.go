package commands

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/oktsec/secretsentinel/internal/config"
)

// applyEnv overlays the environment variables listed in spec.md §6 on
// top of a loaded config. Flags set explicitly on the command line
// still win; callers apply those after this.
func applyEnv(cfg *config.Config) {
	if v, ok := os.LookupEnv("SECRETSENTINEL_TEMP_DIR"); ok {
		cfg.TempDir = v
	}
	if v, ok := os.LookupEnv("SECRETSENTINEL_AUDIT_SIGNING_KEY"); ok {
		cfg.Audit.SigningKey = v
	}
	if v, ok := os.LookupEnv("SECRETSENTINEL_AUDIT_KEY_ID"); ok {
		cfg.Audit.KeyID = v
	}
	if v, ok := os.LookupEnv("SECRETSENTINEL_CACHE_MODE"); ok {
		cfg.Cache.Mode = v
	}
	if v, ok := os.LookupEnv("SECRETSENTINEL_RULESETS"); ok {
		cfg.Rules.Rulesets = splitCSV(v)
	}
	if v, ok := os.LookupEnv("SECRETSENTINEL_RULESET_DIRS"); ok {
		cfg.Rules.RulesetDirs = splitCSV(v)
	}
	if v, ok := os.LookupEnv("SECRETSENTINEL_DISABLE_BUILTINS"); ok {
		cfg.Rules.DisableBuiltins = v == "1" || strings.EqualFold(v, "true")
	}
	if v, ok := os.LookupEnv("SECRETSENTINEL_REGEX_ENGINE"); ok {
		cfg.Rules.Engine = v
	}
	if v, ok := os.LookupEnv("SECRETSENTINEL_ENTROPY_ENABLED"); ok {
		cfg.Entropy.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v, ok := os.LookupEnv("SECRETSENTINEL_ENTROPY_MIN_LENGTH"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Entropy.MinLength = n
		}
	}
	if v, ok := os.LookupEnv("SECRETSENTINEL_ENTROPY_THRESHOLD"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Entropy.Threshold = f
		}
	}
	if v, ok := os.LookupEnv("SECRETSENTINEL_MAX_LINE_BYTES"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scan.MaxLineBytes = n
		}
	}
	if v, ok := os.LookupEnv("SECRETSENTINEL_MAX_FILE_BYTES"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Scan.MaxFileBytes = n
		}
	}
	if v, ok := os.LookupEnv("SECRETSENTINEL_ML_HOOK_PATH"); ok {
		if cfg.MLHook == nil {
			cfg.MLHook = &config.MLHookConfig{}
		}
		cfg.MLHook.Path = v
	}
	if v, ok := os.LookupEnv("SECRETSENTINEL_ML_HOOK_MODE"); ok {
		if cfg.MLHook == nil {
			cfg.MLHook = &config.MLHookConfig{}
		}
		cfg.MLHook.Mode = v
	}
	if v, ok := os.LookupEnv("SECRETSENTINEL_ML_HOOK_BUDGET_MS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			if cfg.MLHook == nil {
				cfg.MLHook = &config.MLHookConfig{}
			}
			cfg.MLHook.BudgetMs = n
		}
	}
	if v, ok := os.LookupEnv("SECRETSENTINEL_BACKEND"); ok {
		cfg.Backend.Name = v
	}
	if v, ok := os.LookupEnv("SECRETSENTINEL_BACKEND_FILE_PATH"); ok {
		cfg.Backend.FilePath = v
	}
	if v, ok := os.LookupEnv("SECRETSENTINEL_AWS_PREFIX"); ok {
		cfg.Backend.AWSPrefix = v
	}
	if v, ok := os.LookupEnv("SECRETSENTINEL_VAULT_MOUNT"); ok {
		cfg.Backend.VaultMount = v
	}
	if v, ok := os.LookupEnv("SECRETSENTINEL_VAULT_BASE"); ok {
		cfg.Backend.VaultBase = v
	}
}

// interactiveAutoFromEnv returns the configured auto-response for
// interactive rotation prompts ("y"/"n"), or "" if unset, letting a
// headless CI run drive --interactive without a TTY.
func interactiveAutoFromEnv() string {
	return os.Getenv("SECRETSENTINEL_INTERACTIVE_AUTO")
}

func mlHookBudget(cfg *config.Config) time.Duration {
	if cfg.MLHook == nil || cfg.MLHook.BudgetMs <= 0 {
		return 0
	}
	return time.Duration(cfg.MLHook.BudgetMs) * time.Millisecond
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
