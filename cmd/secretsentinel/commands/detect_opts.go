package commands

import (
	"log/slog"

	"github.com/oktsec/secretsentinel/internal/config"
	"github.com/oktsec/secretsentinel/internal/detect"
	"github.com/oktsec/secretsentinel/internal/entropy"
	"github.com/oktsec/secretsentinel/internal/mlhook"
	"github.com/oktsec/secretsentinel/internal/rules"
)

// buildDetectOptions compiles the ruleset and wires the entropy/ML
// hook options a scan run needs, per cfg.
func buildDetectOptions(baseDir string, cfg *config.Config, logger *slog.Logger) detect.Options {
	ruleOpts := rules.Options{
		BaseDir:         baseDir,
		DisableBuiltins: cfg.Rules.DisableBuiltins,
		Rulesets:        cfg.Rules.Rulesets,
		RulesetDirs:     cfg.Rules.RulesetDirs,
		Engine:          rules.Engine(cfg.Rules.Engine),
	}
	compiled := rules.Load(ruleOpts, logger)

	opts := detect.Options{
		Rules:          compiled,
		EntropyEnabled: cfg.Entropy.Enabled,
		Entropy:        entropy.Options{MinLength: cfg.Entropy.MinLength, Threshold: cfg.Entropy.Threshold},
		MaxFileBytes:   cfg.Scan.MaxFileBytes,
		MaxLineBytes:   cfg.Scan.MaxLineBytes,
		MaxTotalBytes:  cfg.Scan.MaxTotalBytes,
		EnableBinary:   cfg.Scan.EnableBinary,
		BinaryMaxBytes: cfg.Scan.MaxFileBytes,
	}
	opts.Archive.MaxTotalBytes = cfg.Scan.MaxArchiveBytes
	opts.Archive.MaxEntryBytes = cfg.Scan.MaxArchiveEntry
	opts.Archive.MaxEntries = cfg.Scan.MaxArchiveCount
	opts.Archive.GlobalCap = cfg.Scan.GlobalArchiveCap

	if cfg.MLHook != nil && cfg.MLHook.Path != "" {
		opts.Hook = mlhook.New(cfg.MLHook.Path, mlhook.Mode(cfg.MLHook.Mode), mlHookBudget(cfg))
	}
	return opts
}
