// Package sdk provides an embeddable Go API for secretsentinel's scan,
// rotate, and audit-verify operations.
//
// Basic usage:
//
//	c := sdk.NewClient(sdk.Config{BaseDir: "."})
//	result, err := c.Scan(ctx, "./repo")
package sdk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oktsec/secretsentinel/internal/audit"
	"github.com/oktsec/secretsentinel/internal/backend"
	"github.com/oktsec/secretsentinel/internal/config"
	"github.com/oktsec/secretsentinel/internal/detect"
	"github.com/oktsec/secretsentinel/internal/entropy"
	"github.com/oktsec/secretsentinel/internal/finding"
	"github.com/oktsec/secretsentinel/internal/mlhook"
	"github.com/oktsec/secretsentinel/internal/policy"
	"github.com/oktsec/secretsentinel/internal/rotate"
	"github.com/oktsec/secretsentinel/internal/rules"
	"github.com/oktsec/secretsentinel/internal/scan"
)

// Config selects the project configuration a Client operates under.
// BaseDir is where .secretsentinel.yaml/.json is loaded from; an empty
// BaseDir uses config.Defaults().
type Config struct {
	BaseDir string
	Logger  *slog.Logger
}

// Client is the embeddable entry point into secretsentinel's core
// pipeline: scan, rotate, and audit verification, without a process
// boundary or HTTP transport.
type Client struct {
	baseDir string
	cfg     *config.Config
	logger  *slog.Logger
}

// PolicyError is returned by operations that evaluate the policy gate
// and find it failing.
type PolicyError struct {
	Reason     string
	Considered []finding.Finding
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("secretsentinel: policy failed: %s (%d findings considered)", e.Reason, len(e.Considered))
}

// NewClient loads cfg.BaseDir's project configuration and builds a
// Client. A missing config file is not an error: defaults are used.
func NewClient(cfg Config) (*Client, error) {
	projCfg, err := config.Load(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseDir: cfg.BaseDir, cfg: projCfg, logger: logger}, nil
}

func (c *Client) detectOptions() detect.Options {
	compiled := rules.Load(rules.Options{
		BaseDir:         c.baseDir,
		DisableBuiltins: c.cfg.Rules.DisableBuiltins,
		Rulesets:        c.cfg.Rules.Rulesets,
		RulesetDirs:     c.cfg.Rules.RulesetDirs,
		Engine:          rules.Engine(c.cfg.Rules.Engine),
	}, c.logger)

	opts := detect.Options{
		Rules:          compiled,
		EntropyEnabled: c.cfg.Entropy.Enabled,
		Entropy:        entropy.Options{MinLength: c.cfg.Entropy.MinLength, Threshold: c.cfg.Entropy.Threshold},
		MaxFileBytes:   c.cfg.Scan.MaxFileBytes,
		MaxLineBytes:   c.cfg.Scan.MaxLineBytes,
		MaxTotalBytes:  c.cfg.Scan.MaxTotalBytes,
		EnableBinary:   c.cfg.Scan.EnableBinary,
		BinaryMaxBytes: c.cfg.Scan.MaxFileBytes,
	}
	opts.Archive.MaxTotalBytes = c.cfg.Scan.MaxArchiveBytes
	opts.Archive.MaxEntryBytes = c.cfg.Scan.MaxArchiveEntry
	opts.Archive.MaxEntries = c.cfg.Scan.MaxArchiveCount
	opts.Archive.GlobalCap = c.cfg.Scan.GlobalArchiveCap

	if c.cfg.MLHook != nil && c.cfg.MLHook.Path != "" {
		budget := mlhookBudgetFrom(c.cfg)
		opts.Hook = mlhook.New(c.cfg.MLHook.Path, mlhook.Mode(c.cfg.MLHook.Mode), budget)
	}
	return opts
}

// Scan walks target (a file or directory) and returns every finding,
// per spec.md §4.F.
func (c *Client) Scan(ctx context.Context, target string) (scan.Result, error) {
	opts := scan.Options{
		CachePath:   c.cfg.Cache.Path,
		CacheDriver: c.cfg.Cache.Driver,
		Detect:      c.detectOptions(),
	}
	return scan.Run(ctx, target, opts)
}

// ScanAndCheckPolicy scans target and evaluates the project policy
// against the result, returning a *PolicyError when the gate fails.
func (c *Client) ScanAndCheckPolicy(ctx context.Context, target string, ov policy.Overrides) ([]finding.Finding, error) {
	result, err := c.Scan(ctx, target)
	if err != nil {
		return nil, err
	}
	decision := policy.NewEvaluator(c.cfg, ov, c.logger).Evaluate(result.Findings)
	if !decision.Allowed {
		return result.Findings, &PolicyError{Reason: decision.Reason, Considered: decision.Considered}
	}
	return result.Findings, nil
}

// Rotate scans target and runs the named rotator ("apply" or
// "backend") over every finding, per spec.md §4.I.
func (c *Client) Rotate(ctx context.Context, target, rotatorName string, opts rotate.Options) (rotate.Result, error) {
	result, err := c.Scan(ctx, target)
	if err != nil {
		return rotate.Result{}, err
	}

	var r rotate.Rotator
	switch rotatorName {
	case "apply":
		r = &rotate.ApplyRotator{}
	case "backend":
		provider, err := backend.New(ctx, c.cfg.Backend)
		if err != nil {
			return rotate.Result{}, fmt.Errorf("configuring secret backend: %w", err)
		}
		r = &rotate.BackendRotator{Provider: provider, Verify: opts.Verify}
	default:
		return rotate.Result{}, fmt.Errorf("unknown rotator %q", rotatorName)
	}

	return rotate.Run(ctx, target, result.Findings, r, opts), nil
}

// Audit groups the audit log inspection operations.
type Audit struct {
	Path string
	Key  []byte
}

// Verify checks an audit log's hash chain and, if a.Key is set, its
// HMAC signatures.
func (a Audit) Verify(opts audit.VerifyOptions) (audit.Report, error) {
	if opts.Key == nil {
		opts.Key = a.Key
	}
	return audit.Verify(a.Path, opts)
}

func mlhookBudgetFrom(cfg *config.Config) time.Duration {
	if cfg.MLHook == nil || cfg.MLHook.BudgetMs <= 0 {
		return 0
	}
	return time.Duration(cfg.MLHook.BudgetMs) * time.Millisecond
}
