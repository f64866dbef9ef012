package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/oktsec/secretsentinel/internal/config"
	"github.com/oktsec/secretsentinel/internal/errs"
	"github.com/oktsec/secretsentinel/internal/export"
	"github.com/oktsec/secretsentinel/internal/finding"
	"github.com/oktsec/secretsentinel/internal/policy"
	"github.com/oktsec/secretsentinel/internal/scan"
	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	var (
		incremental     bool
		gitBase         string
		ignore          []string
		concurrency     int
		minSeverity     string
		failOnFindings  bool
		forbidRules     []string
		thresholdHigh   int
		thresholdMedium int
		thresholdLow    int
		thresholdTotal  int
		format          string
	)

	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a file or directory tree for committed secrets",
		Example: `  secretsentinel scan .
  secretsentinel scan . --incremental --git-base origin/main
  secretsentinel scan . --min-severity medium --fail-on-findings`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) == 1 {
				target = args[0]
			}

			cfg, err := config.Load(cfgDir)
			if err != nil {
				return errs.ConfigWrap(err, "loading config")
			}
			applyEnv(cfg)

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
			opts := scan.Options{
				Concurrency:    concurrency,
				Incremental:    incremental,
				GitBase:        gitBase,
				IgnorePatterns: ignore,
				Detect:         buildDetectOptions(cfgDir, cfg, logger),
			}
			if cfg.Cache.Path != "" {
				opts.CachePath = cfg.Cache.Path
				opts.CacheDriver = cfg.Cache.Driver
			}

			result, err := scan.Run(cmd.Context(), target, opts)
			if err != nil {
				return errs.IOWrap(err, "scanning %s", target)
			}

			sort.Slice(result.Findings, func(i, j int) bool {
				a, b := result.Findings[i], result.Findings[j]
				if a.FilePath != b.FilePath {
					return a.FilePath < b.FilePath
				}
				if a.Line != b.Line {
					return a.Line < b.Line
				}
				return a.Column < b.Column
			})

			if err := renderFindings(cmd, result.Findings, format); err != nil {
				return err
			}

			ov := policy.Overrides{MinSeverity: minSeverity, ForbidRules: forbidRules}
			if thresholdHigh > 0 || thresholdMedium > 0 || thresholdLow > 0 || thresholdTotal > 0 {
				th := &config.Thresholds{}
				if thresholdHigh > 0 {
					th.High = &thresholdHigh
				}
				if thresholdMedium > 0 {
					th.Medium = &thresholdMedium
				}
				if thresholdLow > 0 {
					th.Low = &thresholdLow
				}
				if thresholdTotal > 0 {
					th.Total = &thresholdTotal
				}
				ov.Thresholds = th
			}

			if !failOnFindings {
				return nil
			}
			decision := policy.NewEvaluator(cfg, ov, logger).Evaluate(result.Findings)
			if !decision.Allowed {
				fmt.Fprintf(cmd.ErrOrStderr(), "policy failed: %s\n", decision.Reason)
				return errs.Policy("%s", decision.Reason)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&incremental, "incremental", false, "only scan files changed since --git-base")
	cmd.Flags().StringVar(&gitBase, "git-base", "HEAD", "git ref to diff against in incremental mode")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "additional gitignore-style patterns")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "worker count (0 = default)")
	cmd.Flags().StringVar(&minSeverity, "min-severity", "", "override policy min_severity (low|medium|high)")
	cmd.Flags().BoolVar(&failOnFindings, "fail-on-findings", false, "evaluate the policy gate and exit non-zero on failure")
	cmd.Flags().StringSliceVar(&forbidRules, "forbid-rule", nil, "rule names that always fail the policy gate")
	cmd.Flags().IntVar(&thresholdHigh, "threshold-high", 0, "override policy high-severity threshold")
	cmd.Flags().IntVar(&thresholdMedium, "threshold-medium", 0, "override policy medium-severity threshold")
	cmd.Flags().IntVar(&thresholdLow, "threshold-low", 0, "override policy low-severity threshold")
	cmd.Flags().IntVar(&thresholdTotal, "threshold-total", 0, "override policy total-findings threshold")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text|json|csv")
	return cmd
}

func renderFindings(cmd *cobra.Command, findings []finding.Finding, format string) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return export.JSON(out, findings)
	case "csv":
		return export.CSV(out, findings)
	case "", "text":
		if len(findings) == 0 {
			fmt.Fprintln(out, "No findings.")
			return nil
		}
		for _, f := range findings {
			fmt.Fprintf(out, "%s:%d:%d  [%s]  %s  %s\n", f.FilePath, f.Line, f.Column, f.Severity, f.RuleName, f.Context)
		}
		fmt.Fprintf(out, "\n%d finding(s)\n", len(findings))
		return nil
	default:
		return errs.Config("unknown --format %q: must be text, json, or csv", format)
	}
}
