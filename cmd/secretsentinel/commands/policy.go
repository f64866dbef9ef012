package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/oktsec/secretsentinel/internal/config"
	"github.com/oktsec/secretsentinel/internal/errs"
	"github.com/oktsec/secretsentinel/internal/policy"
	"github.com/oktsec/secretsentinel/internal/scan"
	"github.com/spf13/cobra"
)

func newPolicyCmd() *cobra.Command {
	var (
		minSeverity string
		forbidRules []string
	)

	cmd := &cobra.Command{
		Use:   "policy [path]",
		Short: "Scan a tree and evaluate the policy gate without rotating anything",
		Example: `  secretsentinel policy .
  secretsentinel policy . --min-severity high`,
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
			result, err := scan.Run(cmd.Context(), target, scan.Options{
				Detect: buildDetectOptions(cfgDir, cfg, logger),
			})
			if err != nil {
				return errs.IOWrap(err, "scanning %s", target)
			}

			decision := policy.NewEvaluator(cfg, policy.Overrides{MinSeverity: minSeverity, ForbidRules: forbidRules}, logger).Evaluate(result.Findings)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "considered %d finding(s): %s\n", len(decision.Considered), decision.Reason)
			if !decision.Allowed {
				return errs.Policy("%s", decision.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&minSeverity, "min-severity", "", "override policy min_severity (low|medium|high)")
	cmd.Flags().StringSliceVar(&forbidRules, "forbid-rule", nil, "rule names that always fail the policy gate")
	return cmd
}
