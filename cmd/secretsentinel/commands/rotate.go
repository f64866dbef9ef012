package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/oktsec/secretsentinel/internal/audit"
	"github.com/oktsec/secretsentinel/internal/backend"
	"github.com/oktsec/secretsentinel/internal/config"
	"github.com/oktsec/secretsentinel/internal/errs"
	"github.com/oktsec/secretsentinel/internal/rotate"
	"github.com/oktsec/secretsentinel/internal/scan"
	"github.com/spf13/cobra"
)

func newRotateCmd() *cobra.Command {
	var (
		rotator     string
		dryRun      bool
		force       bool
		interactive bool
		template    string
		verify      bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "rotate [path]",
		Short: "Scan a tree and rotate matched secrets in place",
		Example: `  secretsentinel rotate . --rotator apply --dry-run
  secretsentinel rotate . --rotator apply --force --template "__MASKED_{{timestamp}}__"
  secretsentinel rotate . --rotator backend --force --verify`,
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

			var r rotate.Rotator
			switch rotator {
			case "apply":
				r = &rotate.ApplyRotator{}
			case "backend":
				provider, err := backend.New(cmd.Context(), cfg.Backend)
				if err != nil {
					return errs.ConfigWrap(err, "configuring secret backend")
				}
				r = &rotate.BackendRotator{Provider: provider, Verify: verify}
			default:
				return errs.Config("unknown rotator %q: must be apply or backend", rotator)
			}

			var auditWriter *audit.Writer
			if cfg.Audit.Path != "" {
				auditWriter, err = audit.NewWriter(cfg.Audit.Path, []byte(cfg.Audit.SigningKey), cfg.Audit.KeyID)
				if err != nil {
					return errs.IOWrap(err, "opening audit log %s", cfg.Audit.Path)
				}
			}

			opts := rotate.Options{
				DryRun:          dryRun,
				Force:           force,
				Interactive:     interactive,
				Template:        template,
				Verify:          verify,
				Concurrency:     concurrency,
				InteractiveAuto: interactiveAutoFromEnv(),
				OnEvent:         auditEventHook(auditWriter),
			}

			rr := rotate.Run(cmd.Context(), target, result.Findings, r, opts)
			if rr.Refused {
				fmt.Fprintf(cmd.ErrOrStderr(), "refused: %s\n", rr.RefusalReason)
				os.Exit(3)
			}

			printRotationReport(cmd, rr)
			return nil
		},
	}

	cmd.Flags().StringVar(&rotator, "rotator", "apply", "rotator to use: apply|backend")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing files")
	cmd.Flags().BoolVar(&force, "force", false, "approve every destructive rotation without prompting")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "prompt y/N per finding")
	cmd.Flags().StringVar(&template, "template", "", "replacement template ({{match}}, {{timestamp}}, {{file}}, {{ref}})")
	cmd.Flags().BoolVar(&verify, "verify", false, "read back a backend-written secret before rewriting the file")
	cmd.Flags().IntVar(&concurrency, "rotate-concurrency", 0, "per-file worker count (0 = default 4)")
	return cmd
}

func printRotationReport(cmd *cobra.Command, rr rotate.Result) {
	out := cmd.OutOrStdout()
	var updated, skipped, failed int
	for _, fo := range rr.Files {
		for _, o := range fo.Findings {
			switch o.State {
			case rotate.StateFileUpdated:
				updated++
			case rotate.StateSkipped:
				skipped++
				if o.Message != "" {
					fmt.Fprintf(out, "%s:%d  %s\n", fo.FilePath, o.Finding.Line, o.Message)
				}
			case rotate.StateRollbackDone, rotate.StateFailed:
				failed++
			}
		}
	}
	fmt.Fprintf(out, "\n%d updated, %d skipped, %d failed\n", updated, skipped, failed)
}
