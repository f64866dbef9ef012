package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/oktsec/secretsentinel/internal/rules"
	"github.com/spf13/cobra"
)

func newRulesCmd() *cobra.Command {
	var (
		disableBuiltins bool
		rulesets        []string
		rulesetDirs     []string
		engine          string
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the compiled detection ruleset",
		Example: `  secretsentinel rules
  secretsentinel rules --ruleset-dir ./rules.d`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
			compiled := rules.Load(rules.Options{
				BaseDir:         cfgDir,
				DisableBuiltins: disableBuiltins,
				Rulesets:        rulesets,
				RulesetDirs:     rulesetDirs,
				Engine:          rules.Engine(engine),
			}, logger)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d rule(s) loaded:\n\n", len(compiled))
			for _, r := range compiled {
				fmt.Fprintf(out, "  %-30s %-8s %s\n", r.Name, r.Severity, r.Pattern)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&disableBuiltins, "disable-builtins", false, "exclude the built-in pattern set")
	cmd.Flags().StringSliceVar(&rulesets, "ruleset", nil, "curated ruleset name(s) to include")
	cmd.Flags().StringSliceVar(&rulesetDirs, "ruleset-dir", nil, "directory/directories of extra rule files")
	cmd.Flags().StringVar(&engine, "engine", "", "regex engine: native|re2")
	return cmd
}
