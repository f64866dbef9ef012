package commands

import (
	"github.com/oktsec/secretsentinel/internal/config"
	"github.com/oktsec/secretsentinel/internal/errs"
	"github.com/oktsec/secretsentinel/internal/mcphook"
	"github.com/oktsec/secretsentinel/internal/mlhook"
	"github.com/spf13/cobra"
)

func newMLHookServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mlhook-serve",
		Short: "Expose the configured ML hook as an MCP analyze_line tool over stdio",
		Example: `  secretsentinel mlhook-serve --config-dir .`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgDir)
			if err != nil {
				return errs.ConfigWrap(err, "loading config")
			}
			applyEnv(cfg)

			if cfg.MLHook == nil || cfg.MLHook.Path == "" {
				return errs.Config("no ml_hook.path configured; nothing to serve")
			}

			bridge := mlhook.New(cfg.MLHook.Path, mlhook.Mode(cfg.MLHook.Mode), mlHookBudget(cfg))
			srv := mcphook.NewServer(bridge)
			return mcphook.Serve(cmd.Context(), srv)
		},
	}
	return cmd
}
