package commands

import (
	"github.com/spf13/cobra"
)

var cfgDir string

func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "secretsentinel",
		Short: "Repository-wide secret scanner and rotator",
		Long:  "secretsentinel — detects committed credentials, gates merges on policy, and rotates secrets in place. No external service required. Single binary.",
	}

	root.PersistentFlags().StringVar(&cfgDir, "config-dir", ".", "directory to load .secretsentinel.yaml/.json from")

	root.AddCommand(
		newScanCmd(),
		newRotateCmd(),
		newRulesCmd(),
		newPolicyCmd(),
		newAuditCmd(),
		newMarketplaceCmd(),
		newKeygenCmd(),
		newVersionCmd(),
		newMLHookServeCmd(),
	)

	return root
}
