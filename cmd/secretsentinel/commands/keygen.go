package commands

import (
	"fmt"

	"github.com/oktsec/secretsentinel/internal/identity"
	"github.com/spf13/cobra"
)

func newKeygenCmd() *cobra.Command {
	var names []string
	var outDir string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate Ed25519 keypairs for audit signing and marketplace trust",
		Example: `  secretsentinel keygen --name audit --out ./keys/
  secretsentinel keygen --name marketplace --out ./keys/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(names) == 0 {
				return fmt.Errorf("at least one --name is required")
			}

			out := cmd.OutOrStdout()
			for _, name := range names {
				kp, err := identity.GenerateKeypair(name)
				if err != nil {
					return fmt.Errorf("generating keypair for %s: %w", name, err)
				}
				if err := kp.Save(outDir); err != nil {
					return fmt.Errorf("saving keypair for %s: %w", name, err)
				}
				fp := identity.Fingerprint(kp.PublicKey)
				fmt.Fprintf(out, "Generated keypair for %s\n", name)
				fmt.Fprintf(out, "  Private: %s/%s.key\n", outDir, name)
				fmt.Fprintf(out, "  Public:  %s/%s.pub\n", outDir, name)
				fmt.Fprintf(out, "  Fingerprint: %s\n\n", fp[:16]+"...")
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&names, "name", nil, "key name(s) to generate, e.g. audit, marketplace")
	cmd.Flags().StringVar(&outDir, "out", "./keys", "output directory for keys")
	return cmd
}
