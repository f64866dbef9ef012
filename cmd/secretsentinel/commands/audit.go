package commands

import (
	"fmt"

	"github.com/oktsec/secretsentinel/internal/audit"
	"github.com/oktsec/secretsentinel/internal/errs"
	"github.com/spf13/cobra"
)

func newAuditCmd() *cobra.Command {
	var (
		path            string
		key             string
		allowDuplicates bool
		checkTimestamps bool
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect and verify the rotation audit log",
		Example: `  secretsentinel audit verify --path audit.ndjson
  secretsentinel audit verify --path audit.ndjson --key "$SECRETSENTINEL_AUDIT_SIGNING_KEY"`,
	}

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify an audit log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				return errs.Config("--path is required")
			}
			report, err := audit.Verify(path, audit.VerifyOptions{
				Key:             []byte(key),
				AllowDuplicates: allowDuplicates,
				CheckTimestamps: checkTimestamps,
			})
			if err != nil {
				return errs.IOWrap(err, "verifying %s", path)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d line(s) checked\n", report.Lines)
			for _, issue := range report.Issues {
				fmt.Fprintf(out, "  line %d: %s: %s\n", issue.Line, issue.Type, issue.Detail)
			}
			if !report.Valid {
				return errs.Verification("audit log %s failed verification", path)
			}
			fmt.Fprintln(out, "OK")
			return nil
		},
	}
	verifyCmd.Flags().StringVar(&path, "path", "", "path to the NDJSON audit log")
	verifyCmd.Flags().StringVar(&key, "key", "", "HMAC signing key, if the log was signed")
	verifyCmd.Flags().BoolVar(&allowDuplicates, "allow-duplicates", false, "don't flag duplicate hash lines")
	verifyCmd.Flags().BoolVar(&checkTimestamps, "check-timestamps", false, "flag out-of-order timestamps")

	cmd.AddCommand(verifyCmd)
	return cmd
}
