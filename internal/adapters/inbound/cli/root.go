package cli

import "github.com/spf13/cobra"

var (
	version = "dev"
	commit  = "none"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sentinel",
		Short:         "Find code-quality violations and fix them safely",
		Long:          "Sentinel scans a project with an ensemble of detection rules, classifies each candidate fix against a safety policy, and applies validated fixes with a full audit trail.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newFixCmd())
	cmd.AddCommand(newAuditCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newMCPCmd())
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	return newRootCmd().Execute()
}
