package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sentinelfix/sentinel/internal/adapters/outbound/audit"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/config"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/parser"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/scanner"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/tui"
	"github.com/sentinelfix/sentinel/internal/application"
	"github.com/sentinelfix/sentinel/internal/domain/rules"
)

func newScanCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a project for code-quality violations",
		Long:  "Run every registered detection pattern against the project's source files and report calibrated violations. No files are modified.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := resolvePath(args)
			if err != nil {
				return err
			}

			store, err := audit.Open(absPath)
			if err != nil {
				return fmt.Errorf("opening audit store: %w", err)
			}
			defer store.Close()

			svc := application.NewScanService(scanner.New(), parser.New(),
				config.New(), store, rules.Builtin())

			report, _, err := svc.Scan(cmd.Context(), absPath)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			if jsonOutput {
				return writeJSON(cmd, report)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderScan(report))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func resolvePath(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return absPath, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
