package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentinelfix/sentinel/internal/adapters/outbound/audit"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/checkpoint"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/config"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/gitinfo"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/parser"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/policy"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/scanner"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/testrunner"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/tui"
	"github.com/sentinelfix/sentinel/internal/application"
	"github.com/sentinelfix/sentinel/internal/domain"
	"github.com/sentinelfix/sentinel/internal/domain/fixer"
	"github.com/sentinelfix/sentinel/internal/domain/rules"
	"github.com/sentinelfix/sentinel/internal/domain/safety"
)

func newFixCmd() *cobra.Command {
	var (
		mode       string
		resume     string
		userID     string
		withImpact bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "fix [path]",
		Short: "Scan a project and apply validated fixes",
		Long:  "Scan for violations, classify each candidate fix against the safety policy, run the validation pipeline, and apply fixes according to the execution mode. Every attempt is recorded in the audit trail.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := resolvePath(args)
			if err != nil {
				return err
			}

			if mode != "" && !domain.Mode(mode).Valid() {
				return fmt.Errorf("unknown mode %q", mode)
			}

			store, err := audit.Open(absPath)
			if err != nil {
				return fmt.Errorf("opening audit store: %w", err)
			}
			defer store.Close()

			tables, err := policy.New().Load(absPath)
			if err != nil {
				return fmt.Errorf("loading safety policy: %w", err)
			}
			classifier, err := safety.NewClassifier(tables)
			if err != nil {
				return err
			}

			par := parser.New()
			registry := rules.Builtin()

			scanSvc := application.NewScanService(scanner.New(), par,
				config.New(), store, registry)
			report, cfg, err := scanSvc.Scan(cmd.Context(), absPath)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			pipeline := fixer.NewPipeline(par, testrunner.New(), domain.SystemClock{})
			fixSvc := application.NewFixService(classifier, registry, pipeline,
				par, store, checkpoint.New(), NewStdinConfirmer(cmd), gitinfo.New())

			opts := application.FixOptions{
				Mode:       domain.Mode(mode),
				UserID:     userID,
				Resume:     resume,
				WithImpact: withImpact,
			}
			fixReport, err := fixSvc.Execute(cmd.Context(), absPath, report.Violations, cfg, opts)
			if err != nil {
				return fmt.Errorf("fix failed: %w", err)
			}

			if jsonOutput {
				return writeJSON(cmd, fixReport)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderFix(fixReport))
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Execution mode: simulate, conservative, standard, aggressive, interactive")
	cmd.Flags().StringVar(&resume, "resume", "", "Resume from a checkpoint ID, or \"latest\"")
	cmd.Flags().StringVar(&userID, "user", "", "User recorded in the audit trail")
	cmd.Flags().BoolVar(&withImpact, "impact", false, "Include blast-radius analysis in the report")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
