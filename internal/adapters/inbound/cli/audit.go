package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentinelfix/sentinel/internal/adapters/outbound/audit"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/checkpoint"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/gitinfo"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/parser"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/policy"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/testrunner"
	"github.com/sentinelfix/sentinel/internal/adapters/outbound/tui"
	"github.com/sentinelfix/sentinel/internal/application"
	"github.com/sentinelfix/sentinel/internal/domain"
	"github.com/sentinelfix/sentinel/internal/domain/fixer"
	"github.com/sentinelfix/sentinel/internal/domain/rules"
	"github.com/sentinelfix/sentinel/internal/domain/safety"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect and act on the fix audit trail",
	}
	cmd.AddCommand(newAuditSessionCmd())
	cmd.AddCommand(newAuditFileCmd())
	cmd.AddCommand(newAuditPatternsCmd())
	cmd.AddCommand(newAuditRollbackCmd())
	return cmd
}

func newAuditSessionCmd() *cobra.Command {
	var (
		projectPath string
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "session <session-id>",
		Short: "Summarize one fix session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(projectPath)
			if err != nil {
				return err
			}
			defer store.Close()

			summary, err := application.NewHistoryService(store).SessionSummary(args[0])
			if err != nil {
				return fmt.Errorf("loading session: %w", err)
			}
			if jsonOutput {
				return writeJSON(cmd, summary)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderSessionSummary(summary))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectPath, "path", ".", "Project path")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newAuditFileCmd() *cobra.Command {
	var (
		projectPath string
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "file <file-path>",
		Short: "Show every fix ever attempted on a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(projectPath)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := application.NewHistoryService(store).FileHistory(args[0])
			if err != nil {
				return fmt.Errorf("loading file history: %w", err)
			}
			if jsonOutput {
				return writeJSON(cmd, entries)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderFileHistory(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectPath, "path", ".", "Project path")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newAuditPatternsCmd() *cobra.Command {
	var (
		projectPath string
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Show all-time per-pattern success rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(projectPath)
			if err != nil {
				return err
			}
			defer store.Close()

			report, err := application.NewHistoryService(store).LearnFromHistory()
			if err != nil {
				return fmt.Errorf("loading pattern history: %w", err)
			}
			if jsonOutput {
				return writeJSON(cmd, report)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderLearning(report))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectPath, "path", ".", "Project path")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newAuditRollbackCmd() *cobra.Command {
	var projectPath string

	cmd := &cobra.Command{
		Use:   "rollback <audit-id>",
		Short: "Revert one applied fix by audit ID",
		Long:  "Restore the file content recorded before the fix was applied. The current content is verified against the stored hash before writing; only applied fixes can be rolled back.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(projectPath)
			if err != nil {
				return err
			}
			defer store.Close()

			tables, err := policy.New().Load(projectPath)
			if err != nil {
				return fmt.Errorf("loading safety policy: %w", err)
			}
			classifier, err := safety.NewClassifier(tables)
			if err != nil {
				return err
			}

			par := parser.New()
			pipeline := fixer.NewPipeline(par, testrunner.New(), domain.SystemClock{})
			fixSvc := application.NewFixService(classifier, rules.Builtin(), pipeline,
				par, store, checkpoint.New(), nil, gitinfo.New())

			if err := fixSvc.Rollback(args[0]); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&projectPath, "path", ".", "Project path")

	return cmd
}

func openStore(projectPath string) (*audit.Store, error) {
	store, err := audit.Open(projectPath)
	if err != nil {
		return nil, fmt.Errorf("opening audit store: %w", err)
	}
	return store, nil
}
