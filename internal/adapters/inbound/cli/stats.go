package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentinelfix/sentinel/internal/adapters/outbound/tui"
	"github.com/sentinelfix/sentinel/internal/application"
	"github.com/sentinelfix/sentinel/internal/domain"
)

func newStatsCmd() *cobra.Command {
	var (
		projectPath string
		learn       bool
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-rule detection statistics",
		Long:  "Show accuracy and timing statistics for every detection rule, accumulated across scans. With --learn, analyze the fix history and recommend patterns to review.",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(projectPath)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := application.NewHistoryService(store)

			if learn {
				report, err := svc.LearnFromHistory()
				if err != nil {
					return fmt.Errorf("analyzing history: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, report)
				}
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderLearning(report))
				return nil
			}

			stats, err := svc.RuleStats()
			if err != nil {
				return fmt.Errorf("loading rule statistics: %w", err)
			}
			if jsonOutput {
				return writeJSON(cmd, stats)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderRuleStats(stats))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectPath, "path", ".", "Project path")
	cmd.Flags().BoolVar(&learn, "learn", false, "Analyze fix history and recommend patterns to review")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	cmd.AddCommand(newFeedbackCmd())

	return cmd
}

func newFeedbackCmd() *cobra.Command {
	var (
		projectPath   string
		filePath      string
		line          int
		falsePositive bool
		note          string
	)

	cmd := &cobra.Command{
		Use:   "feedback <rule-id>",
		Short: "Record a human verdict on a reported violation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(projectPath)
			if err != nil {
				return err
			}
			defer store.Close()

			fb := &domain.ViolationFeedback{
				RuleID:          args[0],
				FilePath:        filePath,
				Line:            line,
				IsFalsePositive: falsePositive,
				Feedback:        note,
			}
			if err := application.NewHistoryService(store).RecordFeedback(fb); err != nil {
				return fmt.Errorf("recording feedback: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded feedback #%d for %s\n", fb.ID, fb.RuleID)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectPath, "path", ".", "Project path")
	cmd.Flags().StringVar(&filePath, "file", "", "File the violation was reported in")
	cmd.Flags().IntVar(&line, "line", 0, "Line the violation was reported at")
	cmd.Flags().BoolVar(&falsePositive, "false-positive", false, "Mark the report as a false positive")
	cmd.Flags().StringVar(&note, "note", "", "Free-form explanation")

	return cmd
}
