package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sentinelfix/sentinel/internal/adapters/outbound/tui"
	"github.com/sentinelfix/sentinel/internal/domain"
)

// StdinConfirmer prompts on the command's streams for interactive mode.
type StdinConfirmer struct {
	cmd *cobra.Command
}

func NewStdinConfirmer(cmd *cobra.Command) *StdinConfirmer {
	return &StdinConfirmer{cmd: cmd}
}

// Confirm shows the violation and its diff, then reads a y/n answer.
// Anything other than an explicit yes declines.
func (c *StdinConfirmer) Confirm(v domain.EnsembleViolation, diff string) (bool, error) {
	out := c.cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s:%d  %s (%.2f)\n", v.FilePath, v.Line, v.PatternName, v.Confidence)
	fmt.Fprintf(out, "%s\n", v.Message)
	if diff != "" {
		fmt.Fprint(out, tui.RenderDiff(diff))
	}
	fmt.Fprint(out, "Apply this fix? [y/N] ")

	reader := bufio.NewReader(c.cmd.InOrStdin())
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
