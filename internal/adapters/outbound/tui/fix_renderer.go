package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sentinelfix/sentinel/internal/application"
	"github.com/sentinelfix/sentinel/internal/domain"
)

var statusStyles = map[domain.AuditStatus]lipgloss.Style{
	domain.StatusApplied:    passStyle,
	domain.StatusValidated:  infoStyle,
	domain.StatusRejected:   warnStyle,
	domain.StatusFailed:     failStyle,
	domain.StatusRolledBack: warnStyle,
}

// RenderFix formats one fix batch for terminal output.
func RenderFix(report *application.FixReport) string {
	var b strings.Builder

	title := headerStyle.Render("sentinel")
	subtitle := dimStyle.Render(fmt.Sprintf("Fix Session · %s mode", report.Mode))
	summary := fmt.Sprintf("%d applied · %d validated · %d failed",
		report.Applied, report.Validated, report.Failed)
	summaryStyled := lipgloss.NewStyle().Bold(true).Foreground(fixSummaryColor(report)).Render(summary)

	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + summaryStyled))
	b.WriteString("\n\n")

	for _, a := range report.Attempts {
		renderAttempt(&b, a)
	}

	if len(report.Skipped) > 0 {
		b.WriteString("\n  " + titleStyle.Render("Skipped") + "\n\n")
		for _, s := range report.Skipped {
			fmt.Fprintf(&b, "    %s %s:%d %s\n",
				warnStyle.Render("skip "),
				fileStyle.Render(shortenPath(s.FilePath)), s.Line,
				dimStyle.Render(s.Reason),
			)
		}
	}

	if report.DroppedCount > 0 {
		fmt.Fprintf(&b, "\n  %s\n",
			dimStyle.Render(fmt.Sprintf("%d fixes dropped due to conflicts", report.DroppedCount)))
	}

	if report.Interrupted {
		fmt.Fprintf(&b, "\n  %s\n",
			warnStyle.Render(fmt.Sprintf("interrupted; resume with --resume %s", report.CheckpointID)))
	}

	if report.Impact != nil {
		renderImpact(&b, report)
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s %s\n",
		faintStyle.Render("session"),
		faintStyle.Render(report.SessionID))
	return b.String()
}

func renderAttempt(b *strings.Builder, a application.AttemptOutcome) {
	style, ok := statusStyles[a.Status]
	if !ok {
		style = dimStyle
	}

	fmt.Fprintf(b, "    %s %s:%d  %s\n",
		style.Render(padRight(string(a.Status), 11)),
		fileStyle.Render(shortenPath(a.FilePath)), a.Line,
		titleStyle.Render(a.Pattern),
	)
	if a.Reason != "" {
		fmt.Fprintf(b, "         %s\n", dimStyle.Render(a.Reason))
	}
}

// RenderDiff colors a unified diff for terminal display.
func RenderDiff(diff string) string {
	var b strings.Builder
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			b.WriteString(titleStyle.Render(line))
		case strings.HasPrefix(line, "@@"):
			b.WriteString(infoStyle.Render(line))
		case strings.HasPrefix(line, "+"):
			b.WriteString(passStyle.Render(line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(failStyle.Render(line))
		default:
			b.WriteString(dimStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderImpact(b *strings.Builder, report *application.FixReport) {
	b.WriteString("\n  " + titleStyle.Render("Impact") + "  " + RenderTier(report.Impact.BreakingRisk) + "\n\n")
	if n := len(report.Impact.AffectedFunctions); n > 0 {
		fmt.Fprintf(b, "    %s %s\n", dimStyle.Render("functions"), strings.Join(report.Impact.AffectedFunctions, ", "))
	}
	if n := len(report.Impact.AffectedTypes); n > 0 {
		fmt.Fprintf(b, "    %s %s\n", dimStyle.Render("types    "), strings.Join(report.Impact.AffectedTypes, ", "))
	}
	if n := len(report.Impact.AffectedImports); n > 0 {
		fmt.Fprintf(b, "    %s %s\n", dimStyle.Render("imports  "), strings.Join(report.Impact.AffectedImports, ", "))
	}
	fmt.Fprintf(b, "    %s %d\n", dimStyle.Render("files    "), len(report.Impact.AffectedFiles))
}

func fixSummaryColor(report *application.FixReport) lipgloss.Color {
	if report.Failed > 0 {
		return danger
	}
	if report.Applied > 0 {
		return success
	}
	return warning
}
