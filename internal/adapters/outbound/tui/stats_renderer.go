package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sentinelfix/sentinel/internal/application"
	"github.com/sentinelfix/sentinel/internal/domain"
)

// RenderRuleStats formats per-rule accuracy statistics.
func RenderRuleStats(stats []domain.RuleStats) string {
	if len(stats) == 0 {
		return "  " + dimStyle.Render("No rule statistics recorded yet.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Rule Statistics") + "\n")
	b.WriteString("  " + separatorLine + "\n\n")

	for _, st := range stats {
		conf := confidenceStyle(st.AvgConfidence).Render(fmt.Sprintf("%.2f", st.AvgConfidence))
		fmt.Fprintf(&b, "  %s %s\n",
			titleStyle.Render(padRight(st.RuleID, 34)),
			dimStyle.Render(st.Category),
		)
		fmt.Fprintf(&b, "    %s checks  %s findings  %s avg conf  %s\n",
			dimStyle.Render(fmt.Sprintf("%d", st.TotalChecks)),
			dimStyle.Render(fmt.Sprintf("%d", st.ViolationsFound)),
			conf,
			faintStyle.Render(fmt.Sprintf("%.1fms", st.AvgExecutionMS)),
		)
		if st.TruePositives+st.FalsePositives > 0 {
			precision := float64(st.TruePositives) / float64(st.TruePositives+st.FalsePositives)
			fmt.Fprintf(&b, "    %s %s\n",
				dimStyle.Render("precision"),
				precisionStyle(precision).Render(fmt.Sprintf("%.0f%%", precision*100)),
			)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderLearning formats the learn-from-history report: per-pattern
// success rates plus recommendations for the worst offenders.
func RenderLearning(report *application.LearningReport) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Pattern History") + "\n")
	b.WriteString("  " + separatorLine + "\n\n")

	if len(report.Patterns) == 0 {
		b.WriteString("  " + dimStyle.Render("No fix history recorded yet.") + "\n")
		return b.String()
	}

	for _, p := range report.Patterns {
		rate := lipgloss.NewStyle().
			Bold(true).
			Foreground(rateColor(p.SuccessRate)).
			Render(fmt.Sprintf("%3.0f%%", p.SuccessRate*100))
		fmt.Fprintf(&b, "  %s %s  %s\n",
			rate,
			titleStyle.Render(padRight(p.PatternName, 26)),
			dimStyle.Render(fmt.Sprintf("%d attempts · %d applied · %d failed · %d rolled back",
				p.Attempts, p.Applied, p.Failed, p.RolledBack)),
		)
	}

	if len(report.Recommendations) > 0 {
		b.WriteString("\n  " + titleStyle.Render("Recommendations") + "\n\n")
		for _, r := range report.Recommendations {
			fmt.Fprintf(&b, "    %s %s\n", warnStyle.Render("!"), dimStyle.Render(r.Message))
		}
	}
	return b.String()
}

// RenderSessionSummary formats one session's audit rollup.
func RenderSessionSummary(s *domain.SessionSummary) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Session "+s.SessionID) + "\n")
	b.WriteString("  " + separatorLine + "\n\n")

	rate := lipgloss.NewStyle().
		Bold(true).
		Foreground(rateColor(s.SuccessRate)).
		Render(fmt.Sprintf("%.0f%%", s.SuccessRate*100))
	fmt.Fprintf(&b, "    %s success · %d files modified · %dms total\n\n",
		rate, s.FilesModified, s.TotalTimeMS)

	for _, status := range sortedKeys(s.StatusCounts) {
		style, ok := statusStyles[domain.AuditStatus(status)]
		if !ok {
			style = dimStyle
		}
		fmt.Fprintf(&b, "    %s %d\n", style.Render(padRight(status, 14)), s.StatusCounts[status])
	}

	if len(s.PatternCounts) > 0 {
		b.WriteString("\n")
		for _, pattern := range sortedKeys(s.PatternCounts) {
			fmt.Fprintf(&b, "    %s %d\n", dimStyle.Render(padRight(pattern, 26)), s.PatternCounts[pattern])
		}
	}
	return b.String()
}

// RenderFileHistory formats the audit trail of one file, newest first.
func RenderFileHistory(entries []domain.AuditEntry) string {
	if len(entries) == 0 {
		return "  " + dimStyle.Render("No audit entries for this file.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	for _, e := range entries {
		style, ok := statusStyles[e.Status]
		if !ok {
			style = dimStyle
		}
		fmt.Fprintf(&b, "  %s  %s  %s:%d  %s\n",
			dimStyle.Render(e.CreatedAt.Format("2006-01-02 15:04")),
			style.Render(padRight(string(e.Status), 11)),
			fileStyle.Render(shortenPath(e.FilePath)), e.Line,
			titleStyle.Render(e.PatternName),
		)
		if e.Decision != "" {
			fmt.Fprintf(&b, "      %s %s  %s %s\n",
				faintStyle.Render("decision"), dimStyle.Render(string(e.Decision)),
				faintStyle.Render("audit"), faintStyle.Render(e.AuditID))
		}
	}
	return b.String()
}

func precisionStyle(p float64) lipgloss.Style {
	if p >= 0.8 {
		return passStyle
	}
	if p >= 0.5 {
		return warnStyle
	}
	return failStyle
}

func rateColor(rate float64) lipgloss.Color {
	switch {
	case rate >= 0.8:
		return success
	case rate >= 0.5:
		return warning
	default:
		return danger
	}
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
