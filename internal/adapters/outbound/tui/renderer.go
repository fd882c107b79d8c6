package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/sentinelfix/sentinel/internal/application"
	"github.com/sentinelfix/sentinel/internal/domain"
)

// ── Warm terminal palette ──
var (
	accent  = lipgloss.Color("#D97706") // amber
	fg      = lipgloss.Color("#E8E6E3") // warm light gray
	dim     = lipgloss.Color("#6B7280") // muted gray
	faint   = lipgloss.Color("#3F3F46") // very dim
	success = lipgloss.Color("#22C55E") // green
	danger  = lipgloss.Color("#EF4444") // red
	warning = lipgloss.Color("#F59E0B") // amber-yellow
	info    = lipgloss.Color("#8B949E") // soft blue-gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success)
	failStyle     = lipgloss.NewStyle().Foreground(danger)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	infoStyle     = lipgloss.NewStyle().Foreground(info)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	fileStyle     = lipgloss.NewStyle().Foreground(dim)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))

	tierColors = map[domain.RiskTier]lipgloss.Color{
		domain.RiskLow:      success,
		domain.RiskMedium:   warning,
		domain.RiskHigh:     lipgloss.Color("#FB923C"), // orange
		domain.RiskCritical: danger,
	}
)

// RenderScan formats one scan pass for terminal output: a summary box,
// violations grouped by file, and any degradations at the bottom.
func RenderScan(report *application.ScanReport) string {
	var b strings.Builder

	title := headerStyle.Render("sentinel")
	subtitle := dimStyle.Render("Code Quality Scan")
	countLine := fmt.Sprintf("%d violations in %d files", len(report.Violations), report.FilesScanned)
	countStyled := lipgloss.NewStyle().
		Bold(true).
		Foreground(countColor(len(report.Violations))).
		Render(countLine)

	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + countStyled))
	b.WriteString("\n\n")

	if len(report.Violations) == 0 {
		b.WriteString("  " + passStyle.Render("No violations found.") + "\n")
	} else {
		renderViolationsByFile(&b, report.Violations)
	}

	if len(report.ParseFailures) > 0 || len(report.RuleErrors) > 0 {
		b.WriteString("\n  " + separatorLine + "\n\n")
		for _, f := range report.ParseFailures {
			fmt.Fprintf(&b, "    %s %s\n", warnStyle.Render("parse"), dimStyle.Render(f))
		}
		for _, e := range report.RuleErrors {
			fmt.Fprintf(&b, "    %s %s\n", failStyle.Render("rule "), dimStyle.Render(e))
		}
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s\n", faintStyle.Render(fmt.Sprintf("completed in %s", report.Duration.Round(time.Millisecond))))
	return b.String()
}

func renderViolationsByFile(b *strings.Builder, violations []domain.EnsembleViolation) {
	lastFile := ""
	for _, v := range violations {
		if v.FilePath != lastFile {
			if lastFile != "" {
				b.WriteString("\n")
			}
			b.WriteString("  " + titleStyle.Render(shortenPath(v.FilePath)) + "\n")
			lastFile = v.FilePath
		}
		renderViolation(b, v)
	}
}

func renderViolation(b *strings.Builder, v domain.EnsembleViolation) {
	conf := confidenceStyle(v.Confidence).Render(fmt.Sprintf("%.2f", v.Confidence))
	votes := dimStyle.Render(fmt.Sprintf("%d votes", len(v.ContributingRuleIDs)))

	fmt.Fprintf(b, "    %s %s %s  %s\n",
		conf,
		infoStyle.Render(fmt.Sprintf("L%-4d", v.Line)),
		titleStyle.Render(v.PatternName),
		votes,
	)
	fmt.Fprintf(b, "         %s\n", dimStyle.Render(v.Message))
	if v.MatchedText != "" {
		fmt.Fprintf(b, "         %s\n", faintStyle.Render(truncate(v.MatchedText, 72)))
	}
}

// RenderTier colors a risk tier label for inline use.
func RenderTier(tier domain.RiskTier) string {
	color, ok := tierColors[tier]
	if !ok {
		color = fg
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color).Render(string(tier))
}

func confidenceStyle(c float64) lipgloss.Style {
	switch {
	case c >= 0.9:
		return failStyle
	case c >= 0.75:
		return warnStyle
	default:
		return infoStyle
	}
}

func countColor(n int) lipgloss.Color {
	if n == 0 {
		return success
	}
	if n <= 5 {
		return warning
	}
	return danger
}

func shortenPath(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) > 3 {
		return strings.Join(parts[len(parts)-3:], "/")
	}
	return path
}

func truncate(s string, width int) string {
	s = strings.TrimSpace(s)
	if len(s) <= width {
		return s
	}
	return s[:width-1] + "…"
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
