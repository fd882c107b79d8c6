package tui_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sentinelfix/sentinel/internal/adapters/outbound/tui"
	"github.com/sentinelfix/sentinel/internal/application"
	"github.com/sentinelfix/sentinel/internal/domain"
)

func TestRenderScan_GroupsViolationsByFile(t *testing.T) {
	report := &application.ScanReport{
		ProjectPath:  "/work/demo",
		FilesScanned: 4,
		Violations: []domain.EnsembleViolation{
			{PatternName: "debug-print", FilePath: "/work/demo/internal/server/handler.go",
				Line: 6, Message: "debug print in production code", Confidence: 0.85,
				MatchedText: `fmt.Println("x")`},
			{PatternName: "todo-comment", FilePath: "/work/demo/internal/server/handler.go",
				Line: 12, Message: "unresolved TODO", Confidence: 0.7},
		},
		Duration: 120 * time.Millisecond,
	}

	out := tui.RenderScan(report)
	assert.Contains(t, out, "2 violations in 4 files")
	assert.Contains(t, out, "debug-print")
	assert.Contains(t, out, "todo-comment")
	assert.Contains(t, out, "handler.go")
}

func TestRenderScan_NoViolations(t *testing.T) {
	out := tui.RenderScan(&application.ScanReport{FilesScanned: 2})
	assert.Contains(t, out, "0 violations in 2 files")
	assert.Contains(t, out, "No violations found.")
}

func TestRenderScan_ShowsDegradations(t *testing.T) {
	report := &application.ScanReport{
		FilesScanned:  1,
		ParseFailures: []string{"broken.go: expected declaration"},
		RuleErrors:    []string{"rule ctx:flaky panicked"},
	}

	out := tui.RenderScan(report)
	assert.Contains(t, out, "broken.go")
	assert.Contains(t, out, "ctx:flaky")
}

func TestRenderFix_SummaryAndAttempts(t *testing.T) {
	report := &application.FixReport{
		SessionID: "sess-1",
		Mode:      domain.ModeStandard,
		Applied:   1,
		Failed:    1,
		Attempts: []application.AttemptOutcome{
			{FixID: "f1", FilePath: "a/b/c.go", Line: 3, Pattern: "debug-print",
				Status: domain.StatusApplied},
			{FixID: "f2", FilePath: "a/b/d.go", Line: 9, Pattern: "todo-comment",
				Status: domain.StatusFailed, Reason: "no automated fix strategy"},
		},
		Skipped: []application.SkippedFix{
			{FixID: "f3", FilePath: "a/b/e.go", Line: 1, Pattern: "sql-string-concat",
				Reason: "standard mode: pattern is denylisted", Decision: domain.DecisionSystemRejected},
		},
		DroppedCount: 2,
	}

	out := tui.RenderFix(report)
	assert.Contains(t, out, "1 applied · 0 validated · 1 failed")
	assert.Contains(t, out, "no automated fix strategy")
	assert.Contains(t, out, "Skipped")
	assert.Contains(t, out, "2 fixes dropped due to conflicts")
	assert.Contains(t, out, "sess-1")
}

func TestRenderFix_Interrupted(t *testing.T) {
	report := &application.FixReport{
		SessionID:    "sess-2",
		Mode:         domain.ModeStandard,
		Interrupted:  true,
		CheckpointID: "cp-42",
	}

	out := tui.RenderFix(report)
	assert.Contains(t, out, "--resume cp-42")
}

func TestRenderDiff_Lines(t *testing.T) {
	diff := "--- a/x.go\n+++ b/x.go\n@@ -1,2 +1,1 @@\n-old line\n+new line\n context"
	out := tui.RenderDiff(diff)
	assert.Contains(t, out, "-old line")
	assert.Contains(t, out, "+new line")
}

func TestRenderRuleStats(t *testing.T) {
	stats := []domain.RuleStats{
		{RuleID: "regex:debug-print", Category: "maintainability",
			TotalChecks: 100, ViolationsFound: 12, AvgConfidence: 0.82,
			TruePositives: 9, FalsePositives: 1},
	}

	out := tui.RenderRuleStats(stats)
	assert.Contains(t, out, "regex:debug-print")
	assert.Contains(t, out, "0.82")
	assert.Contains(t, out, "90%")
}

func TestRenderRuleStats_Empty(t *testing.T) {
	assert.Contains(t, tui.RenderRuleStats(nil), "No rule statistics recorded yet.")
}

func TestRenderLearning(t *testing.T) {
	report := &application.LearningReport{
		Patterns: []domain.PatternHistory{
			{PatternName: "flaky-pattern", Attempts: 10, Applied: 3, Failed: 7, SuccessRate: 0.3},
		},
		Recommendations: []application.Recommendation{
			{PatternName: "flaky-pattern", Kind: "high_failure_rate",
				Message: "pattern flaky-pattern fails 70% of attempts; consider disabling its auto-fix"},
		},
	}

	out := tui.RenderLearning(report)
	assert.Contains(t, out, "flaky-pattern")
	assert.Contains(t, out, "Recommendations")
	assert.Contains(t, out, "consider disabling")
}

func TestRenderSessionSummary(t *testing.T) {
	out := tui.RenderSessionSummary(&domain.SessionSummary{
		SessionID:     "sess-9",
		StatusCounts:  map[string]int64{"applied": 3, "rejected": 1},
		PatternCounts: map[string]int64{"debug-print": 4},
		SuccessRate:   0.75,
		TotalTimeMS:   180,
		FilesModified: 2,
	})

	assert.Contains(t, out, "sess-9")
	assert.Contains(t, out, "75% success")
	assert.Contains(t, out, "applied")
	assert.Contains(t, out, "debug-print")
}

func TestRenderFileHistory(t *testing.T) {
	entries := []domain.AuditEntry{
		{AuditID: "a-1", FilePath: "x/y.go", Line: 4, PatternName: "debug-print",
			Status: domain.StatusApplied, Decision: domain.DecisionAutoApproved,
			CreatedAt: time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)},
	}

	out := tui.RenderFileHistory(entries)
	assert.Contains(t, out, "2026-05-01 09:30")
	assert.Contains(t, out, "debug-print")
	assert.Contains(t, out, "auto_approved")
}

func TestRenderFileHistory_Empty(t *testing.T) {
	assert.Contains(t, tui.RenderFileHistory(nil), "No audit entries for this file.")
}
