package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelfix/sentinel/internal/application"
	"github.com/sentinelfix/sentinel/internal/domain"
)

// historyAudit extends the in-memory store with canned histories and
// mutable rule stats.
type historyAudit struct {
	memAudit
	histories []domain.PatternHistory
	stats     []domain.RuleStats
	feedback  []domain.ViolationFeedback
}

func (h *historyAudit) PatternHistories() ([]domain.PatternHistory, error) {
	return append([]domain.PatternHistory(nil), h.histories...), nil
}

func (h *historyAudit) RuleStats() ([]domain.RuleStats, error) {
	return append([]domain.RuleStats(nil), h.stats...), nil
}

func (h *historyAudit) UpsertRuleStats(stats []domain.RuleStats) error {
	for _, in := range stats {
		replaced := false
		for i := range h.stats {
			if h.stats[i].RuleID == in.RuleID {
				h.stats[i] = in
				replaced = true
			}
		}
		if !replaced {
			h.stats = append(h.stats, in)
		}
	}
	return nil
}

func (h *historyAudit) RecordFeedback(fb *domain.ViolationFeedback) error {
	fb.ID = int64(len(h.feedback) + 1)
	h.feedback = append(h.feedback, *fb)
	return nil
}

func TestHistoryService_LearnFromHistoryRecommendations(t *testing.T) {
	store := &historyAudit{histories: []domain.PatternHistory{
		{PatternName: "solid-pattern", Attempts: 20, Applied: 19, Failed: 1, AvgTimeMS: 40},
		{PatternName: "flaky-pattern", Attempts: 10, Applied: 3, Failed: 7, AvgTimeMS: 50},
		{PatternName: "regretted-pattern", Attempts: 30, Applied: 20, RolledBack: 8, AvgTimeMS: 60},
		{PatternName: "slow-pattern", Attempts: 5, Applied: 5, AvgTimeMS: 2500},
	}}

	report, err := application.NewHistoryService(store).LearnFromHistory()
	require.NoError(t, err)

	// Worst failure rate first.
	assert.Equal(t, "flaky-pattern", report.Patterns[0].PatternName)

	kinds := make(map[string]string)
	for _, rec := range report.Recommendations {
		kinds[rec.PatternName] = rec.Kind
	}
	assert.Equal(t, "high_failure_rate", kinds["flaky-pattern"])
	assert.Equal(t, "frequent_rollbacks", kinds["regretted-pattern"])
	assert.Equal(t, "slow_execution", kinds["slow-pattern"])
	assert.NotContains(t, kinds, "solid-pattern")
}

func TestHistoryService_LearnFromHistoryEmptyTrail(t *testing.T) {
	report, err := application.NewHistoryService(&historyAudit{}).LearnFromHistory()
	require.NoError(t, err)
	assert.Empty(t, report.Patterns)
	assert.Empty(t, report.Recommendations)
}

func TestHistoryService_RecordFeedbackUpdatesPrecision(t *testing.T) {
	store := &historyAudit{stats: []domain.RuleStats{
		{RuleID: "regex:debug-print", TruePositives: 4, FalsePositives: 1},
	}}
	svc := application.NewHistoryService(store)

	require.NoError(t, svc.RecordFeedback(&domain.ViolationFeedback{
		RuleID:          "regex:debug-print",
		FilePath:        "a.go",
		Line:            3,
		IsFalsePositive: true,
	}))

	require.Len(t, store.feedback, 1)
	assert.Equal(t, int64(2), store.stats[0].FalsePositives)
	assert.Equal(t, int64(4), store.stats[0].TruePositives)
}

func TestHistoryService_RecordFeedbackConfirmedPositive(t *testing.T) {
	store := &historyAudit{stats: []domain.RuleStats{
		{RuleID: "regex:debug-print", TruePositives: 4, FalsePositives: 1},
	}}
	svc := application.NewHistoryService(store)

	require.NoError(t, svc.RecordFeedback(&domain.ViolationFeedback{
		RuleID: "regex:debug-print",
	}))
	assert.Equal(t, int64(5), store.stats[0].TruePositives)
}

func TestHistoryService_RecordFeedbackRequiresRuleID(t *testing.T) {
	err := application.NewHistoryService(&historyAudit{}).RecordFeedback(&domain.ViolationFeedback{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule_id")
}
