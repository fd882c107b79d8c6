package application

import (
	"fmt"
	"sort"

	"github.com/sentinelfix/sentinel/internal/domain"
)

// HistoryService answers questions about the audit trail: session
// summaries, per-file history, and longitudinal pattern quality.
type HistoryService struct {
	audit domain.AuditStore
}

func NewHistoryService(audit domain.AuditStore) *HistoryService {
	return &HistoryService{audit: audit}
}

func (h *HistoryService) SessionSummary(sessionID string) (*domain.SessionSummary, error) {
	return h.audit.SessionSummary(sessionID)
}

func (h *HistoryService) FileHistory(filePath string) ([]domain.AuditEntry, error) {
	return h.audit.FileHistory(filePath)
}

func (h *HistoryService) PatternHistories() ([]domain.PatternHistory, error) {
	return h.audit.PatternHistories()
}

func (h *HistoryService) RuleStats() ([]domain.RuleStats, error) {
	return h.audit.RuleStats()
}

// RecordFeedback stores a human verdict on one reported violation and
// folds it into the rule's precision counters.
func (h *HistoryService) RecordFeedback(fb *domain.ViolationFeedback) error {
	if fb.RuleID == "" {
		return fmt.Errorf("feedback needs a rule_id")
	}
	if err := h.audit.RecordFeedback(fb); err != nil {
		return err
	}

	stats, err := h.audit.RuleStats()
	if err != nil {
		return err
	}
	for i := range stats {
		if stats[i].RuleID != fb.RuleID {
			continue
		}
		if fb.IsFalsePositive {
			stats[i].FalsePositives++
		} else {
			stats[i].TruePositives++
		}
		return h.audit.UpsertRuleStats(stats[i : i+1])
	}
	return nil
}

// Learning thresholds. Crossing any of them produces a recommendation.
const (
	failureRateThreshold = 0.5
	rollbackThreshold    = 5
	slowPatternMS        = 1000.0
)

// Recommendation is one learn-from-history verdict.
type Recommendation struct {
	PatternName string `json:"pattern_name"`
	Kind        string `json:"kind"` // high_failure_rate | frequent_rollbacks | slow_execution
	Message     string `json:"message"`
}

// LearningReport ranks patterns by failure rate, rollback frequency and
// execution time across every session ever recorded.
type LearningReport struct {
	Patterns        []domain.PatternHistory `json:"patterns"`
	Recommendations []Recommendation        `json:"recommendations"`
}

// LearnFromHistory analyzes the full audit trail and emits textual
// recommendations for patterns that cross the quality thresholds.
func (h *HistoryService) LearnFromHistory() (*LearningReport, error) {
	histories, err := h.audit.PatternHistories()
	if err != nil {
		return nil, err
	}

	// Worst offenders first.
	sort.Slice(histories, func(i, j int) bool {
		fi := failureRate(histories[i])
		fj := failureRate(histories[j])
		if fi != fj {
			return fi > fj
		}
		return histories[i].PatternName < histories[j].PatternName
	})

	report := &LearningReport{Patterns: histories}
	for _, ph := range histories {
		if rate := failureRate(ph); rate > failureRateThreshold && ph.Attempts > 0 {
			report.Recommendations = append(report.Recommendations, Recommendation{
				PatternName: ph.PatternName,
				Kind:        "high_failure_rate",
				Message: fmt.Sprintf("pattern %s fails %.0f%% of attempts; consider disabling its auto-fix",
					ph.PatternName, rate*100),
			})
		}
		if ph.RolledBack > rollbackThreshold {
			report.Recommendations = append(report.Recommendations, Recommendation{
				PatternName: ph.PatternName,
				Kind:        "frequent_rollbacks",
				Message: fmt.Sprintf("pattern %s has been rolled back %d times; its transform needs review",
					ph.PatternName, ph.RolledBack),
			})
		}
		if ph.AvgTimeMS > slowPatternMS {
			report.Recommendations = append(report.Recommendations, Recommendation{
				PatternName: ph.PatternName,
				Kind:        "slow_execution",
				Message: fmt.Sprintf("pattern %s averages %.0fms per attempt; investigate its validators",
					ph.PatternName, ph.AvgTimeMS),
			})
		}
	}
	return report, nil
}

func failureRate(ph domain.PatternHistory) float64 {
	if ph.Attempts == 0 {
		return 0
	}
	return float64(ph.Failed) / float64(ph.Attempts)
}
