package ensemble

import (
	"sort"
	"time"

	"github.com/sentinelfix/sentinel/internal/domain"
)

// StatDelta is one rule's contribution from one file. Deltas are
// accumulated per file and merged elementwise afterwards, which keeps
// parallel scanning free of shared counters.
type StatDelta struct {
	RuleID        string
	Category      string
	Checks        int64
	Findings      int64
	SumConfidence float64
	Duration      time.Duration
}

// MergeDeltas sums deltas elementwise per rule ID.
func MergeDeltas(deltas []StatDelta) map[string]StatDelta {
	merged := make(map[string]StatDelta)
	for _, d := range deltas {
		m := merged[d.RuleID]
		m.RuleID = d.RuleID
		m.Category = d.Category
		m.Checks += d.Checks
		m.Findings += d.Findings
		m.SumConfidence += d.SumConfidence
		m.Duration += d.Duration
		merged[d.RuleID] = m
	}
	return merged
}

// ApplyDeltas folds merged deltas into existing rule statistics,
// recomputing the running averages. Existing rules not present in the
// deltas pass through unchanged.
func ApplyDeltas(existing []domain.RuleStats, merged map[string]StatDelta, now time.Time) []domain.RuleStats {
	byID := make(map[string]domain.RuleStats, len(existing))
	for _, s := range existing {
		byID[s.RuleID] = s
	}

	for id, d := range merged {
		s := byID[id]
		s.RuleID = id
		if s.Category == "" {
			s.Category = d.Category
		}

		// avg_confidence is per finding; avg_execution_time per check.
		if total := s.ViolationsFound + d.Findings; total > 0 {
			s.AvgConfidence = (s.AvgConfidence*float64(s.ViolationsFound) + d.SumConfidence) / float64(total)
		}
		if total := s.TotalChecks + d.Checks; total > 0 {
			newMS := float64(d.Duration.Microseconds()) / 1000.0
			s.AvgExecutionMS = (s.AvgExecutionMS*float64(s.TotalChecks) + newMS) / float64(total)
		}

		s.TotalChecks += d.Checks
		s.ViolationsFound += d.Findings
		s.LastUpdated = now
		byID[id] = s
	}

	out := make([]domain.RuleStats, 0, len(byID))
	for _, s := range byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RuleID < out[j].RuleID })
	return out
}
