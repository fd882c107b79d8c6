package conflict

import (
	"fmt"
	"sort"

	"github.com/sentinelfix/sentinel/internal/domain"
	"github.com/sentinelfix/sentinel/internal/domain/rules"
)

// PendingFix is one candidate fix awaiting execution.
type PendingFix struct {
	ID                string
	Violation         domain.EnsembleViolation
	Category          rules.Category
	AffectsImports    bool
	AffectsSignatures bool
}

// Dropped records a fix removed by conflict resolution, with the victor
// it lost to. Conflicts are never surfaced as errors.
type Dropped struct {
	Fix          PendingFix
	ConflictsWith string
	Reason        string
}

// Conflicts reports whether two pending fixes cannot both be applied:
// same file and adjacent lines, or both touching imports, or both
// touching signatures.
func Conflicts(a, b PendingFix) bool {
	if a.Violation.FilePath != b.Violation.FilePath {
		return false
	}
	delta := a.Violation.Line - b.Violation.Line
	if delta < 0 {
		delta = -delta
	}
	if delta <= 1 {
		return true
	}
	if a.AffectsImports && b.AffectsImports {
		return true
	}
	if a.AffectsSignatures && b.AffectsSignatures {
		return true
	}
	return false
}

// Resolve keeps the higher-priority fix of every conflicting pair and
// drops the other. Identical inputs always produce identical keep/drop
// sets: candidates are ordered by category priority, then file, line and
// pattern before resolution.
func Resolve(fixes []PendingFix) (kept []PendingFix, dropped []Dropped) {
	ordered := make([]PendingFix, len(fixes))
	copy(ordered, fixes)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if pa, pb := a.Category.Priority(), b.Category.Priority(); pa != pb {
			return pa < pb
		}
		if a.Violation.FilePath != b.Violation.FilePath {
			return a.Violation.FilePath < b.Violation.FilePath
		}
		if a.Violation.Line != b.Violation.Line {
			return a.Violation.Line < b.Violation.Line
		}
		return a.Violation.PatternName < b.Violation.PatternName
	})

	for _, candidate := range ordered {
		loser := false
		for _, winner := range kept {
			if Conflicts(candidate, winner) {
				dropped = append(dropped, Dropped{
					Fix:           candidate,
					ConflictsWith: winner.ID,
					Reason: fmt.Sprintf("conflicts with higher-priority %s fix at %s:%d",
						winner.Category, winner.Violation.FilePath, winner.Violation.Line),
				})
				loser = true
				break
			}
		}
		if !loser {
			kept = append(kept, candidate)
		}
	}

	// Callers expect execution order, not priority order.
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.Violation.FilePath != b.Violation.FilePath {
			return a.Violation.FilePath < b.Violation.FilePath
		}
		if a.Violation.Line != b.Violation.Line {
			return a.Violation.Line < b.Violation.Line
		}
		return a.Violation.PatternName < b.Violation.PatternName
	})
	return kept, dropped
}
