package ensemble

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sentinelfix/sentinel/internal/domain"
	"github.com/sentinelfix/sentinel/internal/domain/rules"
)

// Voter aggregates per-line rule findings into calibrated violations.
type Voter struct {
	cfg domain.EngineConfig
}

// NewVoter builds a voter with the given engine configuration.
func NewVoter(cfg domain.EngineConfig) *Voter {
	return &Voter{cfg: cfg}
}

// FileResult is the outcome of evaluating every registered pattern
// against one file.
type FileResult struct {
	Violations []domain.EnsembleViolation
	Stats      []StatDelta
	RuleErrors []error // isolated rule faults, for reporting only
}

// EvaluateFile runs every pattern's rules against the file context and
// votes the findings into violations. A rule that faults is isolated:
// its contribution is dropped and the scan continues.
func (v *Voter) EvaluateFile(reg *rules.Registry, ctx rules.Context) FileResult {
	var result FileResult

	for _, pattern := range reg.Patterns() {
		var findings []domain.RuleFinding
		for _, rule := range pattern.Rules {
			start := time.Now()
			fs, err := evaluateRule(rule, ctx)
			elapsed := time.Since(start)

			delta := StatDelta{
				RuleID:   rule.ID(),
				Category: string(rule.Category()),
				Checks:   1,
				Duration: elapsed,
			}
			if err != nil {
				result.RuleErrors = append(result.RuleErrors, err)
				result.Stats = append(result.Stats, delta)
				continue
			}
			for _, f := range fs {
				delta.Findings++
				delta.SumConfidence += f.Confidence
			}
			result.Stats = append(result.Stats, delta)
			findings = append(findings, fs...)
		}

		result.Violations = append(result.Violations,
			v.vote(pattern.Name, ctx, findings)...)
	}

	sort.Slice(result.Violations, func(i, j int) bool {
		a, b := result.Violations[i], result.Violations[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.PatternName < b.PatternName
	})
	return result
}

// evaluateRule runs one rule with panic isolation.
func evaluateRule(rule rules.Rule, ctx rules.Context) (findings []domain.RuleFinding, err error) {
	defer func() {
		if r := recover(); r != nil {
			findings = nil
			err = fmt.Errorf("%w: rule %s: %v", domain.ErrRuleExecution, rule.ID(), r)
		}
	}()
	return rule.Evaluate(ctx), nil
}

// vote groups one pattern's findings by line and applies the voting
// protocol: minimum vote count, averaged confidence plus a capped
// per-vote bonus, counter-evidence suppression and the confidence floor.
func (v *Voter) vote(patternName string, ctx rules.Context, findings []domain.RuleFinding) []domain.EnsembleViolation {
	if len(findings) == 0 {
		return nil
	}

	byLine := make(map[int][]domain.RuleFinding)
	for _, f := range findings {
		byLine[f.Line] = append(byLine[f.Line], f)
	}

	lines := make([]int, 0, len(byLine))
	for line := range byLine {
		lines = append(lines, line)
	}
	sort.Ints(lines)

	minVotes := v.cfg.MinVotesFor(patternName)

	var violations []domain.EnsembleViolation
	for _, line := range lines {
		group := byLine[line]
		if len(group) < minVotes {
			continue
		}

		var sum float64
		for _, f := range group {
			sum += f.Confidence
		}
		avg := sum / float64(len(group))
		if avg <= 0 {
			continue // counter-evidence suppressed this line
		}

		bonus := v.cfg.VoteBonus * float64(len(group))
		if bonus > v.cfg.MaxVoteBonus {
			bonus = v.cfg.MaxVoteBonus
		}
		confidence := clamp01(avg + bonus)
		if confidence < v.cfg.ConfidenceFloor {
			continue
		}

		violations = append(violations, domain.EnsembleViolation{
			PatternName:         patternName,
			FilePath:            ctx.FilePath,
			Line:                line,
			Message:             bestMessage(group),
			Confidence:          confidence,
			ContributingRuleIDs: ruleIDs(group),
			MatchedText:         matchedText(group, ctx, line),
		})
	}
	return violations
}

// bestMessage selects the competing message with the highest average
// confidence, breaking ties lexically for determinism.
func bestMessage(group []domain.RuleFinding) string {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, f := range group {
		if f.Message == "" {
			continue
		}
		sums[f.Message] += f.Confidence
		counts[f.Message]++
	}

	best, bestAvg := "", -2.0
	for msg, sum := range sums {
		avg := sum / float64(counts[msg])
		if avg > bestAvg || (avg == bestAvg && msg < best) {
			best, bestAvg = msg, avg
		}
	}
	return best
}

func ruleIDs(group []domain.RuleFinding) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, f := range group {
		if f.RuleID == "" || seen[f.RuleID] {
			continue
		}
		seen[f.RuleID] = true
		ids = append(ids, f.RuleID)
	}
	sort.Strings(ids)
	return ids
}

// matchedText prefers the highest-confidence finding's captured text and
// falls back to the trimmed source line.
func matchedText(group []domain.RuleFinding, ctx rules.Context, line int) string {
	best, bestConf := "", -2.0
	for _, f := range group {
		if t := f.Metadata["matched_text"]; t != "" && f.Confidence > bestConf {
			best, bestConf = t, f.Confidence
		}
	}
	if best != "" {
		return best
	}
	if line >= 1 && line <= len(ctx.Lines) {
		return strings.TrimSpace(ctx.Lines[line-1])
	}
	return ""
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
