package ensemble_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelfix/sentinel/internal/domain"
	"github.com/sentinelfix/sentinel/internal/domain/ensemble"
	"github.com/sentinelfix/sentinel/internal/domain/rules"
)

// staticRule returns fixed findings for every evaluation.
type staticRule struct {
	id       string
	category rules.Category
	findings []domain.RuleFinding
}

func (r *staticRule) ID() string                                  { return r.id }
func (r *staticRule) Category() rules.Category                    { return r.category }
func (r *staticRule) Evaluate(rules.Context) []domain.RuleFinding { return r.findings }

type panickingRule struct{ id string }

func (r *panickingRule) ID() string               { return r.id }
func (r *panickingRule) Category() rules.Category { return rules.CategoryStyle }
func (r *panickingRule) Evaluate(rules.Context) []domain.RuleFinding {
	panic("rule exploded")
}

func registryWith(t *testing.T, p *rules.Pattern) *rules.Registry {
	t.Helper()
	reg := rules.NewRegistry()
	require.NoError(t, reg.Register(p))
	return reg
}

func finding(ruleID string, line int, confidence float64, msg string) domain.RuleFinding {
	return domain.RuleFinding{RuleID: ruleID, Line: line, Confidence: confidence, Message: msg}
}

func TestVoter_TwoAgreeingRulesBoostConfidence(t *testing.T) {
	reg := registryWith(t, &rules.Pattern{
		Name:     "sql-injection",
		Category: rules.CategorySecurity,
		Rules: []rules.Rule{
			&staticRule{id: "regex", category: rules.CategorySecurity,
				findings: []domain.RuleFinding{finding("regex", 10, 0.8, "string-built SQL query")}},
			&staticRule{id: "structural", category: rules.CategorySecurity,
				findings: []domain.RuleFinding{finding("structural", 10, 0.6, "concat in query call")}},
			&staticRule{id: "silent", category: rules.CategorySecurity},
		},
	})

	voter := ensemble.NewVoter(domain.DefaultEngineConfig())
	result := voter.EvaluateFile(reg, rules.NewContext("db.go", "query", nil, false, false))

	require.Len(t, result.Violations, 1)
	v := result.Violations[0]
	// avg(0.8, 0.6) = 0.70, bonus = 0.05 * 2 = 0.10
	assert.InDelta(t, 0.80, v.Confidence, 0.001)
	assert.Equal(t, []string{"regex", "structural"}, v.ContributingRuleIDs)
	assert.Equal(t, 10, v.Line)
	// highest own confidence wins the message
	assert.Equal(t, "string-built SQL query", v.Message)
}

func TestVoter_CounterEvidenceSuppressesViolation(t *testing.T) {
	reg := registryWith(t, &rules.Pattern{
		Name:     "cors-wildcard",
		Category: rules.CategorySecurity,
		Rules: []rules.Rule{
			&staticRule{id: "positive", category: rules.CategorySecurity,
				findings: []domain.RuleFinding{finding("positive", 5, 0.9, "wildcard origin")}},
			&staticRule{id: "counter", category: rules.CategorySecurity,
				findings: []domain.RuleFinding{finding("counter", 5, -0.5, "glob pattern context")}},
		},
	})

	voter := ensemble.NewVoter(domain.DefaultEngineConfig())
	result := voter.EvaluateFile(reg, rules.NewContext("cors.go", "origins", nil, false, false))

	// avg(0.9, -0.5) = 0.20; even with the vote bonus it stays below the floor.
	assert.Empty(t, result.Violations)
}

func TestVoter_BelowFloorDiscarded(t *testing.T) {
	reg := registryWith(t, &rules.Pattern{
		Name:     "weak-signal",
		Category: rules.CategoryStyle,
		Rules: []rules.Rule{
			&staticRule{id: "low", category: rules.CategoryStyle,
				findings: []domain.RuleFinding{finding("low", 3, 0.4, "maybe")}},
		},
	})

	voter := ensemble.NewVoter(domain.DefaultEngineConfig())
	result := voter.EvaluateFile(reg, rules.NewContext("a.go", "x", nil, false, false))
	assert.Empty(t, result.Violations)
}

func TestVoter_VoteBonusCapped(t *testing.T) {
	var rs []rules.Rule
	for _, id := range []string{"r1", "r2", "r3", "r4", "r5", "r6"} {
		rs = append(rs, &staticRule{id: id, category: rules.CategoryStyle,
			findings: []domain.RuleFinding{finding(id, 1, 0.7, "seen")}})
	}
	reg := registryWith(t, &rules.Pattern{Name: "popular", Category: rules.CategoryStyle, Rules: rs})

	voter := ensemble.NewVoter(domain.DefaultEngineConfig())
	result := voter.EvaluateFile(reg, rules.NewContext("a.go", "x", nil, false, false))

	require.Len(t, result.Violations, 1)
	// 6 votes would earn 0.30 but the bonus is capped at 0.20.
	assert.InDelta(t, 0.90, result.Violations[0].Confidence, 0.001)
}

func TestVoter_ConfidenceClampedToOne(t *testing.T) {
	reg := registryWith(t, &rules.Pattern{
		Name:     "certain",
		Category: rules.CategorySecurity,
		Rules: []rules.Rule{
			&staticRule{id: "a", category: rules.CategorySecurity,
				findings: []domain.RuleFinding{finding("a", 1, 1.0, "sure")}},
			&staticRule{id: "b", category: rules.CategorySecurity,
				findings: []domain.RuleFinding{finding("b", 1, 0.95, "also sure")}},
		},
	})

	voter := ensemble.NewVoter(domain.DefaultEngineConfig())
	result := voter.EvaluateFile(reg, rules.NewContext("a.go", "x", nil, false, false))

	require.Len(t, result.Violations, 1)
	assert.LessOrEqual(t, result.Violations[0].Confidence, 1.0)
}

func TestVoter_MinVotesGate(t *testing.T) {
	cfg := domain.DefaultEngineConfig()
	cfg.MinVotes = map[string]int{"needs-two": 2}

	reg := registryWith(t, &rules.Pattern{
		Name:     "needs-two",
		Category: rules.CategoryStyle,
		Rules: []rules.Rule{
			&staticRule{id: "solo", category: rules.CategoryStyle,
				findings: []domain.RuleFinding{finding("solo", 7, 0.95, "one vote only")}},
		},
	})

	voter := ensemble.NewVoter(cfg)
	result := voter.EvaluateFile(reg, rules.NewContext("a.go", "x", nil, false, false))
	assert.Empty(t, result.Violations)
}

func TestVoter_PanickingRuleIsIsolated(t *testing.T) {
	reg := registryWith(t, &rules.Pattern{
		Name:     "resilient",
		Category: rules.CategoryStyle,
		Rules: []rules.Rule{
			&panickingRule{id: "boom"},
			&staticRule{id: "steady", category: rules.CategoryStyle,
				findings: []domain.RuleFinding{finding("steady", 2, 0.9, "still works")}},
		},
	})

	voter := ensemble.NewVoter(domain.DefaultEngineConfig())
	result := voter.EvaluateFile(reg, rules.NewContext("a.go", "x", nil, false, false))

	require.Len(t, result.Violations, 1)
	assert.Equal(t, []string{"steady"}, result.Violations[0].ContributingRuleIDs)
	require.Len(t, result.RuleErrors, 1)
	assert.ErrorIs(t, result.RuleErrors[0], domain.ErrRuleExecution)
	assert.Contains(t, result.RuleErrors[0].Error(), "boom")
}

func TestVoter_MessageTieBreakIsLexical(t *testing.T) {
	reg := registryWith(t, &rules.Pattern{
		Name:     "tied",
		Category: rules.CategoryStyle,
		Rules: []rules.Rule{
			&staticRule{id: "z", category: rules.CategoryStyle,
				findings: []domain.RuleFinding{finding("z", 1, 0.8, "zebra message")}},
			&staticRule{id: "a", category: rules.CategoryStyle,
				findings: []domain.RuleFinding{finding("a", 1, 0.8, "aardvark message")}},
		},
	})

	voter := ensemble.NewVoter(domain.DefaultEngineConfig())
	result := voter.EvaluateFile(reg, rules.NewContext("a.go", "x", nil, false, false))

	require.Len(t, result.Violations, 1)
	assert.Equal(t, "aardvark message", result.Violations[0].Message)
}

func TestVoter_DeterministicAcrossRuns(t *testing.T) {
	reg := registryWith(t, &rules.Pattern{
		Name:     "multi-line",
		Category: rules.CategoryStyle,
		Rules: []rules.Rule{
			&staticRule{id: "r1", category: rules.CategoryStyle,
				findings: []domain.RuleFinding{
					finding("r1", 9, 0.9, "nine"),
					finding("r1", 3, 0.9, "three"),
				}},
		},
	})

	voter := ensemble.NewVoter(domain.DefaultEngineConfig())
	ctx := rules.NewContext("a.go", "x", nil, false, false)

	first := voter.EvaluateFile(reg, ctx)
	for i := 0; i < 5; i++ {
		again := voter.EvaluateFile(reg, ctx)
		assert.Equal(t, first.Violations, again.Violations)
	}
	require.Len(t, first.Violations, 2)
	assert.Equal(t, 3, first.Violations[0].Line)
	assert.Equal(t, 9, first.Violations[1].Line)
}

func TestVoter_ZeroRawAverageDiscarded(t *testing.T) {
	reg := registryWith(t, &rules.Pattern{
		Name:     "washed-out",
		Category: rules.CategoryStyle,
		Rules: []rules.Rule{
			&staticRule{id: "pos", category: rules.CategoryStyle,
				findings: []domain.RuleFinding{finding("pos", 1, 0.6, "yes")}},
			&staticRule{id: "neg", category: rules.CategoryStyle,
				findings: []domain.RuleFinding{finding("neg", 1, -0.6, "no")}},
		},
	})

	voter := ensemble.NewVoter(domain.DefaultEngineConfig())
	result := voter.EvaluateFile(reg, rules.NewContext("a.go", "x", nil, false, false))
	assert.Empty(t, result.Violations)
}
