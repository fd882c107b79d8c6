package rules

import "github.com/sentinelfix/sentinel/internal/domain"

// ContextFunc inspects the whole file at once. It may emit findings with
// negative confidence as counter-evidence against other rules on the
// same line.
type ContextFunc func(ctx Context) []domain.RuleFinding

// ContextRule is a whole-file matcher.
type ContextRule struct {
	id       string
	category Category
	fn       ContextFunc
}

// NewContextRule builds a whole-file detector.
func NewContextRule(id string, category Category, fn ContextFunc) *ContextRule {
	return &ContextRule{id: id, category: category, fn: fn}
}

func (r *ContextRule) ID() string         { return r.id }
func (r *ContextRule) Category() Category { return r.category }

func (r *ContextRule) Evaluate(ctx Context) []domain.RuleFinding {
	findings := r.fn(ctx)
	for i := range findings {
		findings[i].RuleID = r.id
	}
	return findings
}
