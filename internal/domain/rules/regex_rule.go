package rules

import (
	"regexp"

	"github.com/sentinelfix/sentinel/internal/domain"
)

// RegexRule is a line-scoped textual matcher.
type RegexRule struct {
	id         string
	category   Category
	re         *regexp.Regexp
	confidence float64
	message    string
	skipTests  bool
	onlyTests  bool
}

// RegexOption tweaks a RegexRule.
type RegexOption func(*RegexRule)

// SkipTestFiles suppresses matches in test files.
func SkipTestFiles() RegexOption { return func(r *RegexRule) { r.skipTests = true } }

// OnlyTestFiles restricts matches to test files.
func OnlyTestFiles() RegexOption { return func(r *RegexRule) { r.onlyTests = true } }

// NewRegexRule compiles a line-scoped regex detector. The pattern must be
// a valid Go regexp; builtin rules are covered by tests, so compilation
// panics surface at startup, not mid-scan.
func NewRegexRule(id string, category Category, pattern, message string, confidence float64, opts ...RegexOption) *RegexRule {
	r := &RegexRule{
		id:         id,
		category:   category,
		re:         regexp.MustCompile(pattern),
		confidence: confidence,
		message:    message,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RegexRule) ID() string         { return r.id }
func (r *RegexRule) Category() Category { return r.category }

func (r *RegexRule) Evaluate(ctx Context) []domain.RuleFinding {
	if r.skipTests && ctx.IsTestFile {
		return nil
	}
	if r.onlyTests && !ctx.IsTestFile {
		return nil
	}

	var findings []domain.RuleFinding
	for i, line := range ctx.Lines {
		loc := r.re.FindStringIndex(line)
		if loc == nil {
			continue
		}
		findings = append(findings, domain.RuleFinding{
			RuleID:     r.id,
			Line:       i + 1,
			Column:     loc[0] + 1,
			Confidence: r.confidence,
			Message:    r.message,
			Metadata:   map[string]string{"matched_text": line[loc[0]:loc[1]]},
		})
	}
	return findings
}
