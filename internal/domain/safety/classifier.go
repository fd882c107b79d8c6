package safety

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sentinelfix/sentinel/internal/domain"
)

// dangerousKeywords are literals that force a deny when they appear in
// the matched text, whatever the pattern's policy list says.
var dangerousKeywords = []string{
	"eval(",
	"exec(",
	"DROP TABLE",
	"DELETE FROM",
	"TRUNCATE",
	"rm -rf",
	"os.RemoveAll",
	"__import__",
}

// Classifier is the stateless safety policy lookup. Decisions are
// recomputed on every call; the classifier holds only the loaded tables.
type Classifier struct {
	denylist       map[string]bool
	reviewRequired map[string]bool
	preApproved    map[string]bool
	protectedFiles map[string]bool
	criticalPaths  []string
}

// NewClassifier validates the policy tables and builds a classifier.
// A pattern in more than one of denylist, review-required and
// pre-approved is a fatal configuration error.
func NewClassifier(tables domain.PolicyTables) (*Classifier, error) {
	if err := validateDisjoint(tables); err != nil {
		return nil, err
	}
	return &Classifier{
		denylist:       toSet(tables.Denylist),
		reviewRequired: toSet(tables.ReviewRequired),
		preApproved:    toSet(tables.PreApproved),
		protectedFiles: toSet(tables.ProtectedFiles),
		criticalPaths:  tables.CriticalPaths,
	}, nil
}

func validateDisjoint(tables domain.PolicyTables) error {
	seen := make(map[string]string)
	for listName, patterns := range map[string][]string{
		"denylist":        tables.Denylist,
		"review_required": tables.ReviewRequired,
		"pre_approved":    tables.PreApproved,
	} {
		for _, p := range patterns {
			if other, ok := seen[p]; ok {
				return fmt.Errorf("%w: pattern %q appears in both %s and %s",
					domain.ErrPolicyConflict, p, other, listName)
			}
			seen[p] = listName
		}
	}
	return nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// Decide returns the policy verdict for one (pattern, file, matched text)
// combination. Evaluation order is fixed and first match wins:
// denylist -> protected file -> critical path -> review-required ->
// dangerous keyword -> pre-approved -> default deny.
func (c *Classifier) Decide(pattern, filePath, matchedText string) domain.SafetyDecision {
	tier := c.RiskTier(pattern, filePath, IsTestFile(filePath))

	if c.denylist[pattern] {
		return domain.SafetyDecision{
			Reason: fmt.Sprintf("pattern %q is denylisted (security-critical)", pattern), RiskTier: tier}
	}
	if c.protectedFiles[filepath.Base(filePath)] {
		return domain.SafetyDecision{
			Reason: fmt.Sprintf("file %q is protected", filepath.Base(filePath)), RiskTier: tier}
	}
	if frag := c.criticalPathFragment(filePath); frag != "" {
		return domain.SafetyDecision{
			Reason: fmt.Sprintf("path contains critical fragment %q; manual review required", frag), RiskTier: tier}
	}
	if c.reviewRequired[pattern] {
		return domain.SafetyDecision{
			Reason: fmt.Sprintf("pattern %q requires human review", pattern), RiskTier: tier}
	}
	if kw := dangerousKeyword(matchedText); kw != "" {
		return domain.SafetyDecision{
			Reason: fmt.Sprintf("matched text contains dangerous keyword %q", kw), RiskTier: tier}
	}
	if c.preApproved[pattern] {
		return domain.SafetyDecision{
			IsSafe: true, Reason: fmt.Sprintf("pattern %q is pre-approved", pattern), RiskTier: tier}
	}
	return domain.SafetyDecision{
		Reason: fmt.Sprintf("pattern %q is not pre-approved (default deny)", pattern), RiskTier: tier}
}

// RiskTier classifies how risky auto-applying this fix would be. Test
// files are one tier lower than the same fix in production code.
func (c *Classifier) RiskTier(pattern, filePath string, isTestFile bool) domain.RiskTier {
	var tier domain.RiskTier
	switch {
	case c.denylist[pattern], c.protectedFiles[filepath.Base(filePath)]:
		tier = domain.RiskCritical
	case c.reviewRequired[pattern], c.criticalPathFragment(filePath) != "":
		tier = domain.RiskHigh
	case c.preApproved[pattern]:
		tier = domain.RiskLow
	default:
		tier = domain.RiskMedium
	}

	if isTestFile && tier != domain.RiskCritical && tier != domain.RiskLow {
		tier = lowerTier(tier)
	}
	return tier
}

func lowerTier(t domain.RiskTier) domain.RiskTier {
	switch t {
	case domain.RiskHigh:
		return domain.RiskMedium
	case domain.RiskMedium:
		return domain.RiskLow
	default:
		return t
	}
}

func (c *Classifier) criticalPathFragment(filePath string) string {
	norm := filepath.ToSlash(filePath)
	for _, frag := range c.criticalPaths {
		if frag != "" && strings.Contains(norm, frag) {
			return frag
		}
	}
	return ""
}

func dangerousKeyword(matchedText string) string {
	for _, kw := range dangerousKeywords {
		if strings.Contains(matchedText, kw) {
			return kw
		}
	}
	return ""
}

// IsTestFile reports whether a path looks like a test file across the
// supported ecosystems.
func IsTestFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, "_test.go") ||
		strings.HasPrefix(base, "test_") ||
		strings.Contains(base, ".test.") ||
		strings.Contains(base, ".spec.")
}

// DefaultTables is the policy shipped when a project has no policy file.
func DefaultTables() domain.PolicyTables {
	return domain.PolicyTables{
		Denylist: []string{
			"secure-jwt-storage",
			"sql-string-concat",
		},
		ReviewRequired: []string{
			"cors-allow-all",
			"hardcoded-secret",
		},
		PreApproved: []string{
			"debug-print",
			"duplicate-import",
			"mock-naming",
		},
		ProtectedFiles: []string{
			"go.mod", "go.sum", "package-lock.json", "yarn.lock",
			"Cargo.lock", "requirements.txt",
		},
		CriticalPaths: []string{
			"migrations/", "auth/", "crypto/", "payments/",
		},
	}
}
