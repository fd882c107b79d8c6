package rules

import (
	"strings"

	"github.com/fatih/camelcase"

	"github.com/sentinelfix/sentinel/internal/domain"
)

// Builtin returns the registry of built-in patterns. Callers own the
// returned value and may register additional patterns on top of it.
func Builtin() *Registry {
	r := NewRegistry()

	// Registration order is stable so scan output stays deterministic.
	for _, p := range []*Pattern{
		secureJWTStorage(),
		sqlStringConcat(),
		corsAllowAll(),
		hardcodedSecret(),
		duplicateImport(),
		debugPrint(),
		mockNaming(),
		todoComment(),
	} {
		if err := r.Register(p); err != nil {
			// Builtin patterns are static; a duplicate here is a bug.
			panic(err)
		}
	}
	return r
}

func secureJWTStorage() *Pattern {
	return &Pattern{
		Name:        "secure-jwt-storage",
		Category:    CategorySecurity,
		Description: "JWT or access token stored in browser localStorage",
		Rules: []Rule{
			NewRegexRule("jwt-localstorage", CategorySecurity,
				`localStorage\.(setItem|getItem)\(\s*["'](jwt|token|access_token|id_token)`,
				"token persisted in localStorage; use an httpOnly cookie", 0.85),
			NewRegexRule("jwt-sessionstorage", CategorySecurity,
				`sessionStorage\.(setItem|getItem)\(\s*["'](jwt|token|access_token)`,
				"token persisted in sessionStorage; use an httpOnly cookie", 0.7),
		},
	}
}

func sqlStringConcat() *Pattern {
	return &Pattern{
		Name:        "sql-string-concat",
		Category:    CategorySecurity,
		Description: "SQL statement built by string concatenation",
		Rules: []Rule{
			NewRegexRule("sql-concat", CategorySecurity,
				`["'](SELECT|INSERT|UPDATE|DELETE|DROP)\s[^"']*["']\s*\+`,
				"SQL built by concatenation; use parameterized queries", 0.7),
			NewRegexRule("sql-sprintf", CategorySecurity,
				`(?i)(sprintf|format)\(\s*["'](SELECT|INSERT|UPDATE|DELETE)\b`,
				"SQL built by string formatting; use parameterized queries", 0.6),
		},
	}
}

func corsAllowAll() *Pattern {
	return &Pattern{
		Name:        "cors-allow-all",
		Category:    CategorySecurity,
		Description: "CORS configured to allow any origin",
		Rules: []Rule{
			NewRegexRule("cors-wildcard-header", CategorySecurity,
				`Access-Control-Allow-Origin["']?\s*[,:=]\s*["']\*`,
				"CORS allows any origin", 0.8),
			NewRegexRule("cors-allow-origins-star", CategorySecurity,
				`(?i)(allow_origins|alloworigins|allowedorigins)\s*[:=]\s*\[?\s*["']\*`,
				"CORS allows any origin", 0.7),
			NewContextRule("cors-glob-context", CategorySecurity, globWildcardCounterEvidence),
		},
	}
}

// globWildcardCounterEvidence votes against wildcard findings on lines
// where the asterisk is a glob pattern rather than a CORS origin.
func globWildcardCounterEvidence(ctx Context) []domain.RuleFinding {
	var findings []domain.RuleFinding
	for i, line := range ctx.Lines {
		if !strings.Contains(line, `*`) {
			continue
		}
		if strings.Contains(line, "filepath.Match") ||
			strings.Contains(line, "Glob(") ||
			strings.Contains(line, "glob.") ||
			strings.Contains(line, `"*.`) {
			findings = append(findings, domain.RuleFinding{
				Line:       i + 1,
				Confidence: -0.5,
				Message:    "wildcard is a glob pattern, not a CORS origin",
			})
		}
	}
	return findings
}

func hardcodedSecret() *Pattern {
	return &Pattern{
		Name:        "hardcoded-secret",
		Category:    CategorySecurity,
		Description: "credential literal embedded in source",
		Rules: []Rule{
			NewRegexRule("secret-assign", CategorySecurity,
				`(?i)(password|passwd|secret|api_key|apikey|auth_token)\s*(?::=|[:=])\s*["'][^"']{4,}["']`,
				"credential appears to be hardcoded", 0.7,
				SkipTestFiles()),
			NewContextRule("secret-placeholder", CategorySecurity, secretPlaceholderCounterEvidence),
		},
	}
}

// secretPlaceholderCounterEvidence votes against secret findings when the
// assigned value is clearly a placeholder or an environment lookup.
func secretPlaceholderCounterEvidence(ctx Context) []domain.RuleFinding {
	markers := []string{"${", "getenv", "environ", "changeme", "example", "<your", "xxx", "dummy"}
	var findings []domain.RuleFinding
	for i, line := range ctx.Lines {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "password") && !strings.Contains(lower, "secret") &&
			!strings.Contains(lower, "key") && !strings.Contains(lower, "token") {
			continue
		}
		for _, m := range markers {
			if strings.Contains(lower, m) {
				findings = append(findings, domain.RuleFinding{
					Line:       i + 1,
					Confidence: -0.5,
					Message:    "value is a placeholder or environment lookup",
				})
				break
			}
		}
	}
	return findings
}

func duplicateImport() *Pattern {
	return &Pattern{
		Name:           "duplicate-import",
		Category:       CategoryImports,
		Description:    "same module imported more than once",
		AffectsImports: true,
		FixStrategy:    "remove_line",
		Transform:      RemoveLineTransform,
		Rules: []Rule{
			NewStructuralRule("duplicate-import-tree", CategoryImports, domain.NodeImport, duplicateImportPredicate()),
		},
	}
}

// duplicateImportPredicate flags the second and later occurrences of an
// import path. The predicate is stateless: each evaluation rescans the
// file's import nodes for the first occurrence of the name, so a node
// matching that first line is never flagged.
func duplicateImportPredicate() NodePredicate {
	return func(node domain.Node, ctx Context) *domain.RuleFinding {
		first := -1
		for _, n := range ctx.Tree.NodesOfKind(domain.NodeImport) {
			if n.Name == node.Name {
				first = n.StartLine
				break
			}
		}
		if first < 0 || node.StartLine == first {
			return nil
		}
		return &domain.RuleFinding{
			Line:       node.StartLine,
			Confidence: 0.9,
			Message:    "duplicate import of " + node.Name,
			Metadata:   map[string]string{"matched_text": node.Name},
		}
	}
}

func debugPrint() *Pattern {
	return &Pattern{
		Name:        "debug-print",
		Category:    CategoryStyle,
		Description: "leftover debug print statement",
		FixStrategy: "remove_line",
		Transform:   RemoveLineTransform,
		Rules: []Rule{
			NewRegexRule("debug-print-text", CategoryStyle,
				`(fmt\.Println\(|console\.log\(|System\.out\.println\()`,
				"debug print left in source", 0.6,
				SkipTestFiles()),
			NewContextRule("debug-print-entrypoint", CategoryStyle, entrypointPrintCounterEvidence),
		},
	}
}

// entrypointPrintCounterEvidence votes against print findings in command
// entry points, where writing to stdout is the program's job.
func entrypointPrintCounterEvidence(ctx Context) []domain.RuleFinding {
	norm := strings.ReplaceAll(ctx.FilePath, "\\", "/")
	if !strings.Contains(norm, "cmd/") && !strings.HasSuffix(norm, "main.go") {
		return nil
	}
	var findings []domain.RuleFinding
	for i, line := range ctx.Lines {
		if strings.Contains(line, "fmt.Println(") || strings.Contains(line, "console.log(") {
			findings = append(findings, domain.RuleFinding{
				Line:       i + 1,
				Confidence: -0.6,
				Message:    "printing is expected in a command entry point",
			})
		}
	}
	return findings
}

func mockNaming() *Pattern {
	return &Pattern{
		Name:              "mock-naming",
		Category:          CategoryTestLogic,
		Description:       "mock helper not named with the Mock prefix",
		AffectsSignatures: true,
		FixStrategy:       "rename_symbol",
		Transform:         RenameMockTransform,
		Rules: []Rule{
			NewStructuralRule("mock-naming-structural", CategoryTestLogic, domain.NodeFunction, mockNamingPredicate),
			NewRegexRule("mock-naming-text", CategoryTestLogic,
				`func\s+\w+(Mock|mock)\w*\s*\(`,
				"mock helper should be named Mock<Thing>", 0.6,
				OnlyTestFiles()),
		},
	}
}

// mockNamingPredicate flags test-file functions whose name contains the
// word Mock anywhere but the front.
func mockNamingPredicate(node domain.Node, ctx Context) *domain.RuleFinding {
	if !ctx.IsTestFile {
		return nil
	}
	words := camelcase.Split(node.Name)
	for i, w := range words {
		if !strings.EqualFold(w, "mock") {
			continue
		}
		if i == 0 {
			return nil // already prefixed
		}
		return &domain.RuleFinding{
			Line:       node.StartLine,
			Confidence: 0.6,
			Message:    "mock helper should be named Mock<Thing>",
			Metadata:   map[string]string{"matched_text": node.Name},
		}
	}
	return nil
}

func todoComment() *Pattern {
	return &Pattern{
		Name:        "todo-comment",
		Category:    CategoryStyle,
		Description: "tracked-work comment left in source",
		Rules: []Rule{
			NewRegexRule("todo-comment", CategoryStyle,
				`(//|#)\s*(TODO|FIXME|XXX)\b`,
				"unresolved TODO/FIXME comment", 0.65),
		},
	}
}
