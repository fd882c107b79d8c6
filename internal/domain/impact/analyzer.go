package impact

import (
	"sort"

	"github.com/sentinelfix/sentinel/internal/domain"
)

// Report summarizes what a batch of pending fixes would touch.
type Report struct {
	AffectedFunctions []string        `json:"affected_functions,omitempty"`
	AffectedTypes     []string        `json:"affected_types,omitempty"`
	AffectedImports   []string        `json:"affected_imports,omitempty"`
	AffectedFiles     []string        `json:"affected_files"`
	BreakingRisk      domain.RiskTier `json:"breaking_risk"`
}

// Input pairs one violation with the parse tree of its file (nil when
// the file is unparsable) and the conflict-relevant pattern flags.
type Input struct {
	Violation         domain.EnsembleViolation
	Tree              *domain.ParseTree
	AffectsImports    bool
	AffectsSignatures bool
}

// Analyze derives the affected symbols across a batch and a coarse
// breaking-change risk from the mix of affected symbol kinds.
func Analyze(inputs []Input) *Report {
	report := &Report{BreakingRisk: domain.RiskLow}

	files := make(map[string]bool)
	functions := make(map[string]bool)
	types := make(map[string]bool)
	imports := make(map[string]bool)
	signatureHits := 0

	for _, in := range inputs {
		files[in.Violation.FilePath] = true
		if in.AffectsSignatures {
			signatureHits++
		}

		if in.Tree == nil {
			continue
		}
		if enclosing := in.Tree.EnclosingNode(in.Violation.Line); enclosing != nil {
			functions[enclosing.Name] = true
		}
		for _, n := range in.Tree.Nodes {
			if in.Violation.Line < n.StartLine || in.Violation.Line > n.EndLine {
				continue
			}
			switch n.Kind {
			case domain.NodeStruct, domain.NodeInterface:
				types[n.Name] = true
			case domain.NodeImport:
				imports[n.Name] = true
			}
		}
		if in.AffectsImports {
			for _, n := range in.Tree.NodesOfKind(domain.NodeImport) {
				imports[n.Name] = true
			}
		}
	}

	report.AffectedFiles = sortedKeys(files)
	report.AffectedFunctions = sortedKeys(functions)
	report.AffectedTypes = sortedKeys(types)
	report.AffectedImports = sortedKeys(imports)
	report.BreakingRisk = breakingRisk(len(functions), len(types), len(imports), signatureHits)
	return report
}

// breakingRisk is deliberately coarse: signature and type changes ripple
// to callers, import changes less so, body-local edits least of all.
func breakingRisk(functions, types, imports, signatureHits int) domain.RiskTier {
	switch {
	case signatureHits > 0 || types > 0:
		return domain.RiskHigh
	case imports > 0 || functions > 5:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
