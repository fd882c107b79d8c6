package impact_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelfix/sentinel/internal/domain"
	"github.com/sentinelfix/sentinel/internal/domain/impact"
)

func tree(nodes ...domain.Node) *domain.ParseTree {
	return &domain.ParseTree{Language: "go", Nodes: nodes}
}

func TestAnalyze_BodyLocalEditIsLowRisk(t *testing.T) {
	report := impact.Analyze([]impact.Input{{
		Violation: domain.EnsembleViolation{FilePath: "a.go", Line: 12},
		Tree: tree(
			domain.Node{Kind: domain.NodeFunction, Name: "run", StartLine: 10, EndLine: 20},
		),
	}})

	assert.Equal(t, []string{"a.go"}, report.AffectedFiles)
	assert.Equal(t, []string{"run"}, report.AffectedFunctions)
	assert.Empty(t, report.AffectedTypes)
	assert.Equal(t, domain.RiskLow, report.BreakingRisk)
}

func TestAnalyze_SignatureChangeIsHighRisk(t *testing.T) {
	report := impact.Analyze([]impact.Input{{
		Violation:         domain.EnsembleViolation{FilePath: "a.go", Line: 12},
		AffectsSignatures: true,
		Tree: tree(
			domain.Node{Kind: domain.NodeFunction, Name: "run", StartLine: 10, EndLine: 20},
		),
	}})

	assert.Equal(t, domain.RiskHigh, report.BreakingRisk)
}

func TestAnalyze_TypeOverlapIsHighRisk(t *testing.T) {
	report := impact.Analyze([]impact.Input{{
		Violation: domain.EnsembleViolation{FilePath: "a.go", Line: 6},
		Tree: tree(
			domain.Node{Kind: domain.NodeStruct, Name: "Config", StartLine: 4, EndLine: 9},
		),
	}})

	assert.Equal(t, []string{"Config"}, report.AffectedTypes)
	assert.Equal(t, domain.RiskHigh, report.BreakingRisk)
}

func TestAnalyze_ImportTouchIsMediumRisk(t *testing.T) {
	report := impact.Analyze([]impact.Input{{
		Violation:      domain.EnsembleViolation{FilePath: "a.go", Line: 3},
		AffectsImports: true,
		Tree: tree(
			domain.Node{Kind: domain.NodeImport, Name: "fmt", StartLine: 3, EndLine: 3},
			domain.Node{Kind: domain.NodeImport, Name: "os", StartLine: 4, EndLine: 4},
		),
	}})

	assert.Equal(t, []string{"fmt", "os"}, report.AffectedImports)
	assert.Equal(t, domain.RiskMedium, report.BreakingRisk)
}

func TestAnalyze_NilTreeStillCountsFile(t *testing.T) {
	report := impact.Analyze([]impact.Input{{
		Violation: domain.EnsembleViolation{FilePath: "broken.go", Line: 1},
	}})

	require.Equal(t, []string{"broken.go"}, report.AffectedFiles)
	assert.Equal(t, domain.RiskLow, report.BreakingRisk)
}

func TestAnalyze_InnermostFunctionWins(t *testing.T) {
	report := impact.Analyze([]impact.Input{{
		Violation: domain.EnsembleViolation{FilePath: "a.go", Line: 15},
		Tree: tree(
			domain.Node{Kind: domain.NodeFunction, Name: "outer", StartLine: 1, EndLine: 40},
			domain.Node{Kind: domain.NodeFunction, Name: "inner", StartLine: 12, EndLine: 18},
		),
	}})

	assert.Equal(t, []string{"inner"}, report.AffectedFunctions)
}
