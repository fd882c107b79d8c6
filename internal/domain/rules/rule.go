package rules

import (
	"strings"

	"github.com/sentinelfix/sentinel/internal/domain"
)

// Category groups patterns for conflict-priority ordering.
type Category string

const (
	CategorySecurity  Category = "security"
	CategorySyntax    Category = "syntax"
	CategoryImports   Category = "imports"
	CategoryTypes     Category = "types"
	CategoryTestLogic Category = "test_logic"
	CategoryStyle     Category = "style"
)

// Priority returns the fixed conflict-resolution rank for a category.
// Lower wins: security > syntax > imports > types > test_logic > style.
func (c Category) Priority() int {
	switch c {
	case CategorySecurity:
		return 0
	case CategorySyntax:
		return 1
	case CategoryImports:
		return 2
	case CategoryTypes:
		return 3
	case CategoryTestLogic:
		return 4
	case CategoryStyle:
		return 5
	default:
		return 6
	}
}

// Context is everything a rule may inspect for one file. Tree is nil when
// the file could not be parsed or no parser supports it; structural rules
// must then produce zero findings.
type Context struct {
	FilePath     string
	RawText      string
	Lines        []string
	Tree         *domain.ParseTree
	IsTestFile   bool
	IsConfigFile bool
}

// NewContext builds a rule context, splitting raw text into lines.
func NewContext(filePath, rawText string, tree *domain.ParseTree, isTest, isConfig bool) Context {
	return Context{
		FilePath:     filePath,
		RawText:      rawText,
		Lines:        strings.Split(rawText, "\n"),
		Tree:         tree,
		IsTestFile:   isTest,
		IsConfigFile: isConfig,
	}
}

// Rule is a single detector. Implementations must be safe for concurrent
// use across files; Evaluate never writes.
type Rule interface {
	ID() string
	Category() Category
	Evaluate(ctx Context) []domain.RuleFinding
}
