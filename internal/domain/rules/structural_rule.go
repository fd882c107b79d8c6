package rules

import "github.com/sentinelfix/sentinel/internal/domain"

// NodePredicate inspects one structural node and returns a finding, or
// nil when the node is unremarkable.
type NodePredicate func(node domain.Node, ctx Context) *domain.RuleFinding

// StructuralRule matches against the externally supplied parse tree.
// When the tree is absent the rule degrades to zero findings.
type StructuralRule struct {
	id        string
	category  Category
	kind      domain.NodeKind
	predicate NodePredicate
}

// NewStructuralRule builds a tree matcher over nodes of one kind.
func NewStructuralRule(id string, category Category, kind domain.NodeKind, predicate NodePredicate) *StructuralRule {
	return &StructuralRule{id: id, category: category, kind: kind, predicate: predicate}
}

func (r *StructuralRule) ID() string         { return r.id }
func (r *StructuralRule) Category() Category { return r.category }

func (r *StructuralRule) Evaluate(ctx Context) []domain.RuleFinding {
	if ctx.Tree == nil {
		return nil
	}

	var findings []domain.RuleFinding
	for _, node := range ctx.Tree.NodesOfKind(r.kind) {
		f := r.predicate(node, ctx)
		if f == nil {
			continue
		}
		f.RuleID = r.id
		findings = append(findings, *f)
	}
	return findings
}
