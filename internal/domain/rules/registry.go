package rules

import (
	"fmt"

	"github.com/sentinelfix/sentinel/internal/domain"
)

// Transform rewrites file content to resolve one violation. It operates
// in memory only; the validation pipeline decides whether the result is
// ever written.
type Transform func(content string, v domain.EnsembleViolation) (string, error)

// Pattern bundles the detectors, metadata and optional fix strategy for
// one violation pattern.
type Pattern struct {
	Name              string
	Category          Category
	Description       string
	AffectsImports    bool
	AffectsSignatures bool
	FixStrategy       string // empty means no automated fix
	Transform         Transform
	Rules             []Rule
}

// Registry maps pattern names to their rule sets. It is an explicit
// value built at startup and passed by reference through the scanner and
// orchestrator; there is no process-wide singleton.
type Registry struct {
	patterns map[string]*Pattern
	order    []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{patterns: make(map[string]*Pattern)}
}

// Register adds a pattern. Duplicate names are a programming error.
func (r *Registry) Register(p *Pattern) error {
	if p.Name == "" {
		return fmt.Errorf("pattern name must not be empty")
	}
	if len(p.Rules) == 0 {
		return fmt.Errorf("pattern %q has no rules", p.Name)
	}
	if _, exists := r.patterns[p.Name]; exists {
		return fmt.Errorf("pattern %q registered twice", p.Name)
	}
	r.patterns[p.Name] = p
	r.order = append(r.order, p.Name)
	return nil
}

// Pattern looks up one pattern by name.
func (r *Registry) Pattern(name string) (*Pattern, bool) {
	p, ok := r.patterns[name]
	return p, ok
}

// Patterns returns all patterns in registration order.
func (r *Registry) Patterns() []*Pattern {
	out := make([]*Pattern, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.patterns[name])
	}
	return out
}

// Len returns the number of registered patterns.
func (r *Registry) Len() int { return len(r.order) }
