package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelfix/sentinel/internal/domain/rules"
)

func TestRegistry_DuplicateNameRejected(t *testing.T) {
	reg := rules.NewRegistry()
	require.NoError(t, reg.Register(&rules.Pattern{Name: "p", Category: rules.CategoryStyle}))

	err := reg.Register(&rules.Pattern{Name: "p", Category: rules.CategoryStyle})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "p")
}

func TestRegistry_PatternsPreserveRegistrationOrder(t *testing.T) {
	reg := rules.NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, reg.Register(&rules.Pattern{Name: name, Category: rules.CategoryStyle}))
	}

	var got []string
	for _, p := range reg.Patterns() {
		got = append(got, p.Name)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, got)
}

func TestRegistry_LookupUnknown(t *testing.T) {
	reg := rules.NewRegistry()
	_, ok := reg.Pattern("missing")
	assert.False(t, ok)
}

func TestCategory_PriorityOrdering(t *testing.T) {
	assert.Less(t, rules.CategorySecurity.Priority(), rules.CategorySyntax.Priority())
	assert.Less(t, rules.CategorySyntax.Priority(), rules.CategoryImports.Priority())
	assert.Less(t, rules.CategoryImports.Priority(), rules.CategoryTypes.Priority())
	assert.Less(t, rules.CategoryTypes.Priority(), rules.CategoryTestLogic.Priority())
	assert.Less(t, rules.CategoryTestLogic.Priority(), rules.CategoryStyle.Priority())
	assert.Greater(t, rules.Category("unknown").Priority(), rules.CategoryStyle.Priority())
}
