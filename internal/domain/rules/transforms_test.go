package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelfix/sentinel/internal/domain"
	"github.com/sentinelfix/sentinel/internal/domain/rules"
)

func TestRemoveLineTransform(t *testing.T) {
	content := "one\ntwo\nthree\n"
	out, err := rules.RemoveLineTransform(content, domain.EnsembleViolation{Line: 2})
	require.NoError(t, err)
	assert.Equal(t, "one\nthree\n", out)
}

func TestRemoveLineTransform_OutOfRange(t *testing.T) {
	_, err := rules.RemoveLineTransform("one\n", domain.EnsembleViolation{Line: 9})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestRenameMockTransform_RenamesEveryOccurrence(t *testing.T) {
	content := `package a

func ServerMock() {}

func TestX(t *testing.T) {
	ServerMock()
	ServerMockery() // different identifier, untouched
}
`
	out, err := rules.RenameMockTransform(content, domain.EnsembleViolation{
		Line:        3,
		MatchedText: "ServerMock",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "func MockServer() {}")
	assert.Contains(t, out, "\tMockServer()")
	assert.Contains(t, out, "ServerMockery()")
}

func TestRenameMockTransform_RecoversIdentifierFromLine(t *testing.T) {
	content := "package a\n\nfunc DBMockHelper() {}\n"
	out, err := rules.RenameMockTransform(content, domain.EnsembleViolation{Line: 3})
	require.NoError(t, err)
	assert.Contains(t, out, "func MockDBHelper() {}")
}

func TestRenameMockTransform_AlreadyConformingFails(t *testing.T) {
	content := "package a\n\nfunc MockServer() {}\n"
	_, err := rules.RenameMockTransform(content, domain.EnsembleViolation{
		Line:        3,
		MatchedText: "MockServer",
	})
	require.Error(t, err)
}
