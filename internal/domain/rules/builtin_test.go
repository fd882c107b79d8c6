package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelfix/sentinel/internal/domain"
	"github.com/sentinelfix/sentinel/internal/domain/ensemble"
	"github.com/sentinelfix/sentinel/internal/domain/rules"
)

func scan(t *testing.T, filePath, source string, tree *domain.ParseTree, isTest bool) []domain.EnsembleViolation {
	t.Helper()
	voter := ensemble.NewVoter(domain.DefaultEngineConfig())
	result := voter.EvaluateFile(rules.Builtin(), rules.NewContext(filePath, source, tree, isTest, false))
	require.Empty(t, result.RuleErrors)
	return result.Violations
}

func patternsOf(violations []domain.EnsembleViolation) []string {
	var names []string
	for _, v := range violations {
		names = append(names, v.PatternName)
	}
	return names
}

func TestBuiltin_RegistersAllPatterns(t *testing.T) {
	reg := rules.Builtin()
	assert.Equal(t, 8, reg.Len())
	for _, name := range []string{
		"secure-jwt-storage", "sql-string-concat", "cors-allow-all",
		"hardcoded-secret", "duplicate-import", "debug-print",
		"mock-naming", "todo-comment",
	} {
		_, ok := reg.Pattern(name)
		assert.True(t, ok, "pattern %s should be registered", name)
	}
}

func TestBuiltin_JWTInLocalStorage(t *testing.T) {
	src := `function save(token) {
  localStorage.setItem("jwt", token);
}
`
	violations := scan(t, "auth.js", src, nil, false)
	assert.Contains(t, patternsOf(violations), "secure-jwt-storage")
}

func TestBuiltin_SQLConcat(t *testing.T) {
	src := `query := "SELECT * FROM users WHERE id = " + userID
`
	violations := scan(t, "db.go", src, nil, false)
	assert.Contains(t, patternsOf(violations), "sql-string-concat")
}

func TestBuiltin_CORSWildcard(t *testing.T) {
	src := `w.Header().Set("Access-Control-Allow-Origin", "*")
`
	violations := scan(t, "server.go", src, nil, false)
	assert.Contains(t, patternsOf(violations), "cors-allow-all")
}

func TestBuiltin_GlobWildcardNotFlaggedAsCORS(t *testing.T) {
	src := `matches, _ := filepath.Glob("*.go")
`
	violations := scan(t, "walk.go", src, nil, false)
	assert.NotContains(t, patternsOf(violations), "cors-allow-all")
}

func TestBuiltin_HardcodedSecret(t *testing.T) {
	src := `password := "hunter2-prod"
`
	violations := scan(t, "config.go", src, nil, false)
	assert.Contains(t, patternsOf(violations), "hardcoded-secret")
}

func TestBuiltin_EnvLookupSecretSuppressed(t *testing.T) {
	src := `password := os.Getenv("DB_PASSWORD")
`
	violations := scan(t, "config.go", src, nil, false)
	assert.NotContains(t, patternsOf(violations), "hardcoded-secret")
}

func TestBuiltin_SecretInTestFileSkipped(t *testing.T) {
	src := `password := "fixture-value"
`
	violations := scan(t, "config_test.go", src, nil, true)
	assert.NotContains(t, patternsOf(violations), "hardcoded-secret")
}

func TestBuiltin_DebugPrint(t *testing.T) {
	src := `func handle() {
	fmt.Println("got here")
}
`
	violations := scan(t, "internal/server/handler.go", src, nil, false)
	assert.Contains(t, patternsOf(violations), "debug-print")
}

func TestBuiltin_EntrypointPrintSuppressed(t *testing.T) {
	src := `func main() {
	fmt.Println("usage: tool [args]")
}
`
	violations := scan(t, "cmd/tool/main.go", src, nil, false)
	assert.NotContains(t, patternsOf(violations), "debug-print")
}

func TestBuiltin_DuplicateImport(t *testing.T) {
	tree := &domain.ParseTree{
		Language: "go",
		Nodes: []domain.Node{
			{Kind: domain.NodeImport, Name: "fmt", StartLine: 3, EndLine: 3},
			{Kind: domain.NodeImport, Name: "os", StartLine: 4, EndLine: 4},
			{Kind: domain.NodeImport, Name: "fmt", StartLine: 5, EndLine: 5},
		},
	}
	violations := scan(t, "a.go", "package a\n\nimport fmt\nimport os\nimport fmt\n", tree, false)

	var dup []domain.EnsembleViolation
	for _, v := range violations {
		if v.PatternName == "duplicate-import" {
			dup = append(dup, v)
		}
	}
	require.Len(t, dup, 1)
	assert.Equal(t, 5, dup[0].Line)
	assert.Equal(t, "fmt", dup[0].MatchedText)
}

func TestBuiltin_MockNaming(t *testing.T) {
	tree := &domain.ParseTree{
		Language: "go",
		Nodes: []domain.Node{
			{Kind: domain.NodeFunction, Name: "ServerMockHelper", StartLine: 5, EndLine: 9},
			{Kind: domain.NodeFunction, Name: "MockClient", StartLine: 11, EndLine: 15},
		},
	}
	src := "package a\n\nimport \"testing\"\n\nfunc ServerMockHelper() {\n}\n\n\n\n\nfunc MockClient() {\n}\n"
	violations := scan(t, "a_test.go", src, tree, true)

	var mock []domain.EnsembleViolation
	for _, v := range violations {
		if v.PatternName == "mock-naming" {
			mock = append(mock, v)
		}
	}
	require.Len(t, mock, 1)
	assert.Equal(t, 5, mock[0].Line)
}

func TestBuiltin_TodoComment(t *testing.T) {
	src := `// TODO: handle the overflow case
x := 1
`
	violations := scan(t, "calc.go", src, nil, false)
	assert.Contains(t, patternsOf(violations), "todo-comment")
}

func TestBuiltin_CleanFileHasNoViolations(t *testing.T) {
	src := `package clean

import "errors"

func Divide(a, b int) (int, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	return a / b, nil
}
`
	violations := scan(t, "clean.go", src, nil, false)
	assert.Empty(t, violations)
}
