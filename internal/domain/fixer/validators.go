package fixer

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sentinelfix/sentinel/internal/domain"
)

// Validator is one post-validation check. Validators are pure over
// (original, modified, filePath), so running the chain twice on the same
// pair yields the same decision and reasons.
type Validator struct {
	Name  string
	Check func(original, modified, filePath string) (bool, string)
}

// SyntaxValidator verifies the modified content still parses. Files no
// parser supports pass vacuously.
func SyntaxValidator(parser domain.StructuralParser) Validator {
	return Validator{
		Name: "syntax",
		Check: func(_, modified, filePath string) (bool, string) {
			if parser == nil || !parser.Supports(filePath) {
				return true, ""
			}
			if _, err := parser.Parse(filePath, []byte(modified)); err != nil {
				return false, fmt.Sprintf("modified content does not parse: %v", err)
			}
			return true, ""
		},
	}
}

// ImportValidator verifies every import present in the original still
// appears in the modified content. Additions are fine; removals are not.
func ImportValidator() Validator {
	return Validator{
		Name: "imports",
		Check: func(original, modified, filePath string) (bool, string) {
			before := extractImports(filePath, original)
			after := extractImports(filePath, modified)

			var missing []string
			for imp := range before {
				if !after[imp] {
					missing = append(missing, imp)
				}
			}
			if len(missing) == 0 {
				return true, ""
			}
			sort.Strings(missing)
			return false, fmt.Sprintf("missing imports: %v", missing)
		},
	}
}

// extractImports collects normalized import statements for the file's
// language. The extraction is textual so that non-Go files are covered
// without a parser.
func extractImports(filePath, content string) map[string]bool {
	imports := make(map[string]bool)
	ext := filepath.Ext(filePath)
	inBlock := false

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)

		switch ext {
		case ".go":
			switch {
			case strings.HasPrefix(line, "import ("):
				inBlock = true
			case inBlock && line == ")":
				inBlock = false
			case inBlock && line != "" && !strings.HasPrefix(line, "//"):
				imports[strings.TrimSpace(line)] = true
			case strings.HasPrefix(line, "import "):
				imports[strings.TrimPrefix(line, "import ")] = true
			}
		case ".py":
			if strings.HasPrefix(line, "import ") || strings.HasPrefix(line, "from ") {
				imports[line] = true
			}
		case ".js", ".jsx", ".ts", ".tsx":
			if strings.HasPrefix(line, "import ") || strings.Contains(line, "require(") {
				imports[line] = true
			}
		}
	}
	return imports
}
