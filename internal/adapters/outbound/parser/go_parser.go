package parser

import (
	"fmt"
	"go/ast"
	goparser "go/parser"
	"go/token"
	"path/filepath"
	"strings"

	"github.com/sentinelfix/sentinel/internal/domain"
)

// GoParser implements domain.StructuralParser for Go source using go/ast.
// Other languages plug in as sibling adapters; rules only ever see the
// abstract node kinds.
type GoParser struct{}

func New() *GoParser {
	return &GoParser{}
}

// Supports reports whether this parser handles the file.
func (p *GoParser) Supports(filePath string) bool {
	return filepath.Ext(filePath) == ".go"
}

// Parse builds the abstract structural tree for a Go file. A syntax
// error is reported as a wrapped domain.ErrParseFailure so callers can
// degrade to text-only rules.
func (p *GoParser) Parse(filePath string, src []byte) (*domain.ParseTree, error) {
	fset := token.NewFileSet()
	file, err := goparser.ParseFile(fset, filePath, src, goparser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrParseFailure, filePath, err)
	}

	tree := &domain.ParseTree{Language: "go"}

	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		tree.Nodes = append(tree.Nodes, domain.Node{
			Kind:      domain.NodeImport,
			Name:      path,
			StartLine: fset.Position(imp.Pos()).Line,
			EndLine:   fset.Position(imp.End()).Line,
		})
	}

	ast.Inspect(file, func(n ast.Node) bool {
		switch decl := n.(type) {
		case *ast.GenDecl:
			for _, spec := range decl.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				node := domain.Node{
					Name:      ts.Name.Name,
					StartLine: fset.Position(ts.Pos()).Line,
					EndLine:   fset.Position(ts.End()).Line,
				}
				switch ts.Type.(type) {
				case *ast.StructType:
					node.Kind = domain.NodeStruct
				case *ast.InterfaceType:
					node.Kind = domain.NodeInterface
				default:
					return true
				}
				tree.Nodes = append(tree.Nodes, node)
			}
		case *ast.FuncDecl:
			node := domain.Node{
				Kind:      domain.NodeFunction,
				Name:      decl.Name.Name,
				StartLine: fset.Position(decl.Pos()).Line,
				EndLine:   fset.Position(decl.End()).Line,
			}
			if decl.Recv != nil && len(decl.Recv.List) > 0 {
				node.Kind = domain.NodeMethod
				node.Attrs = map[string]string{"receiver": receiverType(decl.Recv.List[0].Type)}
			}
			tree.Nodes = append(tree.Nodes, node)
		}
		return true
	})

	return tree, nil
}

func receiverType(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return "*" + receiverType(t.X)
	case *ast.Ident:
		return t.Name
	default:
		return ""
	}
}
