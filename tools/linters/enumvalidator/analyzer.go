package enumvalidator

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/analysis"
)

var Analyzer = &analysis.Analyzer{
	Name: "enumvalidator",
	Doc:  "checks that enum fields only use defined constants, not string literals",
	Run:  run,
}

// enumTypes are the string enums whose fields must be set from declared constants.
var enumTypes = map[string]bool{
	"Severity":        true,
	"Category":        true,
	"DebtTrend":       true,
	"HealthStatus":    true,
	"InsightCategory": true,
	"TaskType":        true,
	"TaskState":       true,
	"NotFoundPolicy":  true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			switch node := n.(type) {
			case *ast.AssignStmt:
				for i, lhs := range node.Lhs {
					if i >= len(node.Rhs) {
						continue
					}
					sel, ok := lhs.(*ast.SelectorExpr)
					if !ok {
						continue
					}
					if isEnum(pass.TypesInfo.TypeOf(sel)) && isStringLiteral(node.Rhs[i]) {
						pass.Reportf(node.Pos(),
							"enum field %s assigned string literal; use defined constant instead",
							sel.Sel.Name)
					}
				}
			case *ast.CompositeLit:
				for _, elt := range node.Elts {
					kv, ok := elt.(*ast.KeyValueExpr)
					if !ok {
						continue
					}
					key, ok := kv.Key.(*ast.Ident)
					if !ok {
						continue
					}
					if isEnum(pass.TypesInfo.TypeOf(kv.Value)) && isStringLiteral(kv.Value) {
						pass.Reportf(kv.Pos(),
							"enum field %s assigned string literal; use defined constant instead",
							key.Name)
					}
				}
			}
			return true
		})
	}
	return nil, nil
}

// isEnum resolves aliases so Priority reports as Severity.
func isEnum(t types.Type) bool {
	if t == nil {
		return false
	}
	if named, ok := types.Unalias(t).(*types.Named); ok {
		return enumTypes[named.Obj().Name()]
	}
	return false
}

func isStringLiteral(expr ast.Expr) bool {
	lit, ok := expr.(*ast.BasicLit)
	return ok && lit.Kind == token.STRING
}
