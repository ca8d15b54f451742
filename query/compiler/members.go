package compiler

import (
	"github.com/satishbabariya/sqlexpr/query/ast"
)

// Members returns the row member names a field-list lambda selects, in order. The body
// must be a single member access or a tuple of them.
func Members(l *ast.LambdaExpr) ([]string, error) {
	if l == nil {
		return nil, unsupported("<nil>", "empty expression")
	}
	var nodes []ast.Node
	switch e := l.Body.(type) {
	case *ast.NewExpr:
		nodes = e.Args
	case *ast.NewArrayExpr:
		nodes = e.Elements
	default:
		nodes = []ast.Node{l.Body}
	}

	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if u, ok := n.(*ast.UnaryExpr); ok && u.Op == ast.OpConvert {
			n = u.Operand
		}
		m, ok := n.(*ast.MemberExpr)
		if !ok || !ast.IsRowMember(m, l.Param) {
			return nil, unsupported(n.String(), "field lists may only name row members")
		}
		names = append(names, m.Name)
	}
	return names, nil
}
