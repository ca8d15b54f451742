package lambda

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/satishbabariya/sqlexpr/query/ast"
)

var (
	// ErrSyntax is returned when the text does not parse.
	ErrSyntax = errors.New("lambda: syntax error")
	// ErrUnknownIdentifier is returned for a free identifier with no variable bound.
	ErrUnknownIdentifier = errors.New("lambda: unknown identifier")
	// ErrUnknownFunction is returned for a call the parser cannot map to a tree node.
	ErrUnknownFunction = errors.New("lambda: unknown function")
)

// Vars binds free identifiers to captured values.
type Vars map[string]any

// Parse parses src into a lambda. Identifiers other than the parameter are looked up in
// vars and captured as constants.
func Parse(src string, vars Vars) (*ast.LambdaExpr, error) {
	raw, err := parser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	c := &converter{row: &ast.ParameterExpr{Name: raw.Param}, vars: vars}
	body, err := c.expr(raw.Body)
	if err != nil {
		return nil, err
	}
	return &ast.LambdaExpr{Param: c.row, Body: body}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string, vars Vars) *ast.LambdaExpr {
	l, err := Parse(src, vars)
	if err != nil {
		panic(err)
	}
	return l
}

type converter struct {
	row  *ast.ParameterExpr
	vars Vars
}

func (c *converter) expr(n *exprNode) (ast.Node, error) {
	left, err := c.or(n.Left)
	if err != nil || n.Right == nil {
		return left, err
	}
	right, err := c.expr(n.Right)
	if err != nil {
		return nil, err
	}
	return ast.Coalesce(left, right), nil
}

func (c *converter) or(n *orNode) (ast.Node, error) {
	return fold(c, ast.OpOr, n.Left, n.Rest, (*converter).and)
}

func (c *converter) and(n *andNode) (ast.Node, error) {
	return fold(c, ast.OpAnd, n.Left, n.Rest, (*converter).bitOr)
}

func (c *converter) bitOr(n *bitOrNode) (ast.Node, error) {
	return fold(c, ast.OpBitOr, n.Left, n.Rest, (*converter).xor)
}

func (c *converter) xor(n *xorNode) (ast.Node, error) {
	return fold(c, ast.OpXor, n.Left, n.Rest, (*converter).bitAnd)
}

func (c *converter) bitAnd(n *bitAndNode) (ast.Node, error) {
	return fold(c, ast.OpBitAnd, n.Left, n.Rest, (*converter).equality)
}

// fold builds a left-associative chain of one operator.
func fold[T any](c *converter, op ast.Op, first *T, rest []*T, next func(*converter, *T) (ast.Node, error)) (ast.Node, error) {
	left, err := next(c, first)
	if err != nil {
		return nil, err
	}
	for _, r := range rest {
		right, err := next(c, r)
		if err != nil {
			return nil, err
		}
		left = ast.Binary(op, left, right)
	}
	return left, nil
}

var binaryOps = map[string]ast.Op{
	"==": ast.OpEqual,
	"!=": ast.OpNotEqual,
	"<":  ast.OpLessThan,
	"<=": ast.OpLessOrEqual,
	">":  ast.OpGreaterThan,
	">=": ast.OpGreaterOrEqual,
	"<<": ast.OpLeftShift,
	">>": ast.OpRightShift,
	"+":  ast.OpAdd,
	"-":  ast.OpSubtract,
	"*":  ast.OpMultiply,
	"/":  ast.OpDivide,
	"%":  ast.OpModulo,
}

func (c *converter) equality(n *equalityNode) (ast.Node, error) {
	left, err := c.relational(n.Left)
	if err != nil {
		return nil, err
	}
	for _, t := range n.Rest {
		right, err := c.relational(t.Right)
		if err != nil {
			return nil, err
		}
		left = ast.Binary(binaryOps[t.Op], left, right)
	}
	return left, nil
}

func (c *converter) relational(n *relationalNode) (ast.Node, error) {
	left, err := c.shift(n.Left)
	if err != nil {
		return nil, err
	}
	for _, t := range n.Rest {
		right, err := c.shift(t.Right)
		if err != nil {
			return nil, err
		}
		left = ast.Binary(binaryOps[t.Op], left, right)
	}
	return left, nil
}

func (c *converter) shift(n *shiftNode) (ast.Node, error) {
	left, err := c.additive(n.Left)
	if err != nil {
		return nil, err
	}
	for _, t := range n.Rest {
		right, err := c.additive(t.Right)
		if err != nil {
			return nil, err
		}
		left = ast.Binary(binaryOps[t.Op], left, right)
	}
	return left, nil
}

func (c *converter) additive(n *additiveNode) (ast.Node, error) {
	left, err := c.term(n.Left)
	if err != nil {
		return nil, err
	}
	for _, t := range n.Rest {
		right, err := c.term(t.Right)
		if err != nil {
			return nil, err
		}
		left = ast.Binary(binaryOps[t.Op], left, right)
	}
	return left, nil
}

func (c *converter) term(n *termNode) (ast.Node, error) {
	left, err := c.unary(n.Left)
	if err != nil {
		return nil, err
	}
	for _, t := range n.Rest {
		right, err := c.unary(t.Right)
		if err != nil {
			return nil, err
		}
		left = ast.Binary(binaryOps[t.Op], left, right)
	}
	return left, nil
}

func (c *converter) unary(n *unaryNode) (ast.Node, error) {
	if n.Postfix != nil {
		return c.postfix(n.Postfix)
	}
	operand, err := c.unary(n.Operand)
	if err != nil {
		return nil, err
	}
	if n.Op == "!" {
		return ast.Not(operand), nil
	}
	// -5 is a literal, not a negation
	if k, ok := operand.(*ast.ConstantExpr); ok {
		switch v := k.Value.(type) {
		case int:
			return ast.Const(-v), nil
		case int64:
			return ast.Const(-v), nil
		case float64:
			return ast.Const(-v), nil
		}
	}
	return ast.Negate(operand), nil
}

func (c *converter) postfix(n *postfixNode) (ast.Node, error) {
	// Sql.In(...) and Math.Abs(...) name a helper, not a variable
	if id := n.Primary.Ident; id != nil && id.Call == nil && len(n.Selectors) > 0 && n.Selectors[0].Call != nil {
		if decl, ok := helperClasses[id.Name]; ok && c.vars[id.Name] == nil && id.Name != c.row.Name {
			node, err := c.helper(decl, n.Selectors[0].Name, n.Selectors[0].Call)
			if err != nil {
				return nil, err
			}
			return c.selectors(node, n.Selectors[1:])
		}
	}

	node, err := c.primary(n.Primary)
	if err != nil {
		return nil, err
	}
	return c.selectors(node, n.Selectors)
}

func (c *converter) selectors(node ast.Node, sels []*selectorNode) (ast.Node, error) {
	for _, s := range sels {
		if s.Call == nil {
			node = ast.Member(node, s.Name)
			continue
		}
		args, err := c.args(s.Call)
		if err != nil {
			return nil, err
		}
		node, err = method(node, s.Name, args)
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

var stringMethods = map[string]bool{
	"StartsWith": true,
	"EndsWith":   true,
	"Contains":   true,
	"ToUpper":    true,
	"ToLower":    true,
	"Trim":       true,
	"Substring":  true,
}

// method maps target.name(args). Contains on a collection tests membership.
func method(target ast.Node, name string, args []ast.Node) (ast.Node, error) {
	if name == "Contains" && len(args) == 1 && isCollection(target) {
		return ast.ContainsIn(target, args[0]), nil
	}
	if !stringMethods[name] {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownFunction, target, name)
	}
	return ast.Call(target, name, ast.DeclString, anys(args)...), nil
}

func isCollection(n ast.Node) bool {
	switch e := n.(type) {
	case *ast.NewArrayExpr:
		return true
	case *ast.ConstantExpr:
		if e.Value == nil {
			return false
		}
		k := reflect.TypeOf(e.Value).Kind()
		return k == reflect.Slice || k == reflect.Array
	}
	return false
}

var helperClasses = map[string]ast.Declaring{
	"Sql":  ast.DeclSql,
	"Math": ast.DeclMath,
}

// helper maps Sql.* and Math.* calls, and the same Sql helpers called bare.
func (c *converter) helper(decl ast.Declaring, name string, call *callNode) (ast.Node, error) {
	args, err := c.args(call)
	if err != nil {
		return nil, err
	}
	if decl == ast.DeclMath {
		return ast.Call(nil, name, ast.DeclMath, anys(args)...), nil
	}

	switch name {
	case "In":
		if len(args) < 1 {
			break
		}
		return ast.In(args[0], anys(args[1:])...), nil
	case "Count":
		switch len(args) {
		case 0:
			return ast.Count(nil), nil
		case 1:
			return ast.Count(args[0]), nil
		}
	case "As":
		if len(args) != 2 {
			break
		}
		alias, ok := args[1].(*ast.ConstantExpr)
		if !ok {
			break
		}
		s, ok := alias.Value.(string)
		if !ok {
			break
		}
		return ast.As(args[0], s), nil
	case "Desc", "Sum", "Min", "Max", "Avg", "CountDistinct":
		if len(args) == 1 {
			return ast.Call(nil, name, ast.DeclSql, args[0]), nil
		}
	default:
		return nil, fmt.Errorf("%w: Sql.%s", ErrUnknownFunction, name)
	}
	return nil, fmt.Errorf("%w: Sql.%s does not take %d arguments", ErrUnknownFunction, name, len(args))
}

func (c *converter) args(call *callNode) ([]ast.Node, error) {
	out := make([]ast.Node, len(call.Args))
	for i, a := range call.Args {
		n, err := c.expr(a)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (c *converter) primary(n *primaryNode) (ast.Node, error) {
	switch {
	case n.Number != nil:
		return number(*n.Number)
	case n.String != nil:
		return ast.Const(*n.String), nil
	case n.Bool != nil:
		return ast.Const(*n.Bool == "true"), nil
	case n.Null:
		return ast.Null(), nil
	case n.New != nil:
		return c.newExpr(n.New)
	case n.Array != nil:
		elems := make([]any, len(n.Array.Elements))
		for i, e := range n.Array.Elements {
			node, err := c.expr(e)
			if err != nil {
				return nil, err
			}
			elems[i] = node
		}
		return ast.NewArray(elems...), nil
	case n.Ident != nil:
		return c.ident(n.Ident)
	case n.Group != nil:
		return c.expr(n.Group)
	}
	return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
}

func (c *converter) ident(n *identNode) (ast.Node, error) {
	if n.Call != nil {
		return c.helper(ast.DeclSql, n.Name, n.Call)
	}
	if n.Name == c.row.Name {
		return c.row, nil
	}
	if v, ok := c.vars[n.Name]; ok {
		return ast.Const(v), nil
	}
	return nil, fmt.Errorf("%w: %s at %s", ErrUnknownIdentifier, n.Name, n.Pos)
}

func (c *converter) newExpr(n *newNode) (ast.Node, error) {
	names := make([]string, len(n.Members))
	args := make([]ast.Node, len(n.Members))
	for i, m := range n.Members {
		node, err := c.expr(m.Value)
		if err != nil {
			return nil, err
		}
		args[i] = node
		names[i] = m.Name
		if names[i] == "" {
			if mem, ok := node.(*ast.MemberExpr); ok {
				names[i] = mem.Name
			}
		}
	}
	return ast.NewNamed(names, args...), nil
}

func number(s string) (ast.Node, error) {
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return ast.Const(f), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return ast.Const(n), nil
}

func anys(nodes []ast.Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out
}
