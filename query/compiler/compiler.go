// Package compiler turns expression trees into dialect-specific SQL fragments.
//
// A Compiler walks one tree per call. Literals become entries in the statement's
// ParamStore; closed sub-expressions are folded by a constrained evaluator; everything
// else is spelled through the sqlgen.Dialect.
package compiler

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/satishbabariya/sqlexpr/internal/debug"
	"github.com/satishbabariya/sqlexpr/query/ast"
	"github.com/satishbabariya/sqlexpr/query/sqlgen"
	"github.com/satishbabariya/sqlexpr/schema"
)

// Clause selects how the result of a walk is finished.
type Clause int

const (
	// ClauseCondition is a WHERE or HAVING predicate.
	ClauseCondition Clause = iota
	// ClauseSelect is a read projection; columns are aliased to their logical names.
	ClauseSelect
	// ClauseFields is a write field list; no aliases.
	ClauseFields
	// ClauseGroupBy is a grouping key list.
	ClauseGroupBy
	// ClauseOrderBy is an ordering key list.
	ClauseOrderBy
)

func (c Clause) String() string {
	switch c {
	case ClauseCondition:
		return "condition"
	case ClauseSelect:
		return "select"
	case ClauseFields:
		return "fields"
	case ClauseGroupBy:
		return "group by"
	case ClauseOrderBy:
		return "order by"
	}
	return fmt.Sprintf("clause(%d)", int(c))
}

// Compiler compiles expression trees over one model.
type Compiler struct {
	dialect sqlgen.Dialect
	model   *schema.ModelDef
	params  *ParamStore

	row    *ast.ParameterExpr
	clause Clause
}

// New creates a compiler. Parameters are allocated in params, which is typically owned
// by a statement.
func New(d sqlgen.Dialect, model *schema.ModelDef, params *ParamStore) *Compiler {
	return &Compiler{dialect: d, model: model, params: params}
}

// Params returns the parameter store.
func (c *Compiler) Params() *ParamStore { return c.params }

// Dialect returns the dialect.
func (c *Compiler) Dialect() sqlgen.Dialect { return c.dialect }

// Model returns the model.
func (c *Compiler) Model() *schema.ModelDef { return c.model }

// VisitExpression compiles a lambda into finished SQL text for clause. On error the
// parameter store may hold entries allocated before the failure; callers discard the
// statement.
func (c *Compiler) VisitExpression(l *ast.LambdaExpr, clause Clause) (string, error) {
	if l == nil || l.Body == nil {
		return "", unsupported("<nil>", "empty expression")
	}
	c.row = l.Param
	c.clause = clause

	if clause == ClauseOrderBy {
		keys, err := c.orderKeys(l.Body, false)
		if err != nil {
			return "", err
		}
		return strings.Join(keys, ","), nil
	}

	p, err := c.Visit(l.Body)
	if err != nil {
		return "", err
	}
	text, err := c.finish(p)
	if err != nil {
		return "", err
	}
	debug.Debug("compiled expression", "clause", clause.String(), "dialect", c.dialect.Name(), "sql", text)
	return text, nil
}

// VisitOrder compiles ordering keys, each suffixed with its direction.
func (c *Compiler) VisitOrder(l *ast.LambdaExpr, descending bool) ([]string, error) {
	if l == nil || l.Body == nil {
		return nil, unsupported("<nil>", "empty expression")
	}
	c.row = l.Param
	c.clause = ClauseOrderBy
	return c.orderKeys(l.Body, descending)
}

func (c *Compiler) orderKeys(body ast.Node, descending bool) ([]string, error) {
	var nodes []ast.Node
	switch e := body.(type) {
	case *ast.NewExpr:
		nodes = e.Args
	case *ast.NewArrayExpr:
		nodes = e.Elements
	default:
		nodes = []ast.Node{body}
	}

	keys := make([]string, 0, len(nodes))
	for _, n := range nodes {
		dir := "ASC"
		if descending {
			dir = "DESC"
		}
		if call, ok := n.(*ast.CallExpr); ok && call.Declaring == ast.DeclSql && call.Method == "Desc" && len(call.Args) == 1 {
			n = call.Args[0]
			dir = "DESC"
		}
		p, err := c.Visit(n)
		if err != nil {
			return nil, err
		}
		keys = append(keys, p.String()+" "+dir)
	}
	return keys, nil
}

// finish applies clause-level normalization to the root part.
func (c *Compiler) finish(p *Part) (string, error) {
	switch c.clause {
	case ClauseCondition:
		p = c.normalizeBool(p)
	case ClauseSelect:
		if p.named() {
			return c.aliased(p, p.Field.Name), nil
		}
	}
	return p.String(), nil
}

// normalizeBool turns a bare boolean column into a comparison with true, since SQL cannot
// use a column directly as a truth value.
func (c *Compiler) normalizeBool(p *Part) *Part {
	if p == nil || p.Kind != ColumnPart || !isBool(p) {
		return p
	}
	t := c.params.Add(true, boolType)
	return textPart(p.Text+" = "+t.Name, boolType, true)
}

// Visit compiles one node.
func (c *Compiler) Visit(n ast.Node) (*Part, error) {
	switch e := n.(type) {
	case nil:
		return nil, nil
	case *ast.ConstantExpr:
		return c.addLiteral(e.Value, e.DataType), nil
	case *ast.ParameterExpr:
		if c.isRow(e) {
			return nil, unsupported(e.String(), "the row cannot be used as a value")
		}
		return nil, unsupported(e.String(), "unbound parameter")
	case *ast.MemberExpr:
		return c.visitMember(e)
	case *ast.BinaryExpr:
		return c.visitBinary(e)
	case *ast.UnaryExpr:
		return c.visitUnary(e)
	case *ast.CallExpr:
		return c.visitCall(e)
	case *ast.NewExpr:
		return c.visitList(e.Names, e.Args)
	case *ast.NewArrayExpr:
		if ast.IsClosed(e, c.row) {
			return c.fold(e)
		}
		return c.visitList(nil, e.Elements)
	case *ast.LambdaExpr:
		return c.Visit(e.Body)
	}
	return nil, unsupported(fmt.Sprintf("%T", n), "unknown node")
}

func (c *Compiler) isRow(p *ast.ParameterExpr) bool {
	return c.row != nil && (p == c.row || p.Name == c.row.Name)
}

// addLiteral binds v as a parameter. Absent values yield the NULL part.
func (c *Compiler) addLiteral(v any, t reflect.Type) *Part {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		v = rv.Elem().Interface()
	}
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return paramPart(c.params.Add(v, t))
}

// fold evaluates a closed subtree into one parameter.
func (c *Compiler) fold(n ast.Node) (*Part, error) {
	v, err := evaluate(n)
	if err != nil {
		return nil, err
	}
	return c.addLiteral(v, nil), nil
}

func (c *Compiler) visitMember(e *ast.MemberExpr) (*Part, error) {
	if ast.IsRowMember(e, c.row) {
		return c.column(e.Name)
	}
	if ast.IsClosed(e, c.row) {
		return c.fold(e)
	}

	inner, err := c.Visit(e.Target)
	if err != nil {
		return nil, err
	}
	if inner == nil {
		return nil, unsupported(e.String(), "member of NULL")
	}

	switch {
	case e.Name == "HasValue":
		return textPart(inner.operand()+" IS NOT NULL", boolType, true), nil
	case e.Name == "Value":
		unwrapped := *inner
		unwrapped.Type = schema.Deref(inner.Type)
		return &unwrapped, nil
	case e.Name == "Length" && isString(inner):
		text, err := c.dialect.StringFunction("Length", inner.Text, c.params, nil)
		if err != nil {
			return nil, err
		}
		return textPart(text, intType, false), nil
	case sqlgen.IsDatePart(e.Name):
		text, err := c.dialect.DatePartFunction(e.Name, inner.Text)
		if err != nil {
			return nil, err
		}
		return textPart(text, intType, false), nil
	}
	return nil, unsupported(e.String(), "member %s has no SQL form", e.Name)
}

// column resolves a row member against the model.
func (c *Compiler) column(name string) (*Part, error) {
	if c.model == nil {
		return nil, unsupported(name, "no model attached")
	}
	f, err := c.model.MustField(name)
	if err != nil {
		return nil, err
	}
	if f.Computed && f.Expression != "" {
		return &Part{Kind: TextPart, Text: f.Expression, Type: f.Type, Field: f, bare: true}, nil
	}
	return &Part{
		Kind:  ColumnPart,
		Text:  c.dialect.QuoteIdentifier(f.ColumnName()),
		Type:  f.Type,
		Field: f,
	}, nil
}

// aliased renders a projected part, adding AS when the logical name differs from the
// physical one.
func (c *Compiler) aliased(p *Part, name string) string {
	if p == nil {
		if name == "" {
			return "NULL"
		}
		return "NULL AS " + c.dialect.QuoteIdentifier(name)
	}
	if name == "" {
		return p.Text
	}
	if p.Kind == ColumnPart && p.Field != nil && p.Field.ColumnName() == name {
		return p.Text
	}
	return p.Text + " AS " + c.dialect.QuoteIdentifier(name)
}

// visitList compiles the members of a tuple or array into a comma-joined list.
func (c *Compiler) visitList(names []string, args []ast.Node) (*Part, error) {
	items := make([]string, len(args))
	for i, a := range args {
		p, err := c.Visit(a)
		if err != nil {
			return nil, err
		}
		name := ""
		if i < len(names) {
			name = names[i]
		}
		switch c.clause {
		case ClauseSelect:
			if name == "" && p.named() {
				name = p.Field.Name
			}
			items[i] = c.aliased(p, name)
		default:
			items[i] = p.String()
		}
	}
	return textPart(strings.Join(items, ", "), nil, false), nil
}

func (c *Compiler) visitUnary(e *ast.UnaryExpr) (*Part, error) {
	if e.Op == ast.OpConvert && ast.IsClosed(e, c.row) {
		return c.fold(e)
	}

	p, err := c.Visit(e.Operand)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case ast.OpNot:
		if p == nil {
			return nil, nil
		}
		if p.isParam() {
			if _, ok := p.value().(bool); ok {
				if err := c.params.Toggle(p.Param.Name); err != nil {
					return nil, err
				}
				return p, nil
			}
			v, err := evalUnary(ast.OpNot, p.value(), nil)
			if err != nil {
				return nil, err
			}
			p.Param.Value = v
			return p, nil
		}
		p = c.normalizeBool(p)
		if isIntegral(p) {
			return textPart("~"+p.operand(), p.Type, false), nil
		}
		return textPart("NOT ("+p.Text+")", boolType, false), nil
	case ast.OpNegate:
		if p == nil {
			return nil, nil
		}
		if p.isParam() {
			v, err := evalUnary(ast.OpNegate, p.value(), nil)
			if err != nil {
				return nil, err
			}
			p.Param.Value = v
			p.Param.Type = reflect.TypeOf(v)
			p.Type = p.Param.Type
			return p, nil
		}
		return textPart("-"+p.operand(), p.Type, false), nil
	case ast.OpConvert:
		if p == nil {
			return nil, nil
		}
		converted := *p
		if e.DataType != nil {
			converted.Type = e.DataType
		}
		return &converted, nil
	}
	return nil, unsupported(e.String(), "unknown unary operator %s", e.Op)
}
