package compiler

import (
	"strings"

	"github.com/satishbabariya/sqlexpr/query/ast"
)

var stringMethods = map[string]bool{
	"Trim":       true,
	"ToUpper":    true,
	"ToLower":    true,
	"StartsWith": true,
	"EndsWith":   true,
	"Contains":   true,
	"Substring":  true,
	"Length":     true,
}

var aggregates = map[string]string{
	"Sum":   "SUM",
	"Count": "COUNT",
	"Min":   "MIN",
	"Max":   "MAX",
	"Avg":   "AVG",
}

func (c *Compiler) visitCall(e *ast.CallExpr) (*Part, error) {
	switch e.Declaring {
	case ast.DeclSql:
		return c.visitSql(e)
	case ast.DeclEnumerable:
		if e.Method == "Contains" && len(e.Args) == 1 && ast.IsClosed(e.Target, c.row) && !ast.IsClosed(e.Args[0], c.row) {
			collection, err := evaluate(e.Target)
			if err != nil {
				return nil, err
			}
			return c.in(e.Args[0], []any{collection})
		}
	case ast.DeclString:
		if stringMethods[e.Method] && e.Target != nil && !ast.IsClosed(e.Target, c.row) {
			return c.visitString(e)
		}
	}

	if ast.IsClosed(e, c.row) {
		return c.fold(e)
	}
	return nil, unsupported(e.String(), "method %s is not recognized", e.Method)
}

func (c *Compiler) visitSql(e *ast.CallExpr) (*Part, error) {
	switch e.Method {
	case "In":
		if len(e.Args) < 1 {
			return nil, unsupported(e.String(), "In requires a subject")
		}
		values := make([]any, 0, len(e.Args)-1)
		for _, a := range e.Args[1:] {
			if !ast.IsClosed(a, c.row) {
				return nil, unsupported(e.String(), "In values must not reference the row")
			}
			v, err := evaluate(a)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return c.in(e.Args[0], values)
	case "Desc":
		p, err := c.single(e)
		if err != nil {
			return nil, err
		}
		return textPart(p.String()+" DESC", p.Type, false), nil
	case "As":
		if len(e.Args) != 2 {
			return nil, unsupported(e.String(), "As requires an expression and an alias")
		}
		p, err := c.Visit(e.Args[0])
		if err != nil {
			return nil, err
		}
		alias, err := evaluate(e.Args[1])
		if err != nil {
			return nil, err
		}
		name, ok := alias.(string)
		if !ok || name == "" {
			return nil, unsupported(e.String(), "alias must be a non-empty string")
		}
		return textPart(p.String()+" AS "+c.dialect.QuoteIdentifier(name), p.Type, false), nil
	case "Count":
		if len(e.Args) == 0 {
			return textPart("COUNT(*)", intType, false), nil
		}
	case "CountDistinct":
		p, err := c.single(e)
		if err != nil {
			return nil, err
		}
		return textPart("COUNT(DISTINCT "+p.String()+")", intType, false), nil
	}

	if fn, ok := aggregates[e.Method]; ok {
		p, err := c.single(e)
		if err != nil {
			return nil, err
		}
		t := p.Type
		if fn == "COUNT" {
			t = intType
		}
		return textPart(fn+"("+p.String()+")", t, false), nil
	}
	return nil, unsupported(e.String(), "unknown helper Sql.%s", e.Method)
}

// single compiles the only argument of a helper call.
func (c *Compiler) single(e *ast.CallExpr) (*Part, error) {
	if len(e.Args) != 1 {
		return nil, unsupported(e.String(), "%s takes one argument", e.Method)
	}
	p, err := c.Visit(e.Args[0])
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, unsupported(e.String(), "%s of NULL", e.Method)
	}
	return p, nil
}

// in renders subject IN (...) over the flattened values. An empty set renders IN (NULL),
// which matches nothing.
func (c *Compiler) in(subject ast.Node, values []any) (*Part, error) {
	p, err := c.Visit(subject)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, unsupported(subject.String(), "IN over NULL")
	}

	flat := Flatten(values...)
	if len(flat) == 0 {
		return textPart(p.operand()+" IN (NULL)", boolType, true), nil
	}

	names := make([]string, len(flat))
	for i, v := range flat {
		lit := c.addLiteral(v, nil)
		if err := c.coerceEnum(p, lit); err != nil {
			return nil, err
		}
		names[i] = lit.Text
	}
	return textPart(p.operand()+" IN ("+strings.Join(names, ",")+")", boolType, true), nil
}

func (c *Compiler) visitString(e *ast.CallExpr) (*Part, error) {
	target, err := c.Visit(e.Target)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, unsupported(e.String(), "%s on NULL", e.Method)
	}

	args := make([]any, len(e.Args))
	for i, a := range e.Args {
		if !ast.IsClosed(a, c.row) {
			return nil, unsupported(e.String(), "arguments of %s must not reference the row", e.Method)
		}
		v, err := evaluate(a)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, unsupported(e.String(), "NULL argument to %s", e.Method)
		}
		args[i] = v
	}

	if e.Method == "Substring" && len(args) > 0 {
		start, ok := toInt(args[0])
		if !ok {
			return nil, unsupported(e.String(), "substring start must be an integer")
		}
		args[0] = start + 1
	}

	text, err := c.dialect.StringFunction(e.Method, target.Text, c.params, args)
	if err != nil {
		return nil, err
	}

	switch e.Method {
	case "StartsWith", "EndsWith", "Contains":
		return textPart(text, boolType, true), nil
	case "Length":
		return textPart(text, intType, false), nil
	}
	return textPart(text, stringType, false), nil
}
