package compiler

import (
	"fmt"
	"reflect"

	"github.com/satishbabariya/sqlexpr/query/ast"
)

func (c *Compiler) visitBinary(e *ast.BinaryExpr) (*Part, error) {
	start := c.params.Len()
	left, err := c.Visit(e.Left)
	if err != nil {
		return nil, err
	}
	mid := c.params.Len()
	right, err := c.Visit(e.Right)
	if err != nil {
		return nil, err
	}
	spans := [2]span{{start, mid}, {mid, c.params.Len()}}

	if left.literal() && right.literal() {
		return c.foldLiterals(e.Op, left, right)
	}

	integral := isIntegral(left) || isIntegral(right)
	if e.Op.IsLogical() || ((e.Op == ast.OpBitAnd || e.Op == ast.OpBitOr) && !integral && (isBool(left) || isBool(right))) {
		return c.logical(e.Op, left, right, spans)
	}

	if err := c.coerceEnum(left, right); err != nil {
		return nil, err
	}
	if err := c.coerceEnum(right, left); err != nil {
		return nil, err
	}

	if left == nil || right == nil {
		switch e.Op {
		case ast.OpEqual, ast.OpNotEqual:
			return c.nullCompare(e.Op, left, right), nil
		case ast.OpCoalesce:
			if left == nil {
				return right, nil
			}
			return left, nil
		}
	}

	if e.Op == ast.OpAdd && (isString(left) || isString(right)) {
		return textPart(c.dialect.Concat(left.operand(), right.operand()), stringType, false), nil
	}

	op, err := c.dialect.BindOperator(e.Op, integral)
	if err != nil {
		return nil, err
	}

	if (e.Op == ast.OpModulo || e.Op == ast.OpCoalesce) && isWord(op) {
		return textPart(fmt.Sprintf("%s(%s, %s)", op, left.String(), right.String()), resultType(left, right), false), nil
	}

	text := left.operand() + " " + op + " " + right.operand()
	if e.Op.IsComparison() {
		return textPart(text, boolType, true), nil
	}
	if e.Op == ast.OpXor && !integral {
		return textPart("("+text+")", boolType, false), nil
	}
	return textPart("("+text+")", resultType(left, right), false), nil
}

// foldLiterals evaluates an operator over two known values. Both parameters leave the
// store and one parameter holding the result takes their place.
func (c *Compiler) foldLiterals(op ast.Op, left, right *Part) (*Part, error) {
	v, err := evalBinary(op, left.value(), right.value())
	if err != nil {
		return nil, err
	}
	if right.isParam() {
		c.params.Remove(right.Param.Name)
	}
	if left.isParam() {
		c.params.Remove(left.Param.Name)
	}
	return c.addLiteral(v, nil), nil
}

// span is the range of store positions a visited operand added.
type span struct{ from, to int }

// logical renders AND/OR. Boolean columns are compared with true; a literal boolean
// operand decides the result without emitting the other side.
func (c *Compiler) logical(op ast.Op, left, right *Part, spans [2]span) (*Part, error) {
	and := op == ast.OpAnd || op == ast.OpBitAnd

	for i, pair := range [2][2]*Part{{left, right}, {right, left}} {
		lit, other := pair[0], pair[1]
		if !lit.isParam() {
			continue
		}
		b, ok := lit.value().(bool)
		if !ok {
			continue
		}
		if b != and {
			// x AND false, x OR true: the other operand is never emitted.
			discarded := spans[1-i]
			c.params.discard(discarded.from, discarded.to)
			return lit, nil
		}
		// x AND true, x OR false
		c.params.Remove(lit.Param.Name)
		return c.normalizeBool(other), nil
	}

	left = c.normalizeBool(left)
	right = c.normalizeBool(right)

	spelled, err := c.dialect.BindOperator(op, false)
	if err != nil {
		return nil, err
	}
	return textPart("("+left.String()+" "+spelled+" "+right.String()+")", boolType, false), nil
}

// coerceEnum rewrites a parameter compared with an enum column into the column's
// stored representation.
func (c *Compiler) coerceEnum(col, lit *Part) error {
	if col == nil || lit == nil || col.Field == nil || col.Field.Enum == nil || !lit.isParam() {
		return nil
	}
	v, err := col.Field.Enum.Coerce(lit.Param.Value)
	if err != nil {
		return fmt.Errorf("%s: %w", col.Field.Name, err)
	}
	lit.Param.Value = v
	lit.Param.Type = reflect.TypeOf(v)
	lit.Type = lit.Param.Type
	return nil
}

// nullCompare renders comparison with NULL as IS [NOT] NULL, column first.
func (c *Compiler) nullCompare(op ast.Op, left, right *Part) *Part {
	subject := left
	if subject == nil {
		subject = right
	}
	if op == ast.OpEqual {
		return textPart(subject.operand()+" IS NULL", boolType, true)
	}
	return textPart(subject.operand()+" IS NOT NULL", boolType, true)
}

func resultType(left, right *Part) reflect.Type {
	switch {
	case isFloat(left):
		return left.Type
	case isFloat(right):
		return right.Type
	case left != nil && left.Type != nil:
		return left.Type
	case right != nil:
		return right.Type
	}
	return nil
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
