// Package columns provides typed column handles that build filter expressions without
// writing lambdas by hand:
//
//	age := columns.Nullable[int]("Age")
//	name := columns.String("Name")
//	q.Where(columns.All(age.IsNotNull(), age.Gt(40), name.StartsWith("J")).Lambda())
package columns

import (
	"time"

	"github.com/satishbabariya/sqlexpr/query/ast"
)

// Condition is a predicate over one row.
type Condition func(row *ast.ParameterExpr) ast.Node

// Lambda wraps the condition as a filter expression.
func (c Condition) Lambda() *ast.LambdaExpr { return ast.Lambda(c) }

// And returns c AND other.
func (c Condition) And(other Condition) Condition {
	return func(row *ast.ParameterExpr) ast.Node { return ast.And(c(row), other(row)) }
}

// Or returns c OR other.
func (c Condition) Or(other Condition) Condition {
	return func(row *ast.ParameterExpr) ast.Node { return ast.Or(c(row), other(row)) }
}

// Not negates c.
func (c Condition) Not() Condition {
	return func(row *ast.ParameterExpr) ast.Node { return ast.Not(c(row)) }
}

// All joins conditions with AND.
func All(conds ...Condition) Condition { return fold(conds, ast.And) }

// Any joins conditions with OR.
func Any(conds ...Condition) Condition { return fold(conds, ast.Or) }

func fold(conds []Condition, join func(first, second any, rest ...any) *ast.BinaryExpr) Condition {
	return func(row *ast.ParameterExpr) ast.Node {
		if len(conds) == 0 {
			return ast.Const(true)
		}
		acc := conds[0](row)
		for _, c := range conds[1:] {
			acc = join(acc, c(row))
		}
		return acc
	}
}

// Column is a handle on a model field of Go type T.
type Column[T any] struct {
	name string
}

// Of returns a handle on the field name.
func Of[T any](name string) Column[T] { return Column[T]{name: name} }

func Int(name string) Column[int] { return Of[int](name) }
func Int64(name string) Column[int64] { return Of[int64](name) }
func Float(name string) Column[float64] { return Of[float64](name) }
func Bool(name string) Column[bool] { return Of[bool](name) }
func Time(name string) Column[time.Time] { return Of[time.Time](name) }
func String(name string) StringColumn { return StringColumn{Column: Of[string](name)} }
func Nullable[T any](name string) NullColumn[T] { return NullColumn[T]{Column: Of[T](name)} }

// Name returns the field name.
func (c Column[T]) Name() string { return c.name }

// Ref returns the member access on row.
func (c Column[T]) Ref(row *ast.ParameterExpr) ast.Node { return row.Field(c.name) }

func (c Column[T]) cmp(op func(l, r any) *ast.BinaryExpr, v T) Condition {
	return func(row *ast.ParameterExpr) ast.Node { return op(c.Ref(row), v) }
}

func (c Column[T]) Eq(v T) Condition { return c.cmp(ast.Eq, v) }
func (c Column[T]) Ne(v T) Condition { return c.cmp(ast.Ne, v) }
func (c Column[T]) Gt(v T) Condition { return c.cmp(ast.Gt, v) }
func (c Column[T]) Ge(v T) Condition { return c.cmp(ast.Ge, v) }
func (c Column[T]) Lt(v T) Condition { return c.cmp(ast.Lt, v) }
func (c Column[T]) Le(v T) Condition { return c.cmp(ast.Le, v) }

// In matches any of values. An empty list matches nothing.
func (c Column[T]) In(values ...T) Condition {
	return func(row *ast.ParameterExpr) ast.Node { return ast.In(c.Ref(row), values) }
}

// NotIn is the negation of In.
func (c Column[T]) NotIn(values ...T) Condition { return c.In(values...).Not() }

// Between matches lo <= c <= hi.
func (c Column[T]) Between(lo, hi T) Condition { return c.Ge(lo).And(c.Le(hi)) }

// StringColumn adds text matching to a string column.
type StringColumn struct {
	Column[string]
}

func (c StringColumn) text(method string, v string) Condition {
	return func(row *ast.ParameterExpr) ast.Node {
		return ast.Call(c.Ref(row), method, ast.DeclString, v)
	}
}

func (c StringColumn) Contains(v string) Condition { return c.text("Contains", v) }
func (c StringColumn) StartsWith(v string) Condition { return c.text("StartsWith", v) }
func (c StringColumn) EndsWith(v string) Condition { return c.text("EndsWith", v) }

// NullColumn is a column whose field is nullable. Comparisons apply to the value.
type NullColumn[T any] struct {
	Column[T]
}

func (c NullColumn[T]) IsNull() Condition {
	return func(row *ast.ParameterExpr) ast.Node { return ast.Eq(c.Ref(row), nil) }
}

func (c NullColumn[T]) IsNotNull() Condition {
	return func(row *ast.ParameterExpr) ast.Node { return ast.HasValue(c.Ref(row)) }
}
