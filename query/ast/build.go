package ast

import (
	"reflect"
)

// DefaultParamName is the row parameter name used by Lambda.
const DefaultParamName = "x"

// Lambda captures fn as data. fn receives the row parameter and returns the body; it is
// invoked exactly once, at capture time.
func Lambda(fn func(row *ParameterExpr) Node) *LambdaExpr {
	return LambdaNamed(DefaultParamName, fn)
}

// LambdaNamed is like Lambda with an explicit parameter name.
func LambdaNamed(name string, fn func(row *ParameterExpr) Node) *LambdaExpr {
	row := &ParameterExpr{Name: name}
	return &LambdaExpr{Param: row, Body: fn(row)}
}

// Field accesses a member of the row.
func (p *ParameterExpr) Field(name string) *MemberExpr {
	return &MemberExpr{Target: p, Name: name}
}

// Member accesses name off target.
func Member(target Node, name string) *MemberExpr {
	return &MemberExpr{Target: target, Name: name}
}

// Const wraps a literal. Its declared type is the dynamic type of v.
func Const(v any) *ConstantExpr {
	return &ConstantExpr{Value: v, DataType: reflect.TypeOf(v)}
}

// TypedConst wraps a literal with an explicit declared type.
func TypedConst(v any, t reflect.Type) *ConstantExpr {
	return &ConstantExpr{Value: v, DataType: t}
}

// Null is the absent value.
func Null() *ConstantExpr {
	return &ConstantExpr{}
}

// Var captures a caller variable by value. Dereferencing happens once, at capture time.
func Var[T any](v *T) *ConstantExpr {
	return TypedConst(*v, reflect.TypeOf((*T)(nil)).Elem())
}

// nodeOf lifts plain Go values into constants so combinators accept either.
func nodeOf(v any) Node {
	switch n := v.(type) {
	case Node:
		return n
	case nil:
		return Null()
	}
	return Const(v)
}

func nodesOf(vs []any) []Node {
	out := make([]Node, len(vs))
	for i, v := range vs {
		out[i] = nodeOf(v)
	}
	return out
}

// Binary builds l op r.
func Binary(op Op, l, r any) *BinaryExpr {
	return &BinaryExpr{Op: op, Left: nodeOf(l), Right: nodeOf(r)}
}

func Eq(l, r any) *BinaryExpr       { return Binary(OpEqual, l, r) }
func Ne(l, r any) *BinaryExpr       { return Binary(OpNotEqual, l, r) }
func Lt(l, r any) *BinaryExpr       { return Binary(OpLessThan, l, r) }
func Le(l, r any) *BinaryExpr       { return Binary(OpLessOrEqual, l, r) }
func Gt(l, r any) *BinaryExpr       { return Binary(OpGreaterThan, l, r) }
func Ge(l, r any) *BinaryExpr       { return Binary(OpGreaterOrEqual, l, r) }
func Add(l, r any) *BinaryExpr      { return Binary(OpAdd, l, r) }
func Sub(l, r any) *BinaryExpr      { return Binary(OpSubtract, l, r) }
func Mul(l, r any) *BinaryExpr      { return Binary(OpMultiply, l, r) }
func Div(l, r any) *BinaryExpr      { return Binary(OpDivide, l, r) }
func Mod(l, r any) *BinaryExpr      { return Binary(OpModulo, l, r) }
func BitAnd(l, r any) *BinaryExpr   { return Binary(OpBitAnd, l, r) }
func BitOr(l, r any) *BinaryExpr    { return Binary(OpBitOr, l, r) }
func Xor(l, r any) *BinaryExpr      { return Binary(OpXor, l, r) }
func Shl(l, r any) *BinaryExpr      { return Binary(OpLeftShift, l, r) }
func Shr(l, r any) *BinaryExpr      { return Binary(OpRightShift, l, r) }
func Coalesce(l, r any) *BinaryExpr { return Binary(OpCoalesce, l, r) }

// And folds its operands left to right with AND.
func And(first, second any, rest ...any) *BinaryExpr {
	return chain(OpAnd, first, second, rest)
}

// Or folds its operands left to right with OR.
func Or(first, second any, rest ...any) *BinaryExpr {
	return chain(OpOr, first, second, rest)
}

func chain(op Op, first, second any, rest []any) *BinaryExpr {
	out := Binary(op, first, second)
	for _, r := range rest {
		out = Binary(op, out, r)
	}
	return out
}

// Not negates a boolean operand.
func Not(x any) *UnaryExpr {
	return &UnaryExpr{Op: OpNot, Operand: nodeOf(x)}
}

// Negate is arithmetic negation.
func Negate(x any) *UnaryExpr {
	return &UnaryExpr{Op: OpNegate, Operand: nodeOf(x)}
}

// Convert converts x to t.
func Convert(x any, t reflect.Type) *UnaryExpr {
	return &UnaryExpr{Op: OpConvert, Operand: nodeOf(x), DataType: t}
}

// Call invokes method on target. A nil target makes a static call on declaring.
func Call(target Node, method string, declaring Declaring, args ...any) *CallExpr {
	return &CallExpr{Target: target, Method: method, Declaring: declaring, Args: nodesOf(args)}
}

// HasValue reports whether a nullable member carries a value.
func HasValue(x Node) *MemberExpr { return Member(x, "HasValue") }

// Value unwraps a nullable member.
func Value(x Node) *MemberExpr { return Member(x, "Value") }

// Length is the character length of a string member.
func Length(x Node) *MemberExpr { return Member(x, "Length") }

func Year(x Node) *MemberExpr   { return Member(x, "Year") }
func Month(x Node) *MemberExpr  { return Member(x, "Month") }
func Day(x Node) *MemberExpr    { return Member(x, "Day") }
func Hour(x Node) *MemberExpr   { return Member(x, "Hour") }
func Minute(x Node) *MemberExpr { return Member(x, "Minute") }
func Second(x Node) *MemberExpr { return Member(x, "Second") }

func StartsWith(x Node, s any) *CallExpr { return Call(x, "StartsWith", DeclString, s) }
func EndsWith(x Node, s any) *CallExpr   { return Call(x, "EndsWith", DeclString, s) }
func Contains(x Node, s any) *CallExpr   { return Call(x, "Contains", DeclString, s) }
func ToUpper(x Node) *CallExpr           { return Call(x, "ToUpper", DeclString) }
func ToLower(x Node) *CallExpr           { return Call(x, "ToLower", DeclString) }
func Trim(x Node) *CallExpr              { return Call(x, "Trim", DeclString) }

// Substring takes a zero-based start offset and an optional length.
func Substring(x Node, start any, length ...any) *CallExpr {
	args := append([]any{start}, length...)
	return Call(x, "Substring", DeclString, args...)
}

// In tests x for membership in values. Nested collections are flattened.
func In(x Node, values ...any) *CallExpr {
	return Call(nil, "In", DeclSql, append([]any{x}, values...)...)
}

// ContainsIn is collection.Contains(item) on a closed collection.
func ContainsIn(collection any, item Node) *CallExpr {
	return Call(nodeOf(collection), "Contains", DeclEnumerable, item)
}

// Desc marks an ordering key as descending.
func Desc(x Node) *CallExpr { return Call(nil, "Desc", DeclSql, x) }

// As aliases a projected expression.
func As(x Node, alias string) *CallExpr { return Call(nil, "As", DeclSql, x, alias) }

func Sum(x Node) *CallExpr           { return Call(nil, "Sum", DeclSql, x) }
func Min(x Node) *CallExpr           { return Call(nil, "Min", DeclSql, x) }
func Max(x Node) *CallExpr           { return Call(nil, "Max", DeclSql, x) }
func Avg(x Node) *CallExpr           { return Call(nil, "Avg", DeclSql, x) }
func CountDistinct(x Node) *CallExpr { return Call(nil, "CountDistinct", DeclSql, x) }

// Count is COUNT(x), or COUNT(*) when x is nil.
func Count(x Node) *CallExpr {
	if x == nil {
		return Call(nil, "Count", DeclSql)
	}
	return Call(nil, "Count", DeclSql, x)
}

// New builds a projection tuple. Members keep their own names.
func New(args ...Node) *NewExpr {
	names := make([]string, len(args))
	for i, a := range args {
		if m, ok := a.(*MemberExpr); ok {
			names[i] = m.Name
		}
	}
	return &NewExpr{Names: names, Args: args}
}

// NewNamed builds a projection tuple with explicit member names.
func NewNamed(names []string, args ...Node) *NewExpr {
	return &NewExpr{Names: names, Args: args}
}

// NewArray builds an array of nodes.
func NewArray(elems ...any) *NewArrayExpr {
	return &NewArrayExpr{Elements: nodesOf(elems)}
}
