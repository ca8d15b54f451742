package compiler

import (
	"reflect"
	"testing"
	"time"

	"github.com/satishbabariya/sqlexpr/query/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	born := time.Date(1990, time.March, 4, 5, 6, 7, 0, time.UTC)
	age := 41

	tests := []struct {
		name string
		node ast.Node
		want any
	}{
		{"int arithmetic keeps int", ast.Mul(ast.Add(1, 2), 4), 12},
		{"mixed arithmetic is float", ast.Add(1, 0.5), 1.5},
		{"string concat", ast.Add("a", "b"), "ab"},
		{"string compare", ast.Lt("a", "b"), true},
		{"equality across int kinds", ast.Eq(int64(3), int8(3)), true},
		{"null equality", ast.Eq(nil, nil), true},
		{"null arithmetic", ast.Add(1, nil), nil},
		{"coalesce", ast.Coalesce(nil, "d"), "d"},
		{"logical short circuit", ast.Or(true, ast.Div(1, 0)), true},
		{"bool xor", ast.Xor(true, false), true},
		{"int shift", ast.Shl(1, 4), 16},
		{"not", ast.Not(false), true},
		{"time member", ast.Year(ast.Const(born)), 1990},
		{"pointer has value", ast.HasValue(ast.Const(&age)), true},
		{"nil pointer has value", ast.HasValue(ast.TypedConst((*int)(nil), reflect.TypeOf((*int)(nil)))), false},
		{"map member", ast.Member(ast.Const(map[string]any{"k": 9}), "k"), 9},
		{"string length", ast.Length(ast.Const("héllo")), 5},
		{"substring", ast.Substring(ast.Const("hello"), 1, 3), "ell"},
		{"array", ast.NewArray(1, "a"), []any{1, "a"}},
		{"collection contains", ast.ContainsIn([]int{1, 2}, ast.Const(2)), true},
		{"math max", ast.Call(nil, "Max", ast.DeclMath, 3, 9), int64(9)},
		{"convert to string", ast.Convert(12, reflect.TypeOf("")), "12"},
		{"time compare", ast.Gt(ast.Const(born.Add(time.Hour)), ast.Const(born)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evaluate(tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	_, err := evaluate(ast.Div(1, 0))
	assert.ErrorIs(t, err, ErrEvaluation)

	_, err = evaluate(ast.Sum(ast.Const(1)))
	assert.ErrorIs(t, err, ErrUnsupportedExpression)

	_, err = evaluate(&ast.ParameterExpr{Name: "q"})
	assert.ErrorIs(t, err, ErrUnsupportedExpression)

	_, err = evaluate(ast.Member(ast.Const(struct{ A int }{}), "B"))
	assert.ErrorIs(t, err, ErrEvaluation)
}
