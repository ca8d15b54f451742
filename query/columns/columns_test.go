package columns_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlexpr/query/ast"
	"github.com/satishbabariya/sqlexpr/query/columns"
	"github.com/satishbabariya/sqlexpr/query/compiler"
	"github.com/satishbabariya/sqlexpr/query/sqlgen"
	"github.com/satishbabariya/sqlexpr/schema"
)

func TestConditions_BuildTrees(t *testing.T) {
	age := columns.Nullable[int]("Age")
	name := columns.String("Name")
	id := columns.Int("Id")

	tests := []struct {
		name string
		got  columns.Condition
		want func(x *ast.ParameterExpr) ast.Node
	}{
		{
			name: "all chains left",
			got:  columns.All(age.IsNotNull(), age.Gt(40), name.EndsWith("son")),
			want: func(x *ast.ParameterExpr) ast.Node {
				return ast.And(ast.And(ast.HasValue(x.Field("Age")), ast.Gt(x.Field("Age"), 40)), ast.EndsWith(x.Field("Name"), "son"))
			},
		},
		{
			name: "any",
			got:  columns.Any(id.Eq(1), age.IsNull()),
			want: func(x *ast.ParameterExpr) ast.Node {
				return ast.Or(ast.Eq(x.Field("Id"), 1), ast.Eq(x.Field("Age"), nil))
			},
		},
		{
			name: "between",
			got:  id.Between(3, 9),
			want: func(x *ast.ParameterExpr) ast.Node {
				return ast.And(ast.Ge(x.Field("Id"), 3), ast.Le(x.Field("Id"), 9))
			},
		},
		{
			name: "not in",
			got:  id.NotIn(1, 2),
			want: func(x *ast.ParameterExpr) ast.Node { return ast.Not(ast.In(x.Field("Id"), []int{1, 2})) },
		},
		{
			name: "contains",
			got:  name.Contains("im").Or(name.StartsWith("J")),
			want: func(x *ast.ParameterExpr) ast.Node {
				return ast.Or(ast.Contains(x.Field("Name"), "im"), ast.StartsWith(x.Field("Name"), "J"))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, ast.Lambda(tt.want), tt.got.Lambda())
		})
	}
}

func TestConditions_Compile(t *testing.T) {
	model := schema.NewModel("Person", "people",
		&schema.FieldDef{Name: "Id", Type: reflect.TypeOf(0)},
		&schema.FieldDef{Name: "Name", Type: reflect.TypeOf("")},
		&schema.FieldDef{Name: "Code", Alias: "person_code", Type: reflect.TypeOf("")},
	)
	d := sqlgen.NewPostgres()
	store := compiler.NewParamStore(d)

	cond := columns.Any(
		columns.All(columns.String("Name").StartsWith("J"), columns.Int("Id").Gt(5)),
		columns.String("Code").In("a", "b"),
	)
	text, err := compiler.New(d, model, store).VisitExpression(cond.Lambda(), compiler.ClauseCondition)
	require.NoError(t, err)
	assert.Equal(t, `((UPPER("Name") LIKE UPPER(@p0) AND "Id" > @p1) OR "person_code" IN (@p2,@p3))`, text)
	assert.Equal(t, []any{"J%", 5, "a", "b"}, store.Values())
}
