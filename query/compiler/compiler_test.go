package compiler_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/satishbabariya/sqlexpr/query/ast"
	"github.com/satishbabariya/sqlexpr/query/compiler"
	"github.com/satishbabariya/sqlexpr/query/sqlgen"
	"github.com/satishbabariya/sqlexpr/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Status int

const (
	Active Status = iota
	Suspended
)

func personModel() *schema.ModelDef {
	var (
		nick *string
		age  *int
		born *time.Time
	)
	return schema.NewModel("Person", "people",
		&schema.FieldDef{Name: "Id", Type: reflect.TypeOf(0), PrimaryKey: true, AutoIncrement: true},
		&schema.FieldDef{Name: "Name", Type: reflect.TypeOf("")},
		&schema.FieldDef{Name: "Age", Type: reflect.TypeOf(age)},
		&schema.FieldDef{Name: "Active", Type: reflect.TypeOf(false)},
		&schema.FieldDef{Name: "Status", Type: reflect.TypeOf(Active), Enum: &schema.EnumDef{
			Name:   "Status",
			Values: []schema.EnumValue{{Name: "Active", Value: 0}, {Name: "Suspended", Value: 1}},
		}},
		&schema.FieldDef{Name: "Born", Type: reflect.TypeOf(time.Time{})},
		&schema.FieldDef{Name: "BornOn", Type: reflect.TypeOf(born)},
		&schema.FieldDef{Name: "Nick", Type: reflect.TypeOf(nick)},
		&schema.FieldDef{Name: "FullName", Type: reflect.TypeOf(""), Computed: true, Expression: "first_name || ' ' || last_name"},
		&schema.FieldDef{Name: "Code", Alias: "person_code", Type: reflect.TypeOf("")},
	)
}

func compile(t *testing.T, d sqlgen.Dialect, l *ast.LambdaExpr, clause compiler.Clause) (string, *compiler.ParamStore, error) {
	t.Helper()
	store := compiler.NewParamStore(d)
	c := compiler.New(d, personModel(), store)
	text, err := c.VisitExpression(l, clause)
	return text, store, err
}

func where(fn func(p *ast.ParameterExpr) ast.Node) *ast.LambdaExpr {
	return ast.LambdaNamed("p", fn)
}

func TestVisitExpression_Conditions(t *testing.T) {
	pg := sqlgen.NewPostgres()

	tests := []struct {
		name     string
		dialect  sqlgen.Dialect
		expr     *ast.LambdaExpr
		want     string
		wantArgs []any
	}{
		{
			name: "has value and value",
			expr: where(func(p *ast.ParameterExpr) ast.Node {
				return ast.And(ast.HasValue(p.Field("Age")), ast.Gt(ast.Value(p.Field("Age")), 40))
			}),
			want:     `("Age" IS NOT NULL AND "Age" > @p0)`,
			wantArgs: []any{40},
		},
		{
			name: "closed collection contains",
			expr: where(func(p *ast.ParameterExpr) ast.Node {
				return ast.ContainsIn([]int{1, 2, 3}, p.Field("Id"))
			}),
			want:     `"Id" IN (@p0,@p1,@p2)`,
			wantArgs: []any{1, 2, 3},
		},
		{
			name: "empty collection",
			expr: where(func(p *ast.ParameterExpr) ast.Node {
				return ast.ContainsIn([]int{}, p.Field("Id"))
			}),
			want:     `"Id" IN (NULL)`,
			wantArgs: []any{},
		},
		{
			name: "sql in flattens nested values",
			expr: where(func(p *ast.ParameterExpr) ast.Node {
				return ast.In(p.Field("Id"), []any{1, []int{2, 3}, nil})
			}),
			want:     `"Id" IN (@p0,@p1,@p2)`,
			wantArgs: []any{1, 2, 3},
		},
		{
			name: "equals null",
			expr: where(func(p *ast.ParameterExpr) ast.Node {
				return ast.Eq(p.Field("Nick"), nil)
			}),
			want:     `"Nick" IS NULL`,
			wantArgs: []any{},
		},
		{
			name: "null not equals puts column first",
			expr: where(func(p *ast.ParameterExpr) ast.Node {
				return ast.Ne(nil, p.Field("Nick"))
			}),
			want:     `"Nick" IS NOT NULL`,
			wantArgs: []any{},
		},
		{
			name:     "bare boolean column",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return p.Field("Active") }),
			want:     `"Active" = @p0`,
			wantArgs: []any{true},
		},
		{
			name:     "constant folding",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Gt(5, 3) }),
			want:     `@p0`,
			wantArgs: []any{true},
		},
		{
			name: "and false short-circuits",
			expr: where(func(p *ast.ParameterExpr) ast.Node {
				return ast.And(p.Field("Active"), false)
			}),
			want:     `@p0`,
			wantArgs: []any{false},
		},
		{
			name: "and true drops the literal",
			expr: where(func(p *ast.ParameterExpr) ast.Node {
				return ast.And(ast.Gt(p.Field("Id"), 1), true)
			}),
			want:     `"Id" > @p0`,
			wantArgs: []any{1},
		},
		{
			name: "or true short-circuits",
			expr: where(func(p *ast.ParameterExpr) ast.Node {
				return ast.Or(ast.Eq(p.Field("Name"), "x"), true)
			}),
			want:     `@p1`,
			wantArgs: []any{true},
		},
		{
			name: "and false drops the discarded operand's parameters",
			expr: where(func(p *ast.ParameterExpr) ast.Node {
				return ast.And(ast.Gt(p.Field("Id"), 5), false)
			}),
			want:     `@p1`,
			wantArgs: []any{false},
		},
		{
			name: "or true on the left drops the right operand",
			expr: where(func(p *ast.ParameterExpr) ast.Node {
				return ast.Or(true, ast.And(ast.Eq(p.Field("Name"), "x"), ast.Lt(p.Field("Id"), 3)))
			}),
			want:     `@p0`,
			wantArgs: []any{true},
		},
		{
			name: "boolean column inside or",
			expr: where(func(p *ast.ParameterExpr) ast.Node {
				return ast.Or(p.Field("Active"), ast.Eq(p.Field("Name"), "x"))
			}),
			want:     `("Active" = @p1 OR "Name" = @p0)`,
			wantArgs: []any{"x", true},
		},
		{
			name:     "not on literal toggles",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Not(true) }),
			want:     `@p0`,
			wantArgs: []any{false},
		},
		{
			name:     "not on boolean column",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Not(p.Field("Active")) }),
			want:     `NOT ("Active" = @p0)`,
			wantArgs: []any{true},
		},
		{
			name:     "not on comparison",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Not(ast.Gt(p.Field("Id"), 3)) }),
			want:     `NOT ("Id" > @p0)`,
			wantArgs: []any{3},
		},
		{
			name:     "enum coerced to name",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(p.Field("Status"), Suspended) }),
			want:     `"Status" = @p0`,
			wantArgs: []any{"Suspended"},
		},
		{
			name:     "enum coerced from int",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(1, p.Field("Status")) }),
			want:     `@p0 = "Status"`,
			wantArgs: []any{"Suspended"},
		},
		{
			name:     "enum in list",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.In(p.Field("Status"), []Status{Active, Suspended}) }),
			want:     `"Status" IN (@p0,@p1)`,
			wantArgs: []any{"Active", "Suspended"},
		},
		{
			name:     "computed column",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(p.Field("FullName"), "Jim Bob") }),
			want:     `(first_name || ' ' || last_name) = @p0`,
			wantArgs: []any{"Jim Bob"},
		},
		{
			name:     "aliased column",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(p.Field("code"), "A") }),
			want:     `"person_code" = @p0`,
			wantArgs: []any{"A"},
		},
		{
			name:     "starts with",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.StartsWith(p.Field("Name"), "Jim") }),
			want:     `UPPER("Name") LIKE UPPER(@p0)`,
			wantArgs: []any{"Jim%"},
		},
		{
			name:     "substring is one-based",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(ast.Substring(p.Field("Name"), 2, 3), "abc") }),
			want:     `SUBSTRING("Name", @p0, @p1) = @p2`,
			wantArgs: []any{int64(3), 3, "abc"},
		},
		{
			name:     "length",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Gt(ast.Length(p.Field("Name")), 3) }),
			want:     `CHAR_LENGTH("Name") > @p0`,
			wantArgs: []any{3},
		},
		{
			name:     "date part",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(ast.Year(p.Field("Born")), 2000) }),
			want:     `EXTRACT(YEAR FROM "Born") = @p0`,
			wantArgs: []any{2000},
		},
		{
			name:     "date part through value",
			dialect:  sqlgen.NewSQLServer(),
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(ast.Month(ast.Value(p.Field("BornOn"))), 6) }),
			want:     `DATEPART(month, [BornOn]) = @p0`,
			wantArgs: []any{6},
		},
		{
			name:     "modulo as function",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(ast.Mod(p.Field("Id"), 2), 0) }),
			want:     `MOD("Id", @p0) = @p1`,
			wantArgs: []any{2, 0},
		},
		{
			name:     "modulo as operator",
			dialect:  sqlgen.NewSQLServer(),
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(ast.Mod(p.Field("Id"), 2), 0) }),
			want:     `([Id] % @p0) = @p1`,
			wantArgs: []any{2, 0},
		},
		{
			name:     "coalesce",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(ast.Coalesce(p.Field("Nick"), "none"), "x") }),
			want:     `COALESCE("Nick", @p0) = @p1`,
			wantArgs: []any{"none", "x"},
		},
		{
			name:     "string concat",
			dialect:  sqlgen.NewMySQL(),
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(ast.Add(p.Field("Name"), "!"), "Jim!") }),
			want:     "CONCAT(`Name`, @p0) = @p1",
			wantArgs: []any{"!", "Jim!"},
		},
		{
			name:     "arithmetic",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Ge(ast.Add(p.Field("Id"), 1), 10) }),
			want:     `("Id" + @p0) >= @p1`,
			wantArgs: []any{1, 10},
		},
		{
			name:     "comparison as operand",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(ast.Gt(p.Field("Id"), 1), p.Field("Active")) }),
			want:     `("Id" > @p0) = "Active"`,
			wantArgs: []any{1},
		},
		{
			name: "closed member of captured struct",
			expr: where(func(p *ast.ParameterExpr) ast.Node {
				filter := struct{ Min int }{Min: 30}
				return ast.Gt(p.Field("Id"), ast.Member(ast.Const(filter), "Min"))
			}),
			want:     `"Id" > @p0`,
			wantArgs: []any{30},
		},
		{
			name:     "closed math call",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Gt(p.Field("Id"), ast.Call(nil, "Abs", ast.DeclMath, -5)) }),
			want:     `"Id" > @p0`,
			wantArgs: []any{int64(5)},
		},
		{
			name:     "closed conversion",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(p.Field("Id"), ast.Convert(int64(5), reflect.TypeOf(0))) }),
			want:     `"Id" = @p0`,
			wantArgs: []any{5},
		},
		{
			name:     "negated literal",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(p.Field("Id"), ast.Negate(5)) }),
			want:     `"Id" = @p0`,
			wantArgs: []any{int64(-5)},
		},
		{
			name:     "closed string call",
			expr:     where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(p.Field("Name"), ast.ToUpper(ast.Const("jim"))) }),
			want:     `"Name" = @p0`,
			wantArgs: []any{"JIM"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.dialect
			if d == nil {
				d = pg
			}
			got, store, err := compile(t, d, tt.expr, compiler.ClauseCondition)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantArgs, store.Values())
			assert.NoError(t, store.Validate(got))
		})
	}
}

func TestVisitExpression_Deterministic(t *testing.T) {
	d := sqlgen.NewPostgres()
	expr := where(func(p *ast.ParameterExpr) ast.Node {
		return ast.Or(
			ast.And(ast.StartsWith(p.Field("Name"), "J"), ast.Gt(p.Field("Id"), ast.Add(2, 3))),
			ast.ContainsIn([]string{"a", "b"}, p.Field("Code")),
		)
	})

	first, s1, err := compile(t, d, expr, compiler.ClauseCondition)
	require.NoError(t, err)
	second, s2, err := compile(t, d, expr, compiler.ClauseCondition)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, s1.Args(), s2.Args())
	assert.Equal(t, `((UPPER("Name") LIKE UPPER(@p0) AND "Id" > @p1) OR "person_code" IN (@p2,@p3))`, first)
	assert.Equal(t, []any{"J%", 5, "a", "b"}, s1.Values())
}

func TestVisitExpression_ContainsMatchesSqlIn(t *testing.T) {
	d := sqlgen.NewSQLite()
	ids := []int{4, 5, 6}

	viaContains, s1, err := compile(t, d, where(func(p *ast.ParameterExpr) ast.Node {
		return ast.ContainsIn(ids, p.Field("Id"))
	}), compiler.ClauseCondition)
	require.NoError(t, err)

	viaIn, s2, err := compile(t, d, where(func(p *ast.ParameterExpr) ast.Node {
		return ast.In(p.Field("Id"), ids)
	}), compiler.ClauseCondition)
	require.NoError(t, err)

	assert.Equal(t, viaContains, viaIn)
	assert.Equal(t, s1.Values(), s2.Values())
}

func TestVisitExpression_StartsWithBindsOneParameter(t *testing.T) {
	for _, d := range []sqlgen.Dialect{sqlgen.NewPostgres(), sqlgen.NewMySQL(), sqlgen.NewSQLite(), sqlgen.NewSQLServer()} {
		t.Run(d.Name(), func(t *testing.T) {
			got, store, err := compile(t, d, where(func(p *ast.ParameterExpr) ast.Node {
				return ast.StartsWith(p.Field("Name"), "Jim")
			}), compiler.ClauseCondition)
			require.NoError(t, err)
			assert.Contains(t, got, d.QuoteIdentifier("Name"))
			require.Equal(t, 1, store.Len())
			assert.Equal(t, "Jim%", store.Values()[0])
		})
	}
}

func TestVisitExpression_Errors(t *testing.T) {
	tests := []struct {
		name    string
		dialect sqlgen.Dialect
		expr    *ast.LambdaExpr
		target  error
	}{
		{
			name:   "unknown member",
			expr:   where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(p.Field("Nope"), 1) }),
			target: schema.ErrUnresolvedColumn,
		},
		{
			name:   "unknown string method",
			expr:   where(func(p *ast.ParameterExpr) ast.Node { return ast.Call(p.Field("Name"), "PadLeft", ast.DeclString, 3) }),
			target: compiler.ErrUnsupportedExpression,
		},
		{
			name:   "closed call outside the evaluator",
			expr:   where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(p.Field("Born"), ast.Call(nil, "Now", "DateTime")) }),
			target: compiler.ErrUnsupportedExpression,
		},
		{
			name:   "string method with row argument",
			expr:   where(func(p *ast.ParameterExpr) ast.Node { return ast.StartsWith(p.Field("Name"), p.Field("Code")) }),
			target: compiler.ErrUnsupportedExpression,
		},
		{
			name:    "xor on sqlite",
			dialect: sqlgen.NewSQLite(),
			expr:    where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(ast.Xor(p.Field("Id"), 1), 0) }),
			target:  sqlgen.ErrUnsupportedOperator,
		},
		{
			name:    "shift on sql server",
			dialect: sqlgen.NewSQLServer(),
			expr:    where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(ast.Shl(p.Field("Id"), 1), 0) }),
			target:  sqlgen.ErrUnsupportedOperator,
		},
		{
			name:   "invalid enum literal",
			expr:   where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(p.Field("Status"), 7) }),
			target: schema.ErrInvalidEnumValue,
		},
		{
			name:   "row used as a value",
			expr:   where(func(p *ast.ParameterExpr) ast.Node { return ast.Eq(p, 1) }),
			target: compiler.ErrUnsupportedExpression,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.dialect
			if d == nil {
				d = sqlgen.NewPostgres()
			}
			got, _, err := compile(t, d, tt.expr, compiler.ClauseCondition)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.Empty(t, got)
		})
	}
}

func TestVisitExpression_UnsupportedNamesConstruct(t *testing.T) {
	_, _, err := compile(t, sqlgen.NewPostgres(), where(func(p *ast.ParameterExpr) ast.Node {
		return ast.Call(p.Field("Name"), "PadLeft", ast.DeclString, 3)
	}), compiler.ClauseCondition)

	var ue *compiler.UnsupportedExpressionError
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Construct, "PadLeft")
}

func TestVisitExpression_Projections(t *testing.T) {
	d := sqlgen.NewPostgres()

	tests := []struct {
		name   string
		clause compiler.Clause
		expr   *ast.LambdaExpr
		want   string
	}{
		{
			name:   "select aliases renamed columns",
			clause: compiler.ClauseSelect,
			expr: where(func(p *ast.ParameterExpr) ast.Node {
				return ast.New(p.Field("Id"), p.Field("Code"), p.Field("Name"))
			}),
			want: `"Id", "person_code" AS "Code", "Name"`,
		},
		{
			name:   "fields do not alias",
			clause: compiler.ClauseFields,
			expr: where(func(p *ast.ParameterExpr) ast.Node {
				return ast.New(p.Field("Id"), p.Field("Code"), p.Field("Name"))
			}),
			want: `"Id", "person_code", "Name"`,
		},
		{
			name:   "single renamed column",
			clause: compiler.ClauseSelect,
			expr:   where(func(p *ast.ParameterExpr) ast.Node { return p.Field("Code") }),
			want:   `"person_code" AS "Code"`,
		},
		{
			name:   "single computed column",
			clause: compiler.ClauseSelect,
			expr:   where(func(p *ast.ParameterExpr) ast.Node { return p.Field("FullName") }),
			want:   `first_name || ' ' || last_name AS "FullName"`,
		},
		{
			name:   "computed column in tuple",
			clause: compiler.ClauseSelect,
			expr: where(func(p *ast.ParameterExpr) ast.Node {
				return ast.New(p.Field("Id"), p.Field("FullName"))
			}),
			want: `"Id", first_name || ' ' || last_name AS "FullName"`,
		},
		{
			name:   "named tuple member",
			clause: compiler.ClauseSelect,
			expr: where(func(p *ast.ParameterExpr) ast.Node {
				return ast.NewNamed([]string{"Total", "N"}, ast.Sum(p.Field("Id")), ast.Count(nil))
			}),
			want: `SUM("Id") AS "Total", COUNT(*) AS "N"`,
		},
		{
			name:   "aggregate with alias helper",
			clause: compiler.ClauseSelect,
			expr:   where(func(p *ast.ParameterExpr) ast.Node { return ast.As(ast.Max(p.Field("Id")), "top") }),
			want:   `MAX("Id") AS "top"`,
		},
		{
			name:   "count distinct",
			clause: compiler.ClauseSelect,
			expr:   where(func(p *ast.ParameterExpr) ast.Node { return ast.CountDistinct(p.Field("Name")) }),
			want:   `COUNT(DISTINCT "Name")`,
		},
		{
			name:   "group by keys",
			clause: compiler.ClauseGroupBy,
			expr: where(func(p *ast.ParameterExpr) ast.Node {
				return ast.New(p.Field("Status"), p.Field("Code"))
			}),
			want: `"Status", "person_code"`,
		},
		{
			name:   "order keys",
			clause: compiler.ClauseOrderBy,
			expr: where(func(p *ast.ParameterExpr) ast.Node {
				return ast.New(p.Field("Id"), ast.Desc(p.Field("Name")))
			}),
			want: `"Id" ASC,"Name" DESC`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := compile(t, d, tt.expr, tt.clause)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVisitOrder(t *testing.T) {
	d := sqlgen.NewMySQL()
	c := compiler.New(d, personModel(), compiler.NewParamStore(d))

	keys, err := c.VisitOrder(where(func(p *ast.ParameterExpr) ast.Node { return p.Field("Age") }), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"`Age` DESC"}, keys)
}

func TestMembers(t *testing.T) {
	names, err := compiler.Members(where(func(p *ast.ParameterExpr) ast.Node {
		return ast.New(p.Field("Name"), ast.Convert(p.Field("Age"), reflect.TypeOf(0)))
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Age"}, names)

	_, err = compiler.Members(where(func(p *ast.ParameterExpr) ast.Node {
		return ast.New(p.Field("Name"), ast.Const(1))
	}))
	assert.ErrorIs(t, err, compiler.ErrUnsupportedExpression)
}
