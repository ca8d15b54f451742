package builder_test

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xwb1989/sqlparser"

	"github.com/satishbabariya/sqlexpr/query/ast"
	"github.com/satishbabariya/sqlexpr/query/builder"
	"github.com/satishbabariya/sqlexpr/query/sqlgen"
	"github.com/satishbabariya/sqlexpr/query/statement"
	"github.com/satishbabariya/sqlexpr/schema"
)

type Person struct {
	Id     int `db:",pk,autoincrement"`
	Name   string
	Age    *int
	Active bool
	Code   string  `db:"person_code"`
	Kind   *string `default:"user"`
	Full   string  `compute:"first_name || last_name"`
}

func (Person) TableName() string { return "people" }

type Tag struct {
	Name  string
	Color string
}

func registry() *schema.Registry {
	return schema.NewRegistry(schema.Options{})
}

func pred(fn func(x *ast.ParameterExpr) ast.Node) *ast.LambdaExpr {
	return ast.Lambda(fn)
}

func intp(n int) *int { return &n }

func TestQuery_WhereReplacesAndComposes(t *testing.T) {
	pg := sqlgen.NewPostgres()
	gt := pred(func(x *ast.ParameterExpr) ast.Node { return ast.Gt(x.Field("Id"), 1) })
	lt := pred(func(x *ast.ParameterExpr) ast.Node { return ast.Lt(x.Field("Id"), 5) })

	got, err := builder.From[Person](pg, registry()).Where(gt).Where(lt).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "people" WHERE "Id" < @p1`, got)

	got, err = builder.From[Person](pg, registry()).Where(gt).And(lt).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "people" WHERE ("Id" > @p0) AND ("Id" < @p1)`, got)

	got, err = builder.From[Person](pg, registry()).Where(gt).Or(lt).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "people" WHERE ("Id" > @p0) OR ("Id" < @p1)`, got)
}

func TestQuery_WhereDropsReplacedParameters(t *testing.T) {
	q := builder.From[Person](sqlgen.NewPostgres(), registry()).
		Where(pred(func(x *ast.ParameterExpr) ast.Node { return ast.Gt(x.Field("Id"), 1) })).
		Where(pred(func(x *ast.ParameterExpr) ast.Node { return ast.Lt(x.Field("Id"), 5) }))

	text, args, err := q.Bind()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "people" WHERE "Id" < $1`, text)
	assert.Equal(t, []any{5}, args)
}

func TestQuery_OrderingComposition(t *testing.T) {
	age := pred(func(x *ast.ParameterExpr) ast.Node { return x.Field("Age") })
	name := pred(func(x *ast.ParameterExpr) ast.Node { return x.Field("Name") })

	q := builder.From[Person](sqlgen.NewPostgres(), registry()).OrderBy(age).ThenBy(name)
	got, err := q.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "people" ORDER BY "Age" ASC,"Name" ASC`, got)

	got, err = q.OrderBy(name).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "people" ORDER BY "Name" ASC`, got)

	got, err = q.OrderByDescending(age).ThenByDescending(name).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "people" ORDER BY "Age" DESC,"Name" DESC`, got)
}

func TestQuery_Projection(t *testing.T) {
	q := builder.From[Person](sqlgen.NewPostgres(), registry()).
		SelectDistinct(pred(func(x *ast.ParameterExpr) ast.Node {
			return ast.New(x.Field("Id"), x.Field("Code"))
		}))
	got, err := q.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT DISTINCT "Id", "person_code" AS "Code" FROM "people"`, got)
}

func TestQuery_GroupByHaving(t *testing.T) {
	q := builder.From[Person](sqlgen.NewPostgres(), registry()).
		Select(pred(func(x *ast.ParameterExpr) ast.Node {
			return ast.NewNamed([]string{"Kind", "N"}, x.Field("Kind"), ast.Count(nil))
		})).
		GroupBy(pred(func(x *ast.ParameterExpr) ast.Node { return x.Field("Kind") })).
		Having(pred(func(x *ast.ParameterExpr) ast.Node { return ast.Gt(ast.Count(nil), 2) }))

	got, err := q.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT "Kind", COUNT(*) AS "N" FROM "people" GROUP BY "Kind" HAVING COUNT(*) > @p0`, got)
}

func TestQuery_Limit(t *testing.T) {
	q := builder.From[Person](sqlgen.NewSQLite(), registry()).Limit(10, 5)
	got, err := q.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "people" LIMIT 5 OFFSET 10`, got)

	got, err = q.Limit(3).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "people" LIMIT 3`, got)

	got, err = q.ClearLimit().ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "people"`, got)
}

func TestQuery_LimitRejectsNegativeImmediately(t *testing.T) {
	q := builder.From[Person](sqlgen.NewSQLite(), registry()).Limit(-1, 5)
	assert.ErrorIs(t, q.Err(), statement.ErrInvalidLimit)

	_, err := q.ToSQL()
	assert.ErrorIs(t, err, statement.ErrInvalidLimit)

	q = builder.From[Person](sqlgen.NewSQLite(), registry()).Limit(1, 2, 3)
	assert.ErrorIs(t, q.Err(), builder.ErrArity)
}

func TestQuery_FirstErrorWins(t *testing.T) {
	q := builder.From[Person](sqlgen.NewPostgres(), registry()).
		Where(pred(func(x *ast.ParameterExpr) ast.Node { return ast.Eq(x.Field("Missing"), 1) })).
		Limit(-1)

	require.Error(t, q.Err())
	assert.ErrorIs(t, q.Err(), schema.ErrUnresolvedColumn)
	_, err := q.Statement()
	assert.ErrorIs(t, err, schema.ErrUnresolvedColumn)

	got, err := q.Clear().ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "people"`, got)
}

func TestQuery_UnresolvableModel(t *testing.T) {
	q := builder.From[int](sqlgen.NewPostgres(), registry())
	require.Error(t, q.Err())

	q.Clear()
	require.Error(t, q.Err(), "resolution errors survive Clear")
}

func TestQuery_ContainsMatchesSqlIn(t *testing.T) {
	d := sqlgen.NewMySQL()
	ids := []int{1, 2, 3}

	contains, err := builder.From[Person](d, registry()).
		Where(pred(func(x *ast.ParameterExpr) ast.Node { return ast.ContainsIn(ids, x.Field("Id")) })).
		ToSQL()
	require.NoError(t, err)
	in, err := builder.From[Person](d, registry()).
		Where(pred(func(x *ast.ParameterExpr) ast.Node { return ast.In(x.Field("Id"), ids) })).
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t, contains, in)
	assert.Equal(t, "SELECT * FROM `people` WHERE `Id` IN (@p0,@p1,@p2)", in)
}

func TestCounter(t *testing.T) {
	got, err := builder.CountOf[Person](sqlgen.NewPostgres(), registry()).
		Where(pred(func(x *ast.ParameterExpr) ast.Node { return x.Field("Active") })).
		ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "people" WHERE "Active" = @p0`, got)

	got, err = builder.CountOf[Person](sqlgen.NewPostgres(), registry()).
		Where(pred(func(x *ast.ParameterExpr) ast.Node { return x.Field("Active") })).
		GroupBy(pred(func(x *ast.ParameterExpr) ast.Node { return x.Field("Kind") })).
		ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM (SELECT 1 AS "one" FROM "people" WHERE "Active" = @p0 GROUP BY "Kind") AS "grouped"`, got)
}

func TestCounter_HavingWithoutGroupBy(t *testing.T) {
	_, err := builder.CountOf[Person](sqlgen.NewPostgres(), registry()).
		Having(pred(func(x *ast.ParameterExpr) ast.Node { return ast.Gt(ast.Count(nil), 5) })).
		ToSQL()
	assert.ErrorIs(t, err, statement.ErrHavingWithoutGroup)
}

func TestInserter_Values(t *testing.T) {
	p := Person{Id: 9, Name: "Jim", Active: true, Code: "c1", Full: "ignored"}

	q := builder.InsertInto[Person](sqlgen.NewPostgres(), registry()).Values(p)
	got, err := q.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "people" ("Name", "Active", "person_code", "Kind") VALUES (@p0, @p1, @p2, @p3)`, got)

	stmt, err := q.Statement()
	require.NoError(t, err)
	assert.Equal(t, []any{"Jim", true, "c1", "user"}, stmt.Params.Values())

	got, err = q.Values(p, "name", "Code").ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "people" ("Name", "person_code") VALUES (@p0, @p1)`, got)

	q.Values(p, "Nope")
	assert.ErrorIs(t, q.Err(), schema.ErrUnresolvedColumn)
}

func TestUpdater_SetFieldsByPrimaryKey(t *testing.T) {
	p := Person{Id: 9, Name: "Jim", Age: intp(41)}

	q := builder.UpdateOf[Person](sqlgen.NewPostgres(), registry()).
		SetFields(p, pred(func(x *ast.ParameterExpr) ast.Node { return ast.New(x.Field("Name"), x.Field("Age")) })).
		ByPrimaryKey(p)

	got, err := q.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "people" SET "Name" = @p0, "Age" = @p1 WHERE "Id" = @p2`, got)

	text, args, err := q.Bind()
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "people" SET "Name" = $1, "Age" = $2 WHERE "Id" = $3`, text)
	assert.Equal(t, []any{"Jim", 41, 9}, args)

	stmt, err := q.Statement()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Name": "@p0", "Age": "@p1"}, stmt.UpdateFields())
}

func TestUpdater_SetFieldsRejectsExpressions(t *testing.T) {
	q := builder.UpdateOf[Person](sqlgen.NewPostgres(), registry()).
		SetFields(Person{}, pred(func(x *ast.ParameterExpr) ast.Node { return ast.Add(x.Field("Id"), 1) }))
	require.Error(t, q.Err())
}

func TestDeleter(t *testing.T) {
	pg := sqlgen.NewPostgres()

	_, err := builder.DeleteFrom[Person](pg, registry()).ToSQL()
	assert.ErrorIs(t, err, statement.ErrMissingFilter)

	got, err := builder.DeleteFrom[Person](pg, registry()).All().ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "people"`, got)

	got, err = builder.DeleteFrom[Person](pg, registry()).ByPrimaryKey(Person{Id: 4}).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "people" WHERE "Id" = @p0`, got)
}

func TestDeleter_ByPrimaryKeyWithoutKeysMatchesEveryField(t *testing.T) {
	got, err := builder.DeleteFrom[Tag](sqlgen.NewPostgres(), registry()).
		ByPrimaryKey(Tag{Name: "a", Color: "b"}).
		ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "Tag" WHERE ("Name" = @p0 AND "Color" = @p1)`, got)
}

func TestGolden_SelectPerDialect(t *testing.T) {
	dialects := []sqlgen.Dialect{
		sqlgen.NewPostgres(),
		sqlgen.NewMySQL(),
		sqlgen.NewSQLite(),
		sqlgen.NewSQLServer(),
	}
	for _, d := range dialects {
		t.Run(d.Name(), func(t *testing.T) {
			q := builder.From[Person](d, registry()).
				Where(pred(func(x *ast.ParameterExpr) ast.Node {
					return ast.And(ast.HasValue(x.Field("Age")), ast.Gt(ast.Value(x.Field("Age")), 40))
				})).
				And(pred(func(x *ast.ParameterExpr) ast.Node { return ast.StartsWith(x.Field("Name"), "Jim") })).
				OrderBy(pred(func(x *ast.ParameterExpr) ast.Node { return x.Field("Age") })).
				ThenByDescending(pred(func(x *ast.ParameterExpr) ast.Node { return x.Field("Name") })).
				Limit(10, 5)

			text, err := q.ToSQL()
			require.NoError(t, err)
			bound, args, err := q.Bind()
			require.NoError(t, err)

			if d.Name() == "mysql" {
				_, err := sqlparser.Parse(bound)
				require.NoError(t, err, "mysql output must parse")
			}
			assertGolden(t, "select_"+d.Name(), text, bound, args)
		})
	}
}

func assertGolden(t *testing.T, name, text, bound string, args []any) {
	t.Helper()

	var sb strings.Builder
	sb.WriteString(text + "\n")
	sb.WriteString(bound + "\n")
	for _, a := range args {
		if n, ok := a.(sql.NamedArg); ok {
			fmt.Fprintf(&sb, "%s=%v\n", n.Name, n.Value)
			continue
		}
		fmt.Fprintf(&sb, "%v\n", a)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(sb.String()))
}
