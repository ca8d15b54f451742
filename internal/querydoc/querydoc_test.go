package querydoc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlexpr/query/sqlgen"
	"github.com/satishbabariya/sqlexpr/schema"
)

const models = `
enums:
  - name: Status
    values:
      - {name: Active, value: 1}
      - {name: Banned, value: 2}
models:
  - name: Person
    table: people
    fields:
      - {name: Id, type: int, primaryKey: true, autoIncrement: true}
      - {name: Name, type: string}
      - {name: Age, type: int?}
      - {name: Code, type: string, column: person_code}
      - {name: Status, type: Status}
`

func registry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry(schema.Options{})
	_, err := reg.LoadYAML(strings.NewReader(models))
	require.NoError(t, err)
	return reg
}

func build(t *testing.T, src string) (string, []any) {
	t.Helper()
	doc, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	stmt, err := doc.Build(sqlgen.NewPostgres(), registry(t))
	require.NoError(t, err)
	text, err := stmt.ToSQL()
	require.NoError(t, err)
	return text, stmt.Parameters().Values()
}

func TestBuild_Select(t *testing.T) {
	text, args := build(t, `
version: "1.2"
model: person
where: x => x.Age.HasValue && x.Age.Value > minAge
or: ["x => x.Code.StartsWith(\"adm\")"]
orderBy: [-Age, Code]
skip: 10
take: 5
vars: {minAge: 40}
`)
	assert.Equal(t, `SELECT * FROM "people" WHERE (("Age" IS NOT NULL AND "Age" > @p0)) OR (UPPER("person_code") LIKE UPPER(@p1)) ORDER BY "Age" DESC,"person_code" ASC LIMIT 5 OFFSET 10`, text)
	assert.Equal(t, []any{40, "adm%"}, args)
}

func TestBuild_ProjectionAndGrouping(t *testing.T) {
	text, args := build(t, `
model: Person
project: "x => new { x.Status, N = Count() }"
groupBy: [Status]
having:
  - {format: "COUNT(*) > {0}", args: [1]}
`)
	assert.Equal(t, `SELECT "Status", COUNT(*) AS "N" FROM "people" GROUP BY "Status" HAVING COUNT(*) > @p0`, text)
	assert.Equal(t, []any{1}, args)
}

func TestBuild_Writes(t *testing.T) {
	text, args := build(t, `
kind: insert
model: Person
values: {Name: Jim, Age: "41", Code: j1, Status: Banned}
`)
	assert.Equal(t, `INSERT INTO "people" ("Age", "person_code", "Name", "Status") VALUES (@p0, @p1, @p2, @p3)`, text)
	assert.Equal(t, []any{int(41), "j1", "Jim", "Banned"}, args)

	text, _ = build(t, `
kind: update
model: Person
values: {Name: Jim}
filters:
  - {format: "{0} = {0}", args: [1]}
`)
	assert.Equal(t, `UPDATE "people" SET "Name" = @p1 WHERE @p0 = @p0`, text)

	text, _ = build(t, "kind: delete\nmodel: Person\nall: true\n")
	assert.Equal(t, `DELETE FROM "people"`, text)

	text, _ = build(t, "kind: count\nmodel: Person\nwhere: \"x => x.Id == 3\"\n")
	assert.Equal(t, `SELECT COUNT(*) FROM "people" WHERE "Id" = @p0`, text)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode(strings.NewReader("version: \"2.0\"\nmodel: Person\n"))
	assert.ErrorIs(t, err, ErrVersion)

	_, err = Decode(strings.NewReader("version: banana\n"))
	assert.ErrorIs(t, err, ErrVersion)

	_, err = Decode(strings.NewReader("modle: Person\n"))
	assert.Error(t, err)

	doc, err := Decode(strings.NewReader("kind: merge\nmodel: Person\n"))
	require.NoError(t, err)
	_, err = doc.Build(sqlgen.NewPostgres(), registry(t))
	assert.ErrorIs(t, err, ErrKind)

	doc, err = Decode(strings.NewReader("model: Ghost\n"))
	require.NoError(t, err)
	_, err = doc.Build(sqlgen.NewPostgres(), registry(t))
	assert.ErrorIs(t, err, schema.ErrModelNotFound)
}
