package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlexpr/internal/adapters/database"
	"github.com/satishbabariya/sqlexpr/internal/ui"
)

const modelsYAML = `
models:
  - name: Person
    table: people
    fields:
      - {name: Id, type: int, primaryKey: true, autoIncrement: true}
      - {name: Name, type: string}
      - {name: Age, type: int?}
`

type workspace struct {
	dir string
	cfg string
}

func newWorkspace(t *testing.T, dialect, dbURL string) *workspace {
	t.Helper()
	color.NoColor = true
	pterm.DisableStyling()

	dir := t.TempDir()
	w := &workspace{dir: dir, cfg: filepath.Join(dir, "sqlexpr.yaml")}
	w.write(t, "models.yaml", modelsYAML)
	w.write(t, "sqlexpr.yaml", "dialect: "+dialect+"\nmodels: "+filepath.Join(dir, "models.yaml")+"\ndatabase_url: \""+dbURL+"\"\n")
	return w
}

func (w *workspace) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(w.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (w *workspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", w.cfg}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCompile(t *testing.T) {
	w := newWorkspace(t, "postgres", "")
	q := w.write(t, "adults.yaml", "model: Person\nwhere: x => x.Age.HasValue && x.Age.Value >= 18\norderBy: [Name]\n")

	out, err := w.run(t, "compile", q)
	require.NoError(t, err)
	assert.Contains(t, out, "-- "+q+"\n")
	assert.Contains(t, out, `SELECT * FROM "people" WHERE ("Age" IS NOT NULL AND "Age" >= @p0) ORDER BY "Name" ASC`)
	assert.Contains(t, out, "@p0 = 18\n")
}

func TestCompile_BindWithDialectFlag(t *testing.T) {
	w := newWorkspace(t, "postgres", "")
	q := w.write(t, "q.yaml", "model: Person\nwhere: \"x => x.Name == \\\"Jim\\\" || x.Id == 2\"\n")

	out, err := w.run(t, "--dialect", "mysql", "compile", "--bind", q)
	require.NoError(t, err)
	assert.Contains(t, out, "SELECT * FROM `people` WHERE (`Name` = ? OR `Id` = ?)")
	assert.Contains(t, out, "1 = \"Jim\"\n")
	assert.Contains(t, out, "2 = 2\n")
}

func TestCompile_Errors(t *testing.T) {
	w := newWorkspace(t, "postgres", "")
	q := w.write(t, "bad.yaml", "model: Person\nwhere: x => x.Height > 2\n")
	_, err := w.run(t, "compile", q)
	assert.ErrorContains(t, err, "bad.yaml")

	_, err = w.run(t, "--dialect", "oracle", "compile", q)
	assert.Error(t, err)

	_, err = w.run(t, "exec", q)
	assert.ErrorIs(t, err, ErrNoDatabase)
}

func TestExec_SQLite(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "app.db")
	a, err := database.Open(ctx, database.Config{Dialect: "sqlite", URL: dbPath})
	require.NoError(t, err)
	_, err = a.Execute(ctx, `CREATE TABLE "people" ("Id" INTEGER PRIMARY KEY AUTOINCREMENT, "Name" TEXT, "Age" INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, a.Disconnect(ctx))

	w := newWorkspace(t, "sqlite", dbPath)
	insert := w.write(t, "insert.yaml", "kind: insert\nmodel: Person\nvalues: {Name: Jim, Age: 41}\n")
	list := w.write(t, "list.yaml", "model: Person\nselect: [Name, Age]\n")
	count := w.write(t, "count.yaml", "kind: count\nmodel: Person\n")
	del := w.write(t, "delete.yaml", "kind: delete\nmodel: Person\nwhere: x => x.Name == \"Jim\"\n")

	out, err := w.run(t, "exec", "--yes", insert)
	require.NoError(t, err)
	assert.Contains(t, out, "1 rows affected")

	out, err = w.run(t, "exec", list)
	require.NoError(t, err)
	assert.Contains(t, out, "Jim")
	assert.Contains(t, out, "41")

	confirm = func(string) (bool, error) { return false, nil }
	t.Cleanup(func() { confirm = ui.Confirm })
	out, err = w.run(t, "exec", del)
	require.NoError(t, err)
	assert.Contains(t, out, "aborted")

	out, err = w.run(t, "exec", count)
	require.NoError(t, err)
	assert.Contains(t, out, "1\n")
}

func TestInitAndVersion(t *testing.T) {
	w := newWorkspace(t, "sqlserver", "")
	target := filepath.Join(w.dir, "out", ".sqlexpr.yaml")

	out, err := w.run(t, "init", target)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+target)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dialect: sqlserver")

	_, err = w.run(t, "init", target)
	assert.ErrorContains(t, err, "already exists")

	out, err = w.run(t, "version", "--latest", "99.0.0")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlexpr version")
	assert.Contains(t, out, "version 99.0.0 is available")
}
