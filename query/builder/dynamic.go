package builder

import (
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/satishbabariya/sqlexpr/internal/debug"
	"github.com/satishbabariya/sqlexpr/query/ast"
	"github.com/satishbabariya/sqlexpr/query/compiler"
	"github.com/satishbabariya/sqlexpr/query/sqlgen"
	"github.com/satishbabariya/sqlexpr/query/statement"
	"github.com/satishbabariya/sqlexpr/schema"
)

var placeholder = regexp.MustCompile(`\{(\d+)\}`)

// Dynamic builds a SELECT from field names and format-string filters. With a model
// attached, field names resolve to their columns and the expression variants are
// available.
type Dynamic struct {
	core
	name string
	stmt *statement.Select
}

// Table starts a dynamic SELECT over table. Field names are used as given.
func Table(d sqlgen.Dialect, table string) *Dynamic {
	return &Dynamic{core: newCore(d, nil, nil), name: table, stmt: statement.NewSelect(d, table)}
}

// Model starts a dynamic SELECT over the table of m.
func Model(d sqlgen.Dialect, m *schema.ModelDef) *Dynamic {
	return &Dynamic{core: newCore(d, m, nil), name: m.TableName(), stmt: statement.NewSelect(d, m.TableName())}
}

// Where replaces the filter. The format refers to args by position: "Age > {0}".
// Each argument is bound once as a parameter; slices expand to a comma list.
func (q *Dynamic) Where(format string, args ...any) *Dynamic {
	return q.where("", format, args)
}

func (q *Dynamic) And(format string, args ...any) *Dynamic {
	return q.where("AND", format, args)
}

func (q *Dynamic) Or(format string, args ...any) *Dynamic {
	return q.where("OR", format, args)
}

func (q *Dynamic) where(op, format string, args []any) *Dynamic {
	text, ok := q.format(format, args)
	if !ok {
		return q
	}
	if op == "" {
		q.stmt.SetWhere(text)
	} else {
		q.stmt.AppendWhere(op, text)
	}
	debug.Debug("filter", "table", q.name, "op", op, "where", q.stmt.Where)
	return q
}

// WhereExpr replaces the filter with a compiled predicate. It needs a model.
func (q *Dynamic) WhereExpr(pred *ast.LambdaExpr) *Dynamic {
	q.filter(&q.stmt.Base, "", pred)
	return q
}

func (q *Dynamic) AndExpr(pred *ast.LambdaExpr) *Dynamic {
	q.filter(&q.stmt.Base, "AND", pred)
	return q
}

func (q *Dynamic) OrExpr(pred *ast.LambdaExpr) *Dynamic {
	q.filter(&q.stmt.Base, "OR", pred)
	return q
}

// Select sets the projection to fields. Renamed columns are aliased back to their
// field names when a model is attached.
func (q *Dynamic) Select(fields ...string) *Dynamic {
	if q.err != nil {
		return q
	}
	if q.model == nil {
		cols := make([]string, len(fields))
		for i, f := range fields {
			cols[i] = q.dialect.QuoteIdentifier(f)
		}
		q.stmt.Columns = cols
		return q
	}
	return q.SelectExpr(fieldList(fields))
}

// SelectExpr sets the projection from an expression. It needs a model.
func (q *Dynamic) SelectExpr(proj *ast.LambdaExpr) *Dynamic {
	if text, ok := q.compile(q.stmt.Params, proj, compiler.ClauseSelect); ok {
		q.stmt.Columns = []string{text}
	}
	return q
}

// Distinct toggles duplicate removal.
func (q *Dynamic) Distinct(on bool) *Dynamic {
	q.stmt.Distinct = on
	return q
}

// GroupBy appends grouping fields.
func (q *Dynamic) GroupBy(fields ...string) *Dynamic {
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		col, ok := q.column(f)
		if !ok {
			return q
		}
		cols = append(cols, col)
	}
	q.stmt.GroupBy = appendList(q.stmt.GroupBy, strings.Join(cols, ", "))
	return q
}

// Having ANDs a format-string condition into the group filter.
func (q *Dynamic) Having(format string, args ...any) *Dynamic {
	if text, ok := q.format(format, args); ok {
		q.stmt.Having = appendCondition(q.stmt.Having, text)
	}
	return q
}

// OrderBy replaces the ordering. A leading "-" sorts a field descending.
func (q *Dynamic) OrderBy(fields ...string) *Dynamic {
	if keys, ok := q.orderKeys(fields); ok {
		q.stmt.SetOrderBy(keys...)
	}
	return q
}

// ThenBy appends ordering fields.
func (q *Dynamic) ThenBy(fields ...string) *Dynamic {
	if keys, ok := q.orderKeys(fields); ok {
		q.stmt.AppendOrderBy(keys...)
	}
	return q
}

func (q *Dynamic) orderKeys(fields []string) ([]string, bool) {
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		dir := " ASC"
		if name, ok := strings.CutPrefix(f, "-"); ok {
			f, dir = name, " DESC"
		}
		col, ok := q.column(f)
		if !ok {
			return nil, false
		}
		keys = append(keys, col+dir)
	}
	return keys, true
}

// Limit behaves like Query.Limit.
func (q *Dynamic) Limit(n ...int) *Dynamic {
	q.limit(q.stmt, n)
	return q
}

func (q *Dynamic) Clear() *Dynamic {
	q.stmt.Clear()
	q.reset()
	return q
}

func (q *Dynamic) Statement() (*statement.Select, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.stmt, nil
}

func (q *Dynamic) ToSQL() (string, error) { return q.render(q.stmt) }

func (q *Dynamic) Bind() (string, []any, error) { return q.bind(q.stmt) }

// Count returns a COUNT with this builder's filter and grouping over a copy of its
// parameters.
func (q *Dynamic) Count() (*statement.Count, error) {
	if q.err != nil {
		return nil, q.err
	}
	c := statement.NewCount(q.dialect, q.name)
	c.Params = q.stmt.Params.Clone()
	c.Where = q.stmt.Where
	c.GroupBy = q.stmt.GroupBy
	c.Having = q.stmt.Having
	return c, nil
}

// Delete returns a DELETE with this builder's filter over a copy of its parameters.
func (q *Dynamic) Delete() (*statement.Delete, error) {
	if q.err != nil {
		return nil, q.err
	}
	s := statement.NewDelete(q.dialect, q.name)
	s.Params = q.stmt.Params.Clone()
	s.Where = q.stmt.Where
	return s, nil
}

// Update returns an UPDATE assigning values under this builder's filter. The builder's
// parameters are copied, so the SELECT is unaffected. Columns are written in name order.
func (q *Dynamic) Update(values map[string]any) (*statement.Update, error) {
	if q.err != nil {
		return nil, q.err
	}
	s := statement.NewUpdate(q.dialect, q.name)
	s.Params = q.stmt.Params.Clone()
	s.Where = q.stmt.Where
	for _, name := range sortedKeys(values) {
		col, err := q.columnName(name)
		if err != nil {
			return nil, err
		}
		s.SetField(col, s.Params.Add(values[name], nil).Name)
	}
	return s, nil
}

// Insert returns an INSERT of values with its own parameters. Columns are written in
// name order.
func (q *Dynamic) Insert(values map[string]any) (*statement.Insert, error) {
	if q.err != nil {
		return nil, q.err
	}
	s := statement.NewInsert(q.dialect, q.name)
	for _, name := range sortedKeys(values) {
		col, err := q.columnName(name)
		if err != nil {
			return nil, err
		}
		s.AddField(col, s.Params.Add(values[name], nil).Name)
	}
	return s, nil
}

// columnName maps a field name to its unquoted column.
func (q *Dynamic) columnName(name string) (string, error) {
	if q.model == nil {
		return name, nil
	}
	f, err := q.model.MustField(name)
	if err != nil {
		return "", err
	}
	return f.ColumnName(), nil
}

// column returns the SQL for a field reference.
func (q *Dynamic) column(name string) (string, bool) {
	if q.err != nil {
		return "", false
	}
	if q.model != nil {
		f, err := q.model.MustField(name)
		if err != nil {
			q.fail(err)
			return "", false
		}
		if f.Computed {
			return "(" + f.Expression + ")", true
		}
		name = f.ColumnName()
	}
	return q.dialect.QuoteIdentifier(name), true
}

// format substitutes {n} references with bound parameters.
func (q *Dynamic) format(format string, args []any) (string, bool) {
	if q.err != nil {
		return "", false
	}
	bound := make(map[int]string, len(args))
	var bad error
	text := placeholder.ReplaceAllStringFunc(format, func(m string) string {
		i, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil || i >= len(args) {
			if bad == nil {
				bad = fmt.Errorf("%w: %s refers past %d arguments", ErrFormat, m, len(args))
			}
			return m
		}
		if s, ok := bound[i]; ok {
			return s
		}
		s := bindArg(q.stmt.Params, args[i])
		bound[i] = s
		return s
	})
	if bad != nil {
		q.fail(bad)
		return "", false
	}
	return text, true
}

func bindArg(params *compiler.ParamStore, v any) string {
	if v == nil {
		return "NULL"
	}
	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
		values := compiler.Flatten(v)
		if len(values) == 0 {
			return "NULL"
		}
		names := make([]string, len(values))
		for i, e := range values {
			names[i] = params.Add(e, nil).Name
		}
		return strings.Join(names, ",")
	}
	return params.Add(v, nil).Name
}

func fieldList(fields []string) *ast.LambdaExpr {
	return ast.Lambda(func(row *ast.ParameterExpr) ast.Node {
		if len(fields) == 1 {
			return row.Field(fields[0])
		}
		args := make([]ast.Node, len(fields))
		for i, f := range fields {
			args[i] = row.Field(f)
		}
		return ast.New(args...)
	})
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
