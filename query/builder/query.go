package builder

import (
	"github.com/satishbabariya/sqlexpr/query/ast"
	"github.com/satishbabariya/sqlexpr/query/compiler"
	"github.com/satishbabariya/sqlexpr/query/sqlgen"
	"github.com/satishbabariya/sqlexpr/query/statement"
	"github.com/satishbabariya/sqlexpr/schema"
)

// Query builds a SELECT over the table of T.
type Query[T any] struct {
	core
	stmt *statement.Select
}

// From starts a SELECT over T's table.
func From[T any](d sqlgen.Dialect, p schema.Provider) *Query[T] {
	m, err := schema.Of[T](p)
	return &Query[T]{core: newCore(d, m, err), stmt: statement.NewSelect(d, tableOf(m))}
}

// Where replaces the filter with pred.
func (q *Query[T]) Where(pred *ast.LambdaExpr) *Query[T] {
	q.filter(&q.stmt.Base, "", pred)
	return q
}

// And composes pred with the current filter.
func (q *Query[T]) And(pred *ast.LambdaExpr) *Query[T] {
	q.filter(&q.stmt.Base, "AND", pred)
	return q
}

// Or composes pred with the current filter.
func (q *Query[T]) Or(pred *ast.LambdaExpr) *Query[T] {
	q.filter(&q.stmt.Base, "OR", pred)
	return q
}

// Select sets the projection.
func (q *Query[T]) Select(proj *ast.LambdaExpr) *Query[T] {
	if text, ok := q.compile(q.stmt.Params, proj, compiler.ClauseSelect); ok {
		q.stmt.Columns = []string{text}
		q.stmt.Distinct = false
	}
	return q
}

// SelectDistinct sets the projection and removes duplicate rows.
func (q *Query[T]) SelectDistinct(proj *ast.LambdaExpr) *Query[T] {
	if text, ok := q.compile(q.stmt.Params, proj, compiler.ClauseSelect); ok {
		q.stmt.Columns = []string{text}
		q.stmt.Distinct = true
	}
	return q
}

// GroupBy appends grouping keys.
func (q *Query[T]) GroupBy(keys *ast.LambdaExpr) *Query[T] {
	if text, ok := q.compile(q.stmt.Params, keys, compiler.ClauseGroupBy); ok {
		q.stmt.GroupBy = appendList(q.stmt.GroupBy, text)
	}
	return q
}

// Having ANDs pred into the group filter.
func (q *Query[T]) Having(pred *ast.LambdaExpr) *Query[T] {
	if text, ok := q.compile(q.stmt.Params, pred, compiler.ClauseCondition); ok {
		q.stmt.Having = appendCondition(q.stmt.Having, text)
	}
	return q
}

// OrderBy replaces the ordering with ascending keys.
func (q *Query[T]) OrderBy(keys *ast.LambdaExpr) *Query[T] {
	return q.orderBy(keys, false, true)
}

// OrderByDescending replaces the ordering with descending keys.
func (q *Query[T]) OrderByDescending(keys *ast.LambdaExpr) *Query[T] {
	return q.orderBy(keys, true, true)
}

// ThenBy appends ascending keys.
func (q *Query[T]) ThenBy(keys *ast.LambdaExpr) *Query[T] {
	return q.orderBy(keys, false, false)
}

// ThenByDescending appends descending keys.
func (q *Query[T]) ThenByDescending(keys *ast.LambdaExpr) *Query[T] {
	return q.orderBy(keys, true, false)
}

func (q *Query[T]) orderBy(l *ast.LambdaExpr, descending, replace bool) *Query[T] {
	keys, ok := q.order(q.stmt.Params, l, descending)
	if !ok {
		return q
	}
	if replace {
		q.stmt.SetOrderBy(keys...)
	} else {
		q.stmt.AppendOrderBy(keys...)
	}
	return q
}

// Limit sets paging: Limit() clears it, Limit(rows) caps the row count and
// Limit(skip, rows) also skips rows. Negative values are rejected.
func (q *Query[T]) Limit(n ...int) *Query[T] {
	q.limit(q.stmt, n)
	return q
}

// ClearLimit removes paging.
func (q *Query[T]) ClearLimit() *Query[T] {
	return q.Limit()
}

// Clear resets every clause and parameter.
func (q *Query[T]) Clear() *Query[T] {
	q.stmt.Clear()
	q.reset()
	return q
}

// Statement returns the accumulated statement.
func (q *Query[T]) Statement() (*statement.Select, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.stmt, nil
}

// ToSQL renders the statement with parameter names in place.
func (q *Query[T]) ToSQL() (string, error) { return q.render(q.stmt) }

// Bind renders the statement for the driver.
func (q *Query[T]) Bind() (string, []any, error) { return q.bind(q.stmt) }

// Counter builds a SELECT COUNT(*) over the table of T.
type Counter[T any] struct {
	core
	stmt *statement.Count
}

// CountOf starts a COUNT over T's table.
func CountOf[T any](d sqlgen.Dialect, p schema.Provider) *Counter[T] {
	m, err := schema.Of[T](p)
	return &Counter[T]{core: newCore(d, m, err), stmt: statement.NewCount(d, tableOf(m))}
}

func (q *Counter[T]) Where(pred *ast.LambdaExpr) *Counter[T] {
	q.filter(&q.stmt.Base, "", pred)
	return q
}

func (q *Counter[T]) And(pred *ast.LambdaExpr) *Counter[T] {
	q.filter(&q.stmt.Base, "AND", pred)
	return q
}

func (q *Counter[T]) Or(pred *ast.LambdaExpr) *Counter[T] {
	q.filter(&q.stmt.Base, "OR", pred)
	return q
}

// GroupBy counts groups instead of rows.
func (q *Counter[T]) GroupBy(keys *ast.LambdaExpr) *Counter[T] {
	if text, ok := q.compile(q.stmt.Params, keys, compiler.ClauseGroupBy); ok {
		q.stmt.GroupBy = appendList(q.stmt.GroupBy, text)
	}
	return q
}

func (q *Counter[T]) Having(pred *ast.LambdaExpr) *Counter[T] {
	if text, ok := q.compile(q.stmt.Params, pred, compiler.ClauseCondition); ok {
		q.stmt.Having = appendCondition(q.stmt.Having, text)
	}
	return q
}

func (q *Counter[T]) Clear() *Counter[T] {
	q.stmt.Clear()
	q.reset()
	return q
}

func (q *Counter[T]) Statement() (*statement.Count, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.stmt, nil
}

func (q *Counter[T]) ToSQL() (string, error) { return q.render(q.stmt) }

func (q *Counter[T]) Bind() (string, []any, error) { return q.bind(q.stmt) }

func appendList(list, text string) string {
	if list == "" {
		return text
	}
	return list + ", " + text
}

func appendCondition(cond, text string) string {
	if cond == "" {
		return text
	}
	return "(" + cond + ") AND (" + text + ")"
}
