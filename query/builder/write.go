package builder

import (
	"github.com/satishbabariya/sqlexpr/query/ast"
	"github.com/satishbabariya/sqlexpr/query/compiler"
	"github.com/satishbabariya/sqlexpr/query/sqlgen"
	"github.com/satishbabariya/sqlexpr/query/statement"
	"github.com/satishbabariya/sqlexpr/schema"
)

// Inserter builds an INSERT of one T.
type Inserter[T any] struct {
	core
	stmt *statement.Insert
}

// InsertInto starts an INSERT into T's table.
func InsertInto[T any](d sqlgen.Dialect, p schema.Provider) *Inserter[T] {
	m, err := schema.Of[T](p)
	return &Inserter[T]{core: newCore(d, m, err), stmt: statement.NewInsert(d, tableOf(m))}
}

// Values binds the fields of instance, replacing any earlier row. When only is given,
// just those fields are written. Computed and auto-increment fields are never written.
func (q *Inserter[T]) Values(instance T, only ...string) *Inserter[T] {
	q.stmt.Clear()
	q.bindValues(q.stmt.Params, instance, only, true, q.stmt.AddField)
	return q
}

func (q *Inserter[T]) Clear() *Inserter[T] {
	q.stmt.Clear()
	q.reset()
	return q
}

func (q *Inserter[T]) Statement() (*statement.Insert, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.stmt, nil
}

func (q *Inserter[T]) ToSQL() (string, error) { return q.render(q.stmt) }

func (q *Inserter[T]) Bind() (string, []any, error) { return q.bind(q.stmt) }

// Updater builds an UPDATE of T's table.
type Updater[T any] struct {
	core
	stmt *statement.Update
}

// UpdateOf starts an UPDATE of T's table.
func UpdateOf[T any](d sqlgen.Dialect, p schema.Provider) *Updater[T] {
	m, err := schema.Of[T](p)
	return &Updater[T]{core: newCore(d, m, err), stmt: statement.NewUpdate(d, tableOf(m))}
}

// Set assigns the fields of instance. When only is given, just those fields are set.
// Computed fields are never written.
func (q *Updater[T]) Set(instance T, only ...string) *Updater[T] {
	q.bindValues(q.stmt.Params, instance, only, false, q.stmt.SetField)
	return q
}

// SetFields assigns the fields of instance named by a field-list expression such as
// x => new { x.Name, x.Age }.
func (q *Updater[T]) SetFields(instance T, fields *ast.LambdaExpr) *Updater[T] {
	if q.err != nil {
		return q
	}
	names, err := compiler.Members(fields)
	if err != nil {
		q.fail(err)
		return q
	}
	return q.Set(instance, names...)
}

func (q *Updater[T]) Where(pred *ast.LambdaExpr) *Updater[T] {
	q.filter(&q.stmt.Base, "", pred)
	return q
}

func (q *Updater[T]) And(pred *ast.LambdaExpr) *Updater[T] {
	q.filter(&q.stmt.Base, "AND", pred)
	return q
}

func (q *Updater[T]) Or(pred *ast.LambdaExpr) *Updater[T] {
	q.filter(&q.stmt.Base, "OR", pred)
	return q
}

// ByPrimaryKey restricts the update to the row instance was read from.
func (q *Updater[T]) ByPrimaryKey(instance T) *Updater[T] {
	q.byPrimaryKey(&q.stmt.Base, instance)
	return q
}

func (q *Updater[T]) Clear() *Updater[T] {
	q.stmt.Clear()
	q.reset()
	return q
}

func (q *Updater[T]) Statement() (*statement.Update, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.stmt, nil
}

func (q *Updater[T]) ToSQL() (string, error) { return q.render(q.stmt) }

func (q *Updater[T]) Bind() (string, []any, error) { return q.bind(q.stmt) }

// Deleter builds a DELETE from T's table. It renders only with a filter or after All.
type Deleter[T any] struct {
	core
	stmt *statement.Delete
}

// DeleteFrom starts a DELETE from T's table.
func DeleteFrom[T any](d sqlgen.Dialect, p schema.Provider) *Deleter[T] {
	m, err := schema.Of[T](p)
	return &Deleter[T]{core: newCore(d, m, err), stmt: statement.NewDelete(d, tableOf(m))}
}

func (q *Deleter[T]) Where(pred *ast.LambdaExpr) *Deleter[T] {
	q.filter(&q.stmt.Base, "", pred)
	return q
}

func (q *Deleter[T]) And(pred *ast.LambdaExpr) *Deleter[T] {
	q.filter(&q.stmt.Base, "AND", pred)
	return q
}

func (q *Deleter[T]) Or(pred *ast.LambdaExpr) *Deleter[T] {
	q.filter(&q.stmt.Base, "OR", pred)
	return q
}

// ByPrimaryKey restricts the delete to the row instance was read from.
func (q *Deleter[T]) ByPrimaryKey(instance T) *Deleter[T] {
	q.byPrimaryKey(&q.stmt.Base, instance)
	return q
}

// All allows the delete to run without a filter.
func (q *Deleter[T]) All() *Deleter[T] {
	q.stmt.Unfiltered = true
	return q
}

func (q *Deleter[T]) Clear() *Deleter[T] {
	q.stmt.Clear()
	q.reset()
	return q
}

func (q *Deleter[T]) Statement() (*statement.Delete, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.stmt, nil
}

func (q *Deleter[T]) ToSQL() (string, error) { return q.render(q.stmt) }

func (q *Deleter[T]) Bind() (string, []any, error) { return q.bind(q.stmt) }
