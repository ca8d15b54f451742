// Package executor runs compiled statements and maps their result rows.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/satishbabariya/sqlexpr/internal/adapters/database"
	"github.com/satishbabariya/sqlexpr/internal/debug"
	"github.com/satishbabariya/sqlexpr/query/statement"
)

var (
	// ErrDialectMismatch is returned when a statement was rendered for another dialect.
	ErrDialectMismatch = errors.New("statement dialect does not match connection")
	// ErrNoRows is returned by First when the query matched nothing.
	ErrNoRows = errors.New("no rows found")
)

// Executor runs statements on a connection or transaction.
type Executor struct {
	q database.Querier
}

// New creates an executor bound to q.
func New(q database.Querier) *Executor {
	return &Executor{q: q}
}

func (e *Executor) bind(s statement.Statement) (string, []any, error) {
	if want, got := e.q.Dialect().Name(), s.Parameters().Dialect().Name(); want != got {
		return "", nil, fmt.Errorf("%w: %s statement on %s", ErrDialectMismatch, got, want)
	}
	text, args, err := s.Bind()
	if err != nil {
		return "", nil, err
	}
	debug.Debug("bound statement", "kind", s.Kind(), "table", s.TableName(), "args", len(args))
	return text, args, nil
}

// Exec runs an insert, update or delete and returns the number of affected rows.
func (e *Executor) Exec(ctx context.Context, s statement.Statement) (int64, error) {
	text, args, err := e.bind(s)
	if err != nil {
		return 0, err
	}
	res, err := e.q.Execute(ctx, text, args...)
	if err != nil {
		return 0, fmt.Errorf("%s execution failed: %w", s.Kind(), err)
	}
	return res.RowsAffected()
}

// Rows runs s and returns the column names and each row keyed by column.
func (e *Executor) Rows(ctx context.Context, s statement.Statement) ([]string, []map[string]any, error) {
	text, args, err := e.bind(s)
	if err != nil {
		return nil, nil, err
	}
	rows, err := e.q.Query(ctx, text, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get columns: %w", err)
	}
	var out []map[string]any
	for rows.Next() {
		values, err := scanValues(rows, len(columns))
		if err != nil {
			return nil, nil, err
		}
		row := make(map[string]any, len(columns))
		for i, c := range columns {
			if b, ok := values[i].([]byte); ok {
				values[i] = string(b)
			}
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return columns, out, rows.Err()
}

// Count runs a count statement and returns its single value.
func (e *Executor) Count(ctx context.Context, s *statement.Count) (int64, error) {
	text, args, err := e.bind(s)
	if err != nil {
		return 0, err
	}
	rows, err := e.q.Query(ctx, text, args...)
	if err != nil {
		return 0, fmt.Errorf("count execution failed: %w", err)
	}
	defer rows.Close()

	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("scan failed: %w", err)
		}
	}
	return n, rows.Err()
}

// InTx runs fn with an executor bound to a new transaction. The transaction commits when
// fn returns nil and rolls back otherwise.
func InTx(ctx context.Context, a database.Adapter, fn func(*Executor) error) (err error) {
	tx, err := a.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(New(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			debug.Warn("rollback failed", "error", rbErr)
		}
		return err
	}
	return tx.Commit()
}
