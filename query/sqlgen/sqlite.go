package sqlgen

import (
	"fmt"

	"github.com/satishbabariya/sqlexpr/query/ast"
)

// SQLite is the SQLite dialect. Parameters are bound by name.
type SQLite struct {
	Base
}

// NewSQLite creates the SQLite dialect.
func NewSQLite() *SQLite {
	return &SQLite{Base{
		DialectName:   "sqlite",
		OpenQuote:     `"`,
		CloseQuote:    `"`,
		LengthFunc:    "LENGTH",
		SubstringFunc: "SUBSTR",
	}}
}

func (d *SQLite) BindOperator(op ast.Op, integral bool) (string, error) {
	switch op {
	case ast.OpXor:
		return "", &UnsupportedError{Feature: "operator ^", Dialect: d.DialectName}
	case ast.OpModulo:
		return "%", nil
	}
	return d.Base.BindOperator(op, integral)
}

var sqliteDateFormats = map[string]string{
	"Year":   "%Y",
	"Month":  "%m",
	"Day":    "%d",
	"Hour":   "%H",
	"Minute": "%M",
	"Second": "%S",
}

func (d *SQLite) DatePartFunction(part, column string) (string, error) {
	f, ok := sqliteDateFormats[part]
	if !ok {
		return "", &UnsupportedError{Feature: "date part " + part, Dialect: d.DialectName}
	}
	return fmt.Sprintf("CAST(strftime('%s', %s) AS INTEGER)", f, column), nil
}

func (d *SQLite) LimitExpression(offset, rows *int) string {
	if offset != nil && rows == nil {
		return fmt.Sprintf("LIMIT -1 OFFSET %d", *offset)
	}
	return d.Base.LimitExpression(offset, rows)
}
