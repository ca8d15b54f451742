package sqlgen

import (
	"fmt"

	"github.com/satishbabariya/sqlexpr/query/ast"
)

// SQLServer is the SQL Server (T-SQL) dialect. Parameters are bound by name.
type SQLServer struct {
	Base
}

// NewSQLServer creates the SQL Server dialect.
func NewSQLServer() *SQLServer {
	return &SQLServer{Base{
		DialectName:   "sqlserver",
		OpenQuote:     "[",
		CloseQuote:    "]",
		LengthFunc:    "LEN",
		SubstringFunc: "SUBSTRING",
	}}
}

func (d *SQLServer) BindOperator(op ast.Op, integral bool) (string, error) {
	switch op {
	case ast.OpLeftShift, ast.OpRightShift:
		return "", &UnsupportedError{Feature: "operator " + string(op), Dialect: d.DialectName}
	case ast.OpModulo:
		return "%", nil
	}
	return d.Base.BindOperator(op, integral)
}

func (d *SQLServer) Concat(left, right string) string {
	return fmt.Sprintf("(%s + %s)", left, right)
}

func (d *SQLServer) StringFunction(name, column string, b Binder, args []any) (string, error) {
	switch name {
	case "Trim":
		return fmt.Sprintf("LTRIM(RTRIM(%s))", column), nil
	case "Substring":
		// SUBSTRING requires a length
		if len(args) == 1 {
			return fmt.Sprintf("SUBSTRING(%s, %s, LEN(%s))", column, b.Bind(args[0]), column), nil
		}
	}
	return d.Base.StringFunction(name, column, b, args)
}

var sqlServerDateParts = map[string]string{
	"Year":   "year",
	"Month":  "month",
	"Day":    "day",
	"Hour":   "hour",
	"Minute": "minute",
	"Second": "second",
}

func (d *SQLServer) DatePartFunction(part, column string) (string, error) {
	p, ok := sqlServerDateParts[part]
	if !ok {
		return "", &UnsupportedError{Feature: "date part " + part, Dialect: d.DialectName}
	}
	return fmt.Sprintf("DATEPART(%s, %s)", p, column), nil
}

func (d *SQLServer) LimitExpression(offset, rows *int) string {
	if offset == nil && rows == nil {
		return ""
	}
	skip := 0
	if offset != nil {
		skip = *offset
	}
	if rows == nil {
		return fmt.Sprintf("OFFSET %d ROWS", skip)
	}
	return fmt.Sprintf("OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", skip, *rows)
}

func (d *SQLServer) PagingRequiresOrder() bool { return true }
