package sqlgen

import (
	"fmt"

	"github.com/satishbabariya/sqlexpr/query/ast"
)

// MySQL is the MySQL and MariaDB dialect.
type MySQL struct {
	Base
}

// NewMySQL creates the MySQL dialect.
func NewMySQL() *MySQL {
	return &MySQL{Base{
		DialectName:   "mysql",
		OpenQuote:     "`",
		CloseQuote:    "`",
		LengthFunc:    "CHAR_LENGTH",
		SubstringFunc: "SUBSTRING",
	}}
}

func (d *MySQL) BindOperator(op ast.Op, integral bool) (string, error) {
	if op == ast.OpXor && !integral {
		return "XOR", nil
	}
	return d.Base.BindOperator(op, integral)
}

func (d *MySQL) Concat(left, right string) string {
	return fmt.Sprintf("CONCAT(%s, %s)", left, right)
}

// maxRows is the documented way to page with an offset and no upper bound.
const maxRows = "18446744073709551615"

func (d *MySQL) LimitExpression(offset, rows *int) string {
	switch {
	case offset == nil && rows == nil:
		return ""
	case offset == nil:
		return fmt.Sprintf("LIMIT %d", *rows)
	case rows == nil:
		return fmt.Sprintf("LIMIT %d, %s", *offset, maxRows)
	}
	return fmt.Sprintf("LIMIT %d, %d", *offset, *rows)
}

func (d *MySQL) Placeholder(int) string { return "?" }
