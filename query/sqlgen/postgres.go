package sqlgen

import (
	"fmt"

	"github.com/satishbabariya/sqlexpr/query/ast"
)

// Postgres is the PostgreSQL dialect.
type Postgres struct {
	Base
}

// NewPostgres creates the PostgreSQL dialect.
func NewPostgres() *Postgres {
	return &Postgres{Base{
		DialectName:   "postgres",
		OpenQuote:     `"`,
		CloseQuote:    `"`,
		LengthFunc:    "CHAR_LENGTH",
		SubstringFunc: "SUBSTRING",
	}}
}

func (d *Postgres) BindOperator(op ast.Op, integral bool) (string, error) {
	if op == ast.OpXor {
		// ^ is exponentiation here
		if integral {
			return "#", nil
		}
		return "<>", nil
	}
	return d.Base.BindOperator(op, integral)
}

func (d *Postgres) Placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}
