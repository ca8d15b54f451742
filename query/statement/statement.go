// Package statement holds the per-command accumulators the builders fill in and renders
// them into final command text.
package statement

import (
	"strings"

	"github.com/satishbabariya/sqlexpr/query/compiler"
	"github.com/satishbabariya/sqlexpr/query/sqlgen"
)

// Kind identifies a statement type.
type Kind string

const (
	KindSelect Kind = "select"
	KindCount  Kind = "count"
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Statement is implemented by every statement type.
type Statement interface {
	Kind() Kind
	TableName() string
	Parameters() *compiler.ParamStore
	// ToSQL renders the command text with parameter names in place.
	ToSQL() (string, error)
	// Bind renders the command in the driver's placeholder syntax with ordered arguments.
	Bind() (string, []any, error)
	// Clear resets clause buffers and parameters, keeping the table binding.
	Clear()
}

// Base is shared by every statement.
type Base struct {
	Dialect sqlgen.Dialect
	Table   string
	Params  *compiler.ParamStore
	Where   string
}

func newBase(d sqlgen.Dialect, table string) Base {
	return Base{Dialect: d, Table: table, Params: compiler.NewParamStore(d)}
}

func (b *Base) TableName() string { return b.Table }

func (b *Base) Parameters() *compiler.ParamStore { return b.Params }

// SetWhere replaces the filter.
func (b *Base) SetWhere(text string) { b.Where = text }

// AppendWhere composes text with the current filter using op (AND, OR). With no current
// filter it behaves like SetWhere.
func (b *Base) AppendWhere(op, text string) {
	if b.Where == "" {
		b.Where = text
		return
	}
	b.Where = "(" + b.Where + ") " + op + " (" + text + ")"
}

func (b *Base) clear() {
	b.Where = ""
	b.Params.Clear()
}

func (b *Base) table() string {
	return b.Dialect.QuoteIdentifier(b.Table)
}

// finish validates parameters against every text the statement emits.
func (b *Base) finish(kind Kind, text string) (string, error) {
	if err := b.Params.Validate(text); err != nil {
		return "", &RenderError{Kind: kind, Table: b.Table, Cause: err}
	}
	return text, nil
}

func bind(s Statement, d sqlgen.Dialect) (string, []any, error) {
	text, err := s.ToSQL()
	if err != nil {
		return "", nil, err
	}
	sqlText, args := sqlgen.Bind(d, text, s.Parameters().Args())
	return sqlText, args, nil
}

func join(parts []string) string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
