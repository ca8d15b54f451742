package statement

import (
	"strings"

	"github.com/satishbabariya/sqlexpr/query/sqlgen"
)

// Insert is an INSERT statement for one row.
type Insert struct {
	Base
	// Fields holds unquoted column names; Values holds the parameter bound to each.
	Fields []string
	Values []string
}

// NewInsert creates an empty INSERT into table.
func NewInsert(d sqlgen.Dialect, table string) *Insert {
	return &Insert{Base: newBase(d, table)}
}

func (s *Insert) Kind() Kind { return KindInsert }

// AddField records column as written from param.
func (s *Insert) AddField(column, param string) {
	s.Fields = append(s.Fields, column)
	s.Values = append(s.Values, param)
}

func (s *Insert) Clear() {
	s.clear()
	s.Fields = nil
	s.Values = nil
}

func (s *Insert) ToSQL() (string, error) {
	if len(s.Fields) == 0 {
		return "", &RenderError{Kind: KindInsert, Table: s.Table, Cause: ErrEmptyStatement}
	}
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = s.Dialect.QuoteIdentifier(f)
	}
	text := "INSERT INTO " + s.table() + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(s.Values, ", ") + ")"
	return s.finish(KindInsert, text)
}

func (s *Insert) Bind() (string, []any, error) { return bind(s, s.Dialect) }

// Assignment is one SET column = parameter pair.
type Assignment struct {
	Column string
	Param  string
}

// Update is an UPDATE statement.
type Update struct {
	Base
	Set []Assignment
}

// NewUpdate creates an empty UPDATE of table.
func NewUpdate(d sqlgen.Dialect, table string) *Update {
	return &Update{Base: newBase(d, table)}
}

func (s *Update) Kind() Kind { return KindUpdate }

// SetField assigns param to column, replacing an earlier assignment of the same column.
func (s *Update) SetField(column, param string) {
	for i := range s.Set {
		if s.Set[i].Column == column {
			s.Set[i].Param = param
			return
		}
	}
	s.Set = append(s.Set, Assignment{Column: column, Param: param})
}

// UpdateFields returns the column to parameter mapping.
func (s *Update) UpdateFields() map[string]string {
	out := make(map[string]string, len(s.Set))
	for _, a := range s.Set {
		out[a.Column] = a.Param
	}
	return out
}

func (s *Update) Clear() {
	s.clear()
	s.Set = nil
}

func (s *Update) ToSQL() (string, error) {
	if len(s.Set) == 0 {
		return "", &RenderError{Kind: KindUpdate, Table: s.Table, Cause: ErrEmptyStatement}
	}
	sets := make([]string, len(s.Set))
	for i, a := range s.Set {
		sets[i] = s.Dialect.QuoteIdentifier(a.Column) + " = " + a.Param
	}
	parts := []string{"UPDATE " + s.table(), "SET " + strings.Join(sets, ", ")}
	if s.Where != "" {
		parts = append(parts, "WHERE "+s.Where)
	}
	return s.finish(KindUpdate, join(parts))
}

func (s *Update) Bind() (string, []any, error) { return bind(s, s.Dialect) }

// Delete is a DELETE statement. A delete without a filter renders only when
// Unfiltered is set.
type Delete struct {
	Base
	Unfiltered bool
}

// NewDelete creates an empty DELETE from table.
func NewDelete(d sqlgen.Dialect, table string) *Delete {
	return &Delete{Base: newBase(d, table)}
}

func (s *Delete) Kind() Kind { return KindDelete }

func (s *Delete) Clear() {
	s.clear()
	s.Unfiltered = false
}

func (s *Delete) ToSQL() (string, error) {
	if s.Where == "" {
		if !s.Unfiltered {
			return "", &RenderError{Kind: KindDelete, Table: s.Table, Cause: ErrMissingFilter}
		}
		return s.finish(KindDelete, "DELETE FROM "+s.table())
	}
	return s.finish(KindDelete, "DELETE FROM "+s.table()+" WHERE "+s.Where)
}

func (s *Delete) Bind() (string, []any, error) { return bind(s, s.Dialect) }

var (
	_ Statement = (*Insert)(nil)
	_ Statement = (*Update)(nil)
	_ Statement = (*Delete)(nil)
)
