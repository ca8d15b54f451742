package statement

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/sqlexpr/query/sqlgen"
)

// Select is a SELECT statement.
type Select struct {
	Base
	// Columns holds compiled projection fragments; empty selects every column.
	Columns  []string
	Distinct bool
	GroupBy  string
	Having   string
	// OrderBy holds ordering keys, each already suffixed with ASC or DESC.
	OrderBy []string
	Offset  *int
	Rows    *int
}

// NewSelect creates an empty SELECT over table.
func NewSelect(d sqlgen.Dialect, table string) *Select {
	return &Select{Base: newBase(d, table)}
}

func (s *Select) Kind() Kind { return KindSelect }

// SetLimit stores paging. Negative values are rejected immediately and leave the
// statement unchanged.
func (s *Select) SetLimit(skip, rows *int) error {
	if skip != nil && *skip < 0 {
		return &InvalidLimitError{Field: "skip", Value: *skip}
	}
	if rows != nil && *rows < 0 {
		return &InvalidLimitError{Field: "rows", Value: *rows}
	}
	s.Offset = copyInt(skip)
	s.Rows = copyInt(rows)
	return nil
}

// ClearLimit removes paging.
func (s *Select) ClearLimit() {
	s.Offset = nil
	s.Rows = nil
}

// SetOrderBy replaces the ordering keys.
func (s *Select) SetOrderBy(keys ...string) {
	s.OrderBy = append([]string(nil), keys...)
}

// AppendOrderBy adds ordering keys after the current ones.
func (s *Select) AppendOrderBy(keys ...string) {
	s.OrderBy = append(s.OrderBy, keys...)
}

// OrderByText returns the ordering keys as one fragment.
func (s *Select) OrderByText() string {
	return strings.Join(s.OrderBy, ",")
}

// Clear resets every clause and the parameters, keeping the table.
func (s *Select) Clear() {
	s.clear()
	s.Columns = nil
	s.Distinct = false
	s.GroupBy = ""
	s.Having = ""
	s.OrderBy = nil
	s.ClearLimit()
}

func (s *Select) ToSQL() (string, error) {
	sel := "SELECT "
	if s.Distinct {
		sel += "DISTINCT "
	}
	if len(s.Columns) == 0 {
		sel += "*"
	} else {
		sel += strings.Join(s.Columns, ", ")
	}

	parts := []string{sel, "FROM " + s.table()}
	if s.Where != "" {
		parts = append(parts, "WHERE "+s.Where)
	}
	if s.GroupBy != "" {
		parts = append(parts, "GROUP BY "+s.GroupBy)
	}
	if s.Having != "" {
		parts = append(parts, "HAVING "+s.Having)
	}

	limit := s.Dialect.LimitExpression(s.Offset, s.Rows)
	switch {
	case len(s.OrderBy) > 0:
		parts = append(parts, "ORDER BY "+s.OrderByText())
	case limit != "" && s.Dialect.PagingRequiresOrder():
		parts = append(parts, "ORDER BY (SELECT NULL)")
	}
	parts = append(parts, limit)

	return s.finish(KindSelect, join(parts))
}

func (s *Select) Bind() (string, []any, error) { return bind(s, s.Dialect) }

// Count is a SELECT COUNT(*) statement.
type Count struct {
	Base
	GroupBy string
	Having  string
}

// NewCount creates an empty COUNT over table.
func NewCount(d sqlgen.Dialect, table string) *Count {
	return &Count{Base: newBase(d, table)}
}

func (c *Count) Kind() Kind { return KindCount }

func (c *Count) Clear() {
	c.clear()
	c.GroupBy = ""
	c.Having = ""
}

// ToSQL counts rows, or groups when a grouping is set. A HAVING filter needs a grouping.
func (c *Count) ToSQL() (string, error) {
	parts := []string{"FROM " + c.table()}
	if c.Where != "" {
		parts = append(parts, "WHERE "+c.Where)
	}
	if c.GroupBy == "" {
		if c.Having != "" {
			return "", &RenderError{Kind: KindCount, Table: c.Table, Cause: ErrHavingWithoutGroup}
		}
		return c.finish(KindCount, "SELECT COUNT(*) "+join(parts))
	}

	parts = append(parts, "GROUP BY "+c.GroupBy)
	if c.Having != "" {
		parts = append(parts, "HAVING "+c.Having)
	}
	inner := "SELECT 1 AS " + c.Dialect.QuoteIdentifier("one") + " " + join(parts)
	return c.finish(KindCount, fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS %s", inner, c.Dialect.QuoteIdentifier("grouped")))
}

func (c *Count) Bind() (string, []any, error) { return bind(c, c.Dialect) }

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

var (
	_ Statement = (*Select)(nil)
	_ Statement = (*Count)(nil)
)
