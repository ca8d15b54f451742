// Package builder provides fluent query builders over the expression compiler.
//
// Typed builders (From, CountOf, InsertInto, UpdateOf, DeleteFrom) resolve their model
// from a Go type and take filters, projections and orderings as expression trees.
// The dynamic builder (Table, Model) takes field names and format-string filters.
//
// Builders record the first error they meet and ignore later calls; the error is
// reported by Err and by every rendering method, so no partial SQL is produced.
package builder

import (
	"errors"
	"fmt"

	"github.com/satishbabariya/sqlexpr/internal/debug"
	"github.com/satishbabariya/sqlexpr/query/ast"
	"github.com/satishbabariya/sqlexpr/query/compiler"
	"github.com/satishbabariya/sqlexpr/query/sqlgen"
	"github.com/satishbabariya/sqlexpr/query/statement"
	"github.com/satishbabariya/sqlexpr/schema"
)

var (
	// ErrNoModel is returned by operations that need model metadata on a builder without one.
	ErrNoModel = errors.New("builder: no model attached")
	// ErrFormat is returned for a malformed format-string filter.
	ErrFormat = errors.New("builder: invalid filter format")
	// ErrArity is returned when a call receives the wrong number of arguments.
	ErrArity = errors.New("builder: wrong number of arguments")
)

// core is the state shared by every builder.
type core struct {
	dialect sqlgen.Dialect
	model   *schema.ModelDef

	// base is the resolution error, which survives Clear.
	base error
	err  error
}

func newCore(d sqlgen.Dialect, m *schema.ModelDef, err error) core {
	return core{dialect: d, model: m, base: err, err: err}
}

// Err returns the first error recorded by the builder.
func (c *core) Err() error { return c.err }

func (c *core) fail(err error) {
	if err == nil || c.err != nil {
		return
	}
	debug.Warn("builder call failed", "table", c.table(), "error", err)
	c.err = err
}

func (c *core) reset() { c.err = c.base }

func (c *core) table() string { return tableOf(c.model) }

func (c *core) requireModel(op string) bool {
	if c.err != nil {
		return false
	}
	if c.model == nil {
		c.fail(fmt.Errorf("%w: %s", ErrNoModel, op))
		return false
	}
	return true
}

func (c *core) compile(params *compiler.ParamStore, l *ast.LambdaExpr, clause compiler.Clause) (string, bool) {
	if !c.requireModel(clause.String()) {
		return "", false
	}
	text, err := compiler.New(c.dialect, c.model, params).VisitExpression(l, clause)
	if err != nil {
		c.fail(err)
		return "", false
	}
	return text, true
}

func (c *core) order(params *compiler.ParamStore, l *ast.LambdaExpr, descending bool) ([]string, bool) {
	if !c.requireModel("order by") {
		return nil, false
	}
	keys, err := compiler.New(c.dialect, c.model, params).VisitOrder(l, descending)
	if err != nil {
		c.fail(err)
		return nil, false
	}
	return keys, true
}

// filter compiles l into b's WHERE. An empty op replaces the filter.
func (c *core) filter(b *statement.Base, op string, l *ast.LambdaExpr) {
	text, ok := c.compile(b.Params, l, compiler.ClauseCondition)
	if !ok {
		return
	}
	if op == "" {
		b.SetWhere(text)
	} else {
		b.AppendWhere(op, text)
	}
	debug.Debug("filter", "table", b.Table, "op", op, "where", b.Where)
}

// bindValues allocates one parameter per retained field of instance and hands the
// column and parameter to record. Computed fields are always skipped, auto-increment
// fields when skipAuto is set. A nil value falls back to the field default; fields
// that are still nil are left out.
func (c *core) bindValues(params *compiler.ParamStore, instance any, only []string, skipAuto bool, record func(column, param string)) {
	if !c.requireModel("bind values") {
		return
	}
	var want map[*schema.FieldDef]bool
	if len(only) > 0 {
		want = make(map[*schema.FieldDef]bool, len(only))
		for _, name := range only {
			f, err := c.model.MustField(name)
			if err != nil {
				c.fail(err)
				return
			}
			want[f] = true
		}
	}

	for _, f := range c.model.Mapped() {
		if f.Computed || (skipAuto && f.AutoIncrement) {
			continue
		}
		if want != nil && !want[f] {
			continue
		}
		v, err := c.model.ValueOf(f, instance)
		if err != nil {
			c.fail(err)
			return
		}
		if v == nil {
			v = f.Default
		}
		if v == nil {
			continue
		}
		if f.Enum != nil {
			if v, err = f.Enum.Coerce(v); err != nil {
				c.fail(err)
				return
			}
		}
		p := params.Add(v, f.BaseType())
		record(f.ColumnName(), p.Name)
	}
}

// byPrimaryKey ANDs an equality filter on the key fields of instance into b. Models
// without declared keys match on every mapped field.
func (c *core) byPrimaryKey(b *statement.Base, instance any) {
	if !c.requireModel("by primary key") {
		return
	}
	keys := c.model.PrimaryKeys()
	if len(keys) == 0 {
		keys = c.model.Mapped()
	}
	values := make([]any, len(keys))
	for i, f := range keys {
		v, err := c.model.ValueOf(f, instance)
		if err != nil {
			c.fail(err)
			return
		}
		values[i] = v
	}

	l := ast.Lambda(func(row *ast.ParameterExpr) ast.Node {
		var node ast.Node
		for i, f := range keys {
			eq := ast.Eq(row.Field(f.Name), values[i])
			if node == nil {
				node = eq
			} else {
				node = ast.And(node, eq)
			}
		}
		return node
	})
	c.filter(b, "AND", l)
}

// limit applies Limit arguments: none clears, one is the row count, two are skip and
// row count.
func (c *core) limit(s *statement.Select, n []int) {
	if c.err != nil {
		return
	}
	var err error
	switch len(n) {
	case 0:
		s.ClearLimit()
	case 1:
		err = s.SetLimit(nil, &n[0])
	case 2:
		err = s.SetLimit(&n[0], &n[1])
	default:
		err = fmt.Errorf("%w: limit takes at most skip and rows, got %d values", ErrArity, len(n))
	}
	c.fail(err)
}

// render returns the statement text unless an error was recorded.
func (c *core) render(s statement.Statement) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return s.ToSQL()
}

func (c *core) bind(s statement.Statement) (string, []any, error) {
	if c.err != nil {
		return "", nil, c.err
	}
	return s.Bind()
}

func tableOf(m *schema.ModelDef) string {
	if m == nil {
		return ""
	}
	return m.TableName()
}
