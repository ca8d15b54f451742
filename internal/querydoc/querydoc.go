// Package querydoc reads YAML query documents and turns them into statements.
//
//	version: "1.0"
//	model: Person
//	kind: select
//	where: x => x.Age.HasValue && x.Age.Value > minAge
//	orderBy: [-Age, Name]
//	take: 10
//	vars:
//	  minAge: 40
package querydoc

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/sqlexpr/internal/debug"
	"github.com/satishbabariya/sqlexpr/query/builder"
	"github.com/satishbabariya/sqlexpr/query/lambda"
	"github.com/satishbabariya/sqlexpr/query/sqlgen"
	"github.com/satishbabariya/sqlexpr/query/statement"
	"github.com/satishbabariya/sqlexpr/schema"
)

// Supported is the range of document versions this build understands.
const Supported = ">= 1.0, < 2.0"

var (
	ErrVersion = errors.New("unsupported document version")
	ErrKind    = errors.New("unknown statement kind")
)

// Condition is a format-string filter with positional arguments.
type Condition struct {
	Format string `yaml:"format"`
	Args   []any  `yaml:"args"`
}

// Document is one query.
type Document struct {
	Version  string         `yaml:"version"`
	Model    string         `yaml:"model"`
	Kind     string         `yaml:"kind"`
	Select   []string       `yaml:"select"`
	Project  string         `yaml:"project"`
	Distinct bool           `yaml:"distinct"`
	Where    string         `yaml:"where"`
	And      []string       `yaml:"and"`
	Or       []string       `yaml:"or"`
	Filters  []Condition    `yaml:"filters"`
	GroupBy  []string       `yaml:"groupBy"`
	Having   []Condition    `yaml:"having"`
	OrderBy  []string       `yaml:"orderBy"`
	Skip     *int           `yaml:"skip"`
	Take     *int           `yaml:"take"`
	Values   map[string]any `yaml:"values"`
	All      bool           `yaml:"all"`
	Vars     map[string]any `yaml:"vars"`
}

// Decode reads a document and checks its version.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode query document: %w", err)
	}
	if err := CheckVersion(doc.Version); err != nil {
		return nil, err
	}
	if doc.Kind == "" {
		doc.Kind = string(statement.KindSelect)
	}
	return &doc, nil
}

// CheckVersion reports whether v is within Supported. An empty version is accepted.
func CheckVersion(v string) error {
	if v == "" {
		return nil
	}
	got, err := version.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVersion, err)
	}
	constraints, err := version.NewConstraint(Supported)
	if err != nil {
		return err
	}
	if !constraints.Check(got) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrVersion, got, Supported)
	}
	return nil
}

// Build resolves the document's model in reg and builds its statement for d.
func (doc *Document) Build(d sqlgen.Dialect, reg *schema.Registry) (statement.Statement, error) {
	m, err := reg.Lookup(doc.Model)
	if err != nil {
		return nil, err
	}
	q := builder.Model(d, m)

	vars := lambda.Vars(doc.Vars)
	if doc.Where != "" {
		l, err := lambda.Parse(doc.Where, vars)
		if err != nil {
			return nil, fmt.Errorf("where: %w", err)
		}
		q.WhereExpr(l)
	}
	for _, src := range doc.And {
		l, err := lambda.Parse(src, vars)
		if err != nil {
			return nil, fmt.Errorf("and: %w", err)
		}
		q.AndExpr(l)
	}
	for _, src := range doc.Or {
		l, err := lambda.Parse(src, vars)
		if err != nil {
			return nil, fmt.Errorf("or: %w", err)
		}
		q.OrExpr(l)
	}
	for _, c := range doc.Filters {
		q.And(c.Format, c.Args...)
	}
	if len(doc.GroupBy) > 0 {
		q.GroupBy(doc.GroupBy...)
	}
	for _, c := range doc.Having {
		q.Having(c.Format, c.Args...)
	}
	if err := q.Err(); err != nil {
		return nil, err
	}
	debug.Debug("building document", "model", m.Name, "kind", doc.Kind)

	switch statement.Kind(doc.Kind) {
	case statement.KindSelect:
		return doc.selectStatement(q, vars)
	case statement.KindCount:
		return q.Count()
	case statement.KindDelete:
		s, err := q.Delete()
		if err != nil {
			return nil, err
		}
		s.Unfiltered = doc.All
		return s, nil
	case statement.KindUpdate:
		values, err := coerce(m, doc.Values)
		if err != nil {
			return nil, err
		}
		return q.Update(values)
	case statement.KindInsert:
		values, err := coerce(m, doc.Values)
		if err != nil {
			return nil, err
		}
		return q.Insert(values)
	}
	return nil, fmt.Errorf("%w: %q", ErrKind, doc.Kind)
}

func (doc *Document) selectStatement(q *builder.Dynamic, vars lambda.Vars) (statement.Statement, error) {
	switch {
	case doc.Project != "":
		l, err := lambda.Parse(doc.Project, vars)
		if err != nil {
			return nil, fmt.Errorf("project: %w", err)
		}
		q.SelectExpr(l)
	case len(doc.Select) > 0:
		q.Select(doc.Select...)
	}
	q.Distinct(doc.Distinct)
	if len(doc.OrderBy) > 0 {
		q.OrderBy(doc.OrderBy...)
	}
	switch {
	case doc.Skip != nil && doc.Take != nil:
		q.Limit(*doc.Skip, *doc.Take)
	case doc.Take != nil:
		q.Limit(*doc.Take)
	case doc.Skip != nil:
		s, err := q.Statement()
		if err != nil {
			return nil, err
		}
		if err := s.SetLimit(doc.Skip, nil); err != nil {
			return nil, err
		}
	}
	return q.Statement()
}

// coerce converts YAML text values into the declared field types and resolves enum names.
func coerce(m *schema.ModelDef, values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for name, v := range values {
		f, err := m.MustField(name)
		if err != nil {
			return nil, err
		}
		if s, ok := v.(string); ok && f.Type != nil && f.Enum == nil {
			if t := f.BaseType(); t.Kind() != reflect.String {
				if v, err = schema.ParseValue(s, t); err != nil {
					return nil, fmt.Errorf("%s: %w", name, err)
				}
			}
		}
		if f.Enum != nil && v != nil {
			if v, err = f.Enum.Coerce(v); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}
		out[name] = v
	}
	return out, nil
}
