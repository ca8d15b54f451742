// Package schema provides the resolved, read-only model metadata consumed by the compiler.
package schema

import (
	"reflect"

	"golang.org/x/text/cases"
)

// FieldDef describes one mapped member of a model.
type FieldDef struct {
	// Name is the logical member name used in expressions.
	Name string
	// Alias is the physical column name when it differs from Name.
	Alias string
	// Type is the declared Go type; pointer types are nullable.
	Type reflect.Type

	PrimaryKey    bool
	AutoIncrement bool
	Computed      bool
	Ignored       bool

	// Expression is the SQL substituted for a computed field.
	Expression string
	// Default is used when an instance carries no value for the field.
	Default any
	// Enum is set when the field stores an enumeration.
	Enum *EnumDef

	// Index locates the struct field for reflection-based models.
	Index []int
}

// ColumnName returns the physical column name.
func (f *FieldDef) ColumnName() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// IsNullable reports whether the declared type admits nil.
func (f *FieldDef) IsNullable() bool {
	if f.Type == nil {
		return false
	}
	switch f.Type.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return true
	}
	return false
}

// BaseType returns the declared type with a single pointer level removed.
func (f *FieldDef) BaseType() reflect.Type {
	return Deref(f.Type)
}

// ModelDef is the resolved description of one table-backed type.
type ModelDef struct {
	Name   string
	Table  string
	Type   reflect.Type
	Fields []*FieldDef

	index map[string]*FieldDef
}

// NewModel creates a model definition and indexes its fields by folded name.
func NewModel(name, table string, fields ...*FieldDef) *ModelDef {
	m := &ModelDef{
		Name:   name,
		Table:  table,
		Fields: fields,
	}
	m.reindex()
	return m
}

func (m *ModelDef) reindex() {
	fold := cases.Fold()
	m.index = make(map[string]*FieldDef, len(m.Fields))
	for _, f := range m.Fields {
		if f.Ignored {
			continue
		}
		m.index[fold.String(f.Name)] = f
	}
}

// TableName returns the table the model is stored in.
func (m *ModelDef) TableName() string {
	if m.Table != "" {
		return m.Table
	}
	return m.Name
}

// Field looks up a mapped field by logical name, ignoring case.
func (m *ModelDef) Field(name string) *FieldDef {
	if m.index == nil {
		m.reindex()
	}
	return m.index[cases.Fold().String(name)]
}

// MustField is like Field but returns an UnresolvedColumnError when missing.
func (m *ModelDef) MustField(name string) (*FieldDef, error) {
	if f := m.Field(name); f != nil {
		return f, nil
	}
	return nil, &UnresolvedColumnError{Member: name, Model: m.Name}
}

// PrimaryKeys returns the declared primary-key fields in declaration order.
func (m *ModelDef) PrimaryKeys() []*FieldDef {
	var keys []*FieldDef
	for _, f := range m.Fields {
		if f.PrimaryKey && !f.Ignored {
			keys = append(keys, f)
		}
	}
	return keys
}

// Mapped returns every field that is not ignored.
func (m *ModelDef) Mapped() []*FieldDef {
	out := make([]*FieldDef, 0, len(m.Fields))
	for _, f := range m.Fields {
		if !f.Ignored {
			out = append(out, f)
		}
	}
	return out
}

// ValueOf reads the runtime value of f from instance. A nil pointer yields nil.
// Instances may be structs, pointers to structs, or map[string]any keyed by field name.
func (m *ModelDef) ValueOf(f *FieldDef, instance any) (any, error) {
	if values, ok := instance.(map[string]any); ok {
		fold := cases.Fold()
		want := fold.String(f.Name)
		for k, v := range values {
			if fold.String(k) == want {
				return v, nil
			}
		}
		return nil, nil
	}

	rv := reflect.ValueOf(instance)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, ErrNilInstance
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, &NotStructError{Type: rv.Type()}
	}
	if len(f.Index) == 0 {
		return nil, &UnresolvedColumnError{Member: f.Name, Model: m.Name}
	}

	fv, err := rv.FieldByIndexErr(f.Index)
	if err != nil {
		return nil, nil
	}
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return nil, nil
		}
		fv = fv.Elem()
	}
	return fv.Interface(), nil
}

// Deref strips one level of pointer indirection from t.
func Deref(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}
