package compiler

import (
	"fmt"
	"reflect"

	"github.com/satishbabariya/sqlexpr/query/sqlgen"
)

// Param is one bound value.
type Param struct {
	Name  string
	Type  reflect.Type
	Value any
}

// ParamStore is the insertion-ordered set of parameters owned by one statement.
// Names derive from insertion position, so compiling the same tree against the same
// store state always yields the same names.
type ParamStore struct {
	dialect sqlgen.Dialect
	params  []*Param
	removed map[string]bool
}

// NewParamStore creates an empty store naming parameters with d.
func NewParamStore(d sqlgen.Dialect) *ParamStore {
	return &ParamStore{dialect: d, removed: make(map[string]bool)}
}

// Add appends a parameter and returns it. A nil t is taken from the value.
func (s *ParamStore) Add(value any, t reflect.Type) *Param {
	if t == nil && value != nil {
		t = reflect.TypeOf(value)
	}
	ordinal := len(s.params)
	name := s.dialect.ParamName(ordinal)
	for s.Get(name) != nil {
		ordinal++
		name = s.dialect.ParamName(ordinal)
	}
	p := &Param{Name: name, Type: t, Value: value}
	s.params = append(s.params, p)
	delete(s.removed, name)
	return p
}

// Get returns the parameter called name, or nil.
func (s *ParamStore) Get(name string) *Param {
	for _, p := range s.params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Remove drops the named parameter. Validate reports any text still referencing it.
func (s *ParamStore) Remove(name string) {
	for i, p := range s.params {
		if p.Name == name {
			s.params = append(s.params[:i], s.params[i+1:]...)
			s.removed[name] = true
			return
		}
	}
}

// discard drops the parameters at positions [from, to). Their names are free for reuse
// since no emitted text references them.
func (s *ParamStore) discard(from, to int) {
	if from < 0 || to > len(s.params) || from >= to {
		return
	}
	s.params = append(s.params[:from], s.params[to:]...)
}

// Clone returns an independent copy of the store.
func (s *ParamStore) Clone() *ParamStore {
	out := NewParamStore(s.dialect)
	for _, p := range s.params {
		cp := *p
		out.params = append(out.params, &cp)
	}
	for name := range s.removed {
		out.removed[name] = true
	}
	return out
}

// Toggle negates a boolean parameter in place.
func (s *ParamStore) Toggle(name string) error {
	p := s.Get(name)
	if p == nil {
		return fmt.Errorf("unknown parameter %s", name)
	}
	b, ok := p.Value.(bool)
	if !ok {
		return unsupported("!"+name, "parameter holds %T, not bool", p.Value)
	}
	p.Value = !b
	return nil
}

// Len returns the number of parameters.
func (s *ParamStore) Len() int { return len(s.params) }

// Dialect returns the dialect parameter names are generated for.
func (s *ParamStore) Dialect() sqlgen.Dialect { return s.dialect }

// All returns the parameters in insertion order.
func (s *ParamStore) All() []*Param {
	out := make([]*Param, len(s.params))
	copy(out, s.params)
	return out
}

// Args returns the parameters as bind arguments.
func (s *ParamStore) Args() []sqlgen.Arg {
	out := make([]sqlgen.Arg, len(s.params))
	for i, p := range s.params {
		out[i] = sqlgen.Arg{Name: p.Name, Value: p.Value}
	}
	return out
}

// Values returns the bound values in insertion order.
func (s *ParamStore) Values() []any {
	out := make([]any, len(s.params))
	for i, p := range s.params {
		out[i] = p.Value
	}
	return out
}

// Validate fails if any of texts references a removed parameter.
func (s *ParamStore) Validate(texts ...string) error {
	for name := range s.removed {
		for _, text := range texts {
			if len(sqlgen.References(text, name)) > 0 {
				return fmt.Errorf("%w: %s", ErrDanglingParameter, name)
			}
		}
	}
	return nil
}

// Clear empties the store.
func (s *ParamStore) Clear() {
	s.params = nil
	s.removed = make(map[string]bool)
}

// Bind allocates a parameter for value; it lets dialect hooks bind literals.
func (s *ParamStore) Bind(value any) string {
	return s.Add(value, nil).Name
}
