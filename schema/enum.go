package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// EnumValue is one named member of an enumeration.
type EnumValue struct {
	Name  string `yaml:"name"`
	Value int64  `yaml:"value"`
}

// EnumDef describes how an enumeration is stored. Columns hold the member name unless
// AsInt is set, in which case they hold the numeric value.
type EnumDef struct {
	Name   string      `yaml:"name"`
	Values []EnumValue `yaml:"values"`
	AsInt  bool        `yaml:"asInt"`
}

// Coerce converts v into the enum's stored representation.
func (e *EnumDef) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if e.AsInt {
		return e.toInt(v)
	}
	return e.toName(v)
}

func (e *EnumDef) toInt(v any) (any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	case reflect.String:
		s := rv.String()
		if m, ok := e.byName(s); ok {
			return m.Value, nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		return nil, fmt.Errorf("%w: %q is not a member of %s", ErrInvalidEnumValue, s, e.Name)
	}
	if s, ok := v.(fmt.Stringer); ok {
		return e.toInt(s.String())
	}
	return nil, fmt.Errorf("%w: cannot convert %T to %s", ErrInvalidEnumValue, v, e.Name)
}

func (e *EnumDef) toName(v any) (any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if m, ok := e.byValue(rv.Int()); ok {
			return m.Name, nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if m, ok := e.byValue(int64(rv.Uint())); ok {
			return m.Name, nil
		}
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String(), nil
	}
	return nil, fmt.Errorf("%w: %v is not a member of %s", ErrInvalidEnumValue, v, e.Name)
}

func (e *EnumDef) byName(name string) (EnumValue, bool) {
	for _, m := range e.Values {
		if m.Name == name {
			return m, true
		}
	}
	for _, m := range e.Values {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return EnumValue{}, false
}

func (e *EnumDef) byValue(n int64) (EnumValue, bool) {
	for _, m := range e.Values {
		if m.Value == n {
			return m, true
		}
	}
	return EnumValue{}, false
}
