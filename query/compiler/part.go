package compiler

import (
	"reflect"

	"github.com/satishbabariya/sqlexpr/schema"
)

// PartKind classifies a compiled fragment.
type PartKind int

const (
	// TextPart is an opaque SQL fragment.
	TextPart PartKind = iota
	// ParamPart references a parameter in the store.
	ParamPart
	// ColumnPart references a quoted column.
	ColumnPart
)

// Part is the result of compiling one node. A nil *Part stands for SQL NULL.
type Part struct {
	Kind PartKind
	Text string
	Type reflect.Type

	// Param is set for ParamPart.
	Param *Param
	// Field is set for ColumnPart and for computed fields.
	Field *schema.FieldDef

	// bare marks unparenthesized predicates and expressions that need wrapping when
	// used as an operand.
	bare bool
}

func textPart(text string, t reflect.Type, bare bool) *Part {
	return &Part{Kind: TextPart, Text: text, Type: t, bare: bare}
}

func paramPart(p *Param) *Part {
	return &Part{Kind: ParamPart, Text: p.Name, Type: p.Type, Param: p}
}

// named reports whether p stands for a model field, stored or computed, and so
// projects under the field's name.
func (p *Part) named() bool {
	return p != nil && p.Field != nil && (p.Kind == ColumnPart || p.Field.Computed)
}

// operand renders p for use inside a larger expression.
func (p *Part) operand() string {
	if p == nil {
		return "NULL"
	}
	if p.bare {
		return "(" + p.Text + ")"
	}
	return p.Text
}

// String renders p as a standalone fragment.
func (p *Part) String() string {
	if p == nil {
		return "NULL"
	}
	return p.Text
}

func (p *Part) isParam() bool { return p != nil && p.Kind == ParamPart }

// literal reports whether p carries a known value: a parameter or NULL.
func (p *Part) literal() bool { return p == nil || p.Kind == ParamPart }

func (p *Part) value() any {
	if p == nil {
		return nil
	}
	return p.Param.Value
}

var (
	boolType   = reflect.TypeOf(false)
	intType    = reflect.TypeOf(0)
	stringType = reflect.TypeOf("")
)

func baseKind(t reflect.Type) reflect.Kind {
	if t == nil {
		return reflect.Invalid
	}
	return schema.Deref(t).Kind()
}

func isBool(p *Part) bool {
	return p != nil && baseKind(p.Type) == reflect.Bool
}

func isString(p *Part) bool {
	return p != nil && baseKind(p.Type) == reflect.String
}

func isIntegral(p *Part) bool {
	if p == nil {
		return false
	}
	switch baseKind(p.Type) {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isFloat(p *Part) bool {
	if p == nil {
		return false
	}
	k := baseKind(p.Type)
	return k == reflect.Float32 || k == reflect.Float64
}
