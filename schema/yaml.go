package schema

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is the YAML form of a set of model definitions.
type Document struct {
	Enums  []*EnumDef   `yaml:"enums"`
	Models []ModelEntry `yaml:"models"`
}

// ModelEntry is one model in a Document.
type ModelEntry struct {
	Name   string       `yaml:"name"`
	Table  string       `yaml:"table"`
	Fields []FieldEntry `yaml:"fields"`
}

// FieldEntry is one field in a ModelEntry.
type FieldEntry struct {
	Name          string `yaml:"name"`
	Column        string `yaml:"column"`
	Type          string `yaml:"type"`
	PrimaryKey    bool   `yaml:"primaryKey"`
	AutoIncrement bool   `yaml:"autoIncrement"`
	Computed      string `yaml:"computed"`
	Ignore        bool   `yaml:"ignore"`
	Default       string `yaml:"default"`
}

var scalarTypes = map[string]reflect.Type{
	"string":   reflect.TypeOf(""),
	"int":      reflect.TypeOf(0),
	"int32":    reflect.TypeOf(int32(0)),
	"int64":    reflect.TypeOf(int64(0)),
	"bigint":   reflect.TypeOf(int64(0)),
	"float":    reflect.TypeOf(float64(0)),
	"float64":  reflect.TypeOf(float64(0)),
	"decimal":  reflect.TypeOf(float64(0)),
	"bool":     reflect.TypeOf(false),
	"boolean":  reflect.TypeOf(false),
	"time":     timeType,
	"datetime": timeType,
	"bytes":    reflect.TypeOf([]byte(nil)),
}

// LoadYAML reads a Document and registers its enums and models.
func (r *Registry) LoadYAML(rd io.Reader) ([]*ModelDef, error) {
	var doc Document
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode model document: %w", err)
	}

	for _, e := range doc.Enums {
		r.mu.Lock()
		r.byEnumN[e.Name] = e
		r.mu.Unlock()
	}

	models := make([]*ModelDef, 0, len(doc.Models))
	for _, entry := range doc.Models {
		m, err := r.fromEntry(entry)
		if err != nil {
			return nil, err
		}
		r.Register(m)
		models = append(models, m)
	}
	return models, nil
}

func (r *Registry) fromEntry(entry ModelEntry) (*ModelDef, error) {
	if entry.Name == "" {
		return nil, fmt.Errorf("model entry without a name")
	}
	fields := make([]*FieldDef, 0, len(entry.Fields))
	for _, fe := range entry.Fields {
		f, err := r.fromFieldEntry(fe)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", entry.Name, fe.Name, err)
		}
		fields = append(fields, f)
	}
	return NewModel(entry.Name, entry.Table, fields...), nil
}

func (r *Registry) fromFieldEntry(fe FieldEntry) (*FieldDef, error) {
	f := &FieldDef{
		Name:          fe.Name,
		Alias:         fe.Column,
		PrimaryKey:    fe.PrimaryKey,
		AutoIncrement: fe.AutoIncrement,
		Ignored:       fe.Ignore,
	}
	if fe.Computed != "" {
		f.Computed = true
		f.Expression = fe.Computed
	}

	name := strings.TrimSpace(fe.Type)
	nullable := strings.HasSuffix(name, "?")
	name = strings.TrimSuffix(name, "?")

	t, ok := scalarTypes[strings.ToLower(name)]
	if !ok {
		enum, found := r.Enum(name)
		if !found {
			return nil, fmt.Errorf("unknown type %q", fe.Type)
		}
		f.Enum = enum
		t = scalarTypes["string"]
		if enum.AsInt {
			t = scalarTypes["int64"]
		}
	}
	if nullable {
		t = reflect.PointerTo(t)
	}
	f.Type = t

	if fe.Default != "" {
		v, err := ParseValue(fe.Default, Deref(t))
		if err != nil {
			return nil, err
		}
		f.Default = v
	}
	return f, nil
}
