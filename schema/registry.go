package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jinzhu/inflection"
	"golang.org/x/text/cases"

	"github.com/satishbabariya/sqlexpr/query/cache"
)

// Provider resolves model metadata for a Go type.
type Provider interface {
	Resolve(t reflect.Type) (*ModelDef, error)
}

// Tabler lets a model type choose its table name.
type Tabler interface {
	TableName() string
}

// Options configures a Registry.
type Options struct {
	// PluralizeTables derives table names from the plural of the type name.
	PluralizeTables bool
	// CacheSize bounds the number of memoized models; zero means unbounded.
	CacheSize int
}

// Registry resolves model definitions from struct tags and from explicit registration.
//
// Struct tags:
//
//	db:"column,pk,autoincrement"   column alias and flags; db:"-" ignores the field
//	compute:"expr"                 computed column expression
//	default:"value"                default used when the instance value is nil
type Registry struct {
	mu      sync.RWMutex
	opts    Options
	models  *cache.LRU[reflect.Type, *ModelDef]
	named   map[string]*ModelDef
	enums   map[reflect.Type]*EnumDef
	byEnumN map[string]*EnumDef
}

// NewRegistry creates a new registry.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:    opts,
		models:  cache.NewLRU[reflect.Type, *ModelDef](opts.CacheSize),
		named:   make(map[string]*ModelDef),
		enums:   make(map[reflect.Type]*EnumDef),
		byEnumN: make(map[string]*EnumDef),
	}
}

// RegisterEnum associates a Go type with an enumeration definition.
func (r *Registry) RegisterEnum(t reflect.Type, def *EnumDef) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if def.Name == "" {
		def.Name = t.Name()
	}
	r.enums[t] = def
	r.byEnumN[def.Name] = def
}

// Enum returns a registered enumeration by name.
func (r *Registry) Enum(name string) (*EnumDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byEnumN[name]
	return def, ok
}

// Register adds an explicit model definition, addressable by name through Lookup.
func (r *Registry) Register(m *ModelDef) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m.reindex()
	r.named[cases.Fold().String(m.Name)] = m
	if m.Type != nil {
		r.models.Set(m.Type, m)
	}
}

// Lookup finds a model by name, ignoring case.
func (r *Registry) Lookup(name string) (*ModelDef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if m, ok := r.named[cases.Fold().String(name)]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
}

// Resolve implements Provider.
func (r *Registry) Resolve(t reflect.Type) (*ModelDef, error) {
	t = Deref(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, &NotStructError{Type: t}
	}
	return r.models.GetOrLoad(t, r.build)
}

// Of resolves the model definition of T.
func Of[T any](p Provider) (*ModelDef, error) {
	return p.Resolve(reflect.TypeOf((*T)(nil)).Elem())
}

func (r *Registry) build(t reflect.Type) (*ModelDef, error) {
	m := &ModelDef{
		Name:  t.Name(),
		Table: r.tableName(t),
		Type:  t,
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		f, err := r.buildField(sf)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name(), sf.Name, err)
		}
		m.Fields = append(m.Fields, f)
	}

	m.reindex()
	return m, nil
}

func (r *Registry) tableName(t reflect.Type) string {
	if tn, ok := reflect.New(t).Interface().(Tabler); ok {
		return tn.TableName()
	}
	if r.opts.PluralizeTables {
		return inflection.Plural(t.Name())
	}
	return t.Name()
}

func (r *Registry) buildField(sf reflect.StructField) (*FieldDef, error) {
	f := &FieldDef{
		Name:  sf.Name,
		Type:  sf.Type,
		Index: sf.Index,
	}

	tag := sf.Tag.Get("db")
	if tag == "-" {
		f.Ignored = true
		return f, nil
	}
	if tag != "" {
		parts := strings.Split(tag, ",")
		f.Alias = strings.TrimSpace(parts[0])
		for _, opt := range parts[1:] {
			switch strings.ToLower(strings.TrimSpace(opt)) {
			case "pk", "primarykey":
				f.PrimaryKey = true
			case "autoincrement", "autoinc":
				f.AutoIncrement = true
			case "computed":
				f.Computed = true
			}
		}
	}

	if expr, ok := sf.Tag.Lookup("compute"); ok {
		f.Computed = true
		f.Expression = expr
	}

	r.mu.RLock()
	f.Enum = r.enums[Deref(sf.Type)]
	r.mu.RUnlock()

	if raw, ok := sf.Tag.Lookup("default"); ok {
		v, err := ParseValue(raw, Deref(sf.Type))
		if err != nil {
			return nil, err
		}
		f.Default = v
	}
	return f, nil
}

var timeType = reflect.TypeOf(time.Time{})

// ParseValue converts raw text into a value of kind t.
func ParseValue(raw string, t reflect.Type) (any, error) {
	if t == timeType {
		return time.Parse(time.RFC3339, raw)
	}
	var v any
	var err error
	switch t.Kind() {
	case reflect.String:
		v = raw
	case reflect.Bool:
		v, err = strconv.ParseBool(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var n int64
		n, err = strconv.ParseInt(raw, 10, 64)
		v = reflect.ValueOf(n).Convert(t).Interface()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var n uint64
		n, err = strconv.ParseUint(raw, 10, 64)
		v = reflect.ValueOf(n).Convert(t).Interface()
	case reflect.Float32, reflect.Float64:
		var n float64
		n, err = strconv.ParseFloat(raw, 64)
		v = reflect.ValueOf(n).Convert(t).Interface()
	default:
		return nil, fmt.Errorf("unsupported default for type %v", t)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid default %q: %w", raw, err)
	}
	return v, nil
}
