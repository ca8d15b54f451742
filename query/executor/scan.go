package executor

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"time"

	"golang.org/x/text/cases"

	"github.com/satishbabariya/sqlexpr/query/statement"
	"github.com/satishbabariya/sqlexpr/schema"
)

// Find runs s and maps each row onto a new T using the model's column mapping.
// Columns without a matching field are ignored.
func Find[T any](ctx context.Context, e *Executor, s statement.Statement, m *schema.ModelDef) ([]T, error) {
	text, args, err := e.bind(s)
	if err != nil {
		return nil, err
	}
	rows, err := e.q.Query(ctx, text, args...)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	fields := fieldsFor(m, columns)

	var out []T
	for rows.Next() {
		values, err := scanValues(rows, len(columns))
		if err != nil {
			return nil, err
		}
		var item T
		target := reflect.ValueOf(&item).Elem()
		for target.Kind() == reflect.Pointer {
			target.Set(reflect.New(target.Type().Elem()))
			target = target.Elem()
		}
		if target.Kind() != reflect.Struct {
			return nil, &schema.NotStructError{Type: target.Type()}
		}
		for i, f := range fields {
			if f == nil || values[i] == nil {
				continue
			}
			fv, err := target.FieldByIndexErr(f.Index)
			if err != nil || !fv.CanSet() {
				continue
			}
			if err := setFieldValue(fv, values[i]); err != nil {
				return nil, fmt.Errorf("failed to set field %s: %w", f.Name, err)
			}
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// First is like Find but returns the first row, or ErrNoRows.
func First[T any](ctx context.Context, e *Executor, s statement.Statement, m *schema.ModelDef) (T, error) {
	var zero T
	items, err := Find[T](ctx, e, s, m)
	if err != nil {
		return zero, err
	}
	if len(items) == 0 {
		return zero, ErrNoRows
	}
	return items[0], nil
}

// fieldsFor matches result columns to model fields by column name, then by logical name.
func fieldsFor(m *schema.ModelDef, columns []string) []*schema.FieldDef {
	fold := cases.Fold()
	byColumn := make(map[string]*schema.FieldDef)
	for _, f := range m.Mapped() {
		if len(f.Index) > 0 {
			byColumn[fold.String(f.ColumnName())] = f
		}
	}
	out := make([]*schema.FieldDef, len(columns))
	for i, c := range columns {
		if f, ok := byColumn[fold.String(c)]; ok {
			out[i] = f
		} else if f := m.Field(c); f != nil && len(f.Index) > 0 {
			out[i] = f
		}
	}
	return out
}

func scanValues(rows *sql.Rows, n int) ([]any, error) {
	values := make([]any, n)
	ptrs := make([]any, n)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return values, nil
}

var timeType = reflect.TypeOf(time.Time{})

// setFieldValue assigns a driver value to a struct field, converting where the driver's
// representation differs from the declared type.
func setFieldValue(field reflect.Value, value any) error {
	ft := field.Type()
	if ft.Kind() == reflect.Pointer {
		elem := reflect.New(ft.Elem())
		if err := setFieldValue(elem.Elem(), value); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(ft):
		field.Set(v)
		return nil
	case ft.Kind() == reflect.Bool && v.CanInt():
		field.SetBool(v.Int() != 0)
		return nil
	case ft == timeType:
		s, ok := value.(string)
		if b, isBytes := value.([]byte); isBytes {
			s, ok = string(b), true
		}
		if !ok {
			break
		}
		t, err := parseTime(s)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(t))
		return nil
	case isBytes(value) && ft.Kind() != reflect.String && ft.Kind() != reflect.Slice:
		// numeric text from drivers that return []byte
		parsed, err := schema.ParseValue(string(value.([]byte)), ft)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(parsed).Convert(ft))
		return nil
	case v.Type().ConvertibleTo(ft) && convertible(v.Kind(), ft.Kind()):
		field.Set(v.Convert(ft))
		return nil
	}
	return fmt.Errorf("cannot convert %s to %s", v.Type(), ft)
}

func isBytes(v any) bool {
	_, ok := v.([]byte)
	return ok
}

// convertible excludes numeric to string conversions, which reflect allows as rune casts.
func convertible(from, to reflect.Kind) bool {
	if to == reflect.String {
		return from == reflect.String || from == reflect.Slice
	}
	return true
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as time", s)
}
