// Package sqlgen isolates per-engine SQL syntax behind the Dialect interface.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/sqlexpr/query/ast"
)

// Binder allocates a bound parameter for a literal and returns the text that references it.
type Binder interface {
	Bind(value any) string
}

// Dialect is the capability surface one database engine implements. Every method is a
// pure function of its inputs.
type Dialect interface {
	// Name returns the engine name used in error messages.
	Name() string
	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(name string) string
	// ParamName returns the name of the parameter at ordinal.
	ParamName(ordinal int) string
	// BindOperator spells op, or fails when the engine cannot express it.
	BindOperator(op ast.Op, integral bool) (string, error)
	// Concat joins two string expressions.
	Concat(left, right string) string
	// StringFunction renders a string operation over column. args are literal values;
	// patterns and operands are bound through b.
	StringFunction(name, column string, b Binder, args []any) (string, error)
	// DatePartFunction extracts part (Year, Month, ...) from column.
	DatePartFunction(part, column string) (string, error)
	// LimitExpression renders the paging clause; nil means not set.
	LimitExpression(offset, rows *int) string
	// PagingRequiresOrder reports whether paging is only valid after ORDER BY.
	PagingRequiresOrder() bool
	// Placeholder returns the driver placeholder for the 1-based position, or "" when the
	// driver binds parameter names natively.
	Placeholder(position int) string
}

// Base carries the behavior shared by most engines. Engines embed it and override
// what differs.
type Base struct {
	DialectName string
	OpenQuote   string
	CloseQuote  string
	// LengthFunc is the character-length function.
	LengthFunc string
	// SubstringFunc is the substring function.
	SubstringFunc string
}

func (b *Base) Name() string { return b.DialectName }

func (b *Base) QuoteIdentifier(name string) string {
	if strings.HasPrefix(name, b.OpenQuote) && strings.HasSuffix(name, b.CloseQuote) && len(name) > 1 {
		return name
	}
	escaped := strings.ReplaceAll(name, b.CloseQuote, b.CloseQuote+b.CloseQuote)
	return b.OpenQuote + escaped + b.CloseQuote
}

func (b *Base) ParamName(ordinal int) string {
	return fmt.Sprintf("@p%d", ordinal)
}

var baseOperators = map[ast.Op]string{
	ast.OpAdd:            "+",
	ast.OpSubtract:       "-",
	ast.OpMultiply:       "*",
	ast.OpDivide:         "/",
	ast.OpModulo:         "MOD",
	ast.OpAnd:            "AND",
	ast.OpOr:             "OR",
	ast.OpEqual:          "=",
	ast.OpNotEqual:       "<>",
	ast.OpLessThan:       "<",
	ast.OpLessOrEqual:    "<=",
	ast.OpGreaterThan:    ">",
	ast.OpGreaterOrEqual: ">=",
	ast.OpBitAnd:         "&",
	ast.OpBitOr:          "|",
	ast.OpXor:            "^",
	ast.OpLeftShift:      "<<",
	ast.OpRightShift:     ">>",
	ast.OpCoalesce:       "COALESCE",
}

func (b *Base) BindOperator(op ast.Op, integral bool) (string, error) {
	// & and | over booleans are logical
	if !integral {
		switch op {
		case ast.OpBitAnd:
			return "AND", nil
		case ast.OpBitOr:
			return "OR", nil
		}
	}
	if s, ok := baseOperators[op]; ok {
		return s, nil
	}
	return "", &UnsupportedError{Feature: "operator " + string(op), Dialect: b.DialectName}
}

func (b *Base) Concat(left, right string) string {
	return fmt.Sprintf("(%s || %s)", left, right)
}

func (b *Base) StringFunction(name, column string, binder Binder, args []any) (string, error) {
	switch name {
	case "StartsWith":
		return b.like(column, binder, args, "", "%")
	case "EndsWith":
		return b.like(column, binder, args, "%", "")
	case "Contains":
		return b.like(column, binder, args, "%", "%")
	case "ToUpper":
		return fmt.Sprintf("UPPER(%s)", column), nil
	case "ToLower":
		return fmt.Sprintf("LOWER(%s)", column), nil
	case "Trim":
		return fmt.Sprintf("TRIM(%s)", column), nil
	case "Length":
		return fmt.Sprintf("%s(%s)", b.LengthFunc, column), nil
	case "Substring":
		switch len(args) {
		case 1:
			return fmt.Sprintf("%s(%s, %s)", b.SubstringFunc, column, binder.Bind(args[0])), nil
		case 2:
			return fmt.Sprintf("%s(%s, %s, %s)", b.SubstringFunc, column, binder.Bind(args[0]), binder.Bind(args[1])), nil
		}
		return "", fmt.Errorf("substring expects 1 or 2 arguments, got %d", len(args))
	}
	return "", &UnsupportedError{Feature: "string function " + name, Dialect: b.DialectName}
}

// like binds prefix+value+suffix and compares case-insensitively. Wildcards in the value
// are escaped with ^.
func (b *Base) like(column string, binder Binder, args []any, prefix, suffix string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("pattern match expects 1 argument, got %d", len(args))
	}
	value := fmt.Sprint(args[0])
	escaped := EscapeLike(value)
	p := binder.Bind(prefix + escaped + suffix)
	if escaped != value {
		return fmt.Sprintf("UPPER(%s) LIKE UPPER(%s) ESCAPE '^'", column, p), nil
	}
	return fmt.Sprintf("UPPER(%s) LIKE UPPER(%s)", column, p), nil
}

var likeEscaper = strings.NewReplacer("^", "^^", "%", "^%", "_", "^_", "[", "^[")

// EscapeLike escapes LIKE wildcards with the ^ escape character.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var dateParts = map[string]string{
	"Year":   "YEAR",
	"Month":  "MONTH",
	"Day":    "DAY",
	"Hour":   "HOUR",
	"Minute": "MINUTE",
	"Second": "SECOND",
}

// IsDatePart reports whether member names a date part.
func IsDatePart(member string) bool {
	_, ok := dateParts[member]
	return ok
}

func (b *Base) DatePartFunction(part, column string) (string, error) {
	p, ok := dateParts[part]
	if !ok {
		return "", &UnsupportedError{Feature: "date part " + part, Dialect: b.DialectName}
	}
	return fmt.Sprintf("EXTRACT(%s FROM %s)", p, column), nil
}

func (b *Base) LimitExpression(offset, rows *int) string {
	var parts []string
	if rows != nil {
		parts = append(parts, fmt.Sprintf("LIMIT %d", *rows))
	}
	if offset != nil {
		parts = append(parts, fmt.Sprintf("OFFSET %d", *offset))
	}
	return strings.Join(parts, " ")
}

func (b *Base) PagingRequiresOrder() bool { return false }

func (b *Base) Placeholder(int) string { return "" }

// New returns the dialect registered under name.
func New(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgresql", "postgres":
		return NewPostgres(), nil
	case "mysql", "mariadb":
		return NewMySQL(), nil
	case "sqlite", "sqlite3":
		return NewSQLite(), nil
	case "sqlserver", "mssql":
		return NewSQLServer(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
}
