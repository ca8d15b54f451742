package compiler

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/satishbabariya/sqlexpr/query/ast"
)

// evaluate reduces a closed tree to a value. It only performs pure operations over
// literals already present in the tree; it never calls into caller code.
func evaluate(n ast.Node) (any, error) {
	switch e := n.(type) {
	case nil:
		return nil, nil
	case *ast.ConstantExpr:
		return e.Value, nil
	case *ast.MemberExpr:
		target, err := evaluate(e.Target)
		if err != nil {
			return nil, err
		}
		return evalMember(target, e.Name)
	case *ast.BinaryExpr:
		l, err := evaluate(e.Left)
		if err != nil {
			return nil, err
		}
		if e.Op == ast.OpAnd || e.Op == ast.OpOr {
			if b, ok := l.(bool); ok && b == (e.Op == ast.OpOr) {
				return b, nil
			}
		}
		r, err := evaluate(e.Right)
		if err != nil {
			return nil, err
		}
		return evalBinary(e.Op, l, r)
	case *ast.UnaryExpr:
		v, err := evaluate(e.Operand)
		if err != nil {
			return nil, err
		}
		return evalUnary(e.Op, v, e.DataType)
	case *ast.CallExpr:
		return evalCall(e)
	case *ast.NewArrayExpr:
		out := make([]any, len(e.Elements))
		for i, el := range e.Elements {
			v, err := evaluate(el)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case *ast.NewExpr:
		out := make(map[string]any, len(e.Args))
		for i, a := range e.Args {
			v, err := evaluate(a)
			if err != nil {
				return nil, err
			}
			name := fmt.Sprintf("Item%d", i+1)
			if i < len(e.Names) && e.Names[i] != "" {
				name = e.Names[i]
			}
			out[name] = v
		}
		return out, nil
	}
	return nil, unsupported(n.String(), "cannot be evaluated")
}

func evalMember(target any, name string) (any, error) {
	if target == nil {
		if name == "HasValue" {
			return false, nil
		}
		return nil, fmt.Errorf("%w: member %s of nil", ErrEvaluation, name)
	}
	rv := reflect.ValueOf(target)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			if name == "HasValue" {
				return false, nil
			}
			return nil, fmt.Errorf("%w: member %s of nil", ErrEvaluation, name)
		}
		rv = rv.Elem()
	}

	switch name {
	case "HasValue":
		return true, nil
	case "Value":
		return rv.Interface(), nil
	case "Length":
		switch rv.Kind() {
		case reflect.String:
			return len([]rune(rv.String())), nil
		case reflect.Slice, reflect.Array, reflect.Map:
			return rv.Len(), nil
		}
	}
	if t, ok := rv.Interface().(time.Time); ok {
		switch name {
		case "Year":
			return t.Year(), nil
		case "Month":
			return int(t.Month()), nil
		case "Day":
			return t.Day(), nil
		case "Hour":
			return t.Hour(), nil
		case "Minute":
			return t.Minute(), nil
		case "Second":
			return t.Second(), nil
		}
	}

	switch rv.Kind() {
	case reflect.Struct:
		f := rv.FieldByName(name)
		if f.IsValid() && f.CanInterface() {
			return f.Interface(), nil
		}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
			if v.IsValid() {
				return v.Interface(), nil
			}
			return nil, nil
		}
	}
	return nil, fmt.Errorf("%w: %T has no member %s", ErrEvaluation, target, name)
}

func evalUnary(op ast.Op, v any, to reflect.Type) (any, error) {
	switch op {
	case ast.OpNot:
		if v == nil {
			return nil, nil
		}
		if b, ok := v.(bool); ok {
			return !b, nil
		}
		if n, ok := toInt(v); ok {
			return ^n, nil
		}
	case ast.OpNegate:
		if v == nil {
			return nil, nil
		}
		if n, ok := toInt(v); ok {
			return -n, nil
		}
		if f, ok := toFloat(v); ok {
			return -f, nil
		}
	case ast.OpConvert:
		return convert(v, to)
	}
	return nil, fmt.Errorf("%w: %s on %T", ErrEvaluation, op, v)
}

func convert(v any, to reflect.Type) (any, error) {
	if to == nil {
		return v, nil
	}
	if v == nil {
		return nil, nil
	}
	base := to
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if base.Kind() == reflect.String && rv.Kind() != reflect.String {
		return fmt.Sprint(rv.Interface()), nil
	}
	if !rv.Type().ConvertibleTo(base) {
		return nil, fmt.Errorf("%w: cannot convert %T to %v", ErrEvaluation, v, to)
	}
	return rv.Convert(base).Interface(), nil
}

func evalBinary(op ast.Op, l, r any) (any, error) {
	switch op {
	case ast.OpCoalesce:
		if l != nil {
			return l, nil
		}
		return r, nil
	case ast.OpEqual:
		return equal(l, r), nil
	case ast.OpNotEqual:
		return !equal(l, r), nil
	}

	if l == nil || r == nil {
		// any other operator over NULL is NULL
		return nil, nil
	}

	if lb, ok := l.(bool); ok {
		if rb, ok := r.(bool); ok {
			switch op {
			case ast.OpAnd, ast.OpBitAnd:
				return lb && rb, nil
			case ast.OpOr, ast.OpBitOr:
				return lb || rb, nil
			case ast.OpXor:
				return lb != rb, nil
			}
		}
	}

	if ls, ok := l.(string); ok {
		rs, rok := r.(string)
		if op == ast.OpAdd {
			if rok {
				return ls + rs, nil
			}
			return ls + fmt.Sprint(r), nil
		}
		if rok && op.IsComparison() {
			return compare(op, strings.Compare(ls, rs)), nil
		}
	}

	if lt, ok := l.(time.Time); ok {
		if rt, ok := r.(time.Time); ok && op.IsComparison() {
			return compare(op, lt.Compare(rt)), nil
		}
	}

	li, lInt := toInt(l)
	ri, rInt := toInt(r)
	if lInt && rInt {
		return intOp(op, li, ri, l)
	}

	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	if lok && rok {
		return floatOp(op, lf, rf)
	}

	return nil, fmt.Errorf("%w: %T %s %T", ErrEvaluation, l, op, r)
}

func intOp(op ast.Op, l, r int64, like any) (any, error) {
	var n int64
	switch op {
	case ast.OpAdd:
		n = l + r
	case ast.OpSubtract:
		n = l - r
	case ast.OpMultiply:
		n = l * r
	case ast.OpDivide, ast.OpModulo:
		if r == 0 {
			return nil, fmt.Errorf("%w: division by zero", ErrEvaluation)
		}
		if op == ast.OpDivide {
			n = l / r
		} else {
			n = l % r
		}
	case ast.OpBitAnd:
		n = l & r
	case ast.OpBitOr:
		n = l | r
	case ast.OpXor:
		n = l ^ r
	case ast.OpLeftShift:
		n = l << uint64(r)
	case ast.OpRightShift:
		n = l >> uint64(r)
	default:
		if op.IsComparison() {
			return compare(op, cmpInt(l, r)), nil
		}
		return nil, fmt.Errorf("%w: operator %s on integers", ErrEvaluation, op)
	}
	// keep the operand's type when it is a plain int
	if _, ok := like.(int); ok {
		return int(n), nil
	}
	return n, nil
}

func floatOp(op ast.Op, l, r float64) (any, error) {
	switch op {
	case ast.OpAdd:
		return l + r, nil
	case ast.OpSubtract:
		return l - r, nil
	case ast.OpMultiply:
		return l * r, nil
	case ast.OpDivide:
		return l / r, nil
	case ast.OpModulo:
		return math.Mod(l, r), nil
	}
	if op.IsComparison() {
		switch {
		case l < r:
			return compare(op, -1), nil
		case l > r:
			return compare(op, 1), nil
		}
		return compare(op, 0), nil
	}
	return nil, fmt.Errorf("%w: operator %s on numbers", ErrEvaluation, op)
}

func cmpInt(l, r int64) int {
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	}
	return 0
}

func compare(op ast.Op, c int) bool {
	switch op {
	case ast.OpEqual:
		return c == 0
	case ast.OpNotEqual:
		return c != 0
	case ast.OpLessThan:
		return c < 0
	case ast.OpLessOrEqual:
		return c <= 0
	case ast.OpGreaterThan:
		return c > 0
	case ast.OpGreaterOrEqual:
		return c >= 0
	}
	return false
}

func equal(l, r any) bool {
	if l == nil || r == nil {
		return l == nil && r == nil
	}
	if li, ok := toInt(l); ok {
		if ri, ok := toInt(r); ok {
			return li == ri
		}
	}
	if lf, ok := toFloat(l); ok {
		if rf, ok := toFloat(r); ok {
			return lf == rf
		}
	}
	if lt, ok := l.(time.Time); ok {
		if rt, ok := r.(time.Time); ok {
			return lt.Equal(rt)
		}
	}
	return reflect.DeepEqual(l, r)
}

func toInt(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	if n, ok := toInt(v); ok {
		return float64(n), true
	}
	return 0, false
}

func evalCall(e *ast.CallExpr) (any, error) {
	args := make([]any, len(e.Args))
	for i, a := range e.Args {
		v, err := evaluate(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch e.Declaring {
	case ast.DeclString:
		target, err := evaluate(e.Target)
		if err != nil {
			return nil, err
		}
		s, ok := target.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s on %T", ErrEvaluation, e.Method, target)
		}
		return evalString(e.Method, s, args)
	case ast.DeclEnumerable:
		if e.Method != "Contains" || len(args) != 1 {
			break
		}
		target, err := evaluate(e.Target)
		if err != nil {
			return nil, err
		}
		for _, v := range Flatten(target) {
			if equal(v, args[0]) {
				return true, nil
			}
		}
		return false, nil
	case ast.DeclMath:
		return evalMath(e.Method, args)
	}
	return nil, unsupported(e.String(), "method %s is not evaluable", e.Method)
}

func evalString(method, s string, args []any) (any, error) {
	arg := func(i int) string {
		if i < len(args) {
			return fmt.Sprint(args[i])
		}
		return ""
	}
	switch method {
	case "ToUpper":
		return strings.ToUpper(s), nil
	case "ToLower":
		return strings.ToLower(s), nil
	case "Trim":
		return strings.TrimSpace(s), nil
	case "StartsWith":
		return strings.HasPrefix(s, arg(0)), nil
	case "EndsWith":
		return strings.HasSuffix(s, arg(0)), nil
	case "Contains":
		return strings.Contains(s, arg(0)), nil
	case "Length":
		return len([]rune(s)), nil
	case "Substring":
		runes := []rune(s)
		start, ok := toInt(argOr(args, 0))
		if !ok || start < 0 || int(start) > len(runes) {
			return nil, fmt.Errorf("%w: substring start out of range", ErrEvaluation)
		}
		end := int64(len(runes))
		if len(args) > 1 {
			n, ok := toInt(args[1])
			if !ok || n < 0 || start+n > end {
				return nil, fmt.Errorf("%w: substring length out of range", ErrEvaluation)
			}
			end = start + n
		}
		return string(runes[start:end]), nil
	}
	return nil, unsupported("string."+method, "unknown string method")
}

func argOr(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func evalMath(method string, args []any) (any, error) {
	nums := make([]float64, len(args))
	allInt := true
	for i, a := range args {
		f, ok := toFloat(a)
		if !ok {
			return nil, fmt.Errorf("%w: Math.%s on %T", ErrEvaluation, method, a)
		}
		if _, ok := toInt(a); !ok {
			allInt = false
		}
		nums[i] = f
	}
	one := func(fn func(float64) float64) (any, error) {
		if len(nums) != 1 {
			return nil, fmt.Errorf("%w: Math.%s expects 1 argument", ErrEvaluation, method)
		}
		return fn(nums[0]), nil
	}
	two := func(fn func(a, b float64) float64) (any, error) {
		if len(nums) != 2 {
			return nil, fmt.Errorf("%w: Math.%s expects 2 arguments", ErrEvaluation, method)
		}
		v := fn(nums[0], nums[1])
		if allInt {
			return int64(v), nil
		}
		return v, nil
	}
	switch method {
	case "Abs":
		if allInt && len(args) == 1 {
			n, _ := toInt(args[0])
			if n < 0 {
				n = -n
			}
			return n, nil
		}
		return one(math.Abs)
	case "Floor":
		return one(math.Floor)
	case "Ceiling":
		return one(math.Ceil)
	case "Round":
		return one(math.Round)
	case "Sqrt":
		return one(math.Sqrt)
	case "Max":
		return two(math.Max)
	case "Min":
		return two(math.Min)
	case "Pow":
		return two(math.Pow)
	}
	return nil, unsupported("Math."+method, "unknown math method")
}

// Flatten expands nested slices and arrays into their elements, skipping nils.
// Strings and byte slices are leaves.
func Flatten(values ...any) []any {
	var out []any
	var walk func(v any)
	walk = func(v any) {
		if v == nil {
			return
		}
		rv := reflect.ValueOf(v)
		for rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return
			}
			rv = rv.Elem()
		}
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
			for i := 0; i < rv.Len(); i++ {
				walk(rv.Index(i).Interface())
			}
			return
		}
		out = append(out, rv.Interface())
	}
	for _, v := range values {
		walk(v)
	}
	return out
}
