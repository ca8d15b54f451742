package sqlgen

import (
	"database/sql"
	"sort"
	"strings"
)

// Arg is a bound value together with the name that references it in SQL text.
type Arg struct {
	Name  string
	Value any
}

type occurrence struct {
	pos int
	arg Arg
}

// Bind rewrites parameter references in text into the driver's placeholder syntax and
// returns the driver arguments. Positional drivers receive one argument per reference in
// textual order; named drivers receive sql.NamedArg values for the referenced names.
// Parameters that text never references are dropped.
func Bind(d Dialect, text string, params []Arg) (string, []any) {
	var found []occurrence
	for _, p := range params {
		for _, pos := range References(text, p.Name) {
			found = append(found, occurrence{pos: pos, arg: p})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].pos < found[j].pos })

	if d.Placeholder(1) == "" {
		args := make([]any, 0, len(found))
		seen := make(map[string]bool, len(found))
		for _, o := range found {
			if seen[o.arg.Name] {
				continue
			}
			seen[o.arg.Name] = true
			args = append(args, sql.Named(strings.TrimLeft(o.arg.Name, "@:$"), o.arg.Value))
		}
		return text, args
	}

	var sb strings.Builder
	args := make([]any, 0, len(found))
	last := 0
	for i, o := range found {
		sb.WriteString(text[last:o.pos])
		sb.WriteString(d.Placeholder(i + 1))
		args = append(args, o.arg.Value)
		last = o.pos + len(o.arg.Name)
	}
	sb.WriteString(text[last:])
	return sb.String(), args
}

// References returns the offsets at which name occurs in text as a whole token.
// @p1 does not match inside @p10.
func References(text, name string) []int {
	if name == "" {
		return nil
	}
	var out []int
	from := 0
	for {
		i := strings.Index(text[from:], name)
		if i < 0 {
			return out
		}
		pos := from + i
		end := pos + len(name)
		if end >= len(text) || !isNameChar(text[end]) {
			out = append(out, pos)
		}
		from = end
	}
}

func isNameChar(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
