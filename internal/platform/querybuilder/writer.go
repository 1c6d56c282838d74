package querybuilder

import (
	"strconv"
	"strings"
)

// sqlWriter accumulates SQL text and its positional ($n) arguments.
type sqlWriter struct {
	strings.Builder
	args []any
}

func (w *sqlWriter) bind(value any) {
	w.args = append(w.args, value)
	w.WriteString("$" + strconv.Itoa(len(w.args)))
}

// expr copies raw SQL, binding each ? to the next arg. Surplus ? are kept
// literally so JSONB operators survive.
func (w *sqlWriter) expr(raw string, args []any) {
	if len(args) == 0 {
		w.WriteString(raw)
		return
	}
	next := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] == '?' && next < len(args) {
			w.bind(args[next])
			next++
			continue
		}
		w.WriteByte(raw[i])
	}
}

func (w *sqlWriter) where(conditions []Condition) {
	if len(conditions) == 0 {
		return
	}
	w.WriteString(" WHERE ")
	for i, c := range conditions {
		if i > 0 {
			w.WriteString(" AND ")
		}
		c.appendSQL(w)
	}
}

func (w *sqlWriter) list(keyword string, parts []string) {
	if len(parts) == 0 {
		return
	}
	w.WriteString(" " + keyword + " ")
	w.WriteString(strings.Join(parts, ", "))
}

func (w *sqlWriter) intClause(keyword string, n int) {
	if n <= 0 {
		return
	}
	w.WriteString(" " + keyword + " ")
	w.WriteString(strconv.Itoa(n))
}
