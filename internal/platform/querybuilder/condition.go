package querybuilder

import "strings"

// Condition renders one WHERE predicate, appending its bind values.
type Condition interface {
	appendSQL(w *sqlWriter)
}

type cmpCondition struct {
	column string
	op     string
	value  any
}

func Eq(column string, value any) Condition    { return cmpCondition{column, "=", value} }
func NotEq(column string, value any) Condition { return cmpCondition{column, "<>", value} }
func Gt(column string, value any) Condition    { return cmpCondition{column, ">", value} }
func Gte(column string, value any) Condition   { return cmpCondition{column, ">=", value} }
func Lt(column string, value any) Condition    { return cmpCondition{column, "<", value} }
func Lte(column string, value any) Condition   { return cmpCondition{column, "<=", value} }

func (c cmpCondition) appendSQL(w *sqlWriter) {
	w.WriteString(c.column)
	w.WriteString(" " + c.op + " ")
	w.bind(c.value)
}

type inCondition struct {
	column string
	values []any
}

// In matches any of values. An empty list matches nothing.
func In(column string, values []any) Condition {
	return inCondition{column: column, values: values}
}

// InStrings is In for the common string-id case.
func InStrings(column string, values []string) Condition {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return inCondition{column: column, values: out}
}

func (c inCondition) appendSQL(w *sqlWriter) {
	if len(c.values) == 0 {
		w.WriteString("1=0")
		return
	}
	w.WriteString(c.column)
	w.WriteString(" IN (")
	for i, v := range c.values {
		if i > 0 {
			w.WriteString(", ")
		}
		w.bind(v)
	}
	w.WriteString(")")
}

type nullCondition struct {
	column string
	not    bool
}

func IsNull(column string) Condition    { return nullCondition{column: column} }
func IsNotNull(column string) Condition { return nullCondition{column: column, not: true} }

func (c nullCondition) appendSQL(w *sqlWriter) {
	w.WriteString(c.column)
	if c.not {
		w.WriteString(" IS NOT NULL")
		return
	}
	w.WriteString(" IS NULL")
}

type exprCondition struct {
	expr string
	args []any
}

// Expr is a raw predicate; each ? is bound to the next arg in order.
func Expr(expr string, args ...any) Condition {
	return exprCondition{expr: expr, args: args}
}

func (c exprCondition) appendSQL(w *sqlWriter) {
	w.expr(c.expr, c.args)
}

type orCondition struct {
	conditions []Condition
}

// Or joins conditions with OR inside parentheses. An empty Or matches nothing.
func Or(conditions ...Condition) Condition {
	return orCondition{conditions: conditions}
}

func (c orCondition) appendSQL(w *sqlWriter) {
	if len(c.conditions) == 0 {
		w.WriteString("1=0")
		return
	}
	w.WriteString("(")
	for i, cond := range c.conditions {
		if i > 0 {
			w.WriteString(" OR ")
		}
		cond.appendSQL(w)
	}
	w.WriteString(")")
}

func trimmed(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
