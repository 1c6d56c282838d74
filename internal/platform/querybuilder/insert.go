package querybuilder

import (
	"fmt"
	"strings"
)

type InsertBuilder struct {
	table     string
	columns   []string
	rows      [][]any
	conflict  *conflictClause
	returning []string
	err       error
}

type conflictClause struct {
	targets   []string
	doNothing bool
	sets      []conflictSet
}

type conflictSet struct {
	column string
	expr   string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: strings.TrimSpace(table)}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = trimmed(columns)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// OnConflict starts an ON CONFLICT clause. Targets are column names or a
// parenthesised index expression such as "(lower(name))". Follow it with
// DoNothing or DoUpdate.
func (b *InsertBuilder) OnConflict(targets ...string) *InsertBuilder {
	b.conflict = &conflictClause{targets: trimmed(targets)}
	return b
}

func (b *InsertBuilder) DoNothing() *InsertBuilder {
	if b.conflict == nil {
		b.conflict = &conflictClause{}
	}
	b.conflict.doNothing = true
	return b
}

// DoUpdate overwrites each column with the proposed row's value.
func (b *InsertBuilder) DoUpdate(columns ...string) *InsertBuilder {
	for _, col := range trimmed(columns) {
		b.DoUpdateExpr(col, "EXCLUDED."+col)
	}
	return b
}

// DoUpdateExpr sets column to a raw expression, e.g. a COALESCE keeping the
// stored value.
func (b *InsertBuilder) DoUpdateExpr(column, expr string) *InsertBuilder {
	if b.conflict == nil {
		b.err = fmt.Errorf("DoUpdate requires OnConflict")
		return b
	}
	b.conflict.sets = append(b.conflict.sets, conflictSet{column: strings.TrimSpace(column), expr: expr})
	return b
}

func (b *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	b.returning = trimmed(columns)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if b.table == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.rows) == 0 {
		return "", nil, fmt.Errorf("insert values are required")
	}

	var w sqlWriter
	w.args = make([]any, 0, len(b.rows)*len(b.columns))
	w.WriteString("INSERT INTO ")
	w.WriteString(b.table)
	w.WriteString(" (")
	w.WriteString(strings.Join(b.columns, ", "))
	w.WriteString(") VALUES ")

	for rowIdx, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", rowIdx, len(row), len(b.columns))
		}
		if rowIdx > 0 {
			w.WriteString(", ")
		}
		w.WriteString("(")
		for colIdx, value := range row {
			if colIdx > 0 {
				w.WriteString(", ")
			}
			w.bind(value)
		}
		w.WriteString(")")
	}

	if err := b.conflict.appendSQL(&w); err != nil {
		return "", nil, err
	}
	w.list("RETURNING", b.returning)

	return w.String(), w.args, nil
}

func (c *conflictClause) appendSQL(w *sqlWriter) error {
	if c == nil {
		return nil
	}
	if !c.doNothing && len(c.sets) == 0 {
		return fmt.Errorf("on conflict needs DoNothing or DoUpdate")
	}
	if c.doNothing && len(c.sets) > 0 {
		return fmt.Errorf("on conflict cannot both ignore and update")
	}

	w.WriteString(" ON CONFLICT")
	if len(c.targets) > 0 {
		w.WriteString(" (" + strings.Join(c.targets, ", ") + ")")
	}
	if c.doNothing {
		w.WriteString(" DO NOTHING")
		return nil
	}
	if len(c.targets) == 0 {
		return fmt.Errorf("on conflict do update requires a conflict target")
	}

	w.WriteString(" DO UPDATE SET ")
	for i, s := range c.sets {
		if i > 0 {
			w.WriteString(", ")
		}
		w.WriteString(s.column + " = " + s.expr)
	}
	return nil
}
