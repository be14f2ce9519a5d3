package querybuilder

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// writer accumulates SQL text and positional ($n) arguments.
type writer struct {
	buf  strings.Builder
	args []any
}

func (w *writer) bind(value any) {
	w.args = append(w.args, value)
	w.buf.WriteString("$")
	w.buf.WriteString(strconv.Itoa(len(w.args)))
}

// expr writes raw SQL, binding each '?' to the next arg in order.
func (w *writer) expr(sql string, args []any) {
	next := 0
	for i := 0; i < len(sql); i++ {
		if sql[i] == '?' && next < len(args) {
			w.bind(args[next])
			next++
			continue
		}
		w.buf.WriteByte(sql[i])
	}
}

type Condition interface {
	write(w *writer)
}

type conditionFunc func(w *writer)

func (f conditionFunc) write(w *writer) { f(w) }

func compare(column, op string, value any) Condition {
	return conditionFunc(func(w *writer) {
		w.buf.WriteString(column)
		w.buf.WriteString(op)
		w.bind(value)
	})
}

func Eq(column string, value any) Condition { return compare(column, " = ", value) }

func Ne(column string, value any) Condition { return compare(column, " <> ", value) }

func Gte(column string, value any) Condition { return compare(column, " >= ", value) }

func Lte(column string, value any) Condition { return compare(column, " <= ", value) }

// In expands to one placeholder per value. An empty list matches nothing.
func In(column string, values []any) Condition {
	return conditionFunc(func(w *writer) {
		if len(values) == 0 {
			w.buf.WriteString("1=0")
			return
		}
		w.buf.WriteString(column)
		w.buf.WriteString(" IN (")
		for i, v := range values {
			if i > 0 {
				w.buf.WriteString(", ")
			}
			w.bind(v)
		}
		w.buf.WriteString(")")
	})
}

func IsNull(column string) Condition {
	return conditionFunc(func(w *writer) {
		w.buf.WriteString(column)
		w.buf.WriteString(" IS NULL")
	})
}

func NotNull(column string) Condition {
	return conditionFunc(func(w *writer) {
		w.buf.WriteString(column)
		w.buf.WriteString(" IS NOT NULL")
	})
}

// Expr embeds raw SQL using '?' for arguments.
func Expr(sql string, args ...any) Condition {
	return conditionFunc(func(w *writer) { w.expr(sql, args) })
}

// Or groups conditions in parentheses joined by OR.
func Or(conditions ...Condition) Condition {
	return conditionFunc(func(w *writer) {
		if len(conditions) == 0 {
			w.buf.WriteString("1=0")
			return
		}
		w.buf.WriteString("(")
		for i, c := range conditions {
			if i > 0 {
				w.buf.WriteString(" OR ")
			}
			c.write(w)
		}
		w.buf.WriteString(")")
	})
}

func writeWhere(w *writer, conditions []Condition) {
	if len(conditions) == 0 {
		return
	}
	w.buf.WriteString(" WHERE ")
	for i, c := range conditions {
		if i > 0 {
			w.buf.WriteString(" AND ")
		}
		c.write(w)
	}
}

type SelectBuilder struct {
	distinct bool
	columns  []string
	table    string
	where    []Condition
	orderBy  []string
	limit    int
	suffix   string
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func SelectDistinct(columns ...string) *SelectBuilder {
	b := Select(columns...)
	b.distinct = true
	return b
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

// Suffix is appended verbatim, e.g. "FOR UPDATE".
func (b *SelectBuilder) Suffix(sql string) *SelectBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, errors.New("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, errors.New("select table is required")
	}

	w := &writer{}
	w.buf.WriteString("SELECT ")
	if b.distinct {
		w.buf.WriteString("DISTINCT ")
	}
	w.buf.WriteString(strings.Join(b.columns, ", "))
	w.buf.WriteString(" FROM ")
	w.buf.WriteString(b.table)
	writeWhere(w, b.where)
	if len(b.orderBy) > 0 {
		w.buf.WriteString(" ORDER BY ")
		w.buf.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		w.buf.WriteString(" LIMIT ")
		w.buf.WriteString(strconv.Itoa(b.limit))
	}
	if b.suffix != "" {
		w.buf.WriteString(" ")
		w.buf.WriteString(b.suffix)
	}
	return w.buf.String(), w.args, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// Suffix holds ON CONFLICT / RETURNING clauses.
func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, errors.New("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, errors.New("insert columns are required")
	}
	if len(b.rows) == 0 {
		return "", nil, errors.New("insert values are required")
	}

	w := &writer{}
	w.buf.WriteString("INSERT INTO ")
	w.buf.WriteString(b.table)
	w.buf.WriteString(" (")
	w.buf.WriteString(strings.Join(b.columns, ", "))
	w.buf.WriteString(") VALUES ")
	for rowIdx, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, errors.Newf("insert row %d has %d values, expected %d", rowIdx, len(row), len(b.columns))
		}
		if rowIdx > 0 {
			w.buf.WriteString(", ")
		}
		w.buf.WriteString("(")
		for colIdx, value := range row {
			if colIdx > 0 {
				w.buf.WriteString(", ")
			}
			w.bind(value)
		}
		w.buf.WriteString(")")
	}
	if b.suffix != "" {
		w.buf.WriteString(" ")
		w.buf.WriteString(b.suffix)
	}
	return w.buf.String(), w.args, nil
}

type setClause struct {
	column string
	sql    string
	args   []any
	raw    bool
}

type UpdateBuilder struct {
	table  string
	sets   []setClause
	where  []Condition
	suffix string
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{column: column, args: []any{value}})
	return b
}

// SetExpr assigns a raw SQL expression using '?' for arguments.
func (b *UpdateBuilder) SetExpr(column, sql string, args ...any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{column: column, sql: sql, args: args, raw: true})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) Suffix(sql string) *UpdateBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, errors.New("update table is required")
	}
	if len(b.sets) == 0 {
		return "", nil, errors.New("update sets are required")
	}

	w := &writer{}
	w.buf.WriteString("UPDATE ")
	w.buf.WriteString(b.table)
	w.buf.WriteString(" SET ")
	for i, s := range b.sets {
		if i > 0 {
			w.buf.WriteString(", ")
		}
		w.buf.WriteString(s.column)
		w.buf.WriteString(" = ")
		if s.raw {
			w.expr(s.sql, s.args)
			continue
		}
		w.bind(s.args[0])
	}
	writeWhere(w, b.where)
	if b.suffix != "" {
		w.buf.WriteString(" ")
		w.buf.WriteString(b.suffix)
	}
	return w.buf.String(), w.args, nil
}
