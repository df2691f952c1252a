package database

import (
	"fmt"
	"strings"

	"github.com/koustreak/docstore/internal/errs"
)

// validOps is the allowlist of comparison operators for WHERE clauses.
// Any operator not in this list is rejected to prevent SQL injection
// through the operator position (which cannot be parameterized).
var validOps = map[string]bool{
	"=":    true,
	"!=":   true,
	"<>":   true,
	"<":    true,
	">":    true,
	"<=":   true,
	">=":   true,
	"LIKE": true,
}

// SortDirection controls the ORDER BY direction.
type SortDirection bool

const (
	Asc  SortDirection = false
	Desc SortDirection = true
)

type whereClause struct {
	column string
	op     string
	value  any
}

type orderClause struct {
	column string
	dir    SortDirection
}

type setClause struct {
	column string
	value  any
}

// buildWhere renders clauses joined by AND, numbering placeholders from
// argIdx. It returns the fragment (without the WHERE keyword), the bound
// values and the next free placeholder index.
func buildWhere(d Dialect, clauses []whereClause, argIdx int) (string, []any, int, error) {
	if len(clauses) == 0 {
		return "", nil, argIdx, nil
	}

	parts := make([]string, 0, len(clauses))
	args := make([]any, 0, len(clauses))
	for _, w := range clauses {
		if err := ValidateIdent(w.column); err != nil {
			return "", nil, 0, err
		}
		op := strings.ToUpper(w.op)
		if !validOps[op] {
			return "", nil, 0, errs.Newf(errs.ErrKindInvalidInput, "unsupported WHERE operator: %q", w.op)
		}
		if w.value == nil && op == "=" {
			parts = append(parts, fmt.Sprintf("%s IS NULL", d.QuoteIdent(w.column)))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", d.QuoteIdent(w.column), op, d.Placeholder(argIdx)))
		args = append(args, w.value)
		argIdx++
	}
	return strings.Join(parts, " AND "), args, argIdx, nil
}

// SelectBuilder constructs a parameterized SELECT query using a fluent API.
// Values are never interpolated into the SQL string; they are always passed as args.
//
// Usage (Postgres):
//
//	sql, args, err := Select("users", DialectPostgres).
//	    Columns("_id", "name").
//	    Where("name", "=", "Alice").
//	    OrderBy("name", Desc).
//	    Limit(20).
//	    Offset(0).
//	    Build()
type SelectBuilder struct {
	table   string
	dialect Dialect
	columns []string
	count   bool
	where   []whereClause
	orderBy []orderClause
	limit   *int
	offset  *int
}

// Select starts a new SelectBuilder for the given table and dialect.
func Select(table string, d Dialect) *SelectBuilder {
	return &SelectBuilder{table: table, dialect: d}
}

// Count starts a SELECT COUNT(*) builder for the given table and dialect.
func Count(table string, d Dialect) *SelectBuilder {
	return &SelectBuilder{table: table, dialect: d, count: true}
}

// Columns restricts the SELECT to the specified columns.
// If not called, SELECT * is used.
func (b *SelectBuilder) Columns(cols ...string) *SelectBuilder {
	b.columns = cols
	return b
}

// Where adds a WHERE condition. op must be one of the allowed comparison
// operators (=, !=, <>, <, >, <=, >=, LIKE). A nil value with "=" renders
// IS NULL. Multiple calls are combined with AND.
func (b *SelectBuilder) Where(column, op string, value any) *SelectBuilder {
	b.where = append(b.where, whereClause{column, op, value})
	return b
}

// OrderBy appends an ORDER BY clause for the given column and direction.
func (b *SelectBuilder) OrderBy(column string, dir SortDirection) *SelectBuilder {
	b.orderBy = append(b.orderBy, orderClause{column, dir})
	return b
}

// Limit sets the maximum number of rows to return.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = &n
	return b
}

// Offset sets the number of rows to skip (for pagination).
func (b *SelectBuilder) Offset(n int) *SelectBuilder {
	b.offset = &n
	return b
}

// Build produces the final SQL string and argument slice.
// Returns an invalid-input error if any identifier fails ValidateIdent or
// any WHERE operator is not in the allowlist.
func (b *SelectBuilder) Build() (string, []any, error) {
	d := b.dialect
	if err := ValidateIdent(b.table); err != nil {
		return "", nil, err
	}

	// --- column list ---
	cols := "*"
	switch {
	case b.count:
		cols = "COUNT(*)"
	case len(b.columns) > 0:
		quoted := make([]string, len(b.columns))
		for i, c := range b.columns {
			if err := ValidateIdent(c); err != nil {
				return "", nil, err
			}
			quoted[i] = d.QuoteIdent(c)
		}
		cols = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(d.QuoteIdent(b.table))

	// --- WHERE ---
	where, args, argIdx, err := buildWhere(d, b.where, 1)
	if err != nil {
		return "", nil, err
	}
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	// --- ORDER BY ---
	if len(b.orderBy) > 0 {
		parts := make([]string, len(b.orderBy))
		for i, o := range b.orderBy {
			if err := ValidateIdent(o.column); err != nil {
				return "", nil, err
			}
			dir := "ASC"
			if o.dir == Desc {
				dir = "DESC"
			}
			parts[i] = fmt.Sprintf("%s %s", d.QuoteIdent(o.column), dir)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	// --- LIMIT ---
	switch {
	case b.limit != nil:
		sb.WriteString(" LIMIT ")
		sb.WriteString(d.Placeholder(argIdx))
		args = append(args, *b.limit)
		argIdx++
	case b.offset != nil && d != DialectPostgres:
		// MySQL and SQLite only accept OFFSET after a LIMIT.
		sb.WriteString(unboundedLimit(d))
	}

	// --- OFFSET ---
	if b.offset != nil {
		sb.WriteString(" OFFSET ")
		sb.WriteString(d.Placeholder(argIdx))
		args = append(args, *b.offset)
	}

	return sb.String(), args, nil
}

func unboundedLimit(d Dialect) string {
	if d == DialectMySQL {
		return " LIMIT 18446744073709551615"
	}
	return " LIMIT -1"
}

// InsertBuilder constructs a single-row parameterized INSERT.
type InsertBuilder struct {
	table   string
	dialect Dialect
	values  []setClause
}

// Insert starts a new InsertBuilder for the given table and dialect.
func Insert(table string, d Dialect) *InsertBuilder {
	return &InsertBuilder{table: table, dialect: d}
}

// Value appends a column and the value bound to it. Columns are emitted in
// call order.
func (b *InsertBuilder) Value(column string, value any) *InsertBuilder {
	b.values = append(b.values, setClause{column, value})
	return b
}

// Build produces the INSERT statement and its arguments.
func (b *InsertBuilder) Build() (string, []any, error) {
	d := b.dialect
	if err := ValidateIdent(b.table); err != nil {
		return "", nil, err
	}
	if len(b.values) == 0 {
		return "", nil, errs.New(errs.ErrKindInvalidInput, "insert requires at least one column")
	}

	cols := make([]string, len(b.values))
	marks := make([]string, len(b.values))
	args := make([]any, len(b.values))
	for i, v := range b.values {
		if err := ValidateIdent(v.column); err != nil {
			return "", nil, err
		}
		cols[i] = d.QuoteIdent(v.column)
		marks[i] = d.Placeholder(i + 1)
		args[i] = v.value
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(b.table), strings.Join(cols, ", "), strings.Join(marks, ", "))
	return sql, args, nil
}

// UpdateBuilder constructs a parameterized UPDATE … SET … WHERE ….
type UpdateBuilder struct {
	table   string
	dialect Dialect
	set     []setClause
	where   []whereClause
}

// Update starts a new UpdateBuilder for the given table and dialect.
func Update(table string, d Dialect) *UpdateBuilder {
	return &UpdateBuilder{table: table, dialect: d}
}

// Set assigns value to column. Columns are emitted in call order.
func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.set = append(b.set, setClause{column, value})
	return b
}

// Where adds a WHERE condition, with the same rules as SelectBuilder.Where.
func (b *UpdateBuilder) Where(column, op string, value any) *UpdateBuilder {
	b.where = append(b.where, whereClause{column, op, value})
	return b
}

// Build produces the UPDATE statement and its arguments.
func (b *UpdateBuilder) Build() (string, []any, error) {
	d := b.dialect
	if err := ValidateIdent(b.table); err != nil {
		return "", nil, err
	}
	if len(b.set) == 0 {
		return "", nil, errs.New(errs.ErrKindInvalidInput, "update requires at least one column")
	}

	parts := make([]string, len(b.set))
	args := make([]any, 0, len(b.set)+len(b.where))
	argIdx := 1
	for i, s := range b.set {
		if err := ValidateIdent(s.column); err != nil {
			return "", nil, err
		}
		parts[i] = fmt.Sprintf("%s = %s", d.QuoteIdent(s.column), d.Placeholder(argIdx))
		args = append(args, s.value)
		argIdx++
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(d.QuoteIdent(b.table))
	sb.WriteString(" SET ")
	sb.WriteString(strings.Join(parts, ", "))

	where, whereArgs, _, err := buildWhere(d, b.where, argIdx)
	if err != nil {
		return "", nil, err
	}
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
		args = append(args, whereArgs...)
	}
	return sb.String(), args, nil
}

// DeleteBuilder constructs a parameterized DELETE FROM … WHERE ….
// Without any Where call it removes every row of the table.
type DeleteBuilder struct {
	table   string
	dialect Dialect
	where   []whereClause
}

// Delete starts a new DeleteBuilder for the given table and dialect.
func Delete(table string, d Dialect) *DeleteBuilder {
	return &DeleteBuilder{table: table, dialect: d}
}

// Where adds a WHERE condition, with the same rules as SelectBuilder.Where.
func (b *DeleteBuilder) Where(column, op string, value any) *DeleteBuilder {
	b.where = append(b.where, whereClause{column, op, value})
	return b
}

// Build produces the DELETE statement and its arguments.
func (b *DeleteBuilder) Build() (string, []any, error) {
	d := b.dialect
	if err := ValidateIdent(b.table); err != nil {
		return "", nil, err
	}

	sql := "DELETE FROM " + d.QuoteIdent(b.table)
	where, args, _, err := buildWhere(d, b.where, 1)
	if err != nil {
		return "", nil, err
	}
	if where != "" {
		sql += " WHERE " + where
	}
	return sql, args, nil
}
