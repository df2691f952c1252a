package database

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/koustreak/docstore/internal/errs"
)

// columnTypePattern allowlists the column type expressions accepted by
// CreateTableBuilder, e.g. INTEGER or VARCHAR(255).
var columnTypePattern = regexp.MustCompile(`^[A-Z]+( [A-Z]+)*(\([0-9]+\))?$`)

type columnDef struct {
	name    string
	typ     string
	notNull bool
}

// CreateTableBuilder constructs a CREATE TABLE IF NOT EXISTS statement.
//
//	sql, err := CreateTable("users", DialectSQLite).
//	    Column("_id", "VARCHAR(255)", true).
//	    Column("name", "VARCHAR(255)", false).
//	    PrimaryKey("_id").
//	    Build()
type CreateTableBuilder struct {
	table      string
	dialect    Dialect
	columns    []columnDef
	primaryKey []string
}

// CreateTable starts a new CreateTableBuilder.
func CreateTable(table string, d Dialect) *CreateTableBuilder {
	return &CreateTableBuilder{table: table, dialect: d}
}

// Column appends a column definition. typ must match columnTypePattern.
func (b *CreateTableBuilder) Column(name, typ string, notNull bool) *CreateTableBuilder {
	b.columns = append(b.columns, columnDef{name, typ, notNull})
	return b
}

// PrimaryKey sets the primary key columns.
func (b *CreateTableBuilder) PrimaryKey(cols ...string) *CreateTableBuilder {
	b.primaryKey = cols
	return b
}

// Build produces the DDL statement.
func (b *CreateTableBuilder) Build() (string, error) {
	d := b.dialect
	if err := ValidateIdent(b.table); err != nil {
		return "", err
	}
	if len(b.columns) == 0 {
		return "", errs.New(errs.ErrKindInvalidInput, "create table requires at least one column")
	}

	defs := make([]string, 0, len(b.columns)+1)
	for _, c := range b.columns {
		if err := ValidateIdent(c.name); err != nil {
			return "", err
		}
		if !columnTypePattern.MatchString(c.typ) {
			return "", errs.Newf(errs.ErrKindInvalidInput, "invalid column type %q", c.typ)
		}
		def := d.QuoteIdent(c.name) + " " + c.typ
		if c.notNull {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}

	if len(b.primaryKey) > 0 {
		if err := validateIdents(b.primaryKey...); err != nil {
			return "", err
		}
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", quoteAll(d, b.primaryKey)))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		d.QuoteIdent(b.table), strings.Join(defs, ", ")), nil
}

// CreateIndexBuilder constructs a CREATE [UNIQUE] INDEX statement.
// MySQL has no IF NOT EXISTS for indexes, so callers check ListIndexes first.
type CreateIndexBuilder struct {
	name    string
	table   string
	dialect Dialect
	columns []string
	unique  bool
}

// CreateIndex starts a new CreateIndexBuilder for index name on table.
func CreateIndex(name, table string, d Dialect) *CreateIndexBuilder {
	return &CreateIndexBuilder{name: name, table: table, dialect: d}
}

// Columns sets the indexed columns, in key order.
func (b *CreateIndexBuilder) Columns(cols ...string) *CreateIndexBuilder {
	b.columns = cols
	return b
}

// Unique makes the index enforce uniqueness.
func (b *CreateIndexBuilder) Unique(unique bool) *CreateIndexBuilder {
	b.unique = unique
	return b
}

// Build produces the DDL statement.
func (b *CreateIndexBuilder) Build() (string, error) {
	d := b.dialect
	if err := validateIdents(b.name, b.table); err != nil {
		return "", err
	}
	if len(b.columns) == 0 {
		return "", errs.New(errs.ErrKindInvalidInput, "index requires at least one column")
	}
	if err := validateIdents(b.columns...); err != nil {
		return "", err
	}

	kind := "INDEX"
	if b.unique {
		kind = "UNIQUE INDEX"
	}
	return fmt.Sprintf("CREATE %s %s ON %s (%s)",
		kind, d.QuoteIdent(b.name), d.QuoteIdent(b.table), quoteAll(d, b.columns)), nil
}

func quoteAll(d Dialect, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}
