package database

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/koustreak/docstore/internal/errs"
)

// Dialect controls which SQL placeholder and quoting style the builders emit.
type Dialect int

const (
	// DialectPostgres uses $1, $2, … placeholders and "double" quotes.
	DialectPostgres Dialect = iota

	// DialectMySQL uses ? placeholders and `backtick` quotes.
	DialectMySQL

	// DialectSQLite uses ? placeholders and "double" quotes.
	DialectSQLite
)

func (d Dialect) String() string {
	switch d {
	case DialectPostgres:
		return "postgres"
	case DialectMySQL:
		return "mysql"
	case DialectSQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// Placeholder returns the parameter placeholder for the 1-based argument idx.
// Postgres: $1, $2, …   MySQL / SQLite: ? (index is ignored)
func (d Dialect) Placeholder(idx int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", idx)
	}
	return "?"
}

// QuoteIdent wraps an identifier in the dialect's quote characters.
// Names reaching this point have already passed ValidateIdent; quoting still
// guards reserved words such as "order" or "group".
func (d Dialect) QuoteIdent(name string) string {
	if d == DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// maxIdentLen is the shortest identifier limit among the supported engines
// (MySQL allows 64 bytes, Postgres 63).
const maxIdentLen = 63

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdent rejects any table, column or index name that is not a plain
// ASCII identifier. Identifiers cannot be bound as parameters, so this
// allowlist is what keeps collection and field names out of the SQL grammar.
func ValidateIdent(name string) error {
	if name == "" {
		return errs.New(errs.ErrKindInvalidInput, "identifier must not be empty")
	}
	if len(name) > maxIdentLen {
		return errs.Newf(errs.ErrKindInvalidInput, "identifier %q exceeds %d bytes", name, maxIdentLen)
	}
	if !identPattern.MatchString(name) {
		return errs.Newf(errs.ErrKindInvalidInput, "invalid identifier %q", name)
	}
	return nil
}

// validateIdents runs ValidateIdent over names and returns the first failure.
func validateIdents(names ...string) error {
	for _, n := range names {
		if err := ValidateIdent(n); err != nil {
			return err
		}
	}
	return nil
}
