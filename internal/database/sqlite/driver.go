//go:build cgo

// Package sqlite provides a SQLite implementation of database.DB on top of
// mattn/go-sqlite3. It needs cgo; builds without it get the stub in
// driver_nocgo.go.
package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/koustreak/docstore/internal/database"
	"github.com/koustreak/docstore/internal/errs"

	_ "github.com/mattn/go-sqlite3" // register "sqlite3" driver
)

// Driver is a SQLite implementation of database.DB.
// The pool is pinned to one connection: an in-memory database lives and dies
// with its connection, and SQLite serialises writers anyway.
type Driver struct {
	db *sqlx.DB
}

// New opens the database file (or ":memory:") named by cfg and pings it.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	dsn, err := cfg.ConnString()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	d := &Driver{db: db}

	if err := d.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return d, nil
}

// --- database.DB implementation ---

// Dialect reports DialectSQLite.
func (d *Driver) Dialect() database.Dialect { return database.DialectSQLite }

func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (d *Driver) Close() {
	_ = d.db.Close()
}

func (d *Driver) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &sqliteRows{rows: rows}, nil
}

func (d *Driver) QueryRow(ctx context.Context, query string, args ...any) (database.Row, error) {
	return &sqliteRow{row: d.db.QueryRowContext(ctx, query, args...)}, nil
}

func (d *Driver) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(err, "exec failed")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapError(err, "rows affected unavailable")
	}
	return n, nil
}

func (d *Driver) ListTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	var tables []string
	if err := d.db.SelectContext(ctx, &tables, q); err != nil {
		return nil, mapError(err, "failed to list tables")
	}
	return tables, nil
}

func (d *Driver) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?`

	var exists int
	err := d.db.QueryRowContext(ctx, q, table).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, mapError(err, "failed to check table existence")
	}
	return true, nil
}

// columnRow is one row of pragma_table_info.
type columnRow struct {
	Name     string         `db:"name"`
	Type     string         `db:"type"`
	NotNull  bool           `db:"notnull"`
	Default  sql.NullString `db:"dflt_value"`
	PKOrdnal int            `db:"pk"` // 1-based position in the primary key, 0 otherwise
}

func (d *Driver) InspectTable(ctx context.Context, table string) (*database.TableInfo, error) {
	const q = `
		SELECT name, type, "notnull", dflt_value, pk
		FROM pragma_table_info(?)
		ORDER BY cid`

	var rows []columnRow
	if err := d.db.SelectContext(ctx, &rows, q, table); err != nil {
		return nil, mapError(err, "failed to fetch columns")
	}
	if len(rows) == 0 {
		return nil, errs.Newf(errs.ErrKindNotFound, "table %q not found", table)
	}

	info := &database.TableInfo{Name: table}
	pk := make([]string, len(rows))
	pkCount := 0
	for _, r := range rows {
		c := &database.ColumnInfo{
			Name:      r.Name,
			DataType:  r.Type,
			Nullable:  !r.NotNull,
			IsPrimary: r.PKOrdnal > 0,
		}
		if r.Default.Valid {
			def := r.Default.String
			c.Default = &def
		}
		if c.IsPrimary && r.PKOrdnal <= len(pk) {
			pk[r.PKOrdnal-1] = c.Name
			pkCount++
		}
		info.Columns = append(info.Columns, c)
	}
	info.PrimaryKey = pk[:pkCount]
	return info, nil
}

// indexListRow is one row of pragma_index_list.
type indexListRow struct {
	Name   string `db:"name"`
	Unique bool   `db:"unique"`
	Origin string `db:"origin"` // "c" CREATE INDEX, "u" UNIQUE constraint, "pk" PRIMARY KEY
}

func (d *Driver) ListIndexes(ctx context.Context, table string) ([]*database.IndexInfo, error) {
	const listQ = `SELECT name, "unique", origin FROM pragma_index_list(?) ORDER BY name`
	const infoQ = `SELECT COALESCE(name, '') FROM pragma_index_info(?) ORDER BY seqno`

	var list []indexListRow
	if err := d.db.SelectContext(ctx, &list, listQ, table); err != nil {
		return nil, mapError(err, "failed to list indexes")
	}

	indexes := make([]*database.IndexInfo, 0, len(list))
	for _, l := range list {
		var cols []string
		if err := d.db.SelectContext(ctx, &cols, infoQ, l.Name); err != nil {
			return nil, mapError(err, "failed to read index columns")
		}
		indexes = append(indexes, &database.IndexInfo{
			Name:    l.Name,
			Columns: cols,
			Unique:  l.Unique,
			Primary: l.Origin == "pk",
		})
	}
	return indexes, nil
}

// --- sql.DB type wrappers ---

type sqliteRows struct {
	rows *sql.Rows
}

func (r *sqliteRows) Next() bool                 { return r.rows.Next() }
func (r *sqliteRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *sqliteRows) Close()                     { _ = r.rows.Close() }

func (r *sqliteRows) Scan(dest ...any) error {
	if err := r.rows.Scan(dest...); err != nil {
		return mapError(err, "failed to scan row")
	}
	return nil
}

func (r *sqliteRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return mapError(err, "row iteration failed")
	}
	return nil
}

type sqliteRow struct {
	row *sql.Row
}

func (r *sqliteRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, "record not found", err)
	}
	return mapError(err, "failed to scan row")
}
