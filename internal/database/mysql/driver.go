package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	_ "github.com/go-sql-driver/mysql" // register "mysql" driver
	"github.com/jmoiron/sqlx"
	"github.com/koustreak/docstore/internal/database"
	"github.com/koustreak/docstore/internal/errs"
)

// Driver is a MySQL implementation of database.DB backed by sqlx.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	db *sqlx.DB
}

// New opens a MySQL connection pool using the provided Config and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	db, err := buildPool(cfg)
	if err != nil {
		return nil, err
	}

	d := &Driver{db: db}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return d, nil
}

// --- database.DB implementation ---

// Dialect reports DialectMySQL.
func (d *Driver) Dialect() database.Dialect { return database.DialectMySQL }

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
	return &mysqlRows{rows: rows}, nil
}

func (d *Driver) QueryRow(ctx context.Context, query string, args ...any) (database.Row, error) {
	row := d.db.QueryRowContext(ctx, query, args...)
	return &mysqlRow{row: row}, nil
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
		SELECT table_name AS table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type   = 'BASE TABLE'
		ORDER BY table_name`

	var tables []string
	if err := d.db.SelectContext(ctx, &tables, q); err != nil {
		return nil, mapError(err, "failed to list tables")
	}
	return tables, nil
}

func (d *Driver) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `
		SELECT 1
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type   = 'BASE TABLE'
		  AND table_name   = ?`

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

// columnRow is one row of information_schema.columns.
type columnRow struct {
	Name      string         `db:"column_name"`
	DataType  string         `db:"data_type"`
	Nullable  bool           `db:"is_nullable"`
	Default   sql.NullString `db:"column_default"`
	ColumnKey string         `db:"column_key"`
}

func (d *Driver) InspectTable(ctx context.Context, table string) (*database.TableInfo, error) {
	const q = `
		SELECT column_name           AS column_name,
		       data_type             AS data_type,
		       (is_nullable = 'YES') AS is_nullable,
		       column_default        AS column_default,
		       column_key            AS column_key
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		  AND table_name   = ?
		ORDER BY ordinal_position`

	var rows []columnRow
	if err := d.db.SelectContext(ctx, &rows, q, table); err != nil {
		return nil, mapError(err, "failed to fetch columns")
	}
	if len(rows) == 0 {
		return nil, errs.Newf(errs.ErrKindNotFound, "table %q not found", table)
	}

	info := &database.TableInfo{Name: table}
	for _, r := range rows {
		c := &database.ColumnInfo{
			Name:      r.Name,
			DataType:  r.DataType,
			Nullable:  r.Nullable,
			IsPrimary: r.ColumnKey == "PRI",
		}
		if r.Default.Valid {
			def := r.Default.String
			c.Default = &def
		}
		if c.IsPrimary {
			info.PrimaryKey = append(info.PrimaryKey, c.Name)
		}
		info.Columns = append(info.Columns, c)
	}
	return info, nil
}

// indexRow is one (index, column) pair of information_schema.statistics.
type indexRow struct {
	Name   string `db:"index_name"`
	Unique bool   `db:"is_unique"`
	Column string `db:"column_name"`
}

func (d *Driver) ListIndexes(ctx context.Context, table string) ([]*database.IndexInfo, error) {
	const q = `
		SELECT index_name       AS index_name,
		       (non_unique = 0) AS is_unique,
		       column_name      AS column_name
		FROM information_schema.statistics
		WHERE table_schema = DATABASE()
		  AND table_name   = ?
		ORDER BY index_name, seq_in_index`

	var rows []indexRow
	if err := d.db.SelectContext(ctx, &rows, q, table); err != nil {
		return nil, mapError(err, "failed to list indexes")
	}

	var indexes []*database.IndexInfo
	byName := make(map[string]*database.IndexInfo)
	for _, r := range rows {
		idx, ok := byName[r.Name]
		if !ok {
			idx = &database.IndexInfo{Name: r.Name, Unique: r.Unique, Primary: r.Name == "PRIMARY"}
			byName[r.Name] = idx
			indexes = append(indexes, idx)
		}
		idx.Columns = append(idx.Columns, r.Column)
	}
	return indexes, nil
}

// --- sql.DB type wrappers ---

type mysqlRows struct {
	rows  *sql.Rows
	types []*sql.ColumnType
}

func (r *mysqlRows) Next() bool                 { return r.rows.Next() }
func (r *mysqlRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *mysqlRows) Close()                     { _ = r.rows.Close() }

func (r *mysqlRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return mapError(err, "row iteration failed")
	}
	return nil
}

// Scan reads the current row. Statements sent without arguments use the
// text protocol, where integers arrive as []byte; those are parsed back into
// int64 using the column's declared type.
func (r *mysqlRows) Scan(dest ...any) error {
	if err := r.rows.Scan(dest...); err != nil {
		return mapError(err, "failed to scan row")
	}
	if r.types == nil {
		types, err := r.rows.ColumnTypes()
		if err != nil {
			return mapError(err, "failed to read column types")
		}
		r.types = types
	}
	for i, d := range dest {
		p, ok := d.(*any)
		if !ok || i >= len(r.types) {
			continue
		}
		*p = convertInteger(*p, r.types[i].DatabaseTypeName())
	}
	return nil
}

type mysqlRow struct {
	row *sql.Row
}

func (r *mysqlRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, "record not found", err)
	}
	return mapError(err, "failed to scan row")
}

func convertInteger(v any, dbType string) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	switch dbType {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "BIGINT", "UNSIGNED INT", "UNSIGNED BIGINT":
		if n, err := strconv.ParseInt(string(b), 10, 64); err == nil {
			return n
		}
	}
	return v
}
