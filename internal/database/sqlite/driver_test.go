//go:build cgo

package sqlite

import (
	"context"
	"testing"

	"github.com/koustreak/docstore/internal/database"
	"github.com/koustreak/docstore/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryDriver(t *testing.T) *Driver {
	t.Helper()
	d, err := New(context.Background(), &database.Config{Driver: database.DriverSQLite})
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}

func createUsers(t *testing.T, d *Driver) {
	t.Helper()
	sql, err := database.CreateTable("users", database.DialectSQLite).
		Column("_id", "VARCHAR(255)", true).
		Column("name", "VARCHAR(255)", false).
		Column("age", "INTEGER", false).
		PrimaryKey("_id").
		Build()
	require.NoError(t, err)
	_, err = d.Exec(context.Background(), sql)
	require.NoError(t, err)
}

func TestDriver_TableLifecycle(t *testing.T) {
	ctx := context.Background()
	d := newMemoryDriver(t)

	exists, err := d.TableExists(ctx, "users")
	require.NoError(t, err)
	assert.False(t, exists)

	createUsers(t, d)

	exists, err = d.TableExists(ctx, "users")
	require.NoError(t, err)
	assert.True(t, exists)

	tables, err := d.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, tables)
}

func TestDriver_InspectTable(t *testing.T) {
	ctx := context.Background()
	d := newMemoryDriver(t)
	createUsers(t, d)

	info, err := d.InspectTable(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"_id", "name", "age"}, info.ColumnNames())
	assert.Equal(t, []string{"_id"}, info.PrimaryKey)
	assert.True(t, info.HasColumn("age"))
	assert.False(t, info.HasColumn("email"))
	assert.False(t, info.Columns[0].Nullable)
	assert.True(t, info.Columns[1].Nullable)
	assert.Equal(t, "INTEGER", info.Columns[2].DataType)

	_, err = d.InspectTable(ctx, "missing")
	assert.True(t, errs.IsNotFound(err))
}

func TestDriver_ExecQueryScan(t *testing.T) {
	ctx := context.Background()
	d := newMemoryDriver(t)
	createUsers(t, d)

	n, err := d.Exec(ctx, `INSERT INTO "users" ("_id", "name", "age") VALUES (?, ?, ?)`, "a", "Alice", 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err := d.Query(ctx, `SELECT * FROM "users" WHERE "_id" = ?`, "a")
	require.NoError(t, err)
	got, err := database.ScanRows(rows)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alice", got[0]["name"])
	assert.EqualValues(t, 30, got[0]["age"])

	row, err := d.QueryRow(ctx, `SELECT "name" FROM "users" WHERE "_id" = ?`, "nope")
	require.NoError(t, err)
	var name string
	assert.True(t, errs.IsNotFound(row.Scan(&name)))
}

func TestDriver_DuplicatePrimaryKeyIsConflict(t *testing.T) {
	ctx := context.Background()
	d := newMemoryDriver(t)
	createUsers(t, d)

	const q = `INSERT INTO "users" ("_id", "name") VALUES (?, ?)`
	_, err := d.Exec(ctx, q, "a", "Alice")
	require.NoError(t, err)

	_, err = d.Exec(ctx, q, "a", "Again")
	require.Error(t, err)
	assert.True(t, errs.IsConflict(err))
}

func TestDriver_BadStatementIsQueryFailed(t *testing.T) {
	_, err := newMemoryDriver(t).Exec(context.Background(), `SELECT * FROM "missing"`)
	require.Error(t, err)
	assert.True(t, errs.IsQueryFailed(err))
}

func TestDriver_ListIndexes(t *testing.T) {
	ctx := context.Background()
	d := newMemoryDriver(t)
	createUsers(t, d)

	sql, err := database.CreateIndex("users_name_age_idx", "users", database.DialectSQLite).
		Columns("name", "age").
		Unique(true).
		Build()
	require.NoError(t, err)
	_, err = d.Exec(ctx, sql)
	require.NoError(t, err)

	indexes, err := d.ListIndexes(ctx, "users")
	require.NoError(t, err)

	byName := make(map[string]*database.IndexInfo)
	for _, idx := range indexes {
		byName[idx.Name] = idx
	}

	created := byName["users_name_age_idx"]
	require.NotNil(t, created)
	assert.Equal(t, []string{"name", "age"}, created.Columns)
	assert.True(t, created.Unique)
	assert.False(t, created.Primary)

	// The VARCHAR primary key is backed by an automatic index.
	var pk *database.IndexInfo
	for _, idx := range indexes {
		if idx.Primary {
			pk = idx
		}
	}
	require.NotNil(t, pk)
	assert.Equal(t, []string{"_id"}, pk.Columns)
}
