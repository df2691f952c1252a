package database

import (
	"testing"

	"github.com/koustreak/docstore/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect_Build(t *testing.T) {
	tests := []struct {
		name    string
		builder *SelectBuilder
		sql     string
		args    []any
	}{
		{
			name:    "select all postgres",
			builder: Select("users", DialectPostgres),
			sql:     `SELECT * FROM "users"`,
		},
		{
			name: "where and order postgres",
			builder: Select("users", DialectPostgres).
				Columns("_id", "name").
				Where("name", "=", "Alice").
				Where("age", ">=", 30).
				OrderBy("age", Desc),
			sql:  `SELECT "_id", "name" FROM "users" WHERE "name" = $1 AND "age" >= $2 ORDER BY "age" DESC`,
			args: []any{"Alice", 30},
		},
		{
			name:    "limit offset postgres",
			builder: Select("users", DialectPostgres).Where("_id", "=", "a").Limit(10).Offset(20),
			sql:     `SELECT * FROM "users" WHERE "_id" = $1 LIMIT $2 OFFSET $3`,
			args:    []any{"a", 10, 20},
		},
		{
			name:    "mysql quoting and placeholders",
			builder: Select("users", DialectMySQL).Where("_id", "=", "a").Limit(1),
			sql:     "SELECT * FROM `users` WHERE `_id` = ? LIMIT ?",
			args:    []any{"a", 1},
		},
		{
			name:    "sqlite offset without limit",
			builder: Select("users", DialectSQLite).Offset(5),
			sql:     `SELECT * FROM "users" LIMIT -1 OFFSET ?`,
			args:    []any{5},
		},
		{
			name:    "mysql offset without limit",
			builder: Select("users", DialectMySQL).Offset(5),
			sql:     "SELECT * FROM `users` LIMIT 18446744073709551615 OFFSET ?",
			args:    []any{5},
		},
		{
			name:    "nil equality renders IS NULL",
			builder: Select("users", DialectSQLite).Where("email", "=", nil),
			sql:     `SELECT * FROM "users" WHERE "email" IS NULL`,
		},
		{
			name:    "count",
			builder: Count("users", DialectSQLite).Where("name", "=", "Bob"),
			sql:     `SELECT COUNT(*) FROM "users" WHERE "name" = ?`,
			args:    []any{"Bob"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.builder.Build()
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			if tt.args == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.args, args)
			}
		})
	}
}

func TestSelect_RejectsUnsafeInput(t *testing.T) {
	tests := []struct {
		name    string
		builder *SelectBuilder
	}{
		{"table injection", Select(`users"; DROP TABLE x; --`, DialectPostgres)},
		{"column injection", Select("users", DialectPostgres).Columns("name, password")},
		{"where column", Select("users", DialectPostgres).Where("a = 1 OR 1", "=", 1)},
		{"operator", Select("users", DialectPostgres).Where("name", "; DELETE", 1)},
		{"order column", Select("users", DialectPostgres).OrderBy("name DESC, (SELECT 1)", Asc)},
		{"empty table", Select("", DialectPostgres)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.builder.Build()
			require.Error(t, err)
			assert.True(t, errs.IsInvalidInput(err))
		})
	}
}

func TestInsert_Build(t *testing.T) {
	sql, args, err := Insert("users", DialectPostgres).
		Value("_id", "abc").
		Value("name", "Alice").
		Build()
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "users" ("_id", "name") VALUES ($1, $2)`, sql)
	assert.Equal(t, []any{"abc", "Alice"}, args)

	sql, _, err = Insert("users", DialectMySQL).Value("_id", "abc").Build()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `users` (`_id`) VALUES (?)", sql)

	_, _, err = Insert("users", DialectSQLite).Build()
	assert.True(t, errs.IsInvalidInput(err))
}

func TestUpdate_Build(t *testing.T) {
	sql, args, err := Update("users", DialectPostgres).
		Set("name", "Bob").
		Set("age", 41).
		Where("_id", "=", "abc").
		Build()
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "users" SET "name" = $1, "age" = $2 WHERE "_id" = $3`, sql)
	assert.Equal(t, []any{"Bob", 41, "abc"}, args)

	_, _, err = Update("users", DialectPostgres).Where("_id", "=", "abc").Build()
	assert.True(t, errs.IsInvalidInput(err))
}

func TestDelete_Build(t *testing.T) {
	sql, args, err := Delete("users", DialectSQLite).Where("name", "=", "Bob").Build()
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "users" WHERE "name" = ?`, sql)
	assert.Equal(t, []any{"Bob"}, args)

	sql, args, err = Delete("users", DialectMySQL).Build()
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM `users`", sql)
	assert.Empty(t, args)
}

func TestValidateIdent(t *testing.T) {
	valid := []string{"_id", "users", "Users2", "a_b_c"}
	for _, n := range valid {
		assert.NoError(t, ValidateIdent(n), n)
	}

	invalid := []string{"", "1abc", "a-b", "a b", `a"b`, "a`b", "naïve",
		"x123456789012345678901234567890123456789012345678901234567890123"}
	for _, n := range invalid {
		err := ValidateIdent(n)
		assert.Error(t, err, n)
		assert.True(t, errs.IsInvalidInput(err), n)
	}
}

func TestDialect_QuoteIdent(t *testing.T) {
	assert.Equal(t, `"order"`, DialectPostgres.QuoteIdent("order"))
	assert.Equal(t, `"order"`, DialectSQLite.QuoteIdent("order"))
	assert.Equal(t, "`order`", DialectMySQL.QuoteIdent("order"))
	assert.Equal(t, "$3", DialectPostgres.Placeholder(3))
	assert.Equal(t, "?", DialectMySQL.Placeholder(3))
}
