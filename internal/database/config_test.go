package database

import (
	"testing"

	"github.com/koustreak/docstore/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ConnString(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "explicit dsn wins",
			cfg:  Config{Driver: DriverPostgres, DSN: "postgres://u:p@db:5432/app", Host: "ignored"},
			want: "postgres://u:p@db:5432/app",
		},
		{
			name: "postgres defaults",
			cfg:  Config{Driver: DriverPostgres, Host: "db", User: "u", Password: "p", Database: "app"},
			want: "host=db port=5432 user=u password=p dbname=app sslmode=disable",
		},
		{
			name: "mysql defaults",
			cfg:  Config{Driver: DriverMySQL, Host: "db", User: "u", Password: "p", Database: "app"},
			want: "u:p@tcp(db:3306)/app?parseTime=true",
		},
		{
			name: "mysql custom port",
			cfg:  Config{Driver: DriverMySQL, Host: "db", Port: 3307, User: "u", Password: "p", Database: "app"},
			want: "u:p@tcp(db:3307)/app?parseTime=true",
		},
		{
			name: "sqlite file",
			cfg:  Config{Driver: DriverSQLite, Database: "/var/lib/docstore.db"},
			want: "/var/lib/docstore.db",
		},
		{
			name: "sqlite memory",
			cfg:  Config{Driver: DriverSQLite},
			want: ":memory:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.ConnString()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_UnknownDriver(t *testing.T) {
	cfg := Config{Driver: "oracle"}
	_, err := cfg.ConnString()
	assert.True(t, errs.IsInvalidInput(err))

	_, err = Driver("oracle").Dialect()
	assert.True(t, errs.IsInvalidInput(err))
}

func TestDriver_Dialect(t *testing.T) {
	d, err := DriverMySQL.Dialect()
	require.NoError(t, err)
	assert.Equal(t, DialectMySQL, d)

	d, err = DriverSQLite.Dialect()
	require.NoError(t, err)
	assert.Equal(t, DialectSQLite, d)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("postgres://localhost/app")
	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Equal(t, int32(25), cfg.MaxConns)
	assert.NotZero(t, cfg.QueryTimeout)
}
