package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/koustreak/docstore/internal/database"
	"github.com/koustreak/docstore/internal/errs"
)

const (
	defaultMaxConns        = 10
	defaultMinConns        = 2
	defaultConnMaxIdleTime = 5 * time.Minute
	defaultConnectTimeout  = 10 * time.Second
)

// buildPoolConfig parses the connection string and applies pool settings,
// falling back to package defaults for zero values.
func buildPoolConfig(cfg *database.Config) (*pgxpool.Config, error) {
	dsn, err := cfg.ConnString()
	if err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	poolCfg.MaxConns = withDefault(cfg.MaxConns, defaultMaxConns)
	poolCfg.MinConns = withDefault(cfg.MinConns, defaultMinConns)
	if poolCfg.MinConns > poolCfg.MaxConns {
		poolCfg.MinConns = poolCfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	poolCfg.MaxConnIdleTime = durationOr(cfg.MaxConnIdleTime, defaultConnMaxIdleTime)
	poolCfg.ConnConfig.ConnectTimeout = durationOr(cfg.ConnectTimeout, defaultConnectTimeout)

	return poolCfg, nil
}

// withDefault returns val if non-zero, otherwise returns def
func withDefault(val, def int32) int32 {
	if val == 0 {
		return def
	}
	return val
}

func durationOr(val, def time.Duration) time.Duration {
	if val <= 0 {
		return def
	}
	return val
}
