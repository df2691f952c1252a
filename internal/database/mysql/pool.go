package mysql

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/koustreak/docstore/internal/database"
	"github.com/koustreak/docstore/internal/errs"
)

const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 10 * time.Minute
)

// buildPool opens a *sqlx.DB and applies pool settings. It does not dial;
// sql.Open is lazy and New pings afterwards.
func buildPool(cfg *database.Config) (*sqlx.DB, error) {
	dsn, err := cfg.ConnString()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	maxOpen := int(cfg.MaxConns)
	if maxOpen == 0 {
		maxOpen = defaultMaxOpenConns
	}
	maxIdle := int(cfg.MinConns)
	if maxIdle == 0 {
		maxIdle = defaultMaxIdleConns
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(durationOr(cfg.MaxConnLifetime, defaultConnMaxLifetime))
	db.SetConnMaxIdleTime(durationOr(cfg.MaxConnIdleTime, defaultConnMaxIdleTime))

	return db, nil
}

func durationOr(val, def time.Duration) time.Duration {
	if val <= 0 {
		return def
	}
	return val
}
