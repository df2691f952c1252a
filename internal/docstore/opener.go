package docstore

import (
	"context"

	"github.com/koustreak/docstore/internal/database"
	"github.com/koustreak/docstore/internal/database/mysql"
	"github.com/koustreak/docstore/internal/database/postgres"
	"github.com/koustreak/docstore/internal/database/sqlite"
	"github.com/koustreak/docstore/internal/errs"
)

// Opener dials a backend and returns a ready database.DB.
type Opener func(ctx context.Context, cfg *database.Config) (database.DB, error)

// Open is the default Opener. It picks the driver named by cfg.Driver.
func Open(ctx context.Context, cfg *database.Config) (database.DB, error) {
	if cfg == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "database config is required")
	}

	switch cfg.Driver {
	case database.DriverPostgres:
		d, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	case database.DriverMySQL:
		d, err := mysql.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	case database.DriverSQLite:
		d, err := sqlite.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported driver %q", string(cfg.Driver))
	}
}
