//go:build !cgo

package sqlite

import (
	"context"

	"github.com/koustreak/docstore/internal/database"
	"github.com/koustreak/docstore/internal/errs"
)

// Driver is unavailable without cgo; New always fails.
type Driver struct {
	database.DB
}

// New reports that SQLite support was compiled out.
func New(_ context.Context, _ *database.Config) (*Driver, error) {
	return nil, errs.New(errs.ErrKindConnectionFailed, "sqlite driver requires a cgo-enabled build")
}
