//go:build cgo

package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/koustreak/docstore/internal/errs"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// mapError translates go-sqlite3 errors into *errs.Error.
// Callers only invoke it with a non-nil err.
func mapError(err error, msg string) *errs.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return errs.Wrap(classifyCode(sqliteErr), msg+": "+sqliteErr.Error(), err)
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

// classifyCode maps SQLite result codes to ErrKind.
func classifyCode(e sqlite3.Error) errs.ErrKind {
	switch e.Code {
	case sqlite3.ErrConstraint:
		if e.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || e.ExtendedCode == sqlite3.ErrConstraintUnique {
			return errs.ErrKindConflict
		}
		return errs.ErrKindQueryFailed
	case sqlite3.ErrPerm, sqlite3.ErrAuth, sqlite3.ErrReadonly:
		return errs.ErrKindPermissionDenied
	case sqlite3.ErrCantOpen, sqlite3.ErrNotADB:
		return errs.ErrKindConnectionFailed
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return errs.ErrKindTimeout
	default:
		return errs.ErrKindQueryFailed
	}
}
