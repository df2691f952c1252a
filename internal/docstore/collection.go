package docstore

import (
	"context"

	"github.com/koustreak/docstore/internal/database"
	"github.com/koustreak/docstore/internal/errs"
	"github.com/koustreak/docstore/internal/logger"
	"github.com/koustreak/docstore/internal/schema"
)

// CreateTable ensures the table backing collection exists. An existing table
// is left untouched, whatever its columns. Otherwise the table is created with
// an _id text primary key plus one column per schema field.
func (a *Adapter) CreateTable(ctx context.Context, collection string, s schema.Schema) error {
	db, err := a.conn()
	if err != nil {
		return err
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	return a.createTable(ctx, db, a.logFor(ctx, collection), collection, s)
}

func (a *Adapter) createTable(ctx context.Context, db database.DB, log *logger.Logger, collection string, s schema.Schema) error {
	exists, err := a.hasTable(ctx, db, collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	b := database.CreateTable(collection, db.Dialect()).
		Column(schema.IDField, schema.TextColumn, true).
		PrimaryKey(schema.IDField)
	for _, name := range s.Names() {
		b.Column(name, schema.ColumnType(s[name].Type), false)
	}

	stmt, err := b.Build()
	if err != nil {
		return err
	}

	log.Statement("create_table", stmt, 0)
	if _, err := db.Exec(ctx, stmt); err != nil {
		return err
	}

	log.InfoWith("collection table created", map[string]interface{}{
		"fields": len(s.Names()),
	})
	a.rememberTable(collection, nil)
	return nil
}

// hasTable reports whether collection's table exists, consulting the cache
// before the backend.
func (a *Adapter) hasTable(ctx context.Context, db database.DB, collection string) (bool, error) {
	if err := database.ValidateIdent(collection); err != nil {
		return false, err
	}
	if _, ok := a.cachedTable(collection); ok {
		return true, nil
	}

	exists, err := db.TableExists(ctx, collection)
	if err != nil {
		return false, err
	}
	if exists {
		a.rememberTable(collection, nil)
	}
	return exists, nil
}

// tableInfo returns the columns of collection's table, inspecting it once
// per connection.
func (a *Adapter) tableInfo(ctx context.Context, db database.DB, collection string) (*database.TableInfo, error) {
	if info, ok := a.cachedTable(collection); ok && info != nil {
		return info, nil
	}

	info, err := db.InspectTable(ctx, collection)
	if err != nil {
		return nil, err
	}
	a.rememberTable(collection, info)
	return info, nil
}

// checkFields rejects any field that has no column in info.
func checkFields(info *database.TableInfo, collection string, fields []string) error {
	for _, f := range fields {
		if !info.HasColumn(f) {
			return errs.Newf(errs.ErrKindInvalidInput, "unknown field %q in collection %q", f, collection)
		}
	}
	return nil
}
