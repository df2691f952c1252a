package docstore

import (
	"context"
	"strconv"
	"strings"

	"github.com/koustreak/docstore/internal/database"
	"github.com/koustreak/docstore/internal/errs"
)

// Stats reports the document count and index count of collection. A
// collection with no table reports zeros.
func (a *Adapter) Stats(ctx context.Context, collection string) (*Stats, error) {
	db, err := a.conn()
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	log := a.logFor(ctx, collection)

	exists, err := a.hasTable(ctx, db, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		log.Debug("collection has no table")
		return &Stats{}, nil
	}

	stmt, args, err := database.Count(collection, db.Dialect()).Build()
	if err != nil {
		return nil, err
	}
	log.Statement("count", stmt, len(args))
	row, err := db.QueryRow(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	m, err := database.ScanRow(row, []string{"count"})
	if err != nil {
		return nil, err
	}
	count, err := countValue(m["count"])
	if err != nil {
		return nil, err
	}

	indexes, err := db.ListIndexes(ctx, collection)
	if err != nil {
		return nil, err
	}
	return &Stats{Count: count, Indexes: len(indexes)}, nil
}

// Index creates each requested index that does not already exist, matched by
// name, and returns the descriptors of all requested indexes. The collection
// table must exist.
func (a *Adapter) Index(ctx context.Context, collection string, requested []IndexSpec) ([]*database.IndexInfo, error) {
	db, err := a.conn()
	if err != nil {
		return nil, err
	}
	if len(requested) == 0 {
		return nil, errs.New(errs.ErrKindInvalidInput, "at least one index is required")
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	log := a.logFor(ctx, collection)

	exists, err := a.hasTable(ctx, db, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errs.Newf(errs.ErrKindNotFound, "collection %q does not exist", collection)
	}

	info, err := a.tableInfo(ctx, db, collection)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(requested))
	for i, req := range requested {
		if len(req.Fields) == 0 {
			return nil, errs.New(errs.ErrKindInvalidInput, "index needs at least one field")
		}
		if err := checkFields(info, collection, req.Fields); err != nil {
			return nil, err
		}
		names[i] = req.Name
		if names[i] == "" {
			names[i] = indexName(collection, req.Fields)
		}
		if err := database.ValidateIdent(names[i]); err != nil {
			return nil, err
		}
	}

	current, err := db.ListIndexes(ctx, collection)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(current))
	for _, idx := range current {
		have[idx.Name] = true
	}

	for i, req := range requested {
		if have[names[i]] {
			log.Debugf("index %s already exists", names[i])
			continue
		}
		stmt, err := database.CreateIndex(names[i], collection, db.Dialect()).
			Columns(req.Fields...).
			Unique(req.Unique).
			Build()
		if err != nil {
			return nil, err
		}
		log.Statement("create_index", stmt, 0)
		if _, err := db.Exec(ctx, stmt); err != nil {
			return nil, err
		}
		have[names[i]] = true
		log.InfoWith("index created", map[string]interface{}{
			"index":  names[i],
			"unique": req.Unique,
		})
	}

	current, err = db.ListIndexes(ctx, collection)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*database.IndexInfo, len(current))
	for _, idx := range current {
		byName[idx.Name] = idx
	}

	out := make([]*database.IndexInfo, 0, len(names))
	for _, name := range names {
		idx, ok := byName[name]
		if !ok {
			return nil, errs.Newf(errs.ErrKindQueryFailed, "index %q missing after creation", name)
		}
		out = append(out, idx)
	}
	return out, nil
}

// GetIndexes lists every index on collection, primary key included. A
// collection with no table has none.
func (a *Adapter) GetIndexes(ctx context.Context, collection string) ([]*database.IndexInfo, error) {
	db, err := a.conn()
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	exists, err := a.hasTable(ctx, db, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []*database.IndexInfo{}, nil
	}
	return db.ListIndexes(ctx, collection)
}

func indexName(collection string, fields []string) string {
	return collection + "_" + strings.Join(fields, "_") + "_idx"
}

// countValue converts a COUNT(*) result to int64. Drivers differ in the Go
// type they hand back for it.
func countValue(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		c, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, errs.Wrap(errs.ErrKindQueryFailed, "count is not a number", err)
		}
		return c, nil
	default:
		return 0, errs.Newf(errs.ErrKindQueryFailed, "unexpected count type %T", v)
	}
}
