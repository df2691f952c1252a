package docstore

import (
	"context"
	"sort"
	"strings"

	"github.com/koustreak/docstore/internal/database"
	"github.com/koustreak/docstore/internal/errs"
	"github.com/koustreak/docstore/internal/logger"
	"github.com/koustreak/docstore/internal/schema"
)

const setOperator = "$set"

// Find returns the documents of collection matching p.Query, shaped by
// p.Options. A collection with no table yields an empty, non-nil slice.
func (a *Adapter) Find(ctx context.Context, p FindParams) ([]Document, error) {
	db, err := a.conn()
	if err != nil {
		return nil, err
	}
	if p.Options.Limit < 0 || p.Options.Skip < 0 {
		return nil, errs.New(errs.ErrKindInvalidInput, "limit and skip must not be negative")
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	log := a.logFor(ctx, p.Collection)

	exists, err := a.hasTable(ctx, db, p.Collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		log.Debug("collection has no table")
		return []Document{}, nil
	}

	b := database.Select(p.Collection, db.Dialect())
	if len(p.Options.Fields) > 0 {
		b.Columns(projection(p.Options.Fields)...)
	}
	for _, f := range p.Query.fields() {
		b.Where(f, "=", p.Query[f])
	}
	for _, s := range p.Options.Sort {
		b.OrderBy(s.Field, database.SortDirection(s.Desc))
	}
	if p.Options.Limit > 0 {
		b.Limit(p.Options.Limit)
	}
	if p.Options.Skip > 0 {
		b.Offset(p.Options.Skip)
	}

	return a.selectDocuments(ctx, db, log, "find", b)
}

// Insert stores every document in p.Data, creating the collection table from
// p.Schema (or, when empty, a schema inferred from every document in the
// batch) if it does not exist. Documents without _id get a generated one. Every field must
// match an existing column; the whole batch is checked before any row is
// written. The stored documents are returned as re-read from the backend.
//
// Inserts are not transactional: a backend failure part way through leaves
// the earlier documents in place.
func (a *Adapter) Insert(ctx context.Context, p InsertParams) ([]Document, error) {
	db, err := a.conn()
	if err != nil {
		return nil, err
	}
	if len(p.Data) == 0 {
		return []Document{}, nil
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	log := a.logFor(ctx, p.Collection)

	docs := make([]Document, len(p.Data))
	for i, src := range p.Data {
		doc := make(Document, len(src)+1)
		for k, v := range src {
			doc[k] = v
		}
		if id, ok := doc[schema.IDField]; !ok || id == nil {
			doc[schema.IDField] = newID()
		}
		docs[i] = doc
	}

	s := p.Schema
	if len(s) == 0 {
		s = inferSchema(docs)
	}
	if err := a.createTable(ctx, db, log, p.Collection, s); err != nil {
		return nil, err
	}

	info, err := a.tableInfo(ctx, db, p.Collection)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if err := checkFields(info, p.Collection, sortedKeys(doc)); err != nil {
			return nil, err
		}
	}

	for i, doc := range docs {
		b := database.Insert(p.Collection, db.Dialect())
		for _, k := range sortedKeys(doc) {
			b.Value(k, doc[k])
		}
		stmt, args, err := b.Build()
		if err != nil {
			return nil, err
		}
		log.Statement("insert", stmt, len(args))
		if _, err := db.Exec(ctx, stmt, args...); err != nil {
			if i > 0 {
				log.With().Err(err).Int("written", i).Logger().Warn("insert stopped part way")
			}
			return nil, err
		}
	}

	stored := make([]Document, 0, len(docs))
	for _, doc := range docs {
		got, err := a.findByID(ctx, db, log, p.Collection, doc.ID())
		if err != nil {
			return nil, err
		}
		stored = append(stored, got)
	}
	return stored, nil
}

// Update applies p.Update to every document matching p.Query and returns the
// matched documents as they read after the change. _id cannot be modified.
// A collection with no table, or a query matching nothing, yields an empty
// result.
func (a *Adapter) Update(ctx context.Context, p UpdateParams) (*UpdateResult, error) {
	db, err := a.conn()
	if err != nil {
		return nil, err
	}
	changes, err := updateFields(p.Update)
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	log := a.logFor(ctx, p.Collection)

	empty := &UpdateResult{Documents: []Document{}}

	exists, err := a.hasTable(ctx, db, p.Collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		log.Debug("collection has no table")
		return empty, nil
	}

	info, err := a.tableInfo(ctx, db, p.Collection)
	if err != nil {
		return nil, err
	}
	fields := sortedKeys(changes)
	if err := checkFields(info, p.Collection, fields); err != nil {
		return nil, err
	}

	ids, err := a.matchingIDs(ctx, db, log, p.Collection, p.Query)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return empty, nil
	}

	ub := database.Update(p.Collection, db.Dialect())
	for _, f := range fields {
		ub.Set(f, changes[f])
	}
	for _, f := range p.Query.fields() {
		ub.Where(f, "=", p.Query[f])
	}
	stmt, args, err := ub.Build()
	if err != nil {
		return nil, err
	}
	log.Statement("update", stmt, len(args))
	if _, err := db.Exec(ctx, stmt, args...); err != nil {
		return nil, err
	}
	log.DebugWith("documents updated", map[string]interface{}{
		"matched": len(ids),
		"fields":  fields,
	})

	res := &UpdateResult{
		Matched:   int64(len(ids)),
		Documents: make([]Document, 0, len(ids)),
	}
	for _, id := range ids {
		doc, err := a.findByID(ctx, db, log, p.Collection, id)
		if errs.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		res.Documents = append(res.Documents, doc)
	}
	return res, nil
}

// Delete removes every document matching p.Query. An empty query removes all
// documents. A collection with no table deletes nothing.
func (a *Adapter) Delete(ctx context.Context, p DeleteParams) (*DeleteResult, error) {
	db, err := a.conn()
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	log := a.logFor(ctx, p.Collection)

	exists, err := a.hasTable(ctx, db, p.Collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		log.Debug("collection has no table")
		return &DeleteResult{}, nil
	}

	b := database.Delete(p.Collection, db.Dialect())
	for _, f := range p.Query.fields() {
		b.Where(f, "=", p.Query[f])
	}
	stmt, args, err := b.Build()
	if err != nil {
		return nil, err
	}
	log.Statement("delete", stmt, len(args))
	n, err := db.Exec(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	log.DebugWith("documents deleted", map[string]interface{}{"deleted": n})
	return &DeleteResult{Deleted: n}, nil
}

// DropDatabase removes every document of collection. The table and its
// indexes are kept. A collection with no table is a no-op.
func (a *Adapter) DropDatabase(ctx context.Context, collection string) error {
	_, err := a.Delete(ctx, DeleteParams{Collection: collection})
	return err
}

func (a *Adapter) findByID(ctx context.Context, db database.DB, log *logger.Logger, collection string, id any) (Document, error) {
	b := database.Select(collection, db.Dialect()).Where(schema.IDField, "=", id)
	docs, err := a.selectDocuments(ctx, db, log, "find_by_id", b)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errs.Newf(errs.ErrKindNotFound, "document %v not found in collection %q", id, collection)
	}
	return docs[0], nil
}

func (a *Adapter) matchingIDs(ctx context.Context, db database.DB, log *logger.Logger, collection string, q Query) ([]any, error) {
	b := database.Select(collection, db.Dialect()).Columns(schema.IDField)
	for _, f := range q.fields() {
		b.Where(f, "=", q[f])
	}
	docs, err := a.selectDocuments(ctx, db, log, "match", b)
	if err != nil {
		return nil, err
	}
	ids := make([]any, len(docs))
	for i, d := range docs {
		ids[i] = d.ID()
	}
	return ids, nil
}

func (a *Adapter) selectDocuments(ctx context.Context, db database.DB, log *logger.Logger, op string, b *database.SelectBuilder) ([]Document, error) {
	stmt, args, err := b.Build()
	if err != nil {
		return nil, err
	}
	log.Statement(op, stmt, len(args))

	rows, err := db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	maps, err := database.ScanRows(rows)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, len(maps))
	for i, m := range maps {
		docs[i] = Document(m)
	}
	return docs, nil
}

// updateFields flattens an update document. It accepts either plain fields or
// a single $set operator, and rejects changes to _id.
func updateFields(update Document) (map[string]any, error) {
	if len(update) == 0 {
		return nil, errs.New(errs.ErrKindInvalidInput, "update document is empty")
	}

	changes := map[string]any(update)
	if raw, ok := update[setOperator]; ok {
		if len(update) != 1 {
			return nil, errs.New(errs.ErrKindInvalidInput, "$set cannot be mixed with plain fields")
		}
		switch set := raw.(type) {
		case map[string]any:
			changes = set
		case Document:
			changes = set
		default:
			return nil, errs.New(errs.ErrKindInvalidInput, "$set must be a document")
		}
		if len(changes) == 0 {
			return nil, errs.New(errs.ErrKindInvalidInput, "$set is empty")
		}
	}

	for f := range changes {
		if f == schema.IDField {
			return nil, errs.New(errs.ErrKindInvalidInput, "_id cannot be updated")
		}
		if strings.HasPrefix(f, "$") {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported update operator %q", f)
		}
	}
	return changes, nil
}

// projection returns fields with _id first and duplicates removed.
func projection(fields []string) []string {
	cols := []string{schema.IDField}
	seen := map[string]bool{schema.IDField: true}
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		cols = append(cols, f)
	}
	return cols
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// inferSchema unions the fields inferred from every document. The first
// document carrying a field decides its type.
func inferSchema(docs []Document) schema.Schema {
	s := make(schema.Schema)
	for _, doc := range docs {
		s.Merge(schema.Infer(doc))
	}
	return s
}
