package docstore

import (
	"sort"

	"github.com/koustreak/docstore/internal/schema"
)

// Document is a stored record: field name to value, always carrying _id
// once written.
type Document map[string]any

// ID returns the document's _id, or nil when absent.
func (d Document) ID() any {
	return d[schema.IDField]
}

// Query is a set of exact-match predicates, combined with AND.
// A nil value matches NULL.
type Query map[string]any

// fields returns the query's field names in a stable order so generated SQL
// is deterministic.
func (q Query) fields() []string {
	names := make([]string, 0, len(q))
	for name := range q {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortField orders Find results by one field.
type SortField struct {
	Field string
	Desc  bool
}

// Options shape a Find result. Zero values mean "no limit", "skip nothing",
// "natural order" and "all fields".
type Options struct {
	Limit  int
	Skip   int
	Sort   []SortField
	Fields []string // projection; _id is always included
}

// FindParams is the argument bundle for Adapter.Find.
type FindParams struct {
	Collection string
	Query      Query
	Options    Options
	Schema     schema.Schema
}

// InsertParams is the argument bundle for Adapter.Insert.
// A single document is passed as a one-element Data slice.
type InsertParams struct {
	Collection string
	Data       []Document
	Schema     schema.Schema // used only if the collection table must be created
}

// UpdateParams is the argument bundle for Adapter.Update.
// Update is either a plain field map or {"$set": {...}}.
type UpdateParams struct {
	Collection string
	Query      Query
	Update     Document
	Schema     schema.Schema
}

// DeleteParams is the argument bundle for Adapter.Delete.
type DeleteParams struct {
	Collection string
	Query      Query
	Schema     schema.Schema
}

// UpdateResult reports the documents an Update touched, as re-read after
// the change.
type UpdateResult struct {
	Matched   int64
	Documents []Document
}

// DeleteResult reports how many documents a Delete removed.
type DeleteResult struct {
	Deleted int64
}

// Stats is collection metadata.
type Stats struct {
	Count   int64
	Indexes int
}

// IndexSpec requests an index over Fields. Name defaults to
// <collection>_<field>[_<field>...]_idx.
type IndexSpec struct {
	Name   string
	Fields []string
	Unique bool
}
