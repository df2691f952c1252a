// Package schema describes collection schemas: the field-name-to-type maps
// consulted when a collection's backing table is first created.
//
// A schema is never used to validate documents after the table exists.
package schema

import (
	"sort"
	"strings"
)

// Field type tags understood by ColumnType. Any tag other than TypeString is
// treated as numeric.
const (
	TypeString = "String"
	TypeNumber = "Number"
)

// IDField is the identifier field every document carries.
const IDField = "_id"

// Column types emitted for table creation.
const (
	TextColumn    = "VARCHAR(255)"
	IntegerColumn = "INTEGER"
)

// Field describes one field of a collection.
type Field struct {
	Type string `json:"type" yaml:"type"`
}

// Schema maps field names to their descriptors.
type Schema map[string]Field

// Names returns the schema's field names, sorted, without IDField.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		if name == IDField {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge adds every field of other that s does not already have. Fields
// already in s keep their type.
func (s Schema) Merge(other Schema) {
	for name, f := range other {
		if _, ok := s[name]; !ok {
			s[name] = f
		}
	}
}

// ColumnType returns the column type for a field type tag:
// String is a bounded text column, everything else an integer column.
func ColumnType(fieldType string) string {
	if strings.EqualFold(fieldType, TypeString) {
		return TextColumn
	}
	return IntegerColumn
}

// Infer derives a schema from a document's values. Go strings become
// TypeString; every other value, nil included, becomes TypeNumber.
func Infer(doc map[string]any) Schema {
	s := make(Schema, len(doc))
	for name, v := range doc {
		if name == IDField {
			continue
		}
		if _, ok := v.(string); ok {
			s[name] = Field{Type: TypeString}
		} else {
			s[name] = Field{Type: TypeNumber}
		}
	}
	return s
}
