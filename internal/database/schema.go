package database

// ColumnInfo describes a single column as reported by the backend.
type ColumnInfo struct {
	Name      string
	DataType  string
	Nullable  bool
	Default   *string
	IsPrimary bool
}

// TableInfo describes a table and its columns.
type TableInfo struct {
	Name       string
	Columns    []*ColumnInfo
	PrimaryKey []string
}

// HasColumn reports whether the table has a column named name.
func (t *TableInfo) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// ColumnNames returns the column names in ordinal order.
func (t *TableInfo) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// IndexInfo describes one index as reported by the backend.
type IndexInfo struct {
	Name    string
	Columns []string // in index key order
	Unique  bool
	Primary bool
}
