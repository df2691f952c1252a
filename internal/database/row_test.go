package database

import (
	"errors"
	"testing"

	"github.com/koustreak/docstore/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRows replays a fixed result set.
type fakeRows struct {
	columns []string
	data    [][]any
	pos     int
	closed  bool
	iterErr error
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	for i := range dest {
		*(dest[i].(*any)) = row[i]
	}
	return nil
}

func (r *fakeRows) Columns() ([]string, error) { return r.columns, nil }
func (r *fakeRows) Close()                     { r.closed = true }
func (r *fakeRows) Err() error                 { return r.iterErr }

type fakeRow struct {
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i := range dest {
		*(dest[i].(*any)) = r.values[i]
	}
	return nil
}

func TestScanRows(t *testing.T) {
	rows := &fakeRows{
		columns: []string{"_id", "name", "age"},
		data: [][]any{
			{[]byte("a"), []byte("Alice"), int64(30)},
			{"b", "Bob", nil},
		},
	}

	got, err := ScanRows(rows)
	require.NoError(t, err)
	assert.True(t, rows.closed)
	require.Len(t, got, 2)
	assert.Equal(t, map[string]any{"_id": "a", "name": "Alice", "age": int64(30)}, got[0])
	assert.Equal(t, map[string]any{"_id": "b", "name": "Bob", "age": nil}, got[1])
}

func TestScanRows_Empty(t *testing.T) {
	got, err := ScanRows(&fakeRows{columns: []string{"_id"}})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestScanRows_IterationError(t *testing.T) {
	_, err := ScanRows(&fakeRows{columns: []string{"_id"}, iterErr: errors.New("reset by peer")})
	require.Error(t, err)
	assert.True(t, errs.IsQueryFailed(err))
}

func TestScanRow(t *testing.T) {
	got, err := ScanRow(&fakeRow{values: []any{"a", []byte("Alice")}}, []string{"_id", "name"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"_id": "a", "name": "Alice"}, got)

	_, err = ScanRow(&fakeRow{err: errs.New(errs.ErrKindNotFound, "record not found")}, []string{"_id"})
	assert.True(t, errs.IsNotFound(err))

	_, err = ScanRow(&fakeRow{err: errors.New("bad")}, []string{"_id"})
	assert.True(t, errs.IsQueryFailed(err))
}
