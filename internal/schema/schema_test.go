package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnType(t *testing.T) {
	tests := []struct {
		fieldType string
		want      string
	}{
		{"String", TextColumn},
		{"string", TextColumn},
		{"Number", IntegerColumn},
		{"Boolean", IntegerColumn},
		{"", IntegerColumn},
	}

	for _, tt := range tests {
		t.Run(tt.fieldType, func(t *testing.T) {
			assert.Equal(t, tt.want, ColumnType(tt.fieldType))
		})
	}
}

func TestSchema_Names(t *testing.T) {
	s := Schema{
		"name":  {Type: TypeString},
		"_id":   {Type: TypeString},
		"age":   {Type: TypeNumber},
		"email": {Type: TypeString},
	}
	assert.Equal(t, []string{"age", "email", "name"}, s.Names())
	assert.Empty(t, Schema(nil).Names())
}

func TestInfer(t *testing.T) {
	got := Infer(map[string]any{
		"_id":    "abc",
		"name":   "Alice",
		"age":    30,
		"score":  1.5,
		"active": true,
		"note":   nil,
	})

	assert.Equal(t, Schema{
		"name":   {Type: TypeString},
		"age":    {Type: TypeNumber},
		"score":  {Type: TypeNumber},
		"active": {Type: TypeNumber},
		"note":   {Type: TypeNumber},
	}, got)
}

func TestMerge(t *testing.T) {
	s := Schema{"name": {Type: TypeString}}
	s.Merge(Schema{"name": {Type: TypeNumber}, "age": {Type: TypeNumber}})
	s.Merge(nil)

	assert.Equal(t, Schema{
		"name": {Type: TypeString},
		"age":  {Type: TypeNumber},
	}, s)
}
