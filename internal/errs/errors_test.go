package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	cause := errors.New("socket closed")

	assert.Equal(t, "[disconnected] store is not connected",
		New(ErrKindDisconnected, "store is not connected").Error())
	assert.Equal(t, "[query_failed] insert failed: socket closed",
		Wrap(ErrKindQueryFailed, "insert failed", cause).Error())
	assert.Equal(t, "[invalid_input] bad name \"x-y\"",
		Newf(ErrKindInvalidInput, "bad name %q", "x-y").Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ErrKindConflict, "duplicate _id", cause)

	assert.ErrorIs(t, err, cause)
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", New(ErrKindNotFound, "x"), IsNotFound},
		{"timeout", New(ErrKindTimeout, "x"), IsTimeout},
		{"connection", New(ErrKindConnectionFailed, "x"), IsConnectionFailed},
		{"query", New(ErrKindQueryFailed, "x"), IsQueryFailed},
		{"input", New(ErrKindInvalidInput, "x"), IsInvalidInput},
		{"permission", New(ErrKindPermissionDenied, "x"), IsPermissionDenied},
		{"disconnected", New(ErrKindDisconnected, "x"), IsDisconnected},
		{"conflict", New(ErrKindConflict, "x"), IsConflict},
		{"wrapped by fmt", fmt.Errorf("find: %w", New(ErrKindDisconnected, "x")), IsDisconnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
		})
	}
}

func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, ErrKindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, ErrKindUnknown, KindOf(nil))
	assert.False(t, IsDisconnected(errors.New("plain")))
}
