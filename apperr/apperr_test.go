package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	plain := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"validation", New(ErrValidation, "v"), ErrValidation},
		{"not found", New(ErrNotFound, "n"), ErrNotFound},
		{"invalid state", New(ErrInvalidState, "s"), ErrInvalidState},
		{"conflict", New(ErrConflict, "c"), ErrConflict},
		{"persistence", Persistence(plain), ErrPersistence},
		{"wrapped", fmt.Errorf("submit: %w", New(ErrConflict, "c")), ErrConflict},
		{"untyped", plain, nil},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestPersistence(t *testing.T) {
	assert.NoError(t, Persistence(nil))

	cause := errors.New("connection reset")
	err := Persistence(cause)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")

	assert.Same(t, err, Persistence(err), "already tagged errors pass through")
	tagged := New(ErrPersistence, "store down")
	assert.Same(t, error(tagged), Persistence(tagged))
}

func TestNew(t *testing.T) {
	err := Newf(ErrValidation, "borrow period exceeds %d days", 7)
	assert.Equal(t, "borrow period exceeds 7 days", err.Error())
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrConflict)

	var ae *Error
	require.ErrorAs(t, fmt.Errorf("ctx: %w", New(ErrNotFound, "equipment not found")), &ae)
	assert.Equal(t, "equipment not found", ae.Error())
	assert.ErrorIs(t, ae, ErrNotFound)
}
