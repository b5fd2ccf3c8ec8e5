// Package apperr holds the error kinds shared by the lending and scheduling
// managers. Every error a manager returns wraps exactly one kind so that the
// HTTP layer can map it to a status code with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrPersistence  = errors.New("persistence failure")
)

var kinds = []error{ErrValidation, ErrNotFound, ErrInvalidState, ErrConflict, ErrPersistence}

// Error is a kind plus the reason shown to the caller.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func New(kind error, msg string) *Error { return &Error{kind: kind, msg: msg} }

func Newf(kind error, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Persistence tags a store error. nil stays nil.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPersistence) {
		return err
	}
	return errors.Join(ErrPersistence, err)
}

// KindOf reports which kind err wraps, or nil for untyped errors.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
