package core

import "errors"

var (
	// ErrInvalidInput reports a violated precondition; the caller should fix the call.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound reports that a filter or pseudo-ID matched zero rows.
	ErrNotFound = errors.New("record not found")
	// ErrUnsupportedType reports a value outside the Integer/Real/Text union.
	ErrUnsupportedType = errors.New("unsupported field type")
	// ErrStorage wraps failures reported by the backing store.
	ErrStorage = errors.New("storage error")
)
