package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when an insert violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrInvalidID is returned for identifiers the backend cannot parse.
	// It is raised before the store is contacted.
	ErrInvalidID = errors.New("invalid identifier")
	// ErrStoreUnavailable wraps every failure reported by the underlying store.
	ErrStoreUnavailable = errors.New("store unavailable")
)
