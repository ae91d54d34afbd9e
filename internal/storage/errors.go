package storage

import "errors"

// Errors shared by every store implementation. Chart and transit rows are
// never updated once written.
var (
	// ErrNotFound is returned when no chart or transit row matches.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a chart ID, short ID or transit
	// (instant, planet) pair is already stored.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned for records missing their keys, bad
	// limits or rows the backing schema rejects.
	ErrInvalidInput = errors.New("invalid input")
)
