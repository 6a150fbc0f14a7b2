package repository

import "errors"

// ErrNotFound is returned by lookups when no matching record exists,
// regardless of the backing store.
var ErrNotFound = errors.New("record not found")
