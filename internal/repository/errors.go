// Package repository defines error values that are reused across multiple
// repositories.  These sentinel values allow higher layers such as the
// booking and payment engines to distinguish between different failure
// scenarios without parsing driver errors.
package repository

import (
    "errors"
    "strings"
)

// ErrNotFound is returned when a requested row does not exist.  Repositories
// translate sql.ErrNoRows into this value so callers never import
// database/sql just to compare errors.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique key, for example
// two concurrent reservations racing for the same (trip, seat) pair or a
// reference code collision.
var ErrDuplicate = errors.New("duplicate key")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (error code 1062).
func isDuplicateKey(err error) bool {
    if err == nil {
        return false
    }
    return strings.Contains(err.Error(), "1062")
}
