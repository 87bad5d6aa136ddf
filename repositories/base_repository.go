package repositories

import "errors"

// Repository-level errors shared by the gorm and in-memory implementations.
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
)
