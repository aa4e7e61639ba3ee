package services

import "errors"

var (
	// ErrNotFound means the addressed record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a unique constraint rejected the write.
	ErrConflict = errors.New("already exists")
)
