package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates an entity with the same id is already stored.
	ErrAlreadyExists = errors.New("already exists")
	// ErrValidation marks input rejected at a boundary.
	ErrValidation = errors.New("validation failed")
)
