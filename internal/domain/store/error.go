package store

import "errors"

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrMissingParent     = errors.New("referenced parent row does not exist")
	ErrForbidden         = errors.New("row belongs to another owner")
	ErrNotFound          = errors.New("row not found")
	ErrInvalidRow        = errors.New("invalid row")
	ErrConflict          = errors.New("row conflicts with an existing one")
)
