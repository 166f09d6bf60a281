package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrConcurrencyConflict = errors.New("record was modified by someone else")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrValidation          = errors.New("validation failed")
	ErrDuplicate           = errors.New("already exists")
)
