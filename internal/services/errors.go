package services

import "errors"

// Common service errors. Lifecycle operations wrap these with detail via
// fmt.Errorf("%w: ..."), so callers can classify with errors.Is.
var (
	ErrNotFound      = errors.New("record not found")
	ErrValidation    = errors.New("validation failed")
	ErrInvalidState  = errors.New("loan is not in an eligible state")
	ErrConfiguration = errors.New("charge configuration error")
	ErrConflict      = errors.New("concurrent update conflict")
)
