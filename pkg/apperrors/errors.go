package apperrors

import "errors"

var (
	ErrUnknownProcedure = errors.New("unknown procedure")
	ErrInvalidFilter    = errors.New("invalid filter parameters")
)
