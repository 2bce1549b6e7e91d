package services

import "errors"

// Dashboard service errors
var (
	// Selection errors
	ErrEntityNotFound = errors.New("entity not found")

	// Query errors
	ErrInvalidAlignment = errors.New("invalid correlation alignment")
	ErrUnknownView      = errors.New("unknown dashboard view")
	ErrInvalidFormat    = errors.New("unsupported export format")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
)
