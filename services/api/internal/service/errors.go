package service

import "errors"

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("invalid credentials")
	ErrForbidden    = errors.New("access denied")
	ErrConflict     = errors.New("email is already registered")
	ErrNotFound     = errors.New("user not found")
)
