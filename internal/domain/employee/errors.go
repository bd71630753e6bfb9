package employee

import "errors"

var (
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrEmployeeCodeExists  = errors.New("employee code already exists")
	ErrInvalidEmployeeCode = errors.New("invalid employee code format")
	ErrActorRequired       = errors.New("an authenticated employee is required")
	ErrAdminRequired       = errors.New("admin privilege required")
	ErrUnauthorized        = errors.New("unauthorized to access this employee")
)
