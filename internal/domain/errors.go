package domain

import "errors"

var (
	ErrUnauthenticated    = errors.New("unauthenticated")     // 401
	ErrForbidden          = errors.New("forbidden")           // 403
	ErrValidation         = errors.New("validation")          // 400
	ErrNotFound           = errors.New("not found")           // 404
	ErrInsufficientStock  = errors.New("insufficient stock")  // 400
	ErrInvalidState       = errors.New("invalid state")       // 409
	ErrConflict           = errors.New("conflict")            // 409
	ErrInvalidCredentials = errors.New("invalid credentials") // 401
	ErrUnavailable        = errors.New("unavailable")         // 503
)
