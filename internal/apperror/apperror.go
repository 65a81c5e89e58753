package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation error")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrStore               = errors.New("store transaction failed")
	ErrRemoteUnavailable   = errors.New("remote unavailable")
	ErrForbidden           = errors.New("forbidden")
)

type AppError struct {
	Err     error  // sentinel for errors.Is checks
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// InsufficientBalance is returned when a member tries to redeem a promo that
// costs more visits than they have accumulated.
func InsufficientBalance(have, need int) *AppError {
	return &AppError{
		Err:     ErrInsufficientBalance,
		Message: fmt.Sprintf("needs %d visits, has %d", need, have),
	}
}

// Store wraps a persistence failure. A mutation that hits one of these is not
// durable and must not be reported as applied.
func Store(op string, err error) *AppError {
	return &AppError{
		Err:     ErrStore,
		Message: fmt.Sprintf("store: %s: %v", op, err),
	}
}

// RemoteUnavailable marks a failed snapshot fetch. The reconciler swallows it
// and falls back to local data; it never escapes the startup sequence.
func RemoteUnavailable(err error) *AppError {
	return &AppError{
		Err:     ErrRemoteUnavailable,
		Message: fmt.Sprintf("remote snapshot unavailable: %v", err),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}
