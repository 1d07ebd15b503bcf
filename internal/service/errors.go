package service

import (
	"errors"
	"fmt"
)

// Common service errors. Callers check them with errors.Is; the API layer
// maps them to HTTP status codes.
var (
	// ErrNotOwned indicates a resource is owned by a different user than the one making the request.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrDeckNotOwned is returned when a user acts on another user's deck.
	ErrDeckNotOwned = fmt.Errorf("%w: deck", ErrNotOwned)

	// ErrCardNotOwned is returned when a user acts on another user's card.
	ErrCardNotOwned = fmt.Errorf("%w: card", ErrNotOwned)
)

// ServiceError wraps unexpected failures with the operation that produced
// them, so callers can use errors.As instead of string matching.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
