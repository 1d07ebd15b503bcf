package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/scry-fsrs/internal/api/shared"
	"github.com/phrazzld/scry-fsrs/internal/domain"
	"github.com/phrazzld/scry-fsrs/internal/service"
	"github.com/phrazzld/scry-fsrs/internal/service/auth"
	"github.com/phrazzld/scry-fsrs/internal/store"
)

// errUnauthenticated is reported when a protected handler runs without a
// user in the request context.
var errUnauthenticated = errors.New("user not found in request context")

// errInvalidID is reported for a path parameter that is not a UUID.
var errInvalidID = errors.New("invalid ID")

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, errUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrMissingUser):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, errInvalidID),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrDeckNameEmpty),
		errors.Is(err, domain.ErrDeckNameTooLong),
		errors.Is(err, domain.ErrCardFrontEmpty),
		errors.Is(err, domain.ErrCardBackEmpty),
		errors.Is(err, domain.ErrInvalidCardContent):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, errUnauthenticated),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrMissingUser):
		return "Authentication required"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"

	case errors.Is(err, service.ErrCardNotOwned):
		return "You do not own this card"
	case errors.Is(err, service.ErrDeckNotOwned):
		return "You do not own this deck"

	case errors.Is(err, store.ErrCardNotFound):
		return "Card not found"
	case errors.Is(err, store.ErrDeckNotFound):
		return "Deck not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, errInvalidID):
		return "Invalid ID format"
	case errors.Is(err, domain.ErrInvalidRating):
		return "Invalid rating: must be again, hard, good or easy"
	case errors.Is(err, domain.ErrDeckNameEmpty):
		return "Deck name is required"
	case errors.Is(err, domain.ErrDeckNameTooLong):
		return "Deck name is too long"
	case errors.Is(err, domain.ErrCardFrontEmpty):
		return "Card front is required"
	case errors.Is(err, domain.ErrCardBackEmpty):
		return "Card back is required"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidCardContent),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps err to a status and safe message and writes the
// response. A non-empty fallback replaces the generic message for 500s.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message naming the first failing field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "gte":
		return "must not be negative"
	default:
		return "validation failed"
	}
}
