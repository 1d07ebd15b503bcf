package domain

import "errors"

var (
	// ErrValidation wraps field-level failures from Validate methods.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidRating rejects anything outside Again..Easy.
	ErrInvalidRating = errors.New("invalid rating")

	// ErrInvalidState rejects a memory state whose phase is not one of
	// New, Learning, Review or Relearning.
	ErrInvalidState = errors.New("invalid card state")

	// ErrInvalidCardContent means card content is not a JSON object.
	ErrInvalidCardContent = errors.New("invalid card content")
)
