package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrReviewLogCardIDEmpty is returned when a log entry has no card.
var ErrReviewLogCardIDEmpty = errors.New("review log card ID cannot be empty")

// ReviewLogEntry is an append-only audit record of one review. State,
// ElapsedDays, ScheduledDays and LearningSteps describe the card as it was
// before the review was applied.
type ReviewLogEntry struct {
	ID            uuid.UUID `json:"id"`
	CardID        uuid.UUID `json:"card_id"`
	Rating        Rating    `json:"rating"`
	State         State     `json:"state"`
	ElapsedDays   float64   `json:"elapsed_days"`
	ScheduledDays float64   `json:"scheduled_days"`
	LearningSteps int       `json:"learning_steps"`
	DurationMs    *int64    `json:"duration_ms,omitempty"`
	ReviewedAt    time.Time `json:"reviewed_at"`
}

// Validate checks the log entry before it is appended.
func (l *ReviewLogEntry) Validate() error {
	if l.CardID == uuid.Nil {
		return ErrReviewLogCardIDEmpty
	}
	if !l.Rating.IsValid() {
		return ErrInvalidRating
	}
	if !l.State.IsValid() {
		return ErrInvalidState
	}
	if l.ReviewedAt.IsZero() {
		return errors.New("review log timestamp cannot be zero")
	}
	return nil
}
