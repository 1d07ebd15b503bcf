package card_review

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/domain"
	"github.com/phrazzld/scry-fsrs/internal/domain/srs"
	"github.com/phrazzld/scry-fsrs/internal/service"
	"github.com/phrazzld/scry-fsrs/internal/store"
)

// ReviewResult is returned by SubmitReview.
type ReviewResult struct {
	// Card holds the memory state as persisted by the review.
	Card *domain.Card

	NextDue  time.Time
	Interval time.Duration

	// Log describes the card as it was before the review.
	Log domain.ReviewLogEntry

	// LogPersisted is false when the review was applied but its log entry
	// could not be written.
	LogPersisted bool
}

// CardPreview shows what each rating would do to a card right now.
type CardPreview struct {
	Card                  *domain.Card
	Previews              []srs.RatingPreview
	RetrievabilityPercent int
}

// CardReviewService provides methods for reviewing flashcards
// using a spaced repetition algorithm.
type CardReviewService interface {
	// GetDueCards returns the cards of a deck that are due for review,
	// highest priority first.
	//
	// At most the configured batch size of cards is fetched, oldest due time
	// first; the batch is then re-ranked so cards in learning or relearning
	// come before cards in review.
	//
	// Returns:
	//   - ([]*domain.Card, nil): The due batch, possibly empty
	//   - (nil, ErrDeckNotFound): If the deck does not exist
	//   - (nil, ErrDeckNotOwned): If the user does not own the deck
	//   - (nil, error): Any other error, typically from the database
	GetDueCards(ctx context.Context, userID, deckID uuid.UUID) ([]*domain.Card, error)

	// SubmitReview applies a rating to a card and persists the result.
	//
	// This method performs several operations:
	// 1. Loads and locks the card inside a transaction and verifies ownership
	// 2. Computes the new memory state with the scheduler
	// 3. Writes the new memory state; a failure here fails the whole call
	// 4. After commit, appends the review log entry; a failure here is logged
	//    and reported through ReviewResult.LogPersisted only
	//
	// Returns:
	//   - (*ReviewResult, nil): The updated card and its next due time
	//   - (nil, ErrInvalidRating): If the rating is outside Again..Easy
	//   - (nil, ErrCardNotFound): If the card does not exist
	//   - (nil, ErrCardNotOwned): If the user does not own the card
	//   - (nil, error): Any other error, typically from the database
	SubmitReview(
		ctx context.Context,
		userID, cardID uuid.UUID,
		rating domain.Rating,
		durationMs *int64,
	) (*ReviewResult, error)

	// PreviewCard returns the outcome of every rating for a card without
	// changing it, together with its current recall probability.
	PreviewCard(ctx context.Context, userID, cardID uuid.UUID) (*CardPreview, error)

	// ListReviewLogs returns a card's review history, oldest first.
	ListReviewLogs(ctx context.Context, userID, cardID uuid.UUID) ([]*domain.ReviewLogEntry, error)
}

// Errors returned by CardReviewService. They are the store and service
// sentinels, re-exported so callers need only this package.
var (
	ErrCardNotFound  = store.ErrCardNotFound
	ErrDeckNotFound  = store.ErrDeckNotFound
	ErrCardNotOwned  = service.ErrCardNotOwned
	ErrDeckNotOwned  = service.ErrDeckNotOwned
	ErrInvalidRating = domain.ErrInvalidRating
)

// NewSubmitReviewError returns a ServiceError for the submit_review operation.
func NewSubmitReviewError(message string, err error) *service.ServiceError {
	return service.NewServiceError("submit_review", message, err)
}

// NewGetDueCardsError returns a ServiceError for the get_due_cards operation.
func NewGetDueCardsError(message string, err error) *service.ServiceError {
	return service.NewServiceError("get_due_cards", message, err)
}
