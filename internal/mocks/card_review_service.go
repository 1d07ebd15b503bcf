package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/domain"
	"github.com/phrazzld/scry-fsrs/internal/service/card_review"
)

var _ card_review.CardReviewService = (*MockCardReviewService)(nil)

// MockCardReviewService implements card_review.CardReviewService for testing
type MockCardReviewService struct {
	GetDueCardsFn func(ctx context.Context, userID, deckID uuid.UUID) ([]*domain.Card, error)
	SubmitReviewFn func(
		ctx context.Context,
		userID, cardID uuid.UUID,
		rating domain.Rating,
		durationMs *int64,
	) (*card_review.ReviewResult, error)
	PreviewCardFn    func(ctx context.Context, userID, cardID uuid.UUID) (*card_review.CardPreview, error)
	ListReviewLogsFn func(ctx context.Context, userID, cardID uuid.UUID) ([]*domain.ReviewLogEntry, error)

	// Default response values
	DueCards []*domain.Card
	Result   *card_review.ReviewResult
	Preview  *card_review.CardPreview
	Logs     []*domain.ReviewLogEntry
	Err      error

	SubmitReviewCalls struct {
		mu      sync.Mutex
		Count   int
		UserIDs []uuid.UUID
		CardIDs []uuid.UUID
		Ratings []domain.Rating
	}
}

// GetDueCards implements the card_review.CardReviewService interface
func (m *MockCardReviewService) GetDueCards(ctx context.Context, userID, deckID uuid.UUID) ([]*domain.Card, error) {
	if m.GetDueCardsFn != nil {
		return m.GetDueCardsFn(ctx, userID, deckID)
	}
	return m.DueCards, m.Err
}

// SubmitReview implements the card_review.CardReviewService interface
func (m *MockCardReviewService) SubmitReview(
	ctx context.Context,
	userID, cardID uuid.UUID,
	rating domain.Rating,
	durationMs *int64,
) (*card_review.ReviewResult, error) {
	m.SubmitReviewCalls.mu.Lock()
	m.SubmitReviewCalls.Count++
	m.SubmitReviewCalls.UserIDs = append(m.SubmitReviewCalls.UserIDs, userID)
	m.SubmitReviewCalls.CardIDs = append(m.SubmitReviewCalls.CardIDs, cardID)
	m.SubmitReviewCalls.Ratings = append(m.SubmitReviewCalls.Ratings, rating)
	m.SubmitReviewCalls.mu.Unlock()

	if m.SubmitReviewFn != nil {
		return m.SubmitReviewFn(ctx, userID, cardID, rating, durationMs)
	}
	return m.Result, m.Err
}

// PreviewCard implements the card_review.CardReviewService interface
func (m *MockCardReviewService) PreviewCard(
	ctx context.Context,
	userID, cardID uuid.UUID,
) (*card_review.CardPreview, error) {
	if m.PreviewCardFn != nil {
		return m.PreviewCardFn(ctx, userID, cardID)
	}
	return m.Preview, m.Err
}

// ListReviewLogs implements the card_review.CardReviewService interface
func (m *MockCardReviewService) ListReviewLogs(
	ctx context.Context,
	userID, cardID uuid.UUID,
) ([]*domain.ReviewLogEntry, error) {
	if m.ListReviewLogsFn != nil {
		return m.ListReviewLogsFn(ctx, userID, cardID)
	}
	return m.Logs, m.Err
}
