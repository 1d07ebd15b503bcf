package card_review

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/domain"
	"github.com/phrazzld/scry-fsrs/internal/session"
)

// ServiceReviewer submits a session's ratings directly to a
// CardReviewService on behalf of one user.
type ServiceReviewer struct {
	svc    CardReviewService
	userID uuid.UUID
}

var _ session.Reviewer = (*ServiceReviewer)(nil)

// NewServiceReviewer creates a session.Reviewer for userID.
func NewServiceReviewer(svc CardReviewService, userID uuid.UUID) *ServiceReviewer {
	return &ServiceReviewer{svc: svc, userID: userID}
}

// SubmitReview implements session.Reviewer.
func (r *ServiceReviewer) SubmitReview(
	ctx context.Context,
	cardID uuid.UUID,
	rating domain.Rating,
	durationMs *int64,
) (session.ReviewReceipt, error) {
	result, err := r.svc.SubmitReview(ctx, r.userID, cardID, rating, durationMs)
	if err != nil {
		return session.ReviewReceipt{}, err
	}
	return session.ReviewReceipt{
		CardID:  cardID,
		NextDue: result.NextDue,
		Memory:  result.Card.Memory,
	}, nil
}
