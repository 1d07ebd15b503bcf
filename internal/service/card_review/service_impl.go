package card_review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/domain"
	"github.com/phrazzld/scry-fsrs/internal/domain/srs"
	"github.com/phrazzld/scry-fsrs/internal/platform/logger"
	"github.com/phrazzld/scry-fsrs/internal/service"
	"github.com/phrazzld/scry-fsrs/internal/store"
)

// DefaultBatchSize is the number of due cards fetched when no batch size is
// configured.
const DefaultBatchSize = 20

// Verify interface compliance at compile time
var _ CardReviewService = (*cardReviewServiceImpl)(nil)

type cardReviewServiceImpl struct {
	db        *sql.DB
	decks     store.DeckStore
	cards     store.CardStore
	logs      store.ReviewLogStore
	scheduler *srs.Scheduler
	batchSize int
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures the service.
type Option func(*cardReviewServiceImpl)

// WithBatchSize sets how many due cards GetDueCards fetches.
func WithBatchSize(n int) Option {
	return func(s *cardReviewServiceImpl) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithClock sets the time source used for due checks and reviews.
func WithClock(now func() time.Time) Option {
	return func(s *cardReviewServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// NewCardReviewService creates a new CardReviewService implementation.
// It panics if any store, the database or the scheduler is nil.
func NewCardReviewService(
	db *sql.DB,
	decks store.DeckStore,
	cards store.CardStore,
	logs store.ReviewLogStore,
	scheduler *srs.Scheduler,
	logger *slog.Logger,
	opts ...Option,
) CardReviewService {
	if db == nil {
		panic("db cannot be nil")
	}
	if decks == nil {
		panic("decks cannot be nil")
	}
	if cards == nil {
		panic("cards cannot be nil")
	}
	if logs == nil {
		panic("logs cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &cardReviewServiceImpl{
		db:        db,
		decks:     decks,
		cards:     cards,
		logs:      logs,
		scheduler: scheduler,
		batchSize: DefaultBatchSize,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "card_review_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *cardReviewServiceImpl) GetDueCards(
	ctx context.Context,
	userID, deckID uuid.UUID,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deck, err := s.decks.GetByID(ctx, deckID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrDeckNotFound
		}
		log.Error("failed to load deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, NewGetDueCardsError("failed to load deck", err)
	}
	if deck.UserID != userID {
		log.Warn("due cards requested for deck owned by another user",
			slog.String("user_id", userID.String()),
			slog.String("deck_id", deckID.String()))
		return nil, ErrDeckNotOwned
	}

	due, err := s.cards.ListDue(ctx, deckID, s.now().UTC(), s.batchSize)
	if err != nil {
		log.Error("failed to list due cards",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, NewGetDueCardsError("failed to list due cards", err)
	}

	ordered := srs.OrderByPriority(due, func(c *domain.Card) domain.MemoryState { return c.Memory })
	log.Debug("due cards fetched",
		slog.String("deck_id", deckID.String()),
		slog.Int("count", len(ordered)))
	return ordered, nil
}

func (s *cardReviewServiceImpl) SubmitReview(
	ctx context.Context,
	userID, cardID uuid.UUID,
	rating domain.Rating,
	durationMs *int64,
) (*ReviewResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()),
	)

	if !rating.IsValid() {
		log.Warn("rejected review with invalid rating", slog.Int("rating", int(rating)))
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}

	now := s.now().UTC()
	var result *ReviewResult

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cards.WithTx(tx)

		card, err := cards.GetForUpdate(ctx, cardID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return ErrCardNotFound
			}
			return err
		}
		if card.UserID != userID {
			return ErrCardNotOwned
		}

		review, err := s.scheduler.Review(card.Memory, rating, now, durationMs)
		if err != nil {
			return err
		}
		if err := cards.UpdateMemoryState(ctx, cardID, review.State, now); err != nil {
			return err
		}

		card.Memory = review.State
		card.UpdatedAt = now

		entry := review.Log
		entry.ID = uuid.New()
		entry.CardID = cardID

		result = &ReviewResult{
			Card:     card,
			NextDue:  review.State.Due,
			Interval: review.Interval,
			Log:      entry,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCardNotFound) || errors.Is(err, ErrCardNotOwned) {
			log.Warn("review rejected", slog.String("error", err.Error()))
			return nil, err
		}
		log.Error("failed to apply review", slog.String("error", err.Error()))
		return nil, NewSubmitReviewError("failed to apply review", err)
	}

	if err := s.logs.Append(ctx, &result.Log); err != nil {
		log.Error("failed to append review log",
			slog.String("error", err.Error()),
			slog.String("review_id", result.Log.ID.String()))
	} else {
		result.LogPersisted = true
	}

	log.Info("review submitted",
		slog.String("rating", rating.String()),
		slog.String("state", result.Card.Memory.State.String()),
		slog.Time("next_due", result.NextDue),
		slog.Duration("interval", result.Interval))
	return result, nil
}

func (s *cardReviewServiceImpl) PreviewCard(
	ctx context.Context,
	userID, cardID uuid.UUID,
) (*CardPreview, error) {
	card, err := s.ownedCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	previews, err := s.scheduler.Preview(card.Memory, now)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to preview card",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, service.NewServiceError("preview_card", "stored memory state is invalid", err)
	}

	return &CardPreview{
		Card:                  card,
		Previews:              previews,
		RetrievabilityPercent: srs.RetrievabilityPercent(card.Memory, now),
	}, nil
}

func (s *cardReviewServiceImpl) ListReviewLogs(
	ctx context.Context,
	userID, cardID uuid.UUID,
) ([]*domain.ReviewLogEntry, error) {
	if _, err := s.ownedCard(ctx, userID, cardID); err != nil {
		return nil, err
	}

	entries, err := s.logs.ListByCard(ctx, cardID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list review logs",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, service.NewServiceError("list_review_logs", "failed to list review logs", err)
	}
	return entries, nil
}

func (s *cardReviewServiceImpl) ownedCard(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error) {
	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrCardNotFound
		}
		return nil, service.NewServiceError("get_card", "failed to load card", err)
	}
	if card.UserID != userID {
		return nil, ErrCardNotOwned
	}
	return card, nil
}
