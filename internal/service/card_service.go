package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/domain"
	"github.com/phrazzld/scry-fsrs/internal/platform/logger"
	"github.com/phrazzld/scry-fsrs/internal/store"
)

// CardService provides card management operations. Scheduling state is
// only ever changed by the card_review service.
type CardService interface {
	// CreateCard adds a card to one of the user's decks with the initial
	// memory state, due immediately.
	CreateCard(
		ctx context.Context,
		userID, deckID uuid.UUID,
		front, back string,
		tags []string,
	) (*domain.Card, error)

	// GetCard returns a card owned by userID.
	GetCard(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error)

	// ListCards returns every card in one of the user's decks.
	ListCards(ctx context.Context, userID, deckID uuid.UUID) ([]*domain.Card, error)

	// DeleteCard removes a card and its review history.
	DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error
}

type cardServiceImpl struct {
	db     *sql.DB
	decks  store.DeckStore
	cards  store.CardStore
	now    func() time.Time
	logger *slog.Logger
}

// NewCardService creates a CardService.
// It returns an error if any of the required dependencies are nil.
func NewCardService(
	db *sql.DB,
	decks store.DeckStore,
	cards store.CardStore,
	logger *slog.Logger,
) (CardService, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if decks == nil {
		return nil, errors.New("deck store cannot be nil")
	}
	if cards == nil {
		return nil, errors.New("card store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &cardServiceImpl{
		db:     db,
		decks:  decks,
		cards:  cards,
		now:    time.Now,
		logger: logger.With(slog.String("component", "card_service")),
	}, nil
}

func (s *cardServiceImpl) CreateCard(
	ctx context.Context,
	userID, deckID uuid.UUID,
	front, back string,
	tags []string,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := domain.NewCard(userID, deckID, front, back, tags, s.now())
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := ownedDeck(ctx, s.decks.WithTx(tx), userID, deckID); err != nil {
			return err
		}
		return s.cards.WithTx(tx).Create(ctx, card)
	})
	if err != nil {
		if errors.Is(err, ErrDeckNotOwned) || store.IsNotFoundError(err) {
			log.Warn("card creation rejected",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()),
				slog.String("deck_id", deckID.String()))
			return nil, err
		}
		log.Error("failed to create card",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, NewServiceError("create_card", "failed to save card", err)
	}

	log.Info("card created",
		slog.String("card_id", card.ID.String()),
		slog.String("deck_id", deckID.String()))
	return card, nil
}

func (s *cardServiceImpl) GetCard(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error) {
	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, store.ErrCardNotFound
		}
		return nil, NewServiceError("get_card", "failed to load card", err)
	}
	if card.UserID != userID {
		return nil, ErrCardNotOwned
	}
	return card, nil
}

func (s *cardServiceImpl) ListCards(ctx context.Context, userID, deckID uuid.UUID) ([]*domain.Card, error) {
	if _, err := ownedDeck(ctx, s.decks, userID, deckID); err != nil {
		return nil, err
	}
	cards, err := s.cards.ListByDeck(ctx, deckID)
	if err != nil {
		return nil, NewServiceError("list_cards", "failed to list cards", err)
	}
	return cards, nil
}

func (s *cardServiceImpl) DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cards.WithTx(tx)
		card, err := cards.GetForUpdate(ctx, cardID)
		if err != nil {
			return err
		}
		if card.UserID != userID {
			return ErrCardNotOwned
		}
		return cards.Delete(ctx, cardID)
	})
	if err != nil {
		if errors.Is(err, ErrCardNotOwned) || store.IsNotFoundError(err) {
			return err
		}
		log.Error("failed to delete card",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return NewServiceError("delete_card", "failed to delete card", err)
	}

	log.Info("card deleted", slog.String("card_id", cardID.String()))
	return nil
}
