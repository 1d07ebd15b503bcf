package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/domain"
	"github.com/phrazzld/scry-fsrs/internal/platform/logger"
	"github.com/phrazzld/scry-fsrs/internal/store"
)

// DeckService provides deck operations.
type DeckService interface {
	// CreateDeck creates a deck owned by userID.
	// Returns a domain validation error for a blank or overlong name.
	CreateDeck(ctx context.Context, userID uuid.UUID, name, description string) (*domain.Deck, error)

	// ListDecks returns the user's decks ordered by name.
	ListDecks(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error)

	// GetDeck returns a deck owned by userID.
	// Returns store.ErrDeckNotFound or ErrDeckNotOwned.
	GetDeck(ctx context.Context, userID, deckID uuid.UUID) (*domain.Deck, error)
}

type deckServiceImpl struct {
	decks  store.DeckStore
	now    func() time.Time
	logger *slog.Logger
}

// NewDeckService creates a DeckService.
// It returns an error if the deck store is nil.
func NewDeckService(decks store.DeckStore, logger *slog.Logger) (DeckService, error) {
	if decks == nil {
		return nil, errors.New("deck store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &deckServiceImpl{
		decks:  decks,
		now:    time.Now,
		logger: logger.With(slog.String("component", "deck_service")),
	}, nil
}

func (s *deckServiceImpl) CreateDeck(
	ctx context.Context,
	userID uuid.UUID,
	name, description string,
) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deck, err := domain.NewDeck(userID, name, description, s.now())
	if err != nil {
		log.Debug("rejected deck", slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.decks.Create(ctx, deck); err != nil {
		log.Error("failed to save deck",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewServiceError("create_deck", "failed to save deck", err)
	}

	log.Info("deck created",
		slog.String("deck_id", deck.ID.String()),
		slog.String("user_id", userID.String()))
	return deck, nil
}

func (s *deckServiceImpl) ListDecks(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error) {
	decks, err := s.decks.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewServiceError("list_decks", "failed to list decks", err)
	}
	return decks, nil
}

func (s *deckServiceImpl) GetDeck(ctx context.Context, userID, deckID uuid.UUID) (*domain.Deck, error) {
	return ownedDeck(ctx, s.decks, userID, deckID)
}

// ownedDeck loads a deck and verifies that userID owns it.
func ownedDeck(ctx context.Context, decks store.DeckStore, userID, deckID uuid.UUID) (*domain.Deck, error) {
	deck, err := decks.GetByID(ctx, deckID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, store.ErrDeckNotFound
		}
		return nil, NewServiceError("get_deck", "failed to load deck", err)
	}
	if deck.UserID != userID {
		return nil, ErrDeckNotOwned
	}
	return deck, nil
}
