package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/domain"
)

// DeckStore defines the interface for deck data persistence.
type DeckStore interface {
	// Create saves a new deck.
	// Returns ErrInvalidEntity if the deck fails domain validation.
	Create(ctx context.Context, deck *domain.Deck) error

	// GetByID retrieves a deck by its unique ID.
	// Returns ErrDeckNotFound if the deck does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// ListByUser returns the user's decks ordered by name.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error)

	// WithTx returns a DeckStore that runs its queries on tx.
	WithTx(tx *sql.Tx) DeckStore
}
