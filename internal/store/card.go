package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/domain"
)

// CardStore defines the interface for card data persistence.
type CardStore interface {
	// Create saves a new card, including its initial memory state.
	// Returns ErrInvalidEntity if the card fails domain validation.
	Create(ctx context.Context, card *domain.Card) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// GetForUpdate retrieves a card and locks its row until the surrounding
	// transaction ends. It must be called on a store bound with WithTx.
	// Returns ErrCardNotFound if the card does not exist.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// ListDue returns up to limit cards of the deck whose due time is at or
	// before now, ordered by due time ascending.
	ListDue(ctx context.Context, deckID uuid.UUID, now time.Time, limit int) ([]*domain.Card, error)

	// ListByDeck returns every card in the deck ordered by creation time.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error)

	// UpdateMemoryState writes the scheduler's output for a card verbatim.
	// Returns ErrCardNotFound if the card does not exist.
	UpdateMemoryState(ctx context.Context, id uuid.UUID, state domain.MemoryState, updatedAt time.Time) error

	// Delete removes a card and, through ON DELETE CASCADE, its review log.
	// Returns ErrCardNotFound if the card does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a CardStore that runs its queries on tx.
	//
	//   err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
	//       card, err := cardStore.WithTx(tx).GetForUpdate(ctx, id)
	//       ...
	//   })
	WithTx(tx *sql.Tx) CardStore
}
