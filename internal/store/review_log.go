package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/domain"
)

// ReviewLogStore persists the append-only review history. Entries are
// never updated or deleted individually.
type ReviewLogStore interface {
	// Append stores a new log entry.
	// Returns ErrInvalidEntity if the entry fails validation and
	// ErrCardNotFound if the card does not exist.
	Append(ctx context.Context, entry *domain.ReviewLogEntry) error

	// ListByCard returns the card's log entries, oldest first.
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]*domain.ReviewLogEntry, error)

	// WithTx returns a ReviewLogStore that runs its queries on tx.
	WithTx(tx *sql.Tx) ReviewLogStore
}
