package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/domain"
	"github.com/phrazzld/scry-fsrs/internal/platform/logger"
	"github.com/phrazzld/scry-fsrs/internal/store"
)

// DeckStore implements store.DeckStore on SQLite.
type DeckStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewDeckStore returns a DeckStore on db. If logger is nil, the default
// logger is used.
func NewDeckStore(db store.DBTX, logger *slog.Logger) *DeckStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DeckStore{db: db, logger: logger.With(slog.String("component", "deck_store"))}
}

var _ store.DeckStore = (*DeckStore)(nil)

// WithTx implements store.DeckStore.WithTx.
func (s *DeckStore) WithTx(tx *sql.Tx) store.DeckStore {
	return &DeckStore{db: tx, logger: s.logger}
}

// Create implements store.DeckStore.Create.
func (s *DeckStore) Create(ctx context.Context, deck *domain.Deck) error {
	if err := deck.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decks (id, user_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		deck.ID.String(),
		deck.UserID.String(),
		deck.Name,
		deck.Description,
		toNanos(deck.CreatedAt),
		toNanos(deck.UpdatedAt),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return MapError(err)
	}
	return nil
}

// GetByID implements store.DeckStore.GetByID.
func (s *DeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, description, created_at, updated_at FROM decks WHERE id = ?`,
		id.String())
	deck, err := scanDeck(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrDeckNotFound
		}
		return nil, MapError(err)
	}
	return deck, nil
}

// ListByUser implements store.DeckStore.ListByUser.
func (s *DeckStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, description, created_at, updated_at
		FROM decks WHERE user_id = ? ORDER BY name ASC, id ASC`,
		userID.String())
	if err != nil {
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	decks := []*domain.Deck{}
	for rows.Next() {
		deck, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		decks = append(decks, deck)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return decks, nil
}

func scanDeck(row rowScanner) (*domain.Deck, error) {
	var (
		deck                 domain.Deck
		createdAt, updatedAt int64
	)
	if err := row.Scan(&deck.ID, &deck.UserID, &deck.Name, &deck.Description, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	deck.CreatedAt = fromNanos(createdAt)
	deck.UpdatedAt = fromNanos(updatedAt)
	return &deck, nil
}
