package postgres

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

// PostgresDeckStore implements the store.DeckStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDeckStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDeckStore creates a new PostgreSQL implementation of the DeckStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresDeckStore(db store.DBTX, logger *slog.Logger) *PostgresDeckStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresDeckStore{
		db:     db,
		logger: logger.With(slog.String("component", "deck_store")),
	}
}

var _ store.DeckStore = (*PostgresDeckStore)(nil)

// WithTx implements store.DeckStore.WithTx.
func (s *PostgresDeckStore) WithTx(tx *sql.Tx) store.DeckStore {
	return &PostgresDeckStore{db: tx, logger: s.logger}
}

// Create implements store.DeckStore.Create.
func (s *PostgresDeckStore) Create(ctx context.Context, deck *domain.Deck) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := deck.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO decks (id, user_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		deck.ID,
		deck.UserID,
		deck.Name,
		deck.Description,
		deck.CreatedAt.UTC(),
		deck.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to create deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return MapError(err)
	}

	log.Info("deck created",
		slog.String("deck_id", deck.ID.String()),
		slog.String("user_id", deck.UserID.String()))
	return nil
}

// GetByID implements store.DeckStore.GetByID.
func (s *PostgresDeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, name, description, created_at, updated_at
		FROM decks
		WHERE id = $1
	`
	deck, err := scanDeck(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("deck not found", slog.String("deck_id", id.String()))
			return nil, store.ErrDeckNotFound
		}
		log.Error("failed to get deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return nil, MapError(err)
	}
	return deck, nil
}

// ListByUser implements store.DeckStore.ListByUser.
func (s *PostgresDeckStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, name, description, created_at, updated_at
		FROM decks
		WHERE user_id = $1
		ORDER BY name ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list decks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
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
	var deck domain.Deck
	if err := row.Scan(
		&deck.ID,
		&deck.UserID,
		&deck.Name,
		&deck.Description,
		&deck.CreatedAt,
		&deck.UpdatedAt,
	); err != nil {
		return nil, err
	}
	deck.CreatedAt = deck.CreatedAt.UTC()
	deck.UpdatedAt = deck.UpdatedAt.UTC()
	return &deck, nil
}
