package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/domain"
	"github.com/phrazzld/scry-fsrs/internal/platform/logger"
	"github.com/phrazzld/scry-fsrs/internal/store"
)

const cardColumns = `id, user_id, deck_id, content, state, stability, difficulty,
	elapsed_days, scheduled_days, learning_steps, reps, lapses,
	due, last_review, created_at, updated_at`

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the CardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// WithTx implements store.CardStore.WithTx.
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{db: tx, logger: s.logger}
}

// Create implements store.CardStore.Create.
// Returns store.ErrInvalidEntity if the card is invalid or its deck does not exist.
func (s *PostgresCardStore) Create(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during create",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	m := card.Memory
	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := s.db.ExecContext(ctx, query,
		card.ID,
		card.UserID,
		card.DeckID,
		[]byte(card.Content),
		int(m.State),
		m.Stability,
		m.Difficulty,
		m.ElapsedDays,
		m.ScheduledDays,
		m.LearningSteps,
		m.Reps,
		m.Lapses,
		m.Due.UTC(),
		nullTime(m.LastReview),
		card.CreatedAt.UTC(),
		card.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to create card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()),
			slog.String("deck_id", card.DeckID.String()))
		return MapError(err)
	}

	log.Debug("card created",
		slog.String("card_id", card.ID.String()),
		slog.String("deck_id", card.DeckID.String()))
	return nil
}

// GetByID implements store.CardStore.GetByID.
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	return s.get(ctx, id, `SELECT `+cardColumns+` FROM cards WHERE id = $1`)
}

// GetForUpdate implements store.CardStore.GetForUpdate using SELECT ... FOR UPDATE.
func (s *PostgresCardStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	return s.get(ctx, id, `SELECT `+cardColumns+` FROM cards WHERE id = $1 FOR UPDATE`)
}

func (s *PostgresCardStore) get(ctx context.Context, id uuid.UUID, query string) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := scanCard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card not found", slog.String("card_id", id.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, MapError(err)
	}
	return card, nil
}

// ListDue implements store.CardStore.ListDue.
func (s *PostgresCardStore) ListDue(
	ctx context.Context,
	deckID uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.Card, error) {
	if limit <= 0 {
		return []*domain.Card{}, nil
	}
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE deck_id = $1 AND due <= $2
		ORDER BY due ASC, id ASC
		LIMIT $3
	`
	return s.list(ctx, "list due cards", query, deckID, now.UTC(), limit)
}

// ListByDeck implements store.CardStore.ListByDeck.
func (s *PostgresCardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE deck_id = $1
		ORDER BY created_at ASC, id ASC
	`
	return s.list(ctx, "list deck cards", query, deckID)
}

func (s *PostgresCardStore) list(ctx context.Context, op, query string, args ...any) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to "+op, slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	cards := []*domain.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			log.Error("failed to scan card row", slog.String("error", err.Error()))
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug(op, slog.Int("count", len(cards)))
	return cards, nil
}

// UpdateMemoryState implements store.CardStore.UpdateMemoryState.
func (s *PostgresCardStore) UpdateMemoryState(
	ctx context.Context,
	id uuid.UUID,
	state domain.MemoryState,
	updatedAt time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := state.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE cards
		SET state = $1, stability = $2, difficulty = $3, elapsed_days = $4,
			scheduled_days = $5, learning_steps = $6, reps = $7, lapses = $8,
			due = $9, last_review = $10, updated_at = $11
		WHERE id = $12
	`
	result, err := s.db.ExecContext(ctx, query,
		int(state.State),
		state.Stability,
		state.Difficulty,
		state.ElapsedDays,
		state.ScheduledDays,
		state.LearningSteps,
		state.Reps,
		state.Lapses,
		state.Due.UTC(),
		nullTime(state.LastReview),
		updatedAt.UTC(),
		id,
	)
	if err != nil {
		log.Error("failed to update card memory state",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return fmt.Errorf("%w: %w", store.ErrUpdateFailed, MapError(err))
	}
	if err := CheckRowsAffected(result, store.ErrCardNotFound); err != nil {
		return err
	}

	log.Debug("card memory state updated",
		slog.String("card_id", id.String()),
		slog.String("state", state.State.String()),
		slog.Time("due", state.Due))
	return nil
}

// Delete implements store.CardStore.Delete.
func (s *PostgresCardStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete card",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return fmt.Errorf("%w: %w", store.ErrDeleteFailed, MapError(err))
	}
	if err := CheckRowsAffected(result, store.ErrCardNotFound); err != nil {
		return err
	}

	log.Info("card deleted", slog.String("card_id", id.String()))
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		card       domain.Card
		content    []byte
		state      int
		lastReview sql.NullTime
	)
	err := row.Scan(
		&card.ID,
		&card.UserID,
		&card.DeckID,
		&content,
		&state,
		&card.Memory.Stability,
		&card.Memory.Difficulty,
		&card.Memory.ElapsedDays,
		&card.Memory.ScheduledDays,
		&card.Memory.LearningSteps,
		&card.Memory.Reps,
		&card.Memory.Lapses,
		&card.Memory.Due,
		&lastReview,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.Content = content
	card.Memory.State = domain.State(state)
	card.Memory.Due = card.Memory.Due.UTC()
	if lastReview.Valid {
		t := lastReview.Time.UTC()
		card.Memory.LastReview = &t
	}
	card.CreatedAt = card.CreatedAt.UTC()
	card.UpdatedAt = card.UpdatedAt.UTC()
	return &card, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
