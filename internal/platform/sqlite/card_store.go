package sqlite

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

// CardStore implements store.CardStore on SQLite.
type CardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewCardStore returns a CardStore on db. If logger is nil, the default
// logger is used.
func NewCardStore(db store.DBTX, logger *slog.Logger) *CardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CardStore{db: db, logger: logger.With(slog.String("component", "card_store"))}
}

var _ store.CardStore = (*CardStore)(nil)

// WithTx implements store.CardStore.WithTx.
func (s *CardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &CardStore{db: tx, logger: s.logger}
}

// Create implements store.CardStore.Create.
func (s *CardStore) Create(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	m := card.Memory
	query := `INSERT INTO cards (` + cardColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		card.ID.String(),
		card.UserID.String(),
		card.DeckID.String(),
		string(card.Content),
		int(m.State),
		m.Stability,
		m.Difficulty,
		m.ElapsedDays,
		m.ScheduledDays,
		m.LearningSteps,
		m.Reps,
		m.Lapses,
		toNanos(m.Due),
		nullNanos(m.LastReview),
		toNanos(card.CreatedAt),
		toNanos(card.UpdatedAt),
	)
	if err != nil {
		log.Error("failed to create card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return MapError(err)
	}
	return nil
}

// GetByID implements store.CardStore.GetByID.
func (s *CardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id.String())
	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, MapError(err)
	}
	return card, nil
}

// GetForUpdate implements store.CardStore.GetForUpdate. SQLite has no row
// locks; the single connection already serialises transactions.
func (s *CardStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	return s.GetByID(ctx, id)
}

// ListDue implements store.CardStore.ListDue.
func (s *CardStore) ListDue(ctx context.Context, deckID uuid.UUID, now time.Time, limit int) ([]*domain.Card, error) {
	if limit <= 0 {
		return []*domain.Card{}, nil
	}
	query := `SELECT ` + cardColumns + ` FROM cards
		WHERE deck_id = ? AND due <= ?
		ORDER BY due ASC, id ASC
		LIMIT ?`
	return s.list(ctx, query, deckID.String(), toNanos(now), limit)
}

// ListByDeck implements store.CardStore.ListByDeck.
func (s *CardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards
		WHERE deck_id = ?
		ORDER BY created_at ASC, id ASC`
	return s.list(ctx, query, deckID.String())
}

func (s *CardStore) list(ctx context.Context, query string, args ...any) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query cards", slog.String("error", err.Error()))
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
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return cards, nil
}

// UpdateMemoryState implements store.CardStore.UpdateMemoryState.
func (s *CardStore) UpdateMemoryState(
	ctx context.Context,
	id uuid.UUID,
	state domain.MemoryState,
	updatedAt time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := state.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `UPDATE cards
		SET state = ?, stability = ?, difficulty = ?, elapsed_days = ?,
			scheduled_days = ?, learning_steps = ?, reps = ?, lapses = ?,
			due = ?, last_review = ?, updated_at = ?
		WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query,
		int(state.State),
		state.Stability,
		state.Difficulty,
		state.ElapsedDays,
		state.ScheduledDays,
		state.LearningSteps,
		state.Reps,
		state.Lapses,
		toNanos(state.Due),
		nullNanos(state.LastReview),
		toNanos(updatedAt),
		id.String(),
	)
	if err != nil {
		log.Error("failed to update card memory state",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return fmt.Errorf("%w: %w", store.ErrUpdateFailed, MapError(err))
	}
	return checkRowsAffected(result, store.ErrCardNotFound)
}

// Delete implements store.CardStore.Delete.
func (s *CardStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrDeleteFailed, MapError(err))
	}
	return checkRowsAffected(result, store.ErrCardNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		card                      domain.Card
		content                   string
		state                     int
		due, createdAt, updatedAt int64
		lastReview                sql.NullInt64
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
		&due,
		&lastReview,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.Content = []byte(content)
	card.Memory.State = domain.State(state)
	card.Memory.Due = fromNanos(due)
	if lastReview.Valid {
		t := fromNanos(lastReview.Int64)
		card.Memory.LastReview = &t
	}
	card.CreatedAt = fromNanos(createdAt)
	card.UpdatedAt = fromNanos(updatedAt)
	return &card, nil
}
