package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/domain"
	"github.com/phrazzld/scry-fsrs/internal/platform/logger"
	"github.com/phrazzld/scry-fsrs/internal/store"
)

// PostgresReviewLogStore implements the store.ReviewLogStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewLogStore creates a new PostgreSQL implementation of the ReviewLogStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresReviewLogStore(db store.DBTX, logger *slog.Logger) *PostgresReviewLogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresReviewLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_log_store")),
	}
}

var _ store.ReviewLogStore = (*PostgresReviewLogStore)(nil)

// WithTx implements store.ReviewLogStore.WithTx.
func (s *PostgresReviewLogStore) WithTx(tx *sql.Tx) store.ReviewLogStore {
	return &PostgresReviewLogStore{db: tx, logger: s.logger}
}

// Append implements store.ReviewLogStore.Append.
func (s *PostgresReviewLogStore) Append(ctx context.Context, entry *domain.ReviewLogEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	query := `
		INSERT INTO review_logs (id, card_id, rating, state, elapsed_days,
			scheduled_days, learning_steps, duration_ms, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.CardID,
		int(entry.Rating),
		int(entry.State),
		entry.ElapsedDays,
		entry.ScheduledDays,
		entry.LearningSteps,
		nullInt64(entry.DurationMs),
		entry.ReviewedAt.UTC(),
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrCardNotFound, err)
		}
		log.Error("failed to append review log",
			slog.String("error", err.Error()),
			slog.String("card_id", entry.CardID.String()))
		return MapError(err)
	}

	log.Debug("review log appended",
		slog.String("card_id", entry.CardID.String()),
		slog.String("rating", entry.Rating.String()))
	return nil
}

// ListByCard implements store.ReviewLogStore.ListByCard.
func (s *PostgresReviewLogStore) ListByCard(ctx context.Context, cardID uuid.UUID) ([]*domain.ReviewLogEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, card_id, rating, state, elapsed_days, scheduled_days,
			learning_steps, duration_ms, reviewed_at
		FROM review_logs
		WHERE card_id = $1
		ORDER BY reviewed_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, cardID)
	if err != nil {
		log.Error("failed to list review logs",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	entries := []*domain.ReviewLogEntry{}
	for rows.Next() {
		var (
			entry    domain.ReviewLogEntry
			rating   int
			state    int
			duration sql.NullInt64
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.CardID,
			&rating,
			&state,
			&entry.ElapsedDays,
			&entry.ScheduledDays,
			&entry.LearningSteps,
			&duration,
			&entry.ReviewedAt,
		); err != nil {
			return nil, err
		}
		entry.Rating = domain.Rating(rating)
		entry.State = domain.State(state)
		entry.ReviewedAt = entry.ReviewedAt.UTC()
		if duration.Valid {
			d := duration.Int64
			entry.DurationMs = &d
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return entries, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
