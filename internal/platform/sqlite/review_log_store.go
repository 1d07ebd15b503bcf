package sqlite

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

// ReviewLogStore implements store.ReviewLogStore on SQLite.
type ReviewLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewReviewLogStore returns a ReviewLogStore on db. If logger is nil, the
// default logger is used.
func NewReviewLogStore(db store.DBTX, logger *slog.Logger) *ReviewLogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewLogStore{db: db, logger: logger.With(slog.String("component", "review_log_store"))}
}

var _ store.ReviewLogStore = (*ReviewLogStore)(nil)

// WithTx implements store.ReviewLogStore.WithTx.
func (s *ReviewLogStore) WithTx(tx *sql.Tx) store.ReviewLogStore {
	return &ReviewLogStore{db: tx, logger: s.logger}
}

// Append implements store.ReviewLogStore.Append.
func (s *ReviewLogStore) Append(ctx context.Context, entry *domain.ReviewLogEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO review_logs (id, card_id, rating, state, elapsed_days,
			scheduled_days, learning_steps, duration_ms, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID.String(),
		entry.CardID.String(),
		int(entry.Rating),
		int(entry.State),
		entry.ElapsedDays,
		entry.ScheduledDays,
		entry.LearningSteps,
		nullInt64(entry.DurationMs),
		toNanos(entry.ReviewedAt),
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrCardNotFound, err)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to append review log",
			slog.String("error", err.Error()),
			slog.String("card_id", entry.CardID.String()))
		return MapError(err)
	}
	return nil
}

// ListByCard implements store.ReviewLogStore.ListByCard.
func (s *ReviewLogStore) ListByCard(ctx context.Context, cardID uuid.UUID) ([]*domain.ReviewLogEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, card_id, rating, state, elapsed_days, scheduled_days,
			learning_steps, duration_ms, reviewed_at
		FROM review_logs
		WHERE card_id = ?
		ORDER BY reviewed_at ASC, id ASC`,
		cardID.String())
	if err != nil {
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
			entry         domain.ReviewLogEntry
			rating, state int
			duration      sql.NullInt64
			reviewedAt    int64
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
			&reviewedAt,
		); err != nil {
			return nil, err
		}
		entry.Rating = domain.Rating(rating)
		entry.State = domain.State(state)
		entry.ReviewedAt = fromNanos(reviewedAt)
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
