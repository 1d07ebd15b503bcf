package postgres_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/domain"
	"github.com/phrazzld/scry-fsrs/internal/platform/postgres"
	"github.com/phrazzld/scry-fsrs/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

var cardColumnNames = []string{
	"id", "user_id", "deck_id", "content", "state", "stability", "difficulty",
	"elapsed_days", "scheduled_days", "learning_steps", "reps", "lapses",
	"due", "last_review", "created_at", "updated_at",
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func anyArgs(n int) []driver.Value {
	args := make([]driver.Value, n)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}

func newTestCard(t *testing.T) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(uuid.New(), uuid.New(), "front", "back", nil, testNow)
	require.NoError(t, err)
	return card
}

func cardRow(card *domain.Card) []driver.Value {
	m := card.Memory
	var lastReview driver.Value
	if m.LastReview != nil {
		lastReview = *m.LastReview
	}
	return []driver.Value{
		card.ID.String(), card.UserID.String(), card.DeckID.String(), []byte(card.Content),
		int64(m.State), m.Stability, m.Difficulty, m.ElapsedDays, m.ScheduledDays,
		int64(m.LearningSteps), int64(m.Reps), int64(m.Lapses),
		m.Due, lastReview, card.CreatedAt, card.UpdatedAt,
	}
}

func TestPostgresCardStore_Create(t *testing.T) {
	t.Parallel()

	t.Run("inserts a valid card", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		card := newTestCard(t)

		args := append([]driver.Value{card.ID, card.UserID, card.DeckID}, anyArgs(13)...)
		mock.ExpectExec(`INSERT INTO cards`).
			WithArgs(args...).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := postgres.NewPostgresCardStore(db, nil).Create(context.Background(), card)
		assert.NoError(t, err)
	})

	t.Run("rejects an invalid card without touching the database", func(t *testing.T) {
		t.Parallel()
		db, _ := newMock(t)
		card := newTestCard(t)
		card.Content = []byte("not json")

		err := postgres.NewPostgresCardStore(db, nil).Create(context.Background(), card)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.ErrorIs(t, err, domain.ErrCardContentInvalid)
	})

	t.Run("maps a missing deck to an invalid entity", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		card := newTestCard(t)

		mock.ExpectExec(`INSERT INTO cards`).
			WithArgs(anyArgs(16)...).
			WillReturnError(newPgError("23503"))

		err := postgres.NewPostgresCardStore(db, nil).Create(context.Background(), card)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})
}

func TestPostgresCardStore_GetByID(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		card := newTestCard(t)
		last := testNow.Add(-time.Hour)
		card.Memory.State = domain.StateReview
		card.Memory.Stability = 4.2
		card.Memory.Difficulty = 5.5
		card.Memory.Reps = 3
		card.Memory.LastReview = &last

		mock.ExpectQuery(`SELECT (.+) FROM cards WHERE id = \$1`).
			WithArgs(card.ID).
			WillReturnRows(sqlmock.NewRows(cardColumnNames).AddRow(cardRow(card)...))

		got, err := postgres.NewPostgresCardStore(db, nil).GetByID(context.Background(), card.ID)
		require.NoError(t, err)
		assert.Equal(t, card.ID, got.ID)
		assert.Equal(t, card.DeckID, got.DeckID)
		assert.JSONEq(t, string(card.Content), string(got.Content))
		assert.Equal(t, domain.StateReview, got.Memory.State)
		assert.Equal(t, 4.2, got.Memory.Stability)
		assert.Equal(t, 3, got.Memory.Reps)
		require.NotNil(t, got.Memory.LastReview)
		assert.True(t, last.Equal(*got.Memory.LastReview))
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		id := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM cards WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(cardColumnNames))

		_, err := postgres.NewPostgresCardStore(db, nil).GetByID(context.Background(), id)
		assert.ErrorIs(t, err, store.ErrCardNotFound)
		assert.True(t, store.IsNotFoundError(err))
	})
}

func TestPostgresCardStore_GetForUpdateInTransaction(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	card := newTestCard(t)
	cards := postgres.NewPostgresCardStore(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM cards WHERE id = \$1 FOR UPDATE`).
		WithArgs(card.ID).
		WillReturnRows(sqlmock.NewRows(cardColumnNames).AddRow(cardRow(card)...))
	mock.ExpectExec(`UPDATE cards SET state = \$1`).
		WithArgs(anyArgs(12)...).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		txCards := cards.WithTx(tx)
		locked, err := txCards.GetForUpdate(ctx, card.ID)
		if err != nil {
			return err
		}
		next := locked.Memory
		next.State = domain.StateLearning
		next.Difficulty = 5
		next.Reps = 1
		next.LastReview = &testNow
		next.Due = testNow.Add(time.Minute)
		return txCards.UpdateMemoryState(ctx, locked.ID, next, testNow)
	})
	assert.NoError(t, err)
}

func TestPostgresCardStore_ListDue(t *testing.T) {
	t.Parallel()

	t.Run("returns rows in query order", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		first, second := newTestCard(t), newTestCard(t)
		second.Memory.Due = testNow.Add(time.Minute)
		deckID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM cards WHERE deck_id = \$1 AND due <= \$2 ORDER BY due ASC, id ASC LIMIT \$3`).
			WithArgs(deckID, testNow, 20).
			WillReturnRows(sqlmock.NewRows(cardColumnNames).
				AddRow(cardRow(first)...).
				AddRow(cardRow(second)...))

		got, err := postgres.NewPostgresCardStore(db, nil).ListDue(context.Background(), deckID, testNow, 20)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, first.ID, got[0].ID)
		assert.Equal(t, second.ID, got[1].ID)
	})

	t.Run("non-positive limit skips the query", func(t *testing.T) {
		t.Parallel()
		db, _ := newMock(t)

		got, err := postgres.NewPostgresCardStore(db, nil).ListDue(context.Background(), uuid.New(), testNow, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestPostgresCardStore_UpdateMemoryState(t *testing.T) {
	t.Parallel()

	t.Run("missing card", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		id := uuid.New()

		mock.ExpectExec(`UPDATE cards`).
			WithArgs(anyArgs(12)...).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := postgres.NewPostgresCardStore(db, nil).
			UpdateMemoryState(context.Background(), id, domain.NewMemoryState(testNow), testNow)
		assert.ErrorIs(t, err, store.ErrCardNotFound)
	})

	t.Run("invalid state", func(t *testing.T) {
		t.Parallel()
		db, _ := newMock(t)
		state := domain.NewMemoryState(testNow)
		state.Stability = -1

		err := postgres.NewPostgresCardStore(db, nil).
			UpdateMemoryState(context.Background(), uuid.New(), state, testNow)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})
}

func TestPostgresCardStore_Delete(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM cards WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM cards WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	cards := postgres.NewPostgresCardStore(db, nil)
	require.NoError(t, cards.Delete(context.Background(), id))
	assert.ErrorIs(t, cards.Delete(context.Background(), id), store.ErrCardNotFound)
}
