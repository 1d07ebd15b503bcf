package card_review_test

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/domain"
	"github.com/phrazzld/scry-fsrs/internal/domain/srs"
	"github.com/phrazzld/scry-fsrs/internal/platform/logger"
	"github.com/phrazzld/scry-fsrs/internal/platform/sqlite"
	"github.com/phrazzld/scry-fsrs/internal/service"
	"github.com/phrazzld/scry-fsrs/internal/service/card_review"
	"github.com/phrazzld/scry-fsrs/internal/session"
	"github.com/phrazzld/scry-fsrs/internal/store"
	"github.com/phrazzld/scry-fsrs/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db     *sql.DB
	decks  store.DeckStore
	cards  store.CardStore
	logs   store.ReviewLogStore
	userID uuid.UUID
	deck   *domain.Deck
	clock  *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.GetTestDBWithT(t)
	f := &fixture{
		db:     db,
		decks:  sqlite.NewDeckStore(db, nil),
		cards:  sqlite.NewCardStore(db, nil),
		logs:   sqlite.NewReviewLogStore(db, nil),
		userID: uuid.New(),
	}
	now := testNow
	f.clock = &now

	deck, err := domain.NewDeck(f.userID, "Spanish", "", testNow)
	require.NoError(t, err)
	require.NoError(t, f.decks.Create(context.Background(), deck))
	f.deck = deck
	return f
}

func (f *fixture) service(t *testing.T, opts ...card_review.Option) card_review.CardReviewService {
	t.Helper()
	return f.serviceWith(t, f.cards, f.logs, nil, opts...)
}

func (f *fixture) serviceWith(
	t *testing.T,
	cards store.CardStore,
	logs store.ReviewLogStore,
	log *slog.Logger,
	opts ...card_review.Option,
) card_review.CardReviewService {
	t.Helper()
	opts = append([]card_review.Option{card_review.WithClock(func() time.Time { return *f.clock })}, opts...)
	return card_review.NewCardReviewService(f.db, f.decks, cards, logs, srs.NewDefaultScheduler(), log, opts...)
}

func (f *fixture) addCard(t *testing.T, front string, memory *domain.MemoryState) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(f.userID, f.deck.ID, front, "back of "+front, nil, testNow)
	require.NoError(t, err)
	if memory != nil {
		card.Memory = *memory
	}
	require.NoError(t, f.cards.Create(context.Background(), card))
	return card
}

func reviewed(state domain.State, due time.Time) *domain.MemoryState {
	last := due.Add(-48 * time.Hour)
	return &domain.MemoryState{
		State:         state,
		Stability:     3,
		Difficulty:    5,
		ScheduledDays: 2,
		Reps:          2,
		Due:           due,
		LastReview:    &last,
	}
}

func TestSubmitReview_PersistsStateAndLog(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := f.service(t)
	ctx := context.Background()
	card := f.addCard(t, "hola", nil)

	duration := int64(1800)
	result, err := svc.SubmitReview(ctx, f.userID, card.ID, domain.RatingGood, &duration)
	require.NoError(t, err)

	assert.True(t, result.LogPersisted)
	assert.Equal(t, 1, result.Card.Memory.Reps)
	assert.NotEqual(t, domain.StateNew, result.Card.Memory.State)
	assert.Equal(t, result.Card.Memory.Due, result.NextDue)
	assert.True(t, result.NextDue.After(testNow))

	stored, err := f.cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Card.Memory.State, stored.Memory.State)
	assert.InDelta(t, result.Card.Memory.Stability, stored.Memory.Stability, 1e-9)
	assert.InDelta(t, result.Card.Memory.Difficulty, stored.Memory.Difficulty, 1e-9)
	assert.Equal(t, 1, stored.Memory.Reps)
	assert.True(t, result.NextDue.Equal(stored.Memory.Due))

	logs, err := svc.ListReviewLogs(ctx, f.userID, card.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	entry := logs[0]
	assert.Equal(t, result.Log.ID, entry.ID)
	assert.Equal(t, card.ID, entry.CardID)
	assert.Equal(t, domain.RatingGood, entry.Rating)
	assert.Equal(t, domain.StateNew, entry.State, "log records the state before the review")
	require.NotNil(t, entry.DurationMs)
	assert.Equal(t, duration, *entry.DurationMs)
}

func TestSubmitReview_AgainOnReviewCardLapses(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := f.service(t)
	card := f.addCard(t, "perro", reviewed(domain.StateReview, testNow.Add(-time.Hour)))

	result, err := svc.SubmitReview(context.Background(), f.userID, card.ID, domain.RatingAgain, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.StateRelearning, result.Card.Memory.State)
	assert.Equal(t, 1, result.Card.Memory.Lapses)
	assert.Less(t, result.Card.Memory.Stability, 3.0)
	assert.Equal(t, domain.StateReview, result.Log.State)
	assert.Less(t, result.Interval, time.Hour)
}

func TestSubmitReview_Rejections(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := f.service(t)
	card := f.addCard(t, "gato", nil)

	tests := []struct {
		name    string
		userID  uuid.UUID
		cardID  uuid.UUID
		rating  domain.Rating
		wantErr error
	}{
		{"invalid rating", f.userID, card.ID, domain.Rating(0), card_review.ErrInvalidRating},
		{"rating too high", f.userID, card.ID, domain.Rating(5), card_review.ErrInvalidRating},
		{"unknown card", f.userID, uuid.New(), domain.RatingGood, card_review.ErrCardNotFound},
		{"another user's card", uuid.New(), card.ID, domain.RatingGood, card_review.ErrCardNotOwned},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SubmitReview(context.Background(), tc.userID, tc.cardID, tc.rating, nil)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	stored, err := f.cards.GetByID(context.Background(), card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateNew, stored.Memory.State, "rejected reviews leave the card untouched")
	assert.ErrorIs(t, card_review.ErrCardNotOwned, service.ErrNotOwned)
}

// failingUpdates wraps a CardStore so that memory state writes fail.
type failingUpdates struct {
	store.CardStore
}

func (s failingUpdates) WithTx(tx *sql.Tx) store.CardStore {
	return failingUpdates{s.CardStore.WithTx(tx)}
}

func (s failingUpdates) UpdateMemoryState(context.Context, uuid.UUID, domain.MemoryState, time.Time) error {
	return store.ErrUpdateFailed
}

func TestSubmitReview_UpdateFailureFailsReview(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := f.serviceWith(t, failingUpdates{f.cards}, f.logs, nil)
	card := f.addCard(t, "casa", nil)

	_, err := svc.SubmitReview(context.Background(), f.userID, card.ID, domain.RatingGood, nil)
	require.ErrorIs(t, err, store.ErrUpdateFailed)

	var serviceErr *service.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "submit_review", serviceErr.Operation)

	logs, err := f.logs.ListByCard(context.Background(), card.ID)
	require.NoError(t, err)
	assert.Empty(t, logs, "no log entry is written for a review that was not applied")
}

type mockReviewLogStore struct {
	mock.Mock
}

func (m *mockReviewLogStore) Append(ctx context.Context, entry *domain.ReviewLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockReviewLogStore) ListByCard(ctx context.Context, cardID uuid.UUID) ([]*domain.ReviewLogEntry, error) {
	args := m.Called(ctx, cardID)
	entries, _ := args.Get(0).([]*domain.ReviewLogEntry)
	return entries, args.Error(1)
}

func (m *mockReviewLogStore) WithTx(*sql.Tx) store.ReviewLogStore {
	return m
}

func TestSubmitReview_LogFailureIsSwallowed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	log, buf := logger.NewTestLogger(t)

	logs := new(mockReviewLogStore)
	logs.On("Append", mock.Anything, mock.MatchedBy(func(e *domain.ReviewLogEntry) bool {
		return e.ID != uuid.Nil && e.Rating == domain.RatingHard
	})).Return(errors.New("disk full")).Once()

	svc := f.serviceWith(t, f.cards, logs, log)
	card := f.addCard(t, "luz", nil)

	result, err := svc.SubmitReview(context.Background(), f.userID, card.ID, domain.RatingHard, nil)
	require.NoError(t, err)
	assert.False(t, result.LogPersisted)
	logs.AssertExpectations(t)

	stored, err := f.cards.GetByID(context.Background(), card.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Memory.Reps, "the review itself was applied")

	assert.Contains(t, buf.String(), "failed to append review log")
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}

func TestGetDueCards(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	oldReview := f.addCard(t, "old review", reviewed(domain.StateReview, testNow.Add(-72*time.Hour)))
	learning := f.addCard(t, "learning", &domain.MemoryState{
		State: domain.StateLearning, Stability: 1, Difficulty: 5, Reps: 1,
		Due: testNow.Add(-time.Minute), LastReview: ptr(testNow.Add(-10 * time.Minute)),
	})
	newCard := f.addCard(t, "new", nil)
	f.addCard(t, "future", reviewed(domain.StateReview, testNow.Add(48*time.Hour)))

	t.Run("learning first then due order", func(t *testing.T) {
		due, err := f.service(t).GetDueCards(ctx, f.userID, f.deck.ID)
		require.NoError(t, err)
		require.Len(t, due, 3)
		assert.Equal(t, learning.ID, due[0].ID)
		assert.Equal(t, oldReview.ID, due[1].ID)
		assert.Equal(t, newCard.ID, due[2].ID)
	})

	t.Run("batch size bounds the fetch", func(t *testing.T) {
		due, err := f.service(t, card_review.WithBatchSize(1)).GetDueCards(ctx, f.userID, f.deck.ID)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, oldReview.ID, due[0].ID, "the oldest due card is fetched first")
	})

	t.Run("ownership", func(t *testing.T) {
		_, err := f.service(t).GetDueCards(ctx, uuid.New(), f.deck.ID)
		assert.ErrorIs(t, err, card_review.ErrDeckNotOwned)

		_, err = f.service(t).GetDueCards(ctx, f.userID, uuid.New())
		assert.ErrorIs(t, err, card_review.ErrDeckNotFound)
	})
}

func TestPreviewCard(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := f.service(t)
	ctx := context.Background()

	card := f.addCard(t, "agua", nil)
	preview, err := svc.PreviewCard(ctx, f.userID, card.ID)
	require.NoError(t, err)

	require.Len(t, preview.Previews, 4)
	assert.Equal(t, 100, preview.RetrievabilityPercent)
	for i := 1; i < len(preview.Previews); i++ {
		assert.LessOrEqual(t, preview.Previews[i-1].Interval, preview.Previews[i].Interval)
	}

	stored, err := f.cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateNew, stored.Memory.State, "preview does not change the card")

	_, err = svc.PreviewCard(ctx, uuid.New(), card.ID)
	assert.ErrorIs(t, err, card_review.ErrCardNotOwned)

	_, err = svc.ListReviewLogs(ctx, f.userID, uuid.New())
	assert.ErrorIs(t, err, card_review.ErrCardNotFound)
}

func TestServiceReviewer_DrivesSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := f.service(t)
	ctx := context.Background()

	overdue := f.addCard(t, "uno", reviewed(domain.StateReview, testNow.Add(-time.Hour)))
	fresh := f.addCard(t, "dos", nil)

	due, err := svc.GetDueCards(ctx, f.userID, f.deck.ID)
	require.NoError(t, err)
	cards := make([]domain.Card, len(due))
	for i, c := range due {
		cards[i] = *c
	}

	q := session.New(cards, card_review.NewServiceReviewer(svc, f.userID),
		session.WithClock(func() time.Time { return *f.clock }))

	out, err := q.Submit(ctx, domain.RatingGood, nil)
	require.NoError(t, err)
	assert.Equal(t, overdue.ID, out.CardID)
	assert.False(t, out.Requeued, "a review card rated good is due again in days")

	out, err = q.Submit(ctx, domain.RatingAgain, nil)
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, out.CardID)
	assert.True(t, out.Requeued)
	assert.Equal(t, 1, q.Remaining())

	head, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, fresh.ID, head.ID)
	assert.Equal(t, domain.StateLearning, head.Memory.State)

	stored, err := f.cards.GetByID(ctx, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Memory.Reps)
}

func TestNewCardReviewService_PanicsOnNilDependencies(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	sched := srs.NewDefaultScheduler()

	assert.Panics(t, func() { card_review.NewCardReviewService(nil, f.decks, f.cards, f.logs, sched, nil) })
	assert.Panics(t, func() { card_review.NewCardReviewService(f.db, nil, f.cards, f.logs, sched, nil) })
	assert.Panics(t, func() { card_review.NewCardReviewService(f.db, f.decks, nil, f.logs, sched, nil) })
	assert.Panics(t, func() { card_review.NewCardReviewService(f.db, f.decks, f.cards, nil, sched, nil) })
	assert.Panics(t, func() { card_review.NewCardReviewService(f.db, f.decks, f.cards, f.logs, nil, nil) })
}

func ptr[T any](v T) *T { return &v }
