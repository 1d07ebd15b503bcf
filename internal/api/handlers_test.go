package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/api/shared"
	"github.com/phrazzld/scry-fsrs/internal/domain"
	"github.com/phrazzld/scry-fsrs/internal/domain/srs"
	"github.com/phrazzld/scry-fsrs/internal/platform/logger"
	"github.com/phrazzld/scry-fsrs/internal/platform/sqlite"
	"github.com/phrazzld/scry-fsrs/internal/service"
	"github.com/phrazzld/scry-fsrs/internal/service/card_review"
	"github.com/phrazzld/scry-fsrs/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	db     *sql.DB
	router http.Handler
}

// newTestServer wires the handlers to sqlite-backed services. Requests
// name their user in the X-Test-User header instead of carrying a token.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testdb.GetTestDBWithT(t)
	log, _ := logger.NewTestLogger(t)

	decks := sqlite.NewDeckStore(db, log)
	cards := sqlite.NewCardStore(db, log)
	logs := sqlite.NewReviewLogStore(db, log)

	deckSvc, err := service.NewDeckService(decks, log)
	require.NoError(t, err)
	cardSvc, err := service.NewCardService(db, decks, cards, log)
	require.NoError(t, err)
	reviewSvc := card_review.NewCardReviewService(db, decks, cards, logs, srs.NewDefaultScheduler(), log)

	deckHandler := NewDeckHandler(deckSvc, log)
	cardHandler := NewCardHandler(reviewSvc, cardSvc, log)

	r := chi.NewRouter()
	r.Get("/health", HealthHandler(db))
	r.Route("/api", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if id, err := uuid.Parse(r.Header.Get("X-Test-User")); err == nil {
					r = r.WithContext(shared.WithUserID(r.Context(), id))
				}
				next.ServeHTTP(w, r)
			})
		})
		r.Get("/decks", deckHandler.ListDecks)
		r.Post("/decks", deckHandler.CreateDeck)
		r.Post("/decks/{deckID}/cards", cardHandler.CreateCard)
		r.Get("/decks/{deckID}/cards", cardHandler.ListCards)
		r.Get("/decks/{deckID}/due", cardHandler.GetDueCards)
		r.Get("/cards/{id}", cardHandler.GetCard)
		r.Delete("/cards/{id}", cardHandler.DeleteCard)
		r.Post("/cards/{id}/review", cardHandler.SubmitReview)
		r.Get("/cards/{id}/preview", cardHandler.PreviewCard)
		r.Get("/cards/{id}/reviews", cardHandler.ListReviewLogs)
	})
	return &testServer{db: db, router: r}
}

func (s *testServer) do(t *testing.T, user uuid.UUID, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		req.Header.Set("X-Test-User", user.String())
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) createDeck(t *testing.T, user uuid.UUID, name string) DeckResponse {
	t.Helper()
	rec := s.do(t, user, http.MethodPost, "/api/decks", `{"name":"`+name+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[DeckResponse](t, rec)
}

func (s *testServer) createCard(t *testing.T, user, deckID uuid.UUID, front string) CardResponse {
	t.Helper()
	rec := s.do(t, user, http.MethodPost, "/api/decks/"+deckID.String()+"/cards",
		`{"front":"`+front+`","back":"answer","tags":["t1"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[CardResponse](t, rec)
}

func TestDeckEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	user := uuid.New()

	s.createDeck(t, user, "Verbs")
	s.createDeck(t, user, "Animals")
	s.createDeck(t, uuid.New(), "Not mine")

	rec := s.do(t, user, http.MethodGet, "/api/decks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decks := decode[DecksResponse](t, rec)
	require.Len(t, decks.Decks, 2)
	assert.Equal(t, "Animals", decks.Decks[0].Name)
	assert.Equal(t, "Verbs", decks.Decks[1].Name)
}

func TestCreateDeck_Validation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	user := uuid.New()

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing name", `{}`, "Invalid name: required field"},
		{"blank name", `{"name":"   "}`, "Deck name is required"},
		{"too long", `{"name":"` + strings.Repeat("x", 201) + `"}`, "Invalid name: too long"},
		{"malformed", `{"name":`, "Invalid request format"},
		{"unknown field", `{"name":"a","owner":"b"}`, "Invalid request format"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, user, http.MethodPost, "/api/decks", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.message, decode[shared.ErrorResponse](t, rec).Error)
		})
	}
}

func TestUnauthenticatedRequest(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, uuid.Nil, http.MethodGet, "/api/decks", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", decode[shared.ErrorResponse](t, rec).Error)
}

func TestReviewFlow(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	user := uuid.New()

	deck := s.createDeck(t, user, "Spanish")
	card := s.createCard(t, user, deck.ID, "hola")
	assert.Equal(t, domain.StateNew, card.Memory.State)
	assert.Equal(t, []string{"t1"}, card.Tags)

	rec := s.do(t, user, http.MethodGet, "/api/decks/"+deck.ID.String()+"/due", "")
	require.Equal(t, http.StatusOK, rec.Code)
	due := decode[DueCardsResponse](t, rec)
	require.Len(t, due.Cards, 1)
	assert.Equal(t, card.ID, due.Cards[0].ID)

	rec = s.do(t, user, http.MethodGet, "/api/cards/"+card.ID.String()+"/preview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	preview := decode[PreviewResponse](t, rec)
	require.Len(t, preview.Options, 4)
	assert.Equal(t, domain.RatingAgain, preview.Options[0].Rating)
	assert.Equal(t, domain.RatingEasy, preview.Options[3].Rating)
	assert.Equal(t, 100, preview.RetrievabilityPercent, "new cards report full recall")

	rec = s.do(t, user, http.MethodPost, "/api/cards/"+card.ID.String()+"/review",
		`{"rating":"good","duration_ms":1500}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	review := decode[ReviewResponse](t, rec)
	assert.Equal(t, card.ID, review.CardID)
	assert.Equal(t, domain.StateLearning, review.Memory.State)
	assert.True(t, review.LogPersisted)
	assert.Equal(t, "10m", review.IntervalLabel)

	rec = s.do(t, user, http.MethodGet, "/api/decks/"+deck.ID.String()+"/due", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[DueCardsResponse](t, rec).Cards, "learning card is not due for ten minutes")

	rec = s.do(t, user, http.MethodGet, "/api/cards/"+card.ID.String()+"/reviews", "")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[ReviewLogResponse](t, rec)
	require.Len(t, history.Entries, 1)
	assert.Equal(t, domain.RatingGood, history.Entries[0].Rating)
	assert.Equal(t, domain.StateNew, history.Entries[0].State)

	rec = s.do(t, user, http.MethodPost, "/api/cards/"+card.ID.String()+"/review", `{"rating":"3"}`)
	require.Equal(t, http.StatusOK, rec.Code, "digit ratings are accepted")
}

func TestSubmitReview_Errors(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	owner, other := uuid.New(), uuid.New()
	deck := s.createDeck(t, owner, "Spanish")
	card := s.createCard(t, owner, deck.ID, "hola")

	tests := []struct {
		name       string
		user       uuid.UUID
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			"invalid rating", owner, "/api/cards/" + card.ID.String() + "/review",
			`{"rating":"perfect"}`, http.StatusBadRequest, "Invalid rating: invalid value",
		},
		{
			"missing rating", owner, "/api/cards/" + card.ID.String() + "/review",
			`{}`, http.StatusBadRequest, "Invalid rating: required field",
		},
		{
			"negative duration", owner, "/api/cards/" + card.ID.String() + "/review",
			`{"rating":"good","duration_ms":-5}`, http.StatusBadRequest, "Invalid duration_ms: must not be negative",
		},
		{
			"bad card id", owner, "/api/cards/not-a-uuid/review",
			`{"rating":"good"}`, http.StatusBadRequest, "Invalid ID format",
		},
		{
			"unknown card", owner, "/api/cards/" + uuid.NewString() + "/review",
			`{"rating":"good"}`, http.StatusNotFound, "Card not found",
		},
		{
			"other user's card", other, "/api/cards/" + card.ID.String() + "/review",
			`{"rating":"good"}`, http.StatusForbidden, "You do not own this card",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, tc.user, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantError, decode[shared.ErrorResponse](t, rec).Error)
		})
	}
}

func TestDeckOwnership(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	owner, other := uuid.New(), uuid.New()
	deck := s.createDeck(t, owner, "Spanish")

	rec := s.do(t, other, http.MethodGet, "/api/decks/"+deck.ID.String()+"/due", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You do not own this deck", decode[shared.ErrorResponse](t, rec).Error)

	rec = s.do(t, other, http.MethodPost, "/api/decks/"+deck.ID.String()+"/cards", `{"front":"a","back":"b"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, owner, http.MethodGet, "/api/decks/"+uuid.NewString()+"/cards", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Deck not found", decode[shared.ErrorResponse](t, rec).Error)
}

func TestCardLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	user := uuid.New()
	deck := s.createDeck(t, user, "Spanish")
	card := s.createCard(t, user, deck.ID, "hola")

	rec := s.do(t, user, http.MethodGet, "/api/cards/"+card.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hola", decode[CardResponse](t, rec).Front)

	rec = s.do(t, user, http.MethodGet, "/api/decks/"+deck.ID.String()+"/cards", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[DueCardsResponse](t, rec).Cards, 1)

	rec = s.do(t, user, http.MethodDelete, "/api/cards/"+card.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, user, http.MethodGet, "/api/cards/"+card.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, uuid.Nil, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[HealthResponse](t, rec).Status)

	require.NoError(t, s.db.Close())
	rec = s.do(t, uuid.Nil, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMapErrorToStatusCode_Wrapped(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusNotFound, MapErrorToStatusCode(card_review.ErrCardNotFound))
	assert.Equal(t, http.StatusForbidden, MapErrorToStatusCode(card_review.ErrDeckNotOwned))
	assert.Equal(t, http.StatusBadRequest, MapErrorToStatusCode(card_review.ErrInvalidRating))
	assert.Equal(t, http.StatusInternalServerError,
		MapErrorToStatusCode(card_review.NewSubmitReviewError("failed", context.DeadlineExceeded)))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(context.DeadlineExceeded))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
}
