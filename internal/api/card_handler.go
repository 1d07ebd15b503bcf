package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-fsrs/internal/api/shared"
	"github.com/phrazzld/scry-fsrs/internal/domain"
	"github.com/phrazzld/scry-fsrs/internal/platform/logger"
	"github.com/phrazzld/scry-fsrs/internal/service"
	"github.com/phrazzld/scry-fsrs/internal/service/card_review"
)

// CardHandler handles card management and review HTTP requests.
type CardHandler struct {
	cardReviewService card_review.CardReviewService
	cardService       service.CardService
	logger            *slog.Logger
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(
	cardReviewService card_review.CardReviewService,
	cardService service.CardService,
	logger *slog.Logger,
) *CardHandler {
	if cardReviewService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("cardReviewService cannot be nil for CardHandler")
	}
	if cardService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("cardService cannot be nil for CardHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for CardHandler")
	}

	return &CardHandler{
		cardReviewService: cardReviewService,
		cardService:       cardService,
		logger:            logger.With(slog.String("component", "card_handler")),
	}
}

// CreateCard handles POST /decks/{deckID}/cards.
func (h *CardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "deckID", log)
	if !ok {
		return
	}

	var req CreateCardRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	card, err := h.cardService.CreateCard(r.Context(), userID, deckID, req.Front, req.Back, req.Tags)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create card")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, cardToResponse(card))
}

// ListCards handles GET /decks/{deckID}/cards.
func (h *CardHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "deckID", log)
	if !ok {
		return
	}

	cards, err := h.cardService.ListCards(r.Context(), userID, deckID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list cards")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardsToResponse(cards))
}

// GetDueCards handles GET /decks/{deckID}/due.
// It returns the deck's due batch in study order; an empty list means
// nothing is due.
func (h *CardHandler) GetDueCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "deckID", log)
	if !ok {
		return
	}

	cards, err := h.cardReviewService.GetDueCards(r.Context(), userID, deckID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get due cards")
		return
	}

	log.Debug("fetched due cards",
		slog.String("deck_id", deckID.String()),
		slog.Int("count", len(cards)))
	shared.RespondWithJSON(w, r, http.StatusOK, cardsToResponse(cards))
}

// GetCard handles GET /cards/{id}.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	card, err := h.cardService.GetCard(r.Context(), userID, cardID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get card")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// DeleteCard handles DELETE /cards/{id}.
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.cardService.DeleteCard(r.Context(), userID, cardID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete card")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SubmitReview handles POST /cards/{id}/review.
// It applies a rating to the card and returns its new schedule.
func (h *CardHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	rating, err := domain.ParseRating(req.Rating)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.cardReviewService.SubmitReview(r.Context(), userID, cardID, rating, req.DurationMs)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit review")
		return
	}

	log.Debug("review submitted",
		slog.String("card_id", cardID.String()),
		slog.String("rating", rating.String()),
		slog.Time("next_due", result.NextDue))
	shared.RespondWithJSON(w, r, http.StatusOK, reviewToResponse(result))
}

// PreviewCard handles GET /cards/{id}/preview.
func (h *CardHandler) PreviewCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	preview, err := h.cardReviewService.PreviewCard(r.Context(), userID, cardID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to preview card")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, previewToResponse(preview))
}

// ListReviewLogs handles GET /cards/{id}/reviews.
func (h *CardHandler) ListReviewLogs(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	entries, err := h.cardReviewService.ListReviewLogs(r.Context(), userID, cardID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list reviews")
		return
	}

	resp := ReviewLogResponse{Entries: make([]domain.ReviewLogEntry, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, *e)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
