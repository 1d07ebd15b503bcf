package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-fsrs/internal/api/shared"
	"github.com/phrazzld/scry-fsrs/internal/platform/logger"
	"github.com/phrazzld/scry-fsrs/internal/service"
)

// DeckHandler handles deck HTTP requests.
type DeckHandler struct {
	decks  service.DeckService
	logger *slog.Logger
}

// NewDeckHandler creates a new DeckHandler.
func NewDeckHandler(decks service.DeckService, logger *slog.Logger) *DeckHandler {
	if decks == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("deck service cannot be nil for DeckHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for DeckHandler")
	}
	return &DeckHandler{
		decks:  decks,
		logger: logger.With(slog.String("component", "deck_handler")),
	}
}

// CreateDeck handles POST /decks.
func (h *DeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	var req CreateDeckRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	deck, err := h.decks.CreateDeck(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create deck")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, deckToResponse(deck))
}

// ListDecks handles GET /decks.
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	decks, err := h.decks.ListDecks(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list decks")
		return
	}

	resp := DecksResponse{Decks: make([]DeckResponse, 0, len(decks))}
	for _, d := range decks {
		resp.Decks = append(resp.Decks, deckToResponse(d))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
