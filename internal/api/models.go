package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/domain"
	"github.com/phrazzld/scry-fsrs/internal/domain/srs"
	"github.com/phrazzld/scry-fsrs/internal/service/card_review"
)

// Common request/response structures

// CreateDeckRequest defines the payload for creating a deck.
type CreateDeckRequest struct {
	Name        string `json:"name"        validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// DeckResponse is the representation of a deck.
type DeckResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DecksResponse lists a user's decks.
type DecksResponse struct {
	Decks []DeckResponse `json:"decks"`
}

// CreateCardRequest defines the payload for adding a card to a deck.
type CreateCardRequest struct {
	Front string   `json:"front" validate:"required,max=10000"`
	Back  string   `json:"back"  validate:"required,max=10000"`
	Tags  []string `json:"tags"  validate:"max=50,dive,required,max=100"`
}

// CardResponse is the representation of a card, including its memory state.
type CardResponse struct {
	ID        uuid.UUID          `json:"id"`
	DeckID    uuid.UUID          `json:"deck_id"`
	Front     string             `json:"front"`
	Back      string             `json:"back"`
	Tags      []string           `json:"tags"`
	Memory    domain.MemoryState `json:"memory"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Card converts the response back into a domain card owned by userID.
func (c CardResponse) Card(userID uuid.UUID) (domain.Card, error) {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	content, err := json.Marshal(domain.CardContent{Front: c.Front, Back: c.Back, Tags: tags})
	if err != nil {
		return domain.Card{}, err
	}
	return domain.Card{
		ID:        c.ID,
		UserID:    userID,
		DeckID:    c.DeckID,
		Content:   content,
		Memory:    c.Memory,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}, nil
}

// DueCardsResponse is a list of cards; for the due endpoint it is the
// deck's due batch in study order.
type DueCardsResponse struct {
	Cards []CardResponse `json:"cards"`
}

// SubmitReviewRequest defines the payload for rating a card. Rating accepts
// "again", "hard", "good", "easy" or the digits 1 to 4.
type SubmitReviewRequest struct {
	Rating     string `json:"rating"      validate:"required,oneof=again hard good easy 1 2 3 4"`
	DurationMs *int64 `json:"duration_ms" validate:"omitempty,gte=0"`
}

// ReviewResponse reports the result of a review.
type ReviewResponse struct {
	CardID        uuid.UUID          `json:"card_id"`
	NextDue       time.Time          `json:"next_due"`
	IntervalLabel string             `json:"interval_label"`
	Memory        domain.MemoryState `json:"memory"`
	LogPersisted  bool               `json:"log_persisted"`
}

// PreviewOption is the effect a single rating would have.
type PreviewOption struct {
	Rating       domain.Rating `json:"rating"`
	Label        string        `json:"label"`
	IntervalDays float64       `json:"interval_days"`
	Due          time.Time     `json:"due"`
	State        domain.State  `json:"state"`
}

// PreviewResponse lists the outcome of every rating for a card.
type PreviewResponse struct {
	CardID                uuid.UUID       `json:"card_id"`
	RetrievabilityPercent int             `json:"retrievability_percent"`
	Options               []PreviewOption `json:"options"`
}

// ReviewLogResponse lists a card's review history, oldest first.
type ReviewLogResponse struct {
	Entries []domain.ReviewLogEntry `json:"entries"`
}

// HealthResponse is returned by the health check.
type HealthResponse struct {
	Status string `json:"status"`
}

func deckToResponse(d *domain.Deck) DeckResponse {
	return DeckResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// cardToResponse flattens the card's JSON content. Content that cannot be
// decoded is returned with empty sides rather than failing the request.
func cardToResponse(c *domain.Card) CardResponse {
	content, err := c.DecodeContent()
	if err != nil {
		content = domain.CardContent{Tags: []string{}}
	}
	return CardResponse{
		ID:        c.ID,
		DeckID:    c.DeckID,
		Front:     content.Front,
		Back:      content.Back,
		Tags:      content.Tags,
		Memory:    c.Memory,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func cardsToResponse(cards []*domain.Card) DueCardsResponse {
	resp := DueCardsResponse{Cards: make([]CardResponse, 0, len(cards))}
	for _, c := range cards {
		resp.Cards = append(resp.Cards, cardToResponse(c))
	}
	return resp
}

func reviewToResponse(r *card_review.ReviewResult) ReviewResponse {
	return ReviewResponse{
		CardID:        r.Card.ID,
		NextDue:       r.NextDue,
		IntervalLabel: srs.FormatInterval(r.Interval.Hours() / 24),
		Memory:        r.Card.Memory,
		LogPersisted:  r.LogPersisted,
	}
}

func previewToResponse(p *card_review.CardPreview) PreviewResponse {
	options := make([]PreviewOption, 0, len(p.Previews))
	for _, o := range p.Previews {
		options = append(options, PreviewOption{
			Rating:       o.Rating,
			Label:        o.Label,
			IntervalDays: o.IntervalDays,
			Due:          o.State.Due,
			State:        o.State.State,
		})
	}
	return PreviewResponse{
		CardID:                p.Card.ID,
		RetrievabilityPercent: p.RetrievabilityPercent,
		Options:               options,
	}
}
