package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardUserIDEmpty is returned when a card's user ID is empty or nil.
	ErrCardUserIDEmpty = errors.New("card user ID cannot be empty")

	// ErrCardDeckIDEmpty is returned when a card's deck ID is empty or nil.
	ErrCardDeckIDEmpty = errors.New("card deck ID cannot be empty")

	// ErrCardContentEmpty is returned when a card's content is empty.
	ErrCardContentEmpty = errors.New("card content cannot be empty")

	// ErrCardContentInvalid is returned when a card's content is not valid JSON.
	ErrCardContentInvalid = errors.New("card content must be valid JSON")

	// ErrCardFrontEmpty and ErrCardBackEmpty are returned by NewCard when a
	// side of the card is blank.
	ErrCardFrontEmpty = errors.New("card front cannot be empty")
	ErrCardBackEmpty  = errors.New("card back cannot be empty")
)

// Card is a flashcard owned by a user and grouped in a deck. The content is
// stored as a JSON document so card formats can grow without schema changes;
// Memory carries the scheduling record.
type Card struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	DeckID    uuid.UUID       `json:"deck_id"`
	Content   json.RawMessage `json:"content"`
	Memory    MemoryState     `json:"memory"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CardContent is the structure of the content field of a Card.
type CardContent struct {
	Front string   `json:"front"`
	Back  string   `json:"back"`
	Tags  []string `json:"tags"`
}

// NewCard creates a card in the given deck with the empty memory state.
// Front and back are required; tags default to an empty list.
func NewCard(userID, deckID uuid.UUID, front, back string, tags []string, now time.Time) (*Card, error) {
	if strings.TrimSpace(front) == "" {
		return nil, ErrCardFrontEmpty
	}
	if strings.TrimSpace(back) == "" {
		return nil, ErrCardBackEmpty
	}
	if tags == nil {
		tags = []string{}
	}

	content, err := json.Marshal(CardContent{Front: front, Back: back, Tags: tags})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCardContent, err)
	}

	now = now.UTC()
	card := &Card{
		ID:        uuid.New(),
		UserID:    userID,
		DeckID:    deckID,
		Content:   content,
		Memory:    NewMemoryState(now),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.UserID == uuid.Nil {
		return ErrCardUserIDEmpty
	}

	if c.DeckID == uuid.Nil {
		return ErrCardDeckIDEmpty
	}

	if len(c.Content) == 0 {
		return ErrCardContentEmpty
	}

	if !json.Valid(c.Content) {
		return ErrCardContentInvalid
	}

	return c.Memory.Validate()
}

// DecodeContent unmarshals the card's JSON content.
func (c *Card) DecodeContent() (CardContent, error) {
	var content CardContent
	if err := json.Unmarshal(c.Content, &content); err != nil {
		return CardContent{}, fmt.Errorf("%w: %v", ErrInvalidCardContent, err)
	}
	if content.Tags == nil {
		content.Tags = []string{}
	}
	return content, nil
}
