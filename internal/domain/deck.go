package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxDeckNameLength bounds deck names in characters.
const MaxDeckNameLength = 200

var (
	// ErrDeckUserIDEmpty is returned when a deck has no owner.
	ErrDeckUserIDEmpty = errors.New("deck user ID cannot be empty")

	// ErrDeckNameEmpty is returned when a deck name is blank.
	ErrDeckNameEmpty = errors.New("deck name cannot be empty")

	// ErrDeckNameTooLong is returned when a deck name exceeds MaxDeckNameLength.
	ErrDeckNameTooLong = errors.New("deck name is too long")
)

// Deck groups a user's cards.
type Deck struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewDeck creates a deck owned by userID.
func NewDeck(userID uuid.UUID, name, description string, now time.Time) (*Deck, error) {
	now = now.UTC()
	deck := &Deck{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        strings.TrimSpace(name),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := deck.Validate(); err != nil {
		return nil, err
	}
	return deck, nil
}

// Validate checks if the Deck has valid data.
func (d *Deck) Validate() error {
	if d.UserID == uuid.Nil {
		return ErrDeckUserIDEmpty
	}
	if strings.TrimSpace(d.Name) == "" {
		return ErrDeckNameEmpty
	}
	if utf8.RuneCountInString(d.Name) > MaxDeckNameLength {
		return ErrDeckNameTooLong
	}
	return nil
}
