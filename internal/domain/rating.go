package domain

import (
	"encoding"
	"encoding/json"
	"fmt"
	"strings"
)

// Rating is the learner's self-assessment of recall for a single review.
// The numeric values match the persisted encoding.
type Rating int

const (
	// RatingAgain means the answer was forgotten.
	RatingAgain Rating = 1
	// RatingHard means the answer was recalled with serious difficulty.
	RatingHard Rating = 2
	// RatingGood means the answer was recalled after some hesitation.
	RatingGood Rating = 3
	// RatingEasy means the answer was recalled immediately.
	RatingEasy Rating = 4
)

var (
	_ fmt.Stringer             = Rating(0)
	_ encoding.TextMarshaler   = Rating(0)
	_ encoding.TextUnmarshaler = (*Rating)(nil)
	_ json.Marshaler           = Rating(0)
	_ json.Unmarshaler         = (*Rating)(nil)
)

// Ratings returns all valid ratings in ascending order.
func Ratings() []Rating {
	return []Rating{RatingAgain, RatingHard, RatingGood, RatingEasy}
}

// IsValid reports whether r is one of the four defined ratings.
func (r Rating) IsValid() bool {
	return r >= RatingAgain && r <= RatingEasy
}

func (r Rating) String() string {
	switch r {
	case RatingAgain:
		return "again"
	case RatingHard:
		return "hard"
	case RatingGood:
		return "good"
	case RatingEasy:
		return "easy"
	default:
		return fmt.Sprintf("rating(%d)", int(r))
	}
}

// DisplayName returns the capitalised label shown to learners.
func (r Rating) DisplayName() string {
	switch r {
	case RatingAgain:
		return "Again"
	case RatingHard:
		return "Hard"
	case RatingGood:
		return "Good"
	case RatingEasy:
		return "Easy"
	default:
		return "Unknown"
	}
}

// ParseRating accepts a lowercase token ("again".."easy", case-insensitive)
// or the digits "1".."4".
func ParseRating(s string) (Rating, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "again", "1":
		return RatingAgain, nil
	case "hard", "2":
		return RatingHard, nil
	case "good", "3":
		return RatingGood, nil
	case "easy", "4":
		return RatingEasy, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidRating, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Rating) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rating) UnmarshalText(text []byte) error {
	parsed, err := ParseRating(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalJSON encodes the rating as its lowercase token.
func (r Rating) MarshalJSON() ([]byte, error) {
	text, err := r.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON accepts either the token form or a bare integer 1-4.
func (r *Rating) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return r.UnmarshalText([]byte(s))
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRating, string(data))
	}
	if !Rating(n).IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidRating, n)
	}
	*r = Rating(n)
	return nil
}
