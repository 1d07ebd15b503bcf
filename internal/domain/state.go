package domain

import (
	"encoding"
	"encoding/json"
	"fmt"
	"strings"
)

// State is the learning phase of a card. The numeric values are the
// persisted encoding.
type State int

const (
	// StateNew is a card that has never been reviewed.
	StateNew State = 0
	// StateLearning is a card working through its initial short-term steps.
	StateLearning State = 1
	// StateReview is a graduated card scheduled on a day scale.
	StateReview State = 2
	// StateRelearning is a lapsed card working through relearning steps.
	StateRelearning State = 3
)

var (
	_ fmt.Stringer             = State(0)
	_ encoding.TextMarshaler   = State(0)
	_ encoding.TextUnmarshaler = (*State)(nil)
	_ json.Marshaler           = State(0)
	_ json.Unmarshaler         = (*State)(nil)
)

// IsValid reports whether s is one of the four defined phases.
func (s State) IsValid() bool {
	switch s {
	case StateNew, StateLearning, StateReview, StateRelearning:
		return true
	default:
		return false
	}
}

// IsShortTerm reports whether the card is in a minute-scale phase.
func (s State) IsShortTerm() bool {
	return s == StateLearning || s == StateRelearning
}

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateLearning:
		return "learning"
	case StateReview:
		return "review"
	case StateRelearning:
		return "relearning"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DisplayName returns the capitalised label shown to learners.
func (s State) DisplayName() string {
	switch s {
	case StateNew:
		return "New"
	case StateLearning:
		return "Learning"
	case StateReview:
		return "Review"
	case StateRelearning:
		return "Relearning"
	default:
		return "Unknown"
	}
}

// ParseState parses a lowercase state token, case-insensitively.
func ParseState(s string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "new":
		return StateNew, nil
	case "learning":
		return StateLearning, nil
	case "review":
		return StateReview, nil
	case "relearning":
		return StateRelearning, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidState, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidState, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalJSON encodes the state as its lowercase token.
func (s State) MarshalJSON() ([]byte, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON decodes a lowercase state token.
func (s *State) UnmarshalJSON(data []byte) error {
	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidState, string(data))
	}
	return s.UnmarshalText([]byte(token))
}
