package domain

import (
	"fmt"
	"time"
)

// Difficulty bounds for any card that has been reviewed at least once.
const (
	MinDifficulty = 1.0
	MaxDifficulty = 10.0
)

// MemoryState is the per-card scheduling record. It is written only by the
// scheduler's review step; the persistence layer stores it verbatim.
type MemoryState struct {
	// State is the current learning phase.
	State State `json:"state"`

	// Stability is the memory half-life proxy in days.
	Stability float64 `json:"stability"`

	// Difficulty is in [MinDifficulty, MaxDifficulty] once reviewed and 0
	// while the card is new.
	Difficulty float64 `json:"difficulty"`

	// ElapsedDays is the time between the two most recent reviews.
	ElapsedDays float64 `json:"elapsed_days"`

	// ScheduledDays is the interval assigned at the last review, in
	// fractional days.
	ScheduledDays float64 `json:"scheduled_days"`

	// LearningSteps counts short-term steps completed in the current
	// learning or relearning phase.
	LearningSteps int `json:"learning_steps"`

	Reps   int `json:"reps"`
	Lapses int `json:"lapses"`

	// Due is when the card next becomes eligible for review.
	Due time.Time `json:"due"`

	// LastReview is nil until the first review.
	LastReview *time.Time `json:"last_review,omitempty"`
}

// NewMemoryState returns the state every freshly created card starts with:
// new, zero stability and difficulty, due immediately.
func NewMemoryState(now time.Time) MemoryState {
	return MemoryState{
		State: StateNew,
		Due:   now.UTC(),
	}
}

// IsDue reports whether the card is eligible for review at now.
func (m MemoryState) IsDue(now time.Time) bool {
	return !m.Due.After(now)
}

// Clone returns a deep copy, including the LastReview pointer.
func (m MemoryState) Clone() MemoryState {
	out := m
	if m.LastReview != nil {
		t := *m.LastReview
		out.LastReview = &t
	}
	return out
}

// Validate checks the structural invariants of the memory state.
func (m MemoryState) Validate() error {
	if !m.State.IsValid() {
		return fmt.Errorf("%w: %w: %d", ErrValidation, ErrInvalidState, int(m.State))
	}
	if m.Stability < 0 {
		return fmt.Errorf("%w: stability must be non-negative, got %v", ErrValidation, m.Stability)
	}
	if m.State != StateNew && (m.Difficulty < MinDifficulty || m.Difficulty > MaxDifficulty) {
		return fmt.Errorf(
			"%w: difficulty must be within [%v, %v], got %v",
			ErrValidation, MinDifficulty, MaxDifficulty, m.Difficulty,
		)
	}
	if m.Reps < 0 || m.Lapses < 0 || m.LearningSteps < 0 {
		return fmt.Errorf("%w: counters must be non-negative", ErrValidation)
	}
	if m.ElapsedDays < 0 || m.ScheduledDays < 0 {
		return fmt.Errorf("%w: day counts must be non-negative", ErrValidation)
	}
	if m.State == StateNew && (m.Reps != 0 || m.LastReview != nil) {
		return fmt.Errorf("%w: a new card cannot have review history", ErrValidation)
	}
	if m.LastReview != nil && m.Due.Before(*m.LastReview) {
		return fmt.Errorf("%w: due precedes last review", ErrValidation)
	}
	return nil
}
