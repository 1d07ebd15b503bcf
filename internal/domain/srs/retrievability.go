package srs

import (
	"math"
	"time"

	"github.com/phrazzld/scry-fsrs/internal/domain"
)

// Retrievability estimates the probability, in [0, 1], that the card would
// be recalled at now. New cards report 1. Elapsed time is measured from the
// last review, or from the due time when no review is recorded.
func Retrievability(state domain.MemoryState, now time.Time) float64 {
	if state.State == domain.StateNew {
		return 1
	}
	ref := state.Due
	if state.LastReview != nil {
		ref = *state.LastReview
	}
	elapsed := math.Max(0, now.Sub(ref).Hours()/24)
	return retrievability(elapsed, state.Stability)
}

// RetrievabilityPercent is Retrievability as a whole percentage for display.
func RetrievabilityPercent(state domain.MemoryState, now time.Time) int {
	return int(math.Round(Retrievability(state, now) * 100))
}
