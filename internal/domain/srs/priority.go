package srs

import (
	"slices"

	"github.com/phrazzld/scry-fsrs/internal/domain"
)

// OrderByPriority returns a copy of items sorted for review: cards in a
// short-term phase first, then by ascending due time. Ties keep their input
// order and the input slice is not modified.
func OrderByPriority[T any](items []T, memory func(T) domain.MemoryState) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		ma, mb := memory(a), memory(b)
		pa, pb := ma.State.IsShortTerm(), mb.State.IsShortTerm()
		if pa != pb {
			if pa {
				return -1
			}
			return 1
		}
		return ma.Due.Compare(mb.Due)
	})
	return out
}

// OrderCards orders cards by their memory state.
func OrderCards(cards []domain.Card) []domain.Card {
	return OrderByPriority(cards, func(c domain.Card) domain.MemoryState { return c.Memory })
}
