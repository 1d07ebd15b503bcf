// Package domain contains the core entities of the scheduler: decks, cards,
// the per-card memory state, review ratings and the append-only review log.
// It has no dependency on storage or transport.
package domain
