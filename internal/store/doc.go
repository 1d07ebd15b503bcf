// Package store defines the persistence interfaces for decks, cards and the
// review log, plus the transaction helper and the error values every
// backend maps its driver errors onto. Implementations live under
// internal/platform.
package store
