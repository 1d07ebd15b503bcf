// Package card_review implements the review workflow: fetching the due
// batch for a deck, applying a rating through the scheduler, persisting the
// new memory state and recording the review log.
package card_review
