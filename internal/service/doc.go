// Package service contains the application use cases for managing decks and
// cards. It coordinates domain objects and the repositories defined in
// internal/store, applying ownership checks and transactional boundaries.
//
// Services receive their stores through constructor injection and never
// depend on a specific storage backend. Expected failures are reported as
// sentinel errors (ErrDeckNotOwned, ErrCardNotOwned, store.ErrNotFound and
// friends) so the API layer can map them with errors.Is; unexpected failures
// are wrapped in a ServiceError naming the operation.
//
// Reviews and scheduling live in the card_review subpackage.
package service
