package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the row does not exist, or belongs to nobody the
	// caller can see. The entity variants below wrap it.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate means a unique constraint rejected the write, for example
	// a second deck with the same name for one user.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity means the store refused a record before or while
	// writing it: a bad rating, an unknown state, a dangling foreign key.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed and ErrDeleteFailed wrap driver errors from writes
	// that are not better described by one of the errors above.
	ErrUpdateFailed = errors.New("update failed")
	ErrDeleteFailed = errors.New("delete failed")

	// ErrTransactionFailed marks begin and commit failures in
	// RunInTransaction.
	ErrTransactionFailed = errors.New("transaction failed")

	ErrCardNotFound = fmt.Errorf("%w: card", ErrNotFound)
	ErrDeckNotFound = fmt.Errorf("%w: deck", ErrNotFound)
)

// IsNotFoundError reports whether err is ErrNotFound or one of its entity
// variants.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err is ErrDuplicate.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
