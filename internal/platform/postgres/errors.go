package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/scry-fsrs/internal/store"
)

const foreignKeyViolation = "23503"

// constraintErrors maps integrity-violation SQLSTATE codes to store errors.
var constraintErrors = map[string]struct {
	target error
	kind   string
}{
	"23505":             {store.ErrDuplicate, "unique"},
	foreignKeyViolation: {store.ErrInvalidEntity, "foreign key"},
	"23514":             {store.ErrInvalidEntity, "check"},
	"23502":             {store.ErrInvalidEntity, "not null"},
}

// MapError translates sql.ErrNoRows and constraint violations into store
// errors. Anything else is returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	mapped, ok := constraintErrors[pgErr.Code]
	if !ok {
		return err
	}

	name := pgErr.ConstraintName
	if name == "" {
		name = pgErr.ColumnName
	}
	return fmt.Errorf("%w: %s violation on %s (%s): %v",
		mapped.target, mapped.kind, pgErr.TableName, name, err)
}

// IsForeignKeyViolation reports whether err is a foreign key violation, as
// when a review log names a card that has been deleted.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

// CheckRowsAffected returns notFound, or store.ErrNotFound when notFound is
// nil, if an UPDATE or DELETE matched no rows.
func CheckRowsAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if notFound == nil {
		return store.ErrNotFound
	}
	return notFound
}
