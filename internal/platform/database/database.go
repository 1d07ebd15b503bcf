// Package database selects the store backend named in the configuration.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-fsrs/internal/config"
	"github.com/phrazzld/scry-fsrs/internal/platform/migrate"
	"github.com/phrazzld/scry-fsrs/internal/platform/postgres"
	"github.com/phrazzld/scry-fsrs/internal/platform/sqlite"
	"github.com/phrazzld/scry-fsrs/internal/store"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrUnsupportedDriver is returned for a driver other than postgres or sqlite.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Stores bundles the store implementations for one backend.
type Stores struct {
	Decks      store.DeckStore
	Cards      store.CardStore
	ReviewLogs store.ReviewLogStore
}

// Open connects to the configured backend.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return postgres.Open(ctx, cfg, logger)
	case DriverSQLite:
		return sqlite.Open(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

// Migrations returns the schema migrations for driver.
func Migrations(driver string) (migrate.Source, error) {
	switch driver {
	case DriverPostgres:
		return postgres.Migrations(), nil
	case DriverSQLite:
		return sqlite.Migrations(), nil
	default:
		return migrate.Source{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// NewStores builds the stores for driver on db.
func NewStores(db *sql.DB, driver string, logger *slog.Logger) (Stores, error) {
	switch driver {
	case DriverPostgres:
		return Stores{
			Decks:      postgres.NewPostgresDeckStore(db, logger),
			Cards:      postgres.NewPostgresCardStore(db, logger),
			ReviewLogs: postgres.NewPostgresReviewLogStore(db, logger),
		}, nil
	case DriverSQLite:
		return Stores{
			Decks:      sqlite.NewDeckStore(db, logger),
			Cards:      sqlite.NewCardStore(db, logger),
			ReviewLogs: sqlite.NewReviewLogStore(db, logger),
		}, nil
	default:
		return Stores{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}
