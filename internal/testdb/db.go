package testdb

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/scry-fsrs/internal/config"
	"github.com/phrazzld/scry-fsrs/internal/platform/migrate"
	"github.com/phrazzld/scry-fsrs/internal/platform/postgres"
	"github.com/phrazzld/scry-fsrs/internal/platform/sqlite"
	"github.com/stretchr/testify/require"
)

// GetTestDBWithT opens a private in-memory SQLite database with the schema
// applied. The connection is closed when the test ends.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := sqlite.Open(ctx, config.DatabaseConfig{Driver: "sqlite", URL: ":memory:"}, nil)
	require.NoError(t, err, "failed to open sqlite test database")
	t.Cleanup(func() { CleanupDB(t, db) })

	require.NoError(t, migrate.Up(ctx, db, sqlite.Migrations()), "failed to migrate sqlite test database")
	return db
}

// GetPostgresDBWithT connects to the PostgreSQL integration database and
// applies the schema, skipping the test when none is configured.
func GetPostgresDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	if ShouldSkipDatabaseTest() {
		t.Skip("DATABASE_URL not set - skipping integration test")
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, config.DatabaseConfig{
		Driver:          "postgres",
		URL:             GetTestDatabaseURL(),
		MaxOpenConns:    5,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}, nil)
	require.NoError(t, err, "failed to connect to postgres test database")
	t.Cleanup(func() { CleanupDB(t, db) })

	require.NoError(t, migrate.Up(ctx, db, postgres.Migrations()), "failed to migrate postgres test database")
	return db
}

// CleanupDB closes db, reporting any error on t.
func CleanupDB(t *testing.T, db *sql.DB) {
	t.Helper()
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		t.Errorf("failed to close database connection: %v", err)
	}
}

// WithTx runs fn in a transaction that is rolled back afterwards, so the
// test leaves no data behind.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "failed to begin transaction")

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}
