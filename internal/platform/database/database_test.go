package database_test

import (
	"context"
	"testing"

	"github.com/phrazzld/scry-fsrs/internal/config"
	"github.com/phrazzld/scry-fsrs/internal/platform/database"
	"github.com/phrazzld/scry-fsrs/internal/platform/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := database.Open(ctx, config.DatabaseConfig{Driver: database.DriverSQLite, URL: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	src, err := database.Migrations(database.DriverSQLite)
	require.NoError(t, err)
	require.NoError(t, migrate.Up(ctx, db, src))
	require.NoError(t, migrate.Up(ctx, db, src), "applying twice is a no-op")

	stores, err := database.NewStores(db, database.DriverSQLite, nil)
	require.NoError(t, err)
	assert.NotNil(t, stores.Decks)
	assert.NotNil(t, stores.Cards)
	assert.NotNil(t, stores.ReviewLogs)
}

func TestUnsupportedDriver(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := database.Open(ctx, config.DatabaseConfig{Driver: "mysql", URL: "x"}, nil)
	assert.ErrorIs(t, err, database.ErrUnsupportedDriver)

	_, err = database.Migrations("mysql")
	assert.ErrorIs(t, err, database.ErrUnsupportedDriver)

	_, err = database.NewStores(nil, "mysql", nil)
	assert.ErrorIs(t, err, database.ErrUnsupportedDriver)
}
