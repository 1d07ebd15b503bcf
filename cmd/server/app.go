package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-fsrs/internal/config"
	"github.com/phrazzld/scry-fsrs/internal/domain/srs"
	"github.com/phrazzld/scry-fsrs/internal/platform/database"
	"github.com/phrazzld/scry-fsrs/internal/platform/migrate"
	"github.com/phrazzld/scry-fsrs/internal/service"
	"github.com/phrazzld/scry-fsrs/internal/service/auth"
	"github.com/phrazzld/scry-fsrs/internal/service/card_review"
)

// application holds the server's dependencies.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	stores database.Stores

	jwtService        auth.JWTService
	deckService       service.DeckService
	cardService       service.CardService
	cardReviewService card_review.CardReviewService
}

// openApplication connects to the database, optionally brings the schema
// up to date and builds the application on it.
func openApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrateUp bool) (*application, error) {
	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if migrateUp {
		src, err := database.Migrations(cfg.Database.Driver)
		if err == nil {
			err = migrate.Up(ctx, db, src)
		}
		if err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	app, err := newApplication(cfg, logger, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	stores, err := database.NewStores(db, cfg.Database.Driver, logger)
	if err != nil {
		return nil, err
	}
	app.stores = stores

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	params, err := cfg.Scheduler.Params()
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler parameters: %w", err)
	}
	scheduler, err := srs.NewScheduler(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	app.deckService, err = service.NewDeckService(stores.Decks, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create deck service: %w", err)
	}
	app.cardService, err = service.NewCardService(db, stores.Decks, stores.Cards, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create card service: %w", err)
	}
	app.cardReviewService = card_review.NewCardReviewService(
		db,
		stores.Decks,
		stores.Cards,
		stores.ReviewLogs,
		scheduler,
		logger,
		card_review.WithBatchSize(cfg.Session.BatchSize),
	)

	logger.Info("application initialized",
		slog.Float64("desired_retention", params.DesiredRetention),
		slog.Int("batch_size", cfg.Session.BatchSize))
	return app, nil
}

// cleanup releases the database connection.
func (app *application) cleanup() {
	if app.db == nil {
		return
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database", slog.String("error", err.Error()))
	}
	app.db = nil
}
