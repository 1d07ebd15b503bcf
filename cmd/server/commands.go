package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/config"
	"github.com/phrazzld/scry-fsrs/internal/platform/database"
	"github.com/phrazzld/scry-fsrs/internal/platform/logger"
	"github.com/phrazzld/scry-fsrs/internal/platform/migrate"
	"github.com/phrazzld/scry-fsrs/internal/service/auth"
	"github.com/spf13/cobra"
)

const rootLongDesc string = `scry serves decks, cards and spaced-repetition reviews over HTTP.

Configuration is read from config.yaml (or the file named by SCRY_CONFIG)
and SCRY_* environment variables.

Examples:
  scry serve
  scry migrate up
  scry token --user 6f1c...`

// loadConfig is replaced in tests.
var loadConfig = config.Load

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "scry",
		Short:         "Spaced-repetition flashcard server",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCmd(), newMigrateCmd(), newTokenCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			ctx := logger.WithLogger(cmd.Context(), log)

			app, err := openApplication(ctx, cfg, log, true)
			if err != nil {
				return err
			}
			defer app.cleanup()

			return app.startHTTPServer(ctx, app.setupRouter())
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [" + strings.Join(migrate.Commands, "|") + "]",
		Short:     "Manage the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrate.Commands,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			ctx := logger.WithLogger(cmd.Context(), log)
			return runMigrations(ctx, cfg, log, args[0])
		},
	}
}

type tokenCommander struct {
	userID string
}

func newTokenCmd() *cobra.Command {
	cmder := &tokenCommander{}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for a user",
		Long: `Mint a signed access token for a user ID, for the study client or
for testing. Accounts are managed by the identity provider; this command
only signs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}
	cmd.Flags().StringVarP(&cmder.userID, "user", "u", "", "User ID (UUID) to issue the token for")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (c *tokenCommander) run(cmd *cobra.Command) error {
	userID, err := uuid.Parse(c.userID)
	if err != nil {
		return fmt.Errorf("invalid user ID %q: %w", c.userID, err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to create JWT service: %w", err)
	}

	token, err := jwtService.GenerateToken(cmd.Context(), userID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}

// bootstrap loads configuration and sets up structured logging.
func bootstrap() (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver))
	return cfg, log, nil
}

func runMigrations(ctx context.Context, cfg *config.Config, log *slog.Logger, command string) error {
	src, err := database.Migrations(cfg.Database.Driver)
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", slog.String("error", err.Error()))
		}
	}()

	return migrate.Run(ctx, db, src, command)
}
