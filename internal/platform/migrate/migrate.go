// Package migrate applies the embedded goose migrations of a store backend.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-fsrs/internal/platform/logger"
	"github.com/pressly/goose/v3"
)

// ErrUnknownCommand is returned by Run for a command other than up, down,
// status or version.
var ErrUnknownCommand = errors.New("unknown migration command")

// Commands lists the commands accepted by Run.
var Commands = []string{"up", "down", "status", "version"}

// Source is a set of migrations for one SQL dialect.
type Source struct {
	Dialect goose.Dialect
	FS      fs.FS
}

func (s Source) provider(db *sql.DB) (*goose.Provider, error) {
	p, err := goose.NewProvider(s.Dialect, db, s.FS)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return p, nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, src Source) error {
	return Run(ctx, db, src, "up")
}

// Run executes a migration command against db, logging each step.
func Run(ctx context.Context, db *sql.DB, src Source, command string) error {
	log := logger.FromContextOrDefault(ctx, slog.Default()).With(
		slog.String("component", "migrations"),
		slog.String("dialect", string(src.Dialect)),
		slog.String("command", command),
	)

	p, err := src.provider(db)
	if err != nil {
		return err
	}

	start := time.Now()
	switch command {
	case "up":
		results, err := p.Up(ctx)
		for _, r := range results {
			logResult(log, r)
		}
		if err != nil {
			log.Error("migration failed", slog.String("error", err.Error()))
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		log.Info("migrations applied",
			slog.Int("count", len(results)),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	case "down":
		result, err := p.Down(ctx)
		if result != nil {
			logResult(log, result)
		}
		if err != nil {
			log.Error("rollback failed", slog.String("error", err.Error()))
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}
		for _, s := range statuses {
			attrs := []any{
				slog.Int64("version", s.Source.Version),
				slog.String("state", string(s.State)),
			}
			if !s.AppliedAt.IsZero() {
				attrs = append(attrs, slog.Time("applied_at", s.AppliedAt))
			}
			log.Info("migration status", attrs...)
		}
	case "version":
		version, err := p.GetDBVersion(ctx)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		log.Info("schema version", slog.Int64("version", version))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
	return nil
}

func logResult(log *slog.Logger, r *goose.MigrationResult) {
	if r == nil || r.Source == nil {
		return
	}
	attrs := []any{
		slog.Int64("version", r.Source.Version),
		slog.String("direction", r.Direction),
		slog.Int64("duration_ms", r.Duration.Milliseconds()),
	}
	if r.Error != nil {
		log.Error("migration step failed", append(attrs, slog.String("error", r.Error.Error()))...)
		return
	}
	log.Info("migration step applied", attrs...)
}
