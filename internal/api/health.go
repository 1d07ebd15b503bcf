package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/scry-fsrs/internal/api/shared"
	"github.com/phrazzld/scry-fsrs/internal/platform/logger"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler reports whether the server can reach its database.
func HealthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.FromContextOrDefault(r.Context(), slog.Default()).
				Error("health check failed", slog.String("error", err.Error()))
			shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
			return
		}
		shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
