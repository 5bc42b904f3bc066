package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/isdelr/routines-api/internal/apperrors"
	"github.com/rs/zerolog/log"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health reports whether the service can reach its database.
func Health(db Pinger) HandlerFunc {
	return func(r *http.Request) Result {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			log.Error().Err(err).Msg("Health check failed")
			return Fail(apperrors.DatabaseUnavailable())
		}
		return OK(map[string]bool{"healthy": true})
	}
}
