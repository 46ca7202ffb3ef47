package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthTimeout = 3 * time.Second

// HealthHandlerFunc returns an http.HandlerFunc that checks store and memo
// connectivity. A nil memo reports "disabled" and does not degrade health.
func HealthHandlerFunc(db Pinger, memo Pinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		dbStatus := "ok"
		memoStatus := "disabled"

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			dbStatus = "error"
			status = http.StatusServiceUnavailable
		}

		if memo != nil {
			memoStatus = "ok"
			if err := memo.Ping(ctx); err != nil {
				log.Error("health check: redis ping failed", "err", err)
				memoStatus = "error"
				status = http.StatusServiceUnavailable
			}
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		writeJSON(w, status, map[string]string{
			"status": overall,
			"db":     dbStatus,
			"redis":  memoStatus,
		})
	}
}
