package server

import (
	"context"
	"net/http"
	"time"

	"service-bootstrap/internal/response"
)

// isoMillis matches JavaScript's Date.toISOString output.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// handleHealth reports that the process is serving requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) error {
	response.Success(w, map[string]any{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(isoMillis),
	}, "Service is running", http.StatusOK)
	return nil
}

// handleReady reports whether the database can be reached. Without a
// database the service is always ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) error {
	data := map[string]any{"status": "ready"}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		start := time.Now()
		if err := s.db.Ping(ctx); err != nil {
			s.log.WithError(err).Warn("readiness check failed")
			response.Error(w, "Database unavailable", http.StatusServiceUnavailable, nil)
			return nil
		}
		data["database"] = map[string]any{
			"status":     "up",
			"latency_ms": time.Since(start).Milliseconds(),
		}
		if pool := s.db.SQL(); pool != nil {
			stats := pool.Stats()
			data["pool"] = map[string]any{
				"open_connections": stats.OpenConnections,
				"in_use":           stats.InUse,
				"idle":             stats.Idle,
				"wait_count":       stats.WaitCount,
			}
		}
	}

	response.Success(w, data, "Service is ready", http.StatusOK)
	return nil
}

// handleLive always succeeds while the process is running.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) error {
	response.Success(w, map[string]any{"status": "alive"}, "Service is alive", http.StatusOK)
	return nil
}
