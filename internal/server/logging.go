package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-Id"

// RequestIDFromContext returns the request id if present.
func RequestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(requestIDKey).(string); ok {
		return s
	}
	return ""
}

// requestIDMiddleware ensures every request has a request id.
// If the client supplies X-Request-Id, we keep it; otherwise we generate one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(HeaderRequestID)
		if rid == "" || len(rid) > 128 {
			rid = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey, rid)
		w.Header().Set(HeaderRequestID, rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLogMiddleware logs one line per request and records request metrics.
// Production gets the combined-log field set; development gets a short
// "METHOD path status duration - bytes" line.
func accessLogMiddleware(log logrus.FieldLogger, production bool, m *metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			duration := time.Since(start)
			if m != nil {
				m.observe(r.Method, status, duration)
			}

			if production {
				log.WithFields(logrus.Fields{
					"request_id":  RequestIDFromContext(r.Context()),
					"remote_addr": getClientIP(r),
					"method":      r.Method,
					"uri":         r.URL.RequestURI(),
					"proto":       r.Proto,
					"status":      status,
					"bytes":       ww.BytesWritten(),
					"referer":     r.Referer(),
					"user_agent":  r.UserAgent(),
					"duration_ms": duration.Milliseconds(),
				}).Info("request")
				return
			}

			log.WithField("request_id", RequestIDFromContext(r.Context())).Info(
				fmt.Sprintf("%s %s %d %.3f ms - %d",
					r.Method, r.URL.RequestURI(), status,
					float64(duration.Microseconds())/1000, ww.BytesWritten()))
		})
	}
}
