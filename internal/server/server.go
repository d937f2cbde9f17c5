package server

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"service-bootstrap/internal/config"
)

// Database is the part of the connection pool the server depends on.
type Database interface {
	Ping(ctx context.Context) error
	SQL() *sql.DB
}

// Config holds everything New needs. Only App is required.
type Config struct {
	App   config.Config
	Build BuildInfo
	Log   logrus.FieldLogger
	DB    Database

	// Registry receives the HTTP collectors; nil creates a private one.
	Registry *prometheus.Registry

	// Routes mounts the API route groups under /api/v1.
	Routes func(api chi.Router, ic *Interceptor)
}

type Server struct {
	httpServer *http.Server
	log        logrus.FieldLogger
	db         Database
}

func New(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Server{log: log, db: cfg.DB}

	var pool *sql.DB
	if cfg.DB != nil {
		pool = cfg.DB.SQL()
	}
	m := newMetrics(cfg.Registry, cfg.Build, pool)
	ic := NewInterceptor(cfg.App.IsProduction(), log)

	s.httpServer = &http.Server{
		Addr:              cfg.App.HTTP.Addr,
		Handler:           s.routes(cfg, ic, m),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.App.HTTP.ReadTimeout,
		WriteTimeout:      cfg.App.HTTP.WriteTimeout,
		IdleTimeout:       cfg.App.HTTP.IdleTimeout,
	}
	return s
}

// routes builds the middleware chain and the route table. Middleware order:
// request id -> access log -> recover -> security headers -> CORS ->
// rate limit -> body limit -> HEAD-as-GET -> router.
func (s *Server) routes(cfg Config, ic *Interceptor, m *metrics) http.Handler {
	app := cfg.App
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware(s.log, app.IsProduction(), m))
	r.Use(ic.Recoverer)
	r.Use(securityHeadersMiddleware(app.IsProduction()))
	r.Use(corsMiddleware(app.CORS.AllowedOrigins))
	if app.RateLimit.RPS > 0 {
		r.Use(newRateLimiter(app.RateLimit.RPS, app.RateLimit.Burst).middleware)
	}
	r.Use(bodyLimitMiddleware(app.BodyLimit))
	r.Use(middleware.GetHead)

	// Unknown paths and known paths with the wrong method both get the 404 envelope.
	r.NotFound(ic.NotFound)
	r.MethodNotAllowed(ic.NotFound)

	r.Get("/health", ic.Handle(s.handleHealth))
	r.Get("/ready", ic.Handle(s.handleReady))
	r.Get("/live", ic.Handle(s.handleLive))
	r.Method(http.MethodGet, "/metrics", m.handler)

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.Routes != nil {
			cfg.Routes(api, ic)
		}
	})

	return r
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
