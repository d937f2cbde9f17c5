package main

import (
	"context"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"service-bootstrap/internal/config"
	"service-bootstrap/internal/db"
	"service-bootstrap/internal/logging"
	"service-bootstrap/internal/response"
	"service-bootstrap/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger depends on config, so report with the default one.
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format, cfg.IsProduction())
	response.Logger = log

	build := server.BuildInfo{Version: cfg.Build.Version, Commit: cfg.Build.Commit}

	ctx := context.Background()

	// Database. The pool dials lazily, so an unreachable database only
	// fails /ready until it comes up.
	database, err := db.New(cfg.DB, log)
	if err != nil {
		log.WithError(err).Fatal("db_config_invalid")
	}
	defer func() { _ = database.Close() }()

	connected := true
	if err := database.Connect(ctx); err != nil {
		connected = false
		log.WithError(err).Warn("db_unreachable")
	}

	if cfg.Bootstrap {
		if !connected {
			log.Error("bootstrap_skipped: database unreachable")
		} else {
			var fsys fs.FS
			if cfg.SQLDir != "" {
				fsys = os.DirFS(cfg.SQLDir)
			}
			log.Info("running_bootstrap")
			if err := database.Initialize(ctx, fsys, cfg.IsProduction()); err != nil {
				log.WithError(err).Error("bootstrap_failed")
				_ = database.Close()
				os.Exit(1)
			}
			log.Info("bootstrap_complete")
		}
	}

	srv := server.New(server.Config{
		App:    cfg,
		Build:  build,
		Log:    log,
		DB:     database,
		Routes: registerRoutes,
	})

	// Start the HTTP server in a background goroutine so the main goroutine
	// can wait for OS signals.
	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":    cfg.HTTP.Addr,
			"env":     cfg.Env,
			"version": build.Version,
			"commit":  build.Commit,
		}).Info("starting")
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown_error")
			return
		}
		log.Info("shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("server_error")
			_ = database.Close()
			os.Exit(1)
		}
	}
}

// registerRoutes mounts the API route groups under /api/v1. The service
// ships without business routes; groups are added here as
// api.Route("/users", users.Routes(ic)).
func registerRoutes(api chi.Router, ic *server.Interceptor) {}
