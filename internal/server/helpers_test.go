package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"service-bootstrap/internal/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fakeDB struct {
	err error
}

func (f fakeDB) Ping(context.Context) error { return f.err }
func (f fakeDB) SQL() *sql.DB               { return nil }

type testOpts struct {
	mutate func(*config.Config)
	routes func(api chi.Router, ic *Interceptor)
	db     Database
}

func newTestHandler(t *testing.T, opts testOpts) http.Handler {
	t.Helper()
	app := config.Default()
	if opts.mutate != nil {
		opts.mutate(&app)
	}
	return New(Config{
		App:    app,
		Log:    quietLogger(),
		DB:     opts.db,
		Routes: opts.routes,
		Build:  BuildInfo{Version: "test", Commit: "abc123"},
	}).Handler()
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}
