package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"service-bootstrap/internal/apperror"
	"service-bootstrap/internal/response"
)

// Client-facing messages for masked failures.
const (
	invalidTokenMessage = "Invalid or expired token"
	maskedErrorMessage  = "An error occurred"
)

// HandlerFunc is an HTTP handler with a single exit path: either it writes a
// success envelope and returns nil, or it returns an error and writes nothing.
// Returning nil without writing is answered with a 500 envelope.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Interceptor classifies failures that escape handlers and dispatches the
// matching error envelope. It holds no per-request state.
type Interceptor struct {
	production bool
	log        logrus.FieldLogger
}

// NewInterceptor returns an interceptor. In production, generic failure
// messages and diagnostics are masked.
func NewInterceptor(production bool, log logrus.FieldLogger) *Interceptor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Interceptor{production: production, log: log}
}

// Handle adapts fn to http.HandlerFunc, routing any returned error through
// HandleError.
func (ic *Interceptor) Handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		err := fn(ww, r)
		if err == nil {
			if ww.Status() == 0 {
				ic.requestLog(r).Error("handler returned without writing a response")
				ic.HandleError(ww, r, apperror.New(http.StatusInternalServerError, "no response written"))
			}
			return
		}
		if ww.Status() != 0 {
			// The response is already on the wire; a second envelope would corrupt it.
			ic.requestLog(r).WithError(err).Error("handler returned an error after writing a response")
			return
		}
		ic.HandleError(ww, r, err)
	}
}

// HandleError writes the error envelope for err.
func (ic *Interceptor) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	log := ic.requestLog(r).WithError(err)

	switch f := apperror.Classify(err).(type) {
	case *apperror.Validation:
		log.WithField("kind", "validation").Warn("request failed")
		details := f.Details
		if details == nil {
			details = []apperror.FieldError{}
		}
		response.ValidationError(w, details, f.Message)

	case *apperror.Authorization:
		log.WithField("kind", "authorization").Warn("request failed")
		response.Unauthorized(w, invalidTokenMessage)

	case *apperror.Generic:
		status := f.StatusCode()
		log.WithFields(logrus.Fields{
			"kind":   "generic",
			"status": status,
			"stack":  apperror.Diagnostic(f)["stack"],
		}).Error("request failed")
		if ic.production {
			response.Error(w, maskedErrorMessage, status, nil)
			return
		}
		response.Error(w, f.Error(), status, apperror.Diagnostic(f))

	default:
		log.Error("request failed with unclassified error")
		response.Error(w, maskedErrorMessage, http.StatusInternalServerError, nil)
	}
}

// NotFound answers every request no route matched.
func (ic *Interceptor) NotFound(w http.ResponseWriter, r *http.Request) {
	response.NotFound(w, fmt.Sprintf("Cannot %s %s", r.Method, r.URL.RequestURI()))
}

// Recoverer routes a panic in a downstream handler through HandleError.
// Non-error values and plain errors become 500 failures; classified failures
// keep their kind and status. http.ErrAbortHandler is re-panicked.
func (ic *Interceptor) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", rec)
			}
			if ww.Status() != 0 {
				ic.requestLog(r).WithError(err).Error("panic after response was written")
				return
			}
			// A panicked Generic keeps its declared status.
			if !errors.As(err, new(*apperror.Generic)) {
				err = apperror.Wrap(err, http.StatusInternalServerError, "")
			}
			ic.HandleError(ww, r, err)
		}()

		next.ServeHTTP(ww, r)
	})
}

func (ic *Interceptor) requestLog(r *http.Request) logrus.FieldLogger {
	return ic.log.WithFields(logrus.Fields{
		"request_id": RequestIDFromContext(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
	})
}
