// Package apperror defines the failures a handler may return to the
// top-level interceptor. The set is closed: Validation, Authorization and
// Generic are the only implementations of Failure.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Failure is a classified handler error.
type Failure interface {
	error
	failure()
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validation reports rejected client input. Details are sent to the client.
type Validation struct {
	Message string
	Details []FieldError
}

// NewValidation returns a validation failure. Details is never nil so it
// always encodes as a JSON array.
func NewValidation(message string, details ...FieldError) *Validation {
	if details == nil {
		details = []FieldError{}
	}
	return &Validation{Message: message, Details: details}
}

func (v *Validation) Error() string {
	if v.Message != "" {
		return v.Message
	}
	parts := make([]string, 0, len(v.Details))
	for _, d := range v.Details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	if len(parts) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (*Validation) failure() {}

// Authorization reports a missing, malformed or expired credential.
// Reason and Cause are for logs only and never reach the client.
type Authorization struct {
	Reason string
	Cause  error
}

// Unauthorized returns an authorization failure with a log-only reason.
func Unauthorized(reason string) *Authorization {
	return &Authorization{Reason: reason}
}

// InvalidToken wraps a credential parsing or verification error.
func InvalidToken(cause error) *Authorization {
	return &Authorization{Reason: "invalid token", Cause: cause}
}

func (a *Authorization) Error() string {
	msg := "unauthorized"
	if a.Reason != "" {
		msg += ": " + a.Reason
	}
	if a.Cause != nil {
		msg += ": " + a.Cause.Error()
	}
	return msg
}

func (a *Authorization) Unwrap() error { return a.Cause }

func (*Authorization) failure() {}

// Generic is any other failure, optionally carrying the HTTP status it
// should be reported with.
type Generic struct {
	Status  int
	Message string
	cause   error
}

// New returns a generic failure with a stack trace recorded at the call site.
func New(status int, message string) *Generic {
	return &Generic{Status: status, Message: message, cause: pkgerrors.New(message)}
}

// Wrap attaches a status and message to err. An empty message keeps err's
// text. Wrap returns nil if err is nil.
func Wrap(err error, status int, message string) error {
	if err == nil {
		return nil
	}
	if message == "" {
		message = err.Error()
	}
	return &Generic{Status: status, Message: message, cause: pkgerrors.WithStack(err)}
}

func (g *Generic) Error() string {
	switch {
	case g.Message != "":
		return g.Message
	case g.cause != nil:
		return g.cause.Error()
	default:
		return http.StatusText(g.StatusCode())
	}
}

func (g *Generic) Unwrap() error { return g.cause }

// StatusCode returns the declared status, or 500 when none was declared or
// the declared value is not an error status.
func (g *Generic) StatusCode() int {
	if g.Status >= 400 && g.Status <= 599 {
		return g.Status
	}
	return http.StatusInternalServerError
}

func (*Generic) failure() {}

// Classify maps err onto the closed Failure set. Validation wins over
// Authorization, and both win over Generic, so an error chain carrying
// several kinds gets the most specific diagnosis.
func Classify(err error) Failure {
	if err == nil {
		return nil
	}

	var v *Validation
	if errors.As(err, &v) {
		return v
	}
	var a *Authorization
	if errors.As(err, &a) {
		return a
	}
	var g *Generic
	if errors.As(err, &g) {
		return g
	}

	return &Generic{Message: err.Error(), cause: pkgerrors.WithStack(err)}
}

// Diagnostic renders the failure's stack trace for non-production responses.
func Diagnostic(f Failure) map[string]any {
	var cause error = f
	if g, ok := f.(*Generic); ok && g.cause != nil {
		cause = g.cause
	}
	if _, ok := cause.(interface{ StackTrace() pkgerrors.StackTrace }); !ok {
		cause = pkgerrors.WithStack(cause)
	}
	return map[string]any{"stack": fmt.Sprintf("%+v", cause)}
}
