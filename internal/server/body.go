package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"service-bootstrap/internal/apperror"
)

const entityTooLargeMessage = "request entity too large"

// bodyLimitMiddleware caps every request body at limit bytes.
func bodyLimitMiddleware(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DecodeJSON decodes a single JSON value from the request body into dst.
// Malformed input becomes a validation failure and an oversized body a 413.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if tooLarge(err) {
			return apperror.Wrap(err, http.StatusRequestEntityTooLarge, entityTooLargeMessage)
		}
		return apperror.NewValidation("Invalid JSON body",
			apperror.FieldError{Field: "body", Message: "must contain a single JSON value"})
	}
	return nil
}

// DecodeForm parses a urlencoded body and returns the merged form values.
func DecodeForm(r *http.Request) (url.Values, error) {
	if err := r.ParseForm(); err != nil {
		if tooLarge(err) {
			return nil, apperror.Wrap(err, http.StatusRequestEntityTooLarge, entityTooLargeMessage)
		}
		return nil, apperror.NewValidation("Invalid form body",
			apperror.FieldError{Field: "body", Message: err.Error()})
	}
	return r.Form, nil
}

func decodeError(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)

	switch {
	case tooLarge(err):
		return apperror.Wrap(err, http.StatusRequestEntityTooLarge, entityTooLargeMessage)
	case errors.Is(err, io.EOF):
		return apperror.NewValidation("Invalid JSON body",
			apperror.FieldError{Field: "body", Message: "is required"})
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return apperror.NewValidation("Invalid JSON body",
			apperror.FieldError{Field: "body", Message: "is not valid JSON"})
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return apperror.NewValidation("Invalid JSON body",
			apperror.FieldError{Field: field, Message: "must be of type " + typeErr.Type.String()})
	default:
		return apperror.NewValidation("Invalid JSON body",
			apperror.FieldError{Field: "body", Message: err.Error()})
	}
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
