// Package response writes every HTTP response body in one envelope shape:
//
//	{"success": bool, "data": any|null, "message": string}
//
// Zero-valued message and status arguments select the documented defaults.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

const (
	DefaultSuccessMessage      = "Success"
	DefaultErrorMessage        = "Internal Server Error"
	DefaultValidationMessage   = "Validation Error"
	DefaultNotFoundMessage     = "Resource not found"
	DefaultUnauthorizedMessage = "Unauthorized access"
	DefaultForbiddenMessage    = "Forbidden"
)

// Envelope is the JSON body of every response. Field order is fixed and no
// field is omitted.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

// Logger receives encode failures. It defaults to the logrus standard logger.
var Logger logrus.FieldLogger = logrus.StandardLogger()

// Success writes a success envelope. Status must be 2xx, otherwise 200 is used.
func Success(w http.ResponseWriter, data any, message string, status int) {
	if message == "" {
		message = DefaultSuccessMessage
	}
	if status < 200 || status > 299 {
		status = http.StatusOK
	}
	write(w, status, Envelope{Success: true, Data: data, Message: message})
}

// Error writes a failure envelope. Status must be at least 400, otherwise
// 500 is used.
func Error(w http.ResponseWriter, message string, status int, data any) {
	if message == "" {
		message = DefaultErrorMessage
	}
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}
	write(w, status, Envelope{Success: false, Data: data, Message: message})
}

// ValidationError writes a 400 with errors as the data payload.
func ValidationError(w http.ResponseWriter, errors any, message string) {
	if message == "" {
		message = DefaultValidationMessage
	}
	write(w, http.StatusBadRequest, Envelope{Success: false, Data: errors, Message: message})
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = DefaultNotFoundMessage
	}
	write(w, http.StatusNotFound, Envelope{Message: message})
}

// Unauthorized writes a 401.
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = DefaultUnauthorizedMessage
	}
	write(w, http.StatusUnauthorized, Envelope{Message: message})
}

// Forbidden writes a 403.
func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = DefaultForbiddenMessage
	}
	write(w, http.StatusForbidden, Envelope{Message: message})
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		Logger.WithError(err).WithField("status", status).Error("response: encode envelope failed")
	}
}
