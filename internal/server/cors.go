package server

import (
	"net/http"

	"github.com/rs/cors"
)

// corsMiddleware allows the configured origins with credentials. An empty
// list or "*" allows every origin. Preflights are answered with 200.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPut,
			http.MethodPatch, http.MethodPost, http.MethodDelete,
		},
		AllowedHeaders:       []string{"*"},
		ExposedHeaders:       []string{HeaderRequestID},
		AllowCredentials:     true,
		OptionsSuccessStatus: http.StatusOK,
	})
	return c.Handler
}
