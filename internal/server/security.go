// security.go - Security response headers.
package server

import "net/http"

const contentSecurityPolicy = "default-src 'self'; " +
	"base-uri 'self'; " +
	"font-src 'self' https: data:; " +
	"form-action 'self'; " +
	"frame-ancestors 'none'; " +
	"img-src 'self' data:; " +
	"object-src 'none'; " +
	"script-src 'self'; " +
	"script-src-attr 'none'; " +
	"style-src 'self' https: 'unsafe-inline'; " +
	"upgrade-insecure-requests"

// securityHeadersMiddleware adds security headers to all responses.
// HSTS is only sent in production, where TLS is expected in front of us.
func securityHeadersMiddleware(production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()

			// Prevent clickjacking
			h.Set("X-Frame-Options", "DENY")

			// Prevent MIME sniffing
			h.Set("X-Content-Type-Options", "nosniff")

			// Legacy XSS auditors do more harm than good
			h.Set("X-XSS-Protection", "0")

			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Content-Security-Policy", contentSecurityPolicy)
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			h.Set("Cross-Origin-Resource-Policy", "same-origin")
			h.Set("Origin-Agent-Cluster", "?1")
			h.Set("X-DNS-Prefetch-Control", "off")
			h.Set("X-Download-Options", "noopen")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")

			// Permissions Policy - disable unused browser features
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

			if production {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			h.Del("X-Powered-By")

			next.ServeHTTP(w, r)
		})
	}
}
