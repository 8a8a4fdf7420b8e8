package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

const (
	defaultCORSOrigin = "http://localhost:3000"
	// Must match auth.SecretKeyHeader; auth depends on api, which uses this package.
	secretKeyHeader = "X-Secret-Key"
)

// CORS lets browser clients on allowedOrigins call the memory routes. Callers
// authenticate with the secret key header, never with cookies, so
// credentialed requests are not allowed.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(corsOptions(allowedOrigins))
}

func corsOptions(allowedOrigins []string) cors.Options {
	origins := make([]string, 0, len(allowedOrigins))
	for _, o := range allowedOrigins {
		// Browsers send Origin without a trailing slash.
		if o = strings.TrimRight(o, "/"); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{defaultCORSOrigin}
	}

	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader, secretKeyHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         600,
	}
}
