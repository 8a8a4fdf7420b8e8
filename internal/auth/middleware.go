package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/aiox-platform/recall/internal/api"
	"github.com/aiox-platform/recall/internal/metrics"
)

// SecretKeyHeader carries the shared secret on protected requests.
const SecretKeyHeader = "X-Secret-Key"

// ProtectedPrefixes are the path prefixes that require the shared secret.
var ProtectedPrefixes = []string{
	"/get_memories",
	"/add_memory",
	"/delete_memories",
	"/get_memory",
	"/update_memory",
	"/delete_memory",
	"/search_memories",
	"/memory_history",
}

// Middleware rejects requests to protected paths whose X-Secret-Key header
// does not match secret. Other paths pass through untouched.
func Middleware(secret string, prefixes []string) func(http.Handler) http.Handler {
	want := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isProtected(r.URL.Path, prefixes) {
				next.ServeHTTP(w, r)
				return
			}

			got := []byte(r.Header.Get(SecretKeyHeader))
			if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
				metrics.AuthRejectionsTotal.Inc()
				api.HandleError(w, api.ErrInvalidSecretKey)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isProtected(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
