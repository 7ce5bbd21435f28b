package middleware

import (
	"crypto/subtle"
	"net/http"
)

const apiKeyHeader = "X-API-Key"

// APIKeyMiddleware guards the admin surface. Role-level authorization happens
// in the services; this only keeps anonymous traffic out.
func APIKeyMiddleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(apiKeyHeader)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
