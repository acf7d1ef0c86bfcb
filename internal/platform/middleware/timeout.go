package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds request handling with a context deadline. Handlers and
// stores observe the deadline through ctx; the transport connection
// lifecycle itself is out of scope.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
