package middleware

import (
	"context"
	"net/http"
	"time"
)

const timeoutBody = `{"success":false,"error":{"code":"TIMEOUT","message":"Request timed out"}}`

// Timeout bounds each request with a deadline on its context and cuts off
// the response once the deadline passes. The card charge path holds an open
// call to the payment provider, so this must exceed the gateway timeout.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		wrapped := http.TimeoutHandler(next, timeout, timeoutBody)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			wrapped.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
