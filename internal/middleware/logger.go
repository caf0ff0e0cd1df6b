package middleware

import (
	"net/http"

	"app/internal/logger"

	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation id back to clients.
const RequestIDHeader = "X-Request-Id"

// LoggerMiddleware assigns each request a correlation id and logs it.
func LoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r)

		log := logger.New()
		log.Debug().Str("request_id", requestID).Msgf("%s %s", r.Method, r.URL.RequestURI())
	})
}
