package middleware

import (
	"log/slog"
	"net/http"

	"github.com/wordrill/wordrill-api/internal/api/shared"
	"github.com/wordrill/wordrill-api/internal/platform/logger"
)

// TraceMiddleware assigns a trace ID to each request and attaches a
// request-scoped logger carrying it to the request context. Downstream
// handlers retrieve the logger with logger.FromContext so every log line
// for a request shares the same trace_id.
func TraceMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())
			traceID := shared.GetTraceID(ctx)

			requestLogger := slog.Default().With(
				slog.String("trace_id", traceID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			ctx = logger.WithLogger(ctx, requestLogger)

			w.Header().Set("X-Trace-ID", traceID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
