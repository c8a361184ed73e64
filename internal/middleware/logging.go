// Package middleware provides the HTTP middleware of the E-Wed server:
// sessions, CSRF, rate limiting, security headers and request logging.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Logger logs one line per request. Server errors log at error level and
// slow requests (generation, export) at warn.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case elapsed > slowRequest:
			level = slog.LevelWarn
		}

		slog.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed.String(),
			"htmx", isHTMX(r),
			"request_id", chimw.GetReqID(r.Context()),
			"remote", clientIP(r),
		)
	})
}

// slowRequest is longer than any page render; only AI calls and the
// browser export should exceed it.
const slowRequest = 20 * time.Second
