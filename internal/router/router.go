// Package router sets up all HTTP routes and middleware chains for the
// E-Wed certificate generator.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"ewed/internal/handlers"
	"ewed/internal/middleware"
)

// Options configures the middleware stack.
type Options struct {
	// SecureCookies marks the session and CSRF cookies Secure.
	SecureCookies bool
	// CSP is the Content-Security-Policy header value; empty omits it.
	CSP string
	// Limiter throttles the expensive routes. Nil disables rate limiting.
	Limiter *middleware.RateLimiter
	// Static is served under /static/. Nil serves nothing.
	Static fs.FS
	// TrustProxy rewrites the remote address from the forwarding headers.
	// Without it they are ignored, so a client cannot pick its own rate
	// limit bucket.
	TrustProxy bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessions middleware.SessionIdentifier, cert *handlers.Certificate, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders(opts.CSP))

	// Health check: no session, no CSRF.
	r.Get("/health", healthHandler)

	if opts.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(opts.Static)))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.LoadSession(sessions))
		r.Use(middleware.NewCSRF(opts.SecureCookies))

		r.Get("/", cert.Index)

		r.Route("/certificate", func(r chi.Router) {
			r.Post("/fields", cert.Fields)
			r.Post("/reset", cert.Reset)
			r.Get("/print", cert.Print)

			// Routes that call the AI providers, decode uploads or start
			// the browser are rate limited.
			r.Group(func(r chi.Router) {
				if opts.Limiter != nil {
					r.Use(opts.Limiter.Middleware)
				}
				r.Post("/photo", cert.Photo)
				r.Post("/generate", cert.Generate)
				r.Get("/export", cert.Export)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
