// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// sessionKey is the context key for the browser's session ID.
	sessionKey contextKey = "session"
)

// SessionIdentifier hands out the per-browser session ID, setting the
// cookie when the browser has none. *session.Store satisfies it.
type SessionIdentifier interface {
	EnsureID(w http.ResponseWriter, r *http.Request) (string, error)
}

// LoadSession makes sure every request carries a session ID and stores it
// in the request context. Downstream handlers read it via SessionIDFromCtx.
func LoadSession(ids SessionIdentifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := ids.EnsureID(w, r)
			if err != nil {
				slog.Error("session id", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionIDFromCtx returns the session ID stored by LoadSession, or "".
func SessionIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}
