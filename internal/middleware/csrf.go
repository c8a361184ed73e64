// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"net/http"
)

const (
	// CSRFCookieName holds the double-submit token. It is readable by
	// scripts so the page can copy it into hx-headers.
	CSRFCookieName = "ewed_csrf"
	// CSRFHeaderName carries the token on HTMX requests.
	CSRFHeaderName = "X-CSRF-Token"
	// CSRFFormField carries the token on plain form posts.
	CSRFFormField = "csrf_token"

	csrfKey contextKey = "csrf_token"

	csrfRejected = "Your session has expired. Reload the page and try again."
)

// NewCSRF returns double-submit cookie protection. Every request gets a
// token cookie (and the token in its context for templates); unsafe
// methods must echo it back in CSRFHeaderName or CSRFFormField.
func NewCSRF(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(CSRFCookieName); err == nil {
				token = c.Value
			}
			if token == "" {
				token = rand.Text()
				http.SetCookie(w, &http.Cookie{
					Name:     CSRFCookieName,
					Value:    token,
					Path:     "/",
					Secure:   secure,
					SameSite: http.SameSiteStrictMode,
				})
			}
			r = r.WithContext(context.WithValue(r.Context(), csrfKey, token))

			if safeMethod(r.Method) || validCSRF(r, token) {
				next.ServeHTTP(w, r)
				return
			}
			refuse(w, r, http.StatusForbidden, csrfRejected)
		})
	}
}

func safeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}

// validCSRF compares the submitted token with the cookie. The header is
// checked first so HTMX photo uploads skip form parsing here.
func validCSRF(r *http.Request, token string) bool {
	submitted := r.Header.Get(CSRFHeaderName)
	if submitted == "" {
		submitted = r.PostFormValue(CSRFFormField)
	}
	return submitted != "" && subtle.ConstantTimeCompare([]byte(token), []byte(submitted)) == 1
}

// CSRFTokenFromCtx returns the token NewCSRF placed in ctx, or "".
func CSRFTokenFromCtx(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey).(string)
	return token
}
