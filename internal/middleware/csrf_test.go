// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// csrfEcho replies with the token the middleware put in the context.
func csrfEcho() http.Handler {
	return NewCSRF(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(CSRFTokenFromCtx(r.Context())))
	}))
}

// issueToken performs a GET and returns the cookie handed out.
func issueToken(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	for _, c := range rr.Result().Cookies() {
		if c.Name == CSRFCookieName {
			if rr.Body.String() != c.Value {
				t.Fatalf("context token %q differs from cookie %q", rr.Body.String(), c.Value)
			}
			return c
		}
	}
	t.Fatal("no CSRF cookie issued")
	return nil
}

func TestCSRFCookieAttributes(t *testing.T) {
	for _, secure := range []bool{true, false} {
		rr := httptest.NewRecorder()
		NewCSRF(secure)(http.NotFoundHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		cookies := rr.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != CSRFCookieName {
			t.Fatalf("secure=%v: cookies %v", secure, cookies)
		}
		c := cookies[0]
		if c.Secure != secure || c.SameSite != http.SameSiteStrictMode || c.HttpOnly {
			t.Errorf("secure=%v: got Secure=%v SameSite=%v HttpOnly=%v", secure, c.Secure, c.SameSite, c.HttpOnly)
		}
		if len(c.Value) < 20 {
			t.Errorf("token %q looks too short", c.Value)
		}
	}
}

func TestCSRFKeepsExistingToken(t *testing.T) {
	h := csrfEcho()
	cookie := issueToken(t, h)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if len(rr.Result().Cookies()) != 0 {
		t.Error("a browser with a token should not get a new cookie")
	}
	if rr.Body.String() != cookie.Value {
		t.Errorf("context token: got %q, want %q", rr.Body.String(), cookie.Value)
	}
}

func TestCSRFUnsafeMethods(t *testing.T) {
	h := csrfEcho()
	cookie := issueToken(t, h)

	tests := []struct {
		name   string
		method string
		header string
		form   string
		want   int
	}{
		{"header token", http.MethodPost, cookie.Value, "", http.StatusOK},
		{"form token", http.MethodPost, "", cookie.Value, http.StatusOK},
		{"delete with header", http.MethodDelete, cookie.Value, "", http.StatusOK},
		{"missing token", http.MethodPost, "", "", http.StatusForbidden},
		{"wrong header", http.MethodPost, "forged", "", http.StatusForbidden},
		{"wrong form", http.MethodPut, "", "forged", http.StatusForbidden},
		{"token prefix", http.MethodPatch, cookie.Value[:10], "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *strings.Reader
			if tt.form != "" {
				body = strings.NewReader(url.Values{CSRFFormField: {tt.form}}.Encode())
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(tt.method, "/certificate/fields", body)
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.header != "" {
				req.Header.Set(CSRFHeaderName, tt.header)
			}
			req.AddCookie(cookie)

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("got %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestCSRFRejectsWithoutCookie(t *testing.T) {
	// A fresh browser gets a new token, which the forged header cannot match.
	req := httptest.NewRequest(http.MethodPost, "/certificate/generate", nil)
	req.Header.Set(CSRFHeaderName, "guessed")
	rr := httptest.NewRecorder()
	csrfEcho().ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("got %d, want 403", rr.Code)
	}
}

func TestCSRFRejectionForHTMX(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/certificate/generate", nil)
	req.Header.Set("HX-Request", "true")
	rr := httptest.NewRecorder()
	csrfEcho().ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("got %d, want 403", rr.Code)
	}
	if rr.Header().Get("HX-Retarget") != "#flash" {
		t.Errorf("HX-Retarget: got %q", rr.Header().Get("HX-Retarget"))
	}
	if !strings.Contains(rr.Body.String(), "session has expired") {
		t.Errorf("body: %q", rr.Body.String())
	}
}

func TestCSRFTokenFromCtxOutsideMiddleware(t *testing.T) {
	if got := CSRFTokenFromCtx(httptest.NewRequest(http.MethodGet, "/", nil).Context()); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
