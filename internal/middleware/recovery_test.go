// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecovererPanicValues(t *testing.T) {
	values := []any{"template exploded", 42, errors.New("nil map"), fmt.Errorf("wrapped: %w", errors.New("inner"))}

	for _, v := range values {
		t.Run(fmt.Sprint(v), func(t *testing.T) {
			buf := captureLogs(t)
			rr := httptest.NewRecorder()
			Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(v)
			})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/certificate/print", nil))

			if rr.Code != http.StatusInternalServerError {
				t.Errorf("status: got %d, want 500", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), "Something went wrong") {
				t.Errorf("body: %q", rr.Body.String())
			}

			rec := lastRecord(t, buf)
			if rec["msg"] != "panic recovered" || rec["path"] != "/certificate/print" {
				t.Errorf("log record: %v", rec)
			}
			if stack, _ := rec["stack"].(string); !strings.Contains(stack, "goroutine") {
				t.Error("stack trace missing from log")
			}
		})
	}
}

func TestRecovererHTMXFragment(t *testing.T) {
	captureLogs(t)
	req := httptest.NewRequest(http.MethodPost, "/certificate/generate", nil)
	req.Header.Set("HX-Request", "true")
	rr := httptest.NewRecorder()

	Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("orchestrator bug")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d", rr.Code)
	}
	h := rr.Header()
	if h.Get("HX-Retarget") != "#flash" || h.Get("HX-Reswap") != "outerHTML" {
		t.Errorf("htmx headers: %v", h)
	}
	if !strings.HasPrefix(h.Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type: %q", h.Get("Content-Type"))
	}
	if !strings.Contains(rr.Body.String(), `class="flash flash-error"`) {
		t.Errorf("body: %q", rr.Body.String())
	}
}

func TestRecovererReraisesAbort(t *testing.T) {
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", rec)
		}
	}()
	Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	t.Error("ErrAbortHandler should propagate")
}

func TestRecovererPassThrough(t *testing.T) {
	rr := httptest.NewRecorder()
	Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fine"))
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "fine" {
		t.Errorf("got %d %q", rr.Code, rr.Body.String())
	}
}

func TestRefuseEscapesMessage(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("HX-Request", "true")
	rr := httptest.NewRecorder()
	refuse(rr, req, http.StatusForbidden, `<script>alert("x")</script>`)
	if strings.Contains(rr.Body.String(), "<script>") {
		t.Errorf("message not escaped: %q", rr.Body.String())
	}
}
