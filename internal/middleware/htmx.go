// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"html/template"
	"net/http"
)

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// refuse ends a request with status. HTMX requests get msg as a fragment
// swapped into the page's #flash area so the certificate stays on screen;
// everything else gets a plain-text error.
func refuse(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if !isHTMX(r) {
		http.Error(w, msg, status)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("HX-Retarget", "#flash")
	h.Set("HX-Reswap", "outerHTML")
	w.WriteHeader(status)
	w.Write([]byte(`<div id="flash" class="flash flash-error" role="alert">` + template.HTMLEscapeString(msg) + `</div>`))
}
