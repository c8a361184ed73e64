// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"strings"
)

// ContentSecurityPolicy builds the policy for the certificate pages.
// Photos arrive as data URIs, placeholder URLs or object storage URLs, so
// extra image hosts (e.g. the S3 public URL) can be added.
func ContentSecurityPolicy(imgHosts ...string) string {
	img := []string{"'self'", "data:", "https://picsum.photos", "https://fastly.picsum.photos"}
	for _, h := range imgHosts {
		if h = strings.TrimRight(strings.TrimSpace(h), "/"); h != "" {
			img = append(img, h)
		}
	}
	return strings.Join([]string{
		"default-src 'self'",
		"img-src " + strings.Join(img, " "),
		"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com",
		"font-src 'self' https://fonts.gstatic.com",
		"script-src 'self' https://unpkg.com",
		"frame-ancestors 'self'",
	}, "; ")
}

// SecureHeaders adds security-related HTTP headers to every response.
// These headers protect against common web vulnerabilities like clickjacking,
// MIME-sniffing, and information leakage. An empty csp omits the
// Content-Security-Policy header.
func SecureHeaders(csp string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()

			// Prevent the browser from MIME-sniffing the Content-Type.
			h.Set("X-Content-Type-Options", "nosniff")

			// Prevent embedding in iframes from other origins (clickjacking).
			h.Set("X-Frame-Options", "SAMEORIGIN")

			// Disable the legacy XSS filter (can cause issues; CSP is preferred).
			h.Set("X-XSS-Protection", "0")

			// Control what information is sent in the Referer header.
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// No camera, microphone or location; the photo comes from a file input.
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), interest-cohort=()")

			if csp != "" {
				h.Set("Content-Security-Policy", csp)
			}

			next.ServeHTTP(w, r)
		})
	}
}
