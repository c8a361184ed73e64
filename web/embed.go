// Package web provides embedded static assets (CSS, JS) for the certificate
// pages, served at /static/. Certificate styles themselves are inlined by
// the templates so the print and export views stand alone.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree.
//
//go:embed all:static
var StaticFS embed.FS
