// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package export turns a certificate into a downloadable PNG. The standalone
// certificate view is rendered to HTML, rasterized at twice the CSS pixel
// density on a white background, and cached by the hash of the HTML so an
// unchanged certificate always downloads the same bytes.
package export

import (
	"context"
	"errors"
	"fmt"

	"ewed/internal/cache"
	"ewed/internal/certificate"
)

// Filename is the name offered to the browser for every download.
const Filename = "e-wed-certificate.png"

// ErrNoRasterizer is returned when no headless browser is available.
var ErrNoRasterizer = errors.New("export: no rasterizer configured")

// MsgExportFailed is shown when the export cannot be produced.
const MsgExportFailed = "Failed to export the certificate. Please try again."

// ViewRenderer renders the standalone certificate view.
type ViewRenderer interface {
	ExportView(rec certificate.Record) ([]byte, error)
}

// Rasterizer converts an HTML document to a PNG of its #certificate element.
type Rasterizer interface {
	Rasterize(ctx context.Context, html []byte) ([]byte, error)
}

// Cache stores finished exports.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, png []byte)
}

// Exporter produces certificate PNGs.
type Exporter struct {
	views  ViewRenderer
	raster Rasterizer
	cache  Cache
}

// New creates an exporter. raster may be nil, in which case Export returns
// ErrNoRasterizer; cache may be nil to disable caching.
func New(views ViewRenderer, raster Rasterizer, c Cache) *Exporter {
	return &Exporter{views: views, raster: raster, cache: c}
}

// Available reports whether exports can be produced.
func (e *Exporter) Available() bool {
	return e != nil && e.raster != nil
}

// Export renders rec and returns PNG bytes.
func (e *Exporter) Export(ctx context.Context, rec certificate.Record) ([]byte, error) {
	if !e.Available() {
		return nil, ErrNoRasterizer
	}

	html, err := e.views.ExportView(rec)
	if err != nil {
		return nil, fmt.Errorf("export: render view: %w", err)
	}

	key := cache.ExportKey(html)
	if e.cache != nil {
		if png, ok := e.cache.Get(ctx, key); ok {
			return png, nil
		}
	}

	png, err := e.raster.Rasterize(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("export: rasterize: %w", err)
	}

	if e.cache != nil {
		e.cache.Set(ctx, key, png)
	}
	return png, nil
}
