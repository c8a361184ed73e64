// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"
	"log/slog"

	"ewed/internal/ai"
	"ewed/internal/certificate"
	"ewed/internal/config"
	"ewed/internal/export"
	"ewed/internal/media"
	"ewed/internal/persona"
	"ewed/internal/render"
	"ewed/internal/storage"
)

// app holds the components shared by the server and the CLI commands.
type app struct {
	cfg          *config.Config
	persona      *persona.Persona
	storage      *storage.Client // nil without object storage
	publisher    media.Publisher
	orchestrator *certificate.Orchestrator
	renderer     *render.Renderer
	chrome       *export.Chrome // nil when export is off or no browser is found
}

// newApp loads the configuration and builds everything that does not need
// Valkey.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	slog.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr())

	p, err := persona.Load(cfg.PersonaFile)
	if err != nil {
		return nil, err
	}
	slog.Info("persona loaded", "name", p.Name)

	a := &app{cfg: cfg, persona: p, publisher: media.DataURIPublisher{}}

	// Object storage is optional; images are inlined as data URIs without it.
	a.storage, err = storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		return nil, fmt.Errorf("initialize s3 storage: %w", err)
	}
	if a.storage != nil {
		a.publisher = a.storage
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, images are embedded as data URIs")
	}

	registry := ai.NewRegistry(cfg.AIProvider, cfg.AIImageProvider, cfg.ProviderConfigs())
	slog.Info("ai providers initialized",
		"text", registry.ActiveName(),
		"image", registry.ImageName(),
		"available", registry.Available(),
	)

	gens := certificate.NewGenerators(registry, p, a.publisher, cfg.MockDelay)
	a.orchestrator = certificate.NewOrchestrator(gens.Text, gens.Portrait, cfg.Validation())

	a.renderer, err = render.New(p, cfg.S3PublicURL, cfg.S3Endpoint)
	if err != nil {
		return nil, fmt.Errorf("initialize template renderer: %w", err)
	}

	if cfg.ExportEnabled {
		a.chrome, err = export.NewChrome(cfg.ChromeBin)
		if err != nil {
			slog.Warn("png export disabled", "error", err)
			a.chrome = nil
		}
	}

	return a, nil
}

// exporter builds the PNG exporter over c. c may be nil.
func (a *app) exporter(c export.Cache) *export.Exporter {
	var raster export.Rasterizer
	if a.chrome != nil {
		raster = a.chrome
	}
	return export.New(a.renderer, raster, c)
}

// close releases the headless browser.
func (a *app) close() {
	if a.chrome == nil {
		return
	}
	if err := a.chrome.Close(); err != nil {
		slog.Warn("close chrome", "error", err)
	}
}
