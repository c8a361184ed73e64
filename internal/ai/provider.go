// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ai talks to the hosted models that write the witness statement
// and draw the celebrity portrait. OpenAI, Gemini, Claude and Mistral all
// implement Provider; the ones that can draw also implement ImageGenerator.
// A Registry picks one provider for text and one for images at startup.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
)

// Provider generates text from a system and a user prompt.
type Provider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// Name is the identifier used in configuration, e.g. "claude".
	Name() string
}

// ProviderConfig holds the credentials and settings for a single provider.
type ProviderConfig struct {
	APIKey     string
	Model      string
	ModelImage string // image model; empty disables image generation for the provider
	BaseURL    string
}

// factories builds each known provider from its config.
var factories = map[string]func(ProviderConfig) (Provider, error){
	"openai":  func(c ProviderConfig) (Provider, error) { return newOpenAI(c), nil },
	"claude":  func(c ProviderConfig) (Provider, error) { return newClaude(c), nil },
	"mistral": func(c ProviderConfig) (Provider, error) { return newMistral(c), nil },
	"gemini": func(c ProviderConfig) (Provider, error) {
		p, err := newGemini(c)
		if err != nil {
			return nil, err
		}
		return p, nil
	},
}

// Registry holds the configured providers and the names selected for text
// and for images. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	active    string
	image     string
}

// NewRegistry builds a provider for every known name whose config has an
// API key; the rest are skipped. An empty imageActive asks the text
// provider for images too.
func NewRegistry(active, imageActive string, configs map[string]ProviderConfig) *Registry {
	if imageActive == "" {
		imageActive = active
	}
	r := &Registry{providers: make(map[string]Provider), active: active, image: imageActive}

	for name, cfg := range configs {
		build, known := factories[name]
		if !known || cfg.APIKey == "" {
			continue
		}
		p, err := build(cfg)
		if err != nil {
			slog.Warn("ai provider disabled", "provider", name, "error", err)
			continue
		}
		r.providers[name] = p
	}
	return r
}

// Generate asks the text provider.
func (r *Registry) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	p, err := r.Active()
	if err != nil {
		return "", err
	}
	return p.Generate(ctx, systemPrompt, userPrompt)
}

// Active returns the text provider.
func (r *Registry) Active() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.providers[r.active]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("ai: no provider configured for %q", r.active)
}

// ActiveName is the configured text provider name.
func (r *Registry) ActiveName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// ImageName is the configured image provider name.
func (r *Registry) ImageName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.image
}

// SupportsText reports whether the text provider is configured.
func (r *Registry) SupportsText() bool {
	_, err := r.Active()
	return err == nil
}

// Available lists the configured providers in name order.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.providers))
}

// Register adds or replaces a provider, e.g. a stub in tests.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// HasProvider reports whether name is configured.
func (r *Registry) HasProvider(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}
