// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"fmt"
)

// ImageGenerator is an optional interface that AI providers can implement
// to support image generation. Not all providers have this capability
// (e.g., Claude and Mistral are text-only).
type ImageGenerator interface {
	// GenerateImage creates an image from a text prompt. Returns the raw
	// image bytes and the MIME content type (e.g., "image/png").
	GenerateImage(ctx context.Context, prompt string) ([]byte, string, error)
}

// imageCapable lets a provider that implements ImageGenerator report that
// it has no image model configured.
type imageCapable interface {
	CanGenerateImages() bool
}

// imageProvider returns the provider selected for images.
func (r *Registry) imageProvider() (ImageGenerator, string, error) {
	r.mu.RLock()
	name := r.image
	p, ok := r.providers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, name, fmt.Errorf("ai: no image provider configured for %q", name)
	}
	ig, ok := p.(ImageGenerator)
	if !ok {
		return nil, name, fmt.Errorf("ai: provider %q does not support image generation", name)
	}
	if c, ok := p.(imageCapable); ok && !c.CanGenerateImages() {
		return nil, name, fmt.Errorf("ai: provider %q has no image model configured", name)
	}
	return ig, name, nil
}

// GenerateImage calls the image provider's generation if supported.
func (r *Registry) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	ig, _, err := r.imageProvider()
	if err != nil {
		return nil, "", err
	}
	return ig.GenerateImage(ctx, prompt)
}

// SupportsImageGeneration returns true if the image provider can generate images.
func (r *Registry) SupportsImageGeneration() bool {
	_, _, err := r.imageProvider()
	return err == nil
}
