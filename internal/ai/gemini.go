// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// geminiProvider implements Provider and ImageGenerator on top of the
// Google Gen AI SDK (Gemini Developer API backend).
type geminiProvider struct {
	config ProviderConfig
	client *genai.Client
}

// newGemini creates a new Google Gemini provider.
func newGemini(cfg ProviderConfig) (*geminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}

	timeout := 120 * time.Second
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
			Timeout: &timeout,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &geminiProvider{config: cfg, client: client}, nil
}

func (p *geminiProvider) Name() string { return "gemini" }

// Generate sends a generateContent request with the persona as system instruction.
func (p *geminiProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var cfg *genai.GenerateContentConfig
	if systemPrompt != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.config.Model, genai.Text(userPrompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini: no text in response")
	}
	return text, nil
}

// CanGenerateImages reports whether an image model is configured.
func (p *geminiProvider) CanGenerateImages() bool {
	return p.config.ModelImage != ""
}

// GenerateImage creates an image using Gemini's native generateContent API
// with IMAGE in the response modalities. Uses ModelImage from config
// (e.g., "gemini-2.5-flash-image").
func (p *geminiProvider) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	model := p.config.ModelImage
	if model == "" {
		return nil, "", fmt.Errorf("gemini: image generation requires GEMINI_MODEL_IMAGE to be set")
	}

	resp, err := p.client.Models.GenerateContent(ctx, model,
		genai.Text("Generate an image of: "+prompt),
		&genai.GenerateContentConfig{
			ResponseModalities: []string{string(genai.ModalityImage), string(genai.ModalityText)},
		},
	)
	if err != nil {
		return nil, "", fmt.Errorf("gemini image generate: %w", err)
	}

	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			contentType := part.InlineData.MIMEType
			if contentType == "" {
				contentType = "image/png"
			}
			return part.InlineData.Data, contentType, nil
		}
	}

	return nil, "", fmt.Errorf("gemini image: no image data in response")
}
