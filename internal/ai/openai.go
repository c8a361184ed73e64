// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// openAIProvider speaks the chat completions API (POST /chat/completions)
// and, for OpenAI itself, the images API (POST /images/generations).
// Mistral serves the same chat API under its own name and base URL.
type openAIProvider struct {
	name      string
	config    ProviderConfig
	client    *http.Client
	imgClient *http.Client
}

func newChatCompletions(name, defaultBaseURL string, cfg ProviderConfig) *openAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &openAIProvider{
		name:      name,
		config:    cfg,
		client:    &http.Client{Timeout: 60 * time.Second},
		imgClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func newOpenAI(cfg ProviderConfig) *openAIProvider {
	return newChatCompletions("openai", "https://api.openai.com/v1", cfg)
}

// newMistral has no image model; Mistral's API does not draw.
func newMistral(cfg ProviderConfig) *openAIProvider {
	cfg.ModelImage = ""
	return newChatCompletions("mistral", "https://api.mistral.ai/v1", cfg)
}

func (p *openAIProvider) Name() string { return p.name }

// Generate returns the first choice of a system+user chat completion.
func (p *openAIProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body := openAIRequest{
		Model: p.config.Model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	var result openAIResponse
	if err := postJSON(ctx, p.client, p.name, p.config.BaseURL+"/chat/completions", bearer(p.config.APIKey), body, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices returned", p.name)
	}
	return result.Choices[0].Message.Content, nil
}

// CanGenerateImages reports whether an image model is configured.
func (p *openAIProvider) CanGenerateImages() bool {
	return p.config.ModelImage != ""
}

// GenerateImage creates a single square image with the configured image
// model (e.g., "dall-e-3" or "gpt-image-1") and returns PNG bytes.
func (p *openAIProvider) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	model := p.config.ModelImage
	if model == "" {
		return nil, "", fmt.Errorf("%s: no image model configured", p.name)
	}

	body := openAIImageRequest{
		Model:  model,
		Prompt: prompt,
		N:      1,
		Size:   "1024x1024",
	}
	// DALL-E models return URLs unless asked for base64; gpt-image models
	// always return base64 and reject the parameter.
	if strings.HasPrefix(model, "dall-e") {
		body.ResponseFormat = "b64_json"
	}

	var result openAIImageResponse
	if err := postJSON(ctx, p.imgClient, "openai image", p.config.BaseURL+"/images/generations", bearer(p.config.APIKey), body, &result); err != nil {
		return nil, "", err
	}

	if len(result.Data) == 0 || result.Data[0].B64JSON == "" {
		return nil, "", errors.New("openai image: no image data in response")
	}

	imgBytes, err := base64.StdEncoding.DecodeString(result.Data[0].B64JSON)
	if err != nil {
		return nil, "", fmt.Errorf("openai image decode base64: %w", err)
	}
	return imgBytes, "image/png", nil
}

// --- Chat completions types (OpenAI and Mistral) ---

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
}

type openAIChoice struct {
	Message openAIMessage `json:"message"`
}

// --- OpenAI images API types ---

type openAIImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type openAIImageData struct {
	B64JSON string `json:"b64_json"`
}

type openAIImageResponse struct {
	Data []openAIImageData `json:"data"`
}
