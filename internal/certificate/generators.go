// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package certificate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ewed/internal/media"
	"ewed/internal/persona"
)

// TextGenerator writes the witness statement for a couple.
type TextGenerator interface {
	GenerateWitnessStatement(ctx context.Context, userName, celebrityName string) (string, error)
}

// PortraitGenerator produces an image reference (URL or data URI) for the
// celebrity's portrait.
type PortraitGenerator interface {
	GeneratePortrait(ctx context.Context, celebrityName string) (string, error)
}

// Models is the subset of the AI registry the live generators need.
type Models interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	GenerateImage(ctx context.Context, prompt string) ([]byte, string, error)
	SupportsText() bool
	SupportsImageGeneration() bool
}

// Generators is the pair of generators the orchestrator calls, resolved once
// at startup.
type Generators struct {
	Text         TextGenerator
	Portrait     PortraitGenerator
	MockText     bool
	MockPortrait bool
}

// NewGenerators picks a live or mock generator for each capability. A
// capability whose provider has no credential falls back to its mock.
func NewGenerators(models Models, p *persona.Persona, pub media.Publisher, mockDelay time.Duration) Generators {
	var g Generators

	if models != nil && models.SupportsText() {
		g.Text = &liveText{models: models, persona: p}
	} else {
		slog.Warn("no text provider configured, using mock witness statements")
		g.Text = &mockText{persona: p, delay: mockDelay}
		g.MockText = true
	}

	if models != nil && models.SupportsImageGeneration() {
		g.Portrait = &livePortrait{models: models, persona: p, publisher: pub}
	} else {
		slog.Warn("no image provider configured, using mock portraits")
		g.Portrait = &mockPortrait{delay: mockDelay}
		g.MockPortrait = true
	}

	return g
}

// upstreamError carries a message the page can show in place of the
// generic failure text.
type upstreamError struct {
	msg string
	err error
}

func (e *upstreamError) Error() string       { return e.err.Error() }
func (e *upstreamError) Unwrap() error       { return e.err }
func (e *upstreamError) UserMessage() string { return e.msg }

// --- live ---

type liveText struct {
	models  Models
	persona *persona.Persona
}

func (g *liveText) GenerateWitnessStatement(ctx context.Context, userName, celebrityName string) (string, error) {
	out, err := g.models.Generate(ctx, g.persona.SystemPrompt(), g.persona.StatementRequest(userName, celebrityName))
	if err != nil {
		return "", &upstreamError{msg: "Failed to get a statement from the shadows.", err: err}
	}
	out = strings.Trim(strings.TrimSpace(out), "\"“”")
	if out == "" {
		return "", &upstreamError{msg: "Failed to get a statement from the shadows.", err: fmt.Errorf("empty statement")}
	}
	return out, nil
}

type livePortrait struct {
	models    Models
	persona   *persona.Persona
	publisher media.Publisher
}

func (g *livePortrait) GeneratePortrait(ctx context.Context, celebrityName string) (string, error) {
	data, contentType, err := g.models.GenerateImage(ctx, g.persona.PortraitRequest(celebrityName))
	if err != nil {
		return "", &upstreamError{msg: "The portrait could not be developed. Please try again.", err: err}
	}
	ref, err := g.publisher.Publish(ctx, data, contentType, "portraits", celebrityName)
	if err != nil {
		return "", fmt.Errorf("publish portrait: %w", err)
	}
	return ref, nil
}

// --- mock ---

type mockText struct {
	persona *persona.Persona
	delay   time.Duration
}

func (g *mockText) GenerateWitnessStatement(ctx context.Context, userName, celebrityName string) (string, error) {
	if err := sleep(ctx, g.delay); err != nil {
		return "", err
	}
	return g.persona.MockStatementFor(userName, celebrityName), nil
}

type mockPortrait struct {
	delay time.Duration
}

func (g *mockPortrait) GeneratePortrait(ctx context.Context, celebrityName string) (string, error) {
	if err := sleep(ctx, g.delay); err != nil {
		return "", err
	}
	return MockPortraitRef(celebrityName)
}

// MockPortraitRef is the image reference the mock portrait generator returns
// for name. It is a data URI and depends only on name.
func MockPortraitRef(name string) (string, error) {
	data, err := media.Placeholder(name, 400)
	if err != nil {
		return "", fmt.Errorf("mock portrait: %w", err)
	}
	return media.DataURI(data, "image/png"), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
