// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package certificate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Orchestrator runs one generation cycle: validate, call both generators
// concurrently, and merge the results or record the failure.
type Orchestrator struct {
	text     TextGenerator
	portrait PortraitGenerator
	opts     Options

	now       func() time.Time
	newNumber func() string
}

// NewOrchestrator creates an orchestrator over the given generators.
func NewOrchestrator(text TextGenerator, portrait PortraitGenerator, opts Options) *Orchestrator {
	return &Orchestrator{
		text:      text,
		portrait:  portrait,
		opts:      opts,
		now:       time.Now,
		newNumber: newCertificateNumber,
	}
}

// Options returns the validation policy in force.
func (o *Orchestrator) Options() Options { return o.opts }

// Begin validates f and returns the snapshot to publish while the
// generators run. On validation failure the returned form is idle with the
// error message set, and the error is a *ValidationError.
func (o *Orchestrator) Begin(f Form) (Form, error) {
	f.State = StateValidating
	if err := Validate(f.Record, o.opts); err != nil {
		f.State = StateIdle
		f.Error = MessageFor(err)
		return f, err
	}
	f.State = StateLoading
	f.Error = ""
	return f, nil
}

// Submit runs a full generation cycle for f and returns the resulting form.
// The AI-derived fields change only when both generators succeed.
func (o *Orchestrator) Submit(ctx context.Context, f Form) (Form, error) {
	f, err := o.Begin(f)
	if err != nil {
		return f, err
	}

	userName := strings.TrimSpace(f.Record.UserName)
	celebrityName := strings.TrimSpace(f.Record.CelebrityName)

	var statement, portrait string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := o.text.GenerateWitnessStatement(gctx, userName, celebrityName)
		if err != nil {
			return &GenerationError{Step: "statement", Err: err}
		}
		statement = s
		return nil
	})
	g.Go(func() error {
		p, err := o.portrait.GeneratePortrait(gctx, celebrityName)
		if err != nil {
			return &GenerationError{Step: "portrait", Err: err}
		}
		portrait = p
		return nil
	})

	if err := g.Wait(); err != nil {
		var genErr *GenerationError
		if !errors.As(err, &genErr) {
			genErr = &GenerationError{Step: "generate", Err: err}
		}
		slog.Error("certificate generation failed", "step", genErr.Step, "error", genErr.Err)
		f.State = StateError
		f.Error = genErr.UserMessage()
		return f, genErr
	}

	f.Record = f.Record.withGenerated(statement, portrait, o.newNumber(), o.now().UTC())
	f.State = StatePopulated
	f.Error = ""
	slog.Info("certificate generated", "number", f.Record.Number)
	return f, nil
}

// newCertificateNumber returns a short human-readable certificate number.
func newCertificateNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("EW-%s", strings.ToUpper(id[:10]))
}
