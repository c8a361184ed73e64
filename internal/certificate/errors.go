// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package certificate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInFlight is returned when a generation for the same form is already
// running.
var ErrInFlight = errors.New("certificate: generation already in progress")

// MsgInFlight is shown when a second submit arrives while one is running.
const MsgInFlight = "Your certificate is already being generated. Please wait."

// MsgGenerationFailed is shown when a generator fails without a message of
// its own.
const MsgGenerationFailed = "Failed to generate certificate details. Please try again."

// ValidationError lists the fields that blocked a submission.
type ValidationError struct {
	Missing []string
	TooLong []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.TooLong) > 0 {
		parts = append(parts, "too long "+strings.Join(e.TooLong, ", "))
	}
	return "certificate: invalid record: " + strings.Join(parts, "; ")
}

// UserMessage returns the text shown next to the form.
func (e *ValidationError) UserMessage() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("Names must be at most %d characters and vows at most %d characters.", MaxNameLen, MaxVowsLen)
	}
	return MsgMissingFields
}

// UserError is implemented by errors that carry a message fit for display.
type UserError interface {
	error
	UserMessage() string
}

// GenerationError wraps a failure from either generator.
type GenerationError struct {
	Step string // "statement" or "portrait"
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("certificate: generate %s: %v", e.Step, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// UserMessage returns the upstream message when the cause carries one,
// otherwise the generic failure text.
func (e *GenerationError) UserMessage() string {
	var ue UserError
	if errors.As(e.Err, &ue) {
		if msg := strings.TrimSpace(ue.UserMessage()); msg != "" {
			return msg
		}
	}
	return MsgGenerationFailed
}

// MessageFor returns the user-facing message for err.
func MessageFor(err error) string {
	if errors.Is(err, ErrInFlight) {
		return MsgInFlight
	}
	var ue UserError
	if errors.As(err, &ue) {
		return ue.UserMessage()
	}
	return MsgGenerationFailed
}
