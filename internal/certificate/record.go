// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package certificate holds the marriage certificate record, the form state
// machine around it, and the orchestrator that asks the text and image
// generators for the witness statement and the celebrity portrait.
package certificate

import (
	"fmt"
	"slices"
	"time"
)

// Placeholder values shown before the user has generated anything.
const (
	DefaultUserName       = "Your Name"
	DefaultUserPhoto      = "https://picsum.photos/seed/you/400/400"
	DefaultCelebrityName  = "A Celebrity"
	DefaultCelebrityPhoto = "https://picsum.photos/seed/celebrity/400/400"
	DefaultNameFont       = "Great Vibes"
	DefaultVowsFont       = "Cormorant Garamond"
)

// NameFonts and VowsFonts are the typefaces the certificate template loads.
// Font fields must hold one of these values.
var (
	NameFonts = []string{"Great Vibes", "Dancing Script", "Pinyon Script", "Playfair Display"}
	VowsFonts = []string{"Cormorant Garamond", "EB Garamond", "Lora", "Libre Baskerville"}
)

// Record is everything needed to render a certificate. It is a value type:
// every change produces a new Record.
type Record struct {
	UserName         string    `json:"user_name"`
	UserPhoto        string    `json:"user_photo"`
	CelebrityName    string    `json:"celebrity_name"`
	CelebrityPhoto   string    `json:"celebrity_photo"`
	WitnessStatement string    `json:"witness_statement"`
	UserVows         string    `json:"user_vows,omitempty"`
	CelebrityVows    string    `json:"celebrity_vows,omitempty"`
	NameFont         string    `json:"name_font,omitempty"`
	VowsFont         string    `json:"vows_font,omitempty"`
	Number           string    `json:"number,omitempty"`
	IssuedAt         time.Time `json:"issued_at,omitzero"`
}

// Default returns the placeholder record with the given default statement.
func Default(statement string) Record {
	return Record{
		UserName:         DefaultUserName,
		UserPhoto:        DefaultUserPhoto,
		CelebrityName:    DefaultCelebrityName,
		CelebrityPhoto:   DefaultCelebrityPhoto,
		WitnessStatement: statement,
		NameFont:         DefaultNameFont,
		VowsFont:         DefaultVowsFont,
	}
}

// withGenerated returns a copy of r carrying a fresh statement and portrait.
// Both AI-derived fields are replaced together.
func (r Record) withGenerated(statement, portrait, number string, issuedAt time.Time) Record {
	r.WitnessStatement = statement
	r.CelebrityPhoto = portrait
	r.Number = number
	r.IssuedAt = issuedAt
	return r
}

// HasVows reports whether either party wrote vows.
func (r Record) HasVows() bool {
	return r.UserVows != "" || r.CelebrityVows != ""
}

// Summary is a one-line description of the certificate, encoded in its QR
// code. It is empty until the record has been generated.
func (r Record) Summary() string {
	if r.Number == "" {
		return ""
	}
	return fmt.Sprintf("E-Wed certificate %s: %s & %s, issued %s",
		r.Number, r.UserName, r.CelebrityName, r.IssuedAt.Format(time.DateOnly))
}

// IsKnownFont reports whether name is one of fonts.
func IsKnownFont(fonts []string, name string) bool {
	return slices.Contains(fonts, name)
}
