// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package certificate

import (
	"strings"
	"unicode/utf8"
)

// Validation limits for the certificate fields.
const (
	MaxNameLen = 100
	MaxVowsLen = 1_000
)

// MsgMissingFields is shown when required input is missing.
const MsgMissingFields = "Please fill out all fields and upload a photo."

// Options selects the validation policy.
type Options struct {
	RequireVows  bool // both parties must write vows
	RequirePhoto bool // the user must upload a photo
}

// Validate checks that the record is ready for generation. It returns nil or
// a *ValidationError listing every offending field.
func Validate(rec Record, opts Options) error {
	var missing, tooLong []string

	if isBlank(rec.UserName, DefaultUserName) {
		missing = append(missing, "user_name")
	}
	if isBlank(rec.CelebrityName, DefaultCelebrityName) {
		missing = append(missing, "celebrity_name")
	}
	if opts.RequirePhoto && isBlank(rec.UserPhoto, DefaultUserPhoto) {
		missing = append(missing, "user_photo")
	}
	if opts.RequireVows {
		if strings.TrimSpace(rec.UserVows) == "" {
			missing = append(missing, "user_vows")
		}
		if strings.TrimSpace(rec.CelebrityVows) == "" {
			missing = append(missing, "celebrity_vows")
		}
	}

	if utf8.RuneCountInString(rec.UserName) > MaxNameLen {
		tooLong = append(tooLong, "user_name")
	}
	if utf8.RuneCountInString(rec.CelebrityName) > MaxNameLen {
		tooLong = append(tooLong, "celebrity_name")
	}
	if utf8.RuneCountInString(rec.UserVows) > MaxVowsLen {
		tooLong = append(tooLong, "user_vows")
	}
	if utf8.RuneCountInString(rec.CelebrityVows) > MaxVowsLen {
		tooLong = append(tooLong, "celebrity_vows")
	}

	if len(missing) == 0 && len(tooLong) == 0 {
		return nil
	}
	return &ValidationError{Missing: missing, TooLong: tooLong}
}

// isBlank reports whether v is empty or still the placeholder.
func isBlank(v, placeholder string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == placeholder
}
