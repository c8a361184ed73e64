// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns visitor-typed names into ASCII fragments that are safe
// in object keys and CSS class names.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLen bounds a slug so object keys stay short whatever name was typed.
const MaxLen = 48

// Fold strips combining marks, so "Zoë Saldaña" becomes "Zoe Saldana".
// Letters without an ASCII decomposition are kept as they are.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Generate creates a lowercase, hyphen-separated slug of at most MaxLen
// bytes. Example: "Beyoncé Knowles-Carter!" → "beyonce-knowles-carter".
func Generate(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(Fold(s)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			pendingHyphen = true
		}
		if b.Len() >= MaxLen {
			break
		}
	}
	return strings.TrimRight(truncate(b.String()), "-")
}

func truncate(s string) string {
	if len(s) > MaxLen {
		return s[:MaxLen]
	}
	return s
}
