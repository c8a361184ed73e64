package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"ewed/internal/certificate"
)

// parseEdit reads the certificate text fields present in the posted form.
// Fields the request does not carry are left nil so they stay unchanged.
func parseEdit(r *http.Request) certificate.Edit {
	field := func(name string, trim bool) *string {
		if _, ok := r.PostForm[name]; !ok {
			return nil
		}
		v := r.PostForm.Get(name)
		if trim {
			v = strings.TrimSpace(v)
		}
		return &v
	}
	return certificate.Edit{
		UserName:      field("user_name", true),
		CelebrityName: field("celebrity_name", true),
		UserVows:      field("user_vows", false),
		CelebrityVows: field("celebrity_vows", false),
		NameFont:      field("name_font", true),
		VowsFont:      field("vows_font", true),
	}
}

// applyEditDefaults maps cleared name inputs back to the placeholders, so
// an emptied field behaves exactly like one never filled in.
func applyEditDefaults(e certificate.Edit) certificate.Edit {
	placeholder := func(v *string, def string) *string {
		if v != nil && *v == "" {
			return &def
		}
		return v
	}
	e.UserName = placeholder(e.UserName, certificate.DefaultUserName)
	e.CelebrityName = placeholder(e.CelebrityName, certificate.DefaultCelebrityName)
	return e
}

// validateEdit checks field lengths and font choices and returns the first
// error found.
func validateEdit(e certificate.Edit) string {
	names := []struct {
		label string
		v     *string
	}{
		{"Your name", e.UserName},
		{"Celebrity name", e.CelebrityName},
	}
	for _, n := range names {
		if n.v != nil && utf8.RuneCountInString(*n.v) > certificate.MaxNameLen {
			return fmt.Sprintf("%s is too long (max %d characters).", n.label, certificate.MaxNameLen)
		}
	}

	vows := []struct {
		label string
		v     *string
	}{
		{"Your vows", e.UserVows},
		{"Their vows", e.CelebrityVows},
	}
	for _, v := range vows {
		if v.v != nil && utf8.RuneCountInString(*v.v) > certificate.MaxVowsLen {
			return fmt.Sprintf("%s are too long (max 1,000 characters).", v.label)
		}
	}

	if e.NameFont != nil && !certificate.IsKnownFont(certificate.NameFonts, *e.NameFont) {
		return "Please choose one of the listed name fonts."
	}
	if e.VowsFont != nil && !certificate.IsKnownFont(certificate.VowsFonts, *e.VowsFont) {
		return "Please choose one of the listed vows fonts."
	}
	return ""
}
