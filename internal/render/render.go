// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the certificate
// pages. It supports full-page and HTMX partial rendering, automatically
// detecting the request type via the HX-Request header, and produces the
// standalone views used for printing and PNG export.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"ewed/internal/certificate"
	"ewed/internal/markdown"
	"ewed/internal/media"
	"ewed/internal/middleware"
	"ewed/internal/persona"
	"ewed/internal/slug"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData holds all data passed to the templates.
type PageData struct {
	Title      string              // Page title for <title> tag
	CSRFToken  string              // CSRF token for forms and HTMX headers
	Form       certificate.Form    // The visitor's form state
	Persona    *persona.Persona    // Witness signing the certificate
	Options    certificate.Options // Validation policy, drives required markers
	Exportable bool                // A rasterizer is configured
	Flashes    []Flash             // One-time notification messages
	Oob        bool                // Render the controls as an out-of-band swap
	Policy     string              // CSP embedded in the standalone views
}

// Flash represents a one-time notification message displayed to the user.
type Flash struct {
	Type    string // "success", "error", "info"
	Message string
}

// Renderer handles template parsing and execution.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
	persona   *persona.Persona
	policy    string
}

// pageFiles lists the files each template set is parsed from. The first
// file is the root that a full render executes.
var pageFiles = map[string][]string{
	"index":  {"base.html", "partials.html", "index.html"},
	"print":  {"print.html", "partials.html"},
	"export": {"export.html", "partials.html"},
}

// allowedImage matches the image references the certificate may embed.
var allowedImage = regexp.MustCompile(`^(https?://|data:image/(png|jpeg|gif|webp);base64,)`)

// placeholderHosts serve the default photos; picsum redirects to fastly.
var placeholderHosts = []string{"https://picsum.photos", "https://fastly.picsum.photos"}

// New parses the embedded templates. p signs every certificate. imgHosts
// are the object storage URLs the standalone views may load images from.
func New(p *persona.Persona, imgHosts ...string) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		persona:   p,
		policy:    viewPolicy(imgHosts),
		funcMap: template.FuncMap{
			// imageSrc lets trusted image references through the URL
			// sanitizer, which would otherwise reject data URIs.
			"imageSrc": func(ref string) template.URL {
				if !allowedImage.MatchString(ref) {
					return ""
				}
				return template.URL(ref)
			},
			"fontClass": func(name string) string {
				return "font-" + slug.Generate(name)
			},
			"vows":       markdown.Vows,
			"fontsURL":   fontsURL,
			"qrCode":     qrCode,
			"issuedOn":   issuedOn,
			"maxNameLen": func() int { return certificate.MaxNameLen },
			"maxVowsLen": func() int { return certificate.MaxVowsLen },
			"nameFonts":  func() []string { return certificate.NameFonts },
			"vowsFonts":  func() []string { return certificate.VowsFonts },
			// unlessDefault blanks placeholder values so inputs show their
			// placeholder text instead.
			"unlessDefault": func(v, def string) string {
				if v == def {
					return ""
				}
				return v
			},
		},
	}

	for name, files := range pageFiles {
		paths := make([]string, len(files))
		for i, f := range files {
			paths[i] = "templates/" + f
		}
		tmpl, err := template.New(files[0]).Funcs(r.funcMap).ParseFS(templateFS, paths...)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}

	return r, nil
}

// Page renders a full page or an HTMX partial, depending on the request
// headers. For HTMX requests, only the "content" block is sent.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}
	rn.fill(r, data)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	execName := pageFiles[name][0]
	if isHTMX(r) {
		execName = "content"
	}
	if err := executeTemplate(w, tmpl, execName, data); err != nil {
		slog.Error("render page", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// Fragment renders one or more named blocks of the index page, in order,
// with the given status. Later blocks are typically out-of-band swaps.
func (rn *Renderer) Fragment(w http.ResponseWriter, r *http.Request, status int, data *PageData, blocks ...string) {
	rn.fill(r, data)

	// Buffer so a failing block does not leave a half-written response.
	var buf bytes.Buffer
	for _, block := range blocks {
		if err := executeTemplate(&buf, rn.templates["index"], block, data); err != nil {
			slog.Error("render fragment", "block", block, "error", err)
			http.Error(w, "template error", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// PrintView writes the standalone printable certificate, which opens the
// browser's print dialog on load.
func (rn *Renderer) PrintView(w http.ResponseWriter, r *http.Request, rec certificate.Record) {
	data := &PageData{Title: "E-Wed Certificate", Form: certificate.Form{Record: rec}, Policy: rn.policy}
	rn.Page(w, r, "print", data)
}

// ExportView renders the self-contained certificate document that the
// rasterizer screenshots. The output depends only on rec, so it can key
// the export cache.
func (rn *Renderer) ExportView(rec certificate.Record) ([]byte, error) {
	data := &PageData{Title: "E-Wed Certificate", Form: certificate.Form{Record: rec}, Persona: rn.persona, Policy: rn.policy}

	var buf bytes.Buffer
	if err := executeTemplate(&buf, rn.templates["export"], pageFiles["export"][0], data); err != nil {
		return nil, fmt.Errorf("render export view: %w", err)
	}
	return buf.Bytes(), nil
}

// fill injects the request-scoped values every template expects.
func (rn *Renderer) fill(r *http.Request, data *PageData) {
	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())
	if data.Persona == nil {
		data.Persona = rn.persona
	}
	if data.Title == "" {
		data.Title = "E-Wed Certificate Generator"
	}
}

// viewPolicy is the Content-Security-Policy of the standalone views. The
// export view is loaded straight into the rasterizing browser without any
// response headers, so the policy travels inside the document and bounds
// what that browser may fetch.
func viewPolicy(imgHosts []string) string {
	img := append([]string{"data:"}, placeholderHosts...)
	for _, h := range imgHosts {
		if h = strings.TrimRight(strings.TrimSpace(h), "/"); h != "" {
			img = append(img, h)
		}
	}
	return strings.Join([]string{
		"default-src 'none'",
		"img-src " + strings.Join(img, " "),
		"style-src 'unsafe-inline' https://fonts.googleapis.com",
		"font-src https://fonts.gstatic.com",
		"script-src 'self'",
	}, "; ")
}

// fontsURL returns the Google Fonts stylesheet for every selectable face.
func fontsURL() string {
	families := make([]string, 0, len(certificate.NameFonts)+len(certificate.VowsFonts))
	for _, f := range append(append([]string{}, certificate.NameFonts...), certificate.VowsFonts...) {
		families = append(families, "family="+url.QueryEscape(f))
	}
	return "https://fonts.googleapis.com/css2?" + strings.Join(families, "&") + "&display=swap"
}

// qrCode returns a PNG data URI encoding the certificate summary, or ""
// for a certificate that has not been generated.
func qrCode(rec certificate.Record) (template.URL, error) {
	summary := rec.Summary()
	if summary == "" {
		return "", nil
	}
	png, err := qrcode.Encode(summary, qrcode.Medium, 128)
	if err != nil {
		return "", fmt.Errorf("qr code: %w", err)
	}
	return template.URL(media.DataURI(png, "image/png")), nil
}

// issuedOn formats the issue date the way the certificate prints it.
func issuedOn(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

// executeTemplate wraps template execution with error handling.
func executeTemplate(w io.Writer, tmpl *template.Template, name string, data any) error {
	return tmpl.ExecuteTemplate(w, name, data)
}

// isHTMX returns true if the request was made by HTMX (has HX-Request header).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
