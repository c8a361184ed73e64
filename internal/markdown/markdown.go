// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown converts the vows typed by visitors into HTML using
// goldmark. Only paragraphs, emphasis, strikethrough and line breaks are
// recognized: links, images, headings, lists, code and raw HTML stay
// literal text, so the output never makes a browser fetch anything.
package markdown

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// inlineParser knows paragraphs and emphasis and nothing else. The
// extensions below add their own inline parsers to it.
func inlineParser() parser.Parser {
	return parser.NewParser(
		parser.WithBlockParsers(util.Prioritized(parser.NewParagraphParser(), 1000)),
		parser.WithInlineParsers(util.Prioritized(parser.NewEmphasisParser(), 500)),
	)
}

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithParser(inlineParser()),
	goldmark.WithExtensions(
		extension.Strikethrough,
		extension.Typographer, // Smart quotes and dashes
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(), // A newline in a textarea is a line break on paper
	),
)

// ToHTML converts Markdown source into HTML.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Vows renders source for a template. On a conversion error the source is
// returned escaped.
func Vows(source string) template.HTML {
	out, err := ToHTML(source)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(out)
}
