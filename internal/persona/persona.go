// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package persona describes the fictional witness who signs every
// certificate. A persona is a small YAML document carrying the signature
// name, the title printed under it, and the prompt templates used to ask a
// text model for a witness statement and an image model for a portrait.
package persona

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Persona is the witness that appears on the certificate.
type Persona struct {
	Name             string `yaml:"name"`
	Title            string `yaml:"title"`
	Instruction      string `yaml:"instruction"`
	StatementPrompt  string `yaml:"statement_prompt"`
	DefaultStatement string `yaml:"default_statement"`
	MockStatement    string `yaml:"mock_statement"`
	PortraitPrompt   string `yaml:"portrait_prompt"`

	statement *template.Template
	mock      *template.Template
	portrait  *template.Template
}

// pair is the data passed to the statement templates.
type pair struct {
	First  string
	Second string
}

// Default returns the built-in Batman persona.
func Default() *Persona {
	p, err := Parse(defaultYAML)
	if err != nil {
		// The embedded document is part of the binary.
		panic(fmt.Sprintf("persona: embedded default is invalid: %v", err))
	}
	return p
}

// Parse decodes and validates a persona document.
func Parse(data []byte) (*Persona, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("persona: document is empty")
	}
	var p Persona
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("persona: decode: %w", err)
	}
	if err := p.compile(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads a persona file from disk. An empty path yields the default.
func Load(path string) (*Persona, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persona: read %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("persona: %s: %w", path, err)
	}
	return p, nil
}

// compile validates required fields, fills optional ones from the default
// wording, and parses the prompt templates.
func (p *Persona) compile() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Instruction = strings.TrimSpace(p.Instruction)
	if p.Name == "" {
		return fmt.Errorf("persona: name is required")
	}
	if p.Instruction == "" {
		return fmt.Errorf("persona: instruction is required")
	}
	if strings.TrimSpace(p.StatementPrompt) == "" {
		return fmt.Errorf("persona: statement_prompt is required")
	}
	if strings.TrimSpace(p.MockStatement) == "" {
		p.MockStatement = "I, {{.First}}'s witness, hereby confirm the union of {{.First}} and {{.Second}}."
	}
	if strings.TrimSpace(p.PortraitPrompt) == "" {
		p.PortraitPrompt = "A portrait photograph of {{.Subject}}."
	}
	if p.Title == "" {
		p.Title = "Witness"
	}

	var err error
	if p.statement, err = parseTemplate("statement_prompt", p.StatementPrompt); err != nil {
		return err
	}
	if p.mock, err = parseTemplate("mock_statement", p.MockStatement); err != nil {
		return err
	}
	if p.portrait, err = parseTemplate("portrait_prompt", p.PortraitPrompt); err != nil {
		return err
	}

	// Dry run so a template referencing an unknown field fails at load time.
	sample := pair{First: "A", Second: "B"}
	for _, t := range []*template.Template{p.statement, p.mock} {
		if err := t.Execute(&bytes.Buffer{}, sample); err != nil {
			return fmt.Errorf("persona: %s: %w", t.Name(), err)
		}
	}
	if err := p.portrait.Execute(&bytes.Buffer{}, struct{ Subject string }{"A"}); err != nil {
		return fmt.Errorf("persona: portrait_prompt: %w", err)
	}
	return nil
}

func parseTemplate(name, text string) (*template.Template, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("persona: parse %s: %w", name, err)
	}
	return t, nil
}

// SystemPrompt returns the instruction that sets the text model's voice.
func (p *Persona) SystemPrompt() string {
	return p.Instruction
}

// StatementRequest builds the user prompt asking for a witness statement
// about the marriage of first and second.
func (p *Persona) StatementRequest(first, second string) string {
	return execute(p.statement, pair{First: first, Second: second})
}

// MockStatementFor returns the deterministic statement used when no text
// provider is configured.
func (p *Persona) MockStatementFor(first, second string) string {
	return execute(p.mock, pair{First: first, Second: second})
}

// PortraitRequest builds the image prompt for a portrait of subject.
func (p *Persona) PortraitRequest(subject string) string {
	return execute(p.portrait, struct{ Subject string }{Subject: subject})
}

func execute(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		// Templates are validated in compile and only reference known fields.
		return ""
	}
	return buf.String()
}
