// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package persona

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	p := Default()

	assert.Equal(t, "Batman", p.Name)
	assert.Equal(t, "Witness, The Dark Knight", p.Title)
	assert.Contains(t, p.SystemPrompt(), "You are Batman.")
	assert.Contains(t, p.DefaultStatement, "In the shadows of Gotham")
}

func TestMockStatementFor(t *testing.T) {
	got := Default().MockStatementFor("Bruce", "Selina")
	want := "In the darkest of nights, I bear witness to the union of Bruce and Selina. May their bond be as strong as the Gotham night."
	assert.Equal(t, want, got)
}

func TestStatementRequest(t *testing.T) {
	got := Default().StatementRequest("Bruce", "Selina")
	assert.Contains(t, got, "marriage of Bruce and Selina")
	assert.Contains(t, got, "Do not use quotation marks.")
}

func TestPortraitRequest(t *testing.T) {
	got := Default().PortraitRequest("Keanu Reeves")
	assert.Contains(t, got, "Keanu Reeves")
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", "   "},
		{"bad yaml", "name: [unterminated"},
		{"missing name", "instruction: x\nstatement_prompt: y"},
		{"missing instruction", "name: Alfred\nstatement_prompt: y"},
		{"missing statement prompt", "name: Alfred\ninstruction: x"},
		{"unknown template field", "name: Alfred\ninstruction: x\nstatement_prompt: '{{.Third}}'"},
		{"broken template", "name: Alfred\ninstruction: x\nstatement_prompt: '{{.First'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_FillsOptionalFields(t *testing.T) {
	p, err := Parse([]byte("name: Alfred\ninstruction: You are Alfred.\nstatement_prompt: 'Bless {{.First}} and {{.Second}}.'"))
	require.NoError(t, err)

	assert.Equal(t, "Witness", p.Title)
	assert.Equal(t, "Bless Bruce and Selina.", p.StatementRequest("Bruce", "Selina"))
	assert.NotEmpty(t, p.MockStatementFor("Bruce", "Selina"))
	assert.Contains(t, p.PortraitRequest("Selina"), "Selina")
}

func TestLoad(t *testing.T) {
	t.Run("empty path uses default", func(t *testing.T) {
		p, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "Batman", p.Name)
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "robin.yaml")
		doc := "name: Robin\ntitle: Witness, The Boy Wonder\ninstruction: You are Robin.\nstatement_prompt: 'Holy matrimony, {{.First}} and {{.Second}}!'\n"
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

		p, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "Robin", p.Name)
		assert.Equal(t, "Holy matrimony, Dick and Barbara!", p.StatementRequest("Dick", "Barbara"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
