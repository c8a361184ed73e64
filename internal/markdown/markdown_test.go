package markdown

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		want    []string
		notWant []string
	}{
		{
			name:   "plain text",
			source: "Always.",
			want:   []string{"<p>Always.</p>"},
		},
		{
			name:   "emphasis",
			source: "I will *always* be there, **even** on patrol.",
			want:   []string{"<em>always</em>", "<strong>even</strong>"},
		},
		{
			name:   "strikethrough",
			source: "~~Sometimes~~ Always.",
			want:   []string{"<del>Sometimes</del>"},
		},
		{
			name:   "hard wraps",
			source: "line one\nline two",
			want:   []string{"line one<br>"},
		},
		{
			name:    "raw html omitted",
			source:  `<script>alert("x")</script> hello`,
			notWant: []string{"<script>"},
		},
		{
			name:    "links stay text",
			source:  "[click](javascript:alert(1)) <https://example.com>",
			want:    []string{"[click]"},
			notWant: []string{"<a ", "href="},
		},
		{
			name:    "images stay text",
			source:  "I do ![x](http://169.254.169.254/latest/meta-data/iam.png)",
			want:    []string{"![x]"},
			notWant: []string{"<img", "src="},
		},
		{
			name:    "block syntax stays in the paragraph",
			source:  "# Vows\n\n- one\n- two\n\n    indented\n\n```\ncode\n```\n\n> quoted",
			want:    []string{"# Vows", "- one"},
			notWant: []string{"<h1", "<ul", "<li", "<pre", "<code", "<blockquote"},
		},
		{
			name:    "reference definitions stay text",
			source:  "[x]: http://example.com/pixel.png\n\n![x]",
			notWant: []string{"<img", "<a "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToHTML(tt.source)
			if err != nil {
				t.Fatalf("ToHTML: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output %q missing %q", got, w)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(got, nw) {
					t.Errorf("output %q must not contain %q", got, nw)
				}
			}
		})
	}
}

func TestVows(t *testing.T) {
	got := string(Vows("Till *dawn*."))
	if !strings.Contains(got, "<em>dawn</em>") {
		t.Errorf("Vows() = %q", got)
	}
}
