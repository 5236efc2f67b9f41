package util

import (
	"encoding/json"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare object",
			input: `{"title": "Widgets"}`,
			want:  `{"title": "Widgets"}`,
		},
		{
			name:  "fenced json block",
			input: "Here you go:\n```json\n{\"title\": \"Widgets\"}\n```\nEnjoy!",
			want:  `{"title": "Widgets"}`,
		},
		{
			name:  "fenced block without language",
			input: "```\n[\"a\", \"b\"]\n```",
			want:  `["a", "b"]`,
		},
		{
			name:  "object with surrounding prose",
			input: `The result is {"title": "Widgets"} as requested.`,
			want:  `{"title": "Widgets"}`,
		},
		{
			name:  "truncated array is closed",
			input: `["first", "second",`,
			want:  `["first", "second"]`,
		},
		{
			name:  "braces inside string values",
			input: `{"body": "use {curly} braces"}`,
			want:  `{"body": "use {curly} braces"}`,
		},
		{
			name:  "brackets inside string values",
			input: `{"title": "Best [2024] Robot Vacuums", "body": "full body text"}`,
			want:  `{"title": "Best [2024] Robot Vacuums", "body": "full body text"}`,
		},
		{
			name:  "markdown link inside object body",
			input: `{"body": "See [our guide](https://example.com/guide) for details."}`,
			want:  `{"body": "See [our guide](https://example.com/guide) for details."}`,
		},
		{
			name:  "array opening before object",
			input: `["a", "b"] trailing {"ignored": true}`,
			want:  `["a", "b"]`,
		},
		{
			name:  "no json at all",
			input: "plain text",
			want:  "plain text",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.input); got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeJSON(t *testing.T) {
	input := "{\"body\": \"line one\nline two\"}"
	got := SanitizeJSON(input)

	var parsed map[string]string
	if err := json.Unmarshal([]byte(got), &parsed); err != nil {
		t.Fatalf("sanitized output is not valid JSON: %v", err)
	}
	if parsed["body"] != "line one\nline two" {
		t.Errorf("body = %q, want newline preserved as escape", parsed["body"])
	}

	// Already-escaped sequences pass through untouched.
	clean := `{"body": "line one\nline two"}`
	if got := SanitizeJSON(clean); got != clean {
		t.Errorf("SanitizeJSON(%q) = %q, want unchanged", clean, got)
	}

	// Newlines outside strings are structural and must be kept.
	pretty := "{\n  \"a\": 1\n}"
	if got := SanitizeJSON(pretty); got != pretty {
		t.Errorf("SanitizeJSON(%q) = %q, want unchanged", pretty, got)
	}
}
