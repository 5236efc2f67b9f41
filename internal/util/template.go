package util

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// forbidden template directives; prompt templates come from user config and
// must stay pure string substitution
var forbiddenDirectives = []string{"{{call", "{{define", "{{template", "{{block"}

// RenderTemplate renders a prompt template against the given data. Missing
// keys are an error rather than silently rendering "<no value>" into a
// prompt sent to a model.
func RenderTemplate(tmpl string, data map[string]interface{}) (string, error) {
	for _, directive := range forbiddenDirectives {
		if strings.Contains(tmpl, directive) {
			return "", fmt.Errorf("template contains forbidden directive: %s", directive)
		}
	}

	t, err := template.New("prompt").
		Option("missingkey=error").
		Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// TruncateString shortens s to at most maxLen runes, appending an ellipsis
// when anything was cut
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
