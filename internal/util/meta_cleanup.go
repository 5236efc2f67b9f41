package util

import "strings"

// Trailing assistant chatter that models append after the article body.
// Matching is case-insensitive and cuts from the first occurrence onward.
var trailingChatter = []string{
	"let me know if you",
	"i hope this helps",
	"feel free to adjust",
	"feel free to tweak",
	"would you like me to",
}

// Leading preamble lines models emit before the actual article
var leadingChatter = []string{
	"here is the article",
	"here's the article",
	"here is your article",
	"sure, here",
	"certainly!",
}

// CleanMetaFromLLMResponse strips conversational wrapper text from a model
// response, keeping the article itself intact.
func CleanMetaFromLLMResponse(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return content
	}

	// Drop a first line that is pure preamble.
	if line, rest, ok := strings.Cut(trimmed, "\n"); ok {
		lowerLine := strings.ToLower(strings.TrimSpace(line))
		for _, phrase := range leadingChatter {
			if strings.HasPrefix(lowerLine, phrase) {
				trimmed = strings.TrimSpace(rest)
				break
			}
		}
	}

	lower := strings.ToLower(trimmed)
	cut := len(trimmed)
	for _, phrase := range trailingChatter {
		if idx := strings.Index(lower, phrase); idx >= 0 && idx < cut {
			cut = idx
		}
	}

	if cut < len(trimmed) {
		if result := strings.TrimSpace(trimmed[:cut]); result != "" {
			return result
		}
	}
	return trimmed
}
