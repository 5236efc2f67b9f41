package util

import (
	"regexp"
	"strings"
)

var fencedBlockRegex = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// ExtractJSON pulls the JSON payload out of a model response. Responses
// routinely wrap the payload in markdown fences or surround it with prose,
// and long generations sometimes truncate mid-array. Whichever container
// opens first wins: an object whose string values contain markdown brackets
// like "[anchor](url)" must not be read as an array.
func ExtractJSON(s string) string {
	if m := fencedBlockRegex.FindStringSubmatch(s); len(m) > 1 {
		s = strings.TrimSpace(m[1])
	} else {
		s = strings.TrimSpace(s)
	}

	arrStart := strings.Index(s, "[")
	objStart := strings.Index(s, "{")

	if objStart != -1 && (arrStart == -1 || objStart < arrStart) {
		if end := matchBracket(s, objStart, '{', '}'); end != -1 {
			return s[objStart : end+1]
		}
	}

	if arrStart != -1 {
		if end := matchBracket(s, arrStart, '[', ']'); end != -1 {
			return s[arrStart : end+1]
		}
		// Truncated array: close it after the last complete element.
		if strings.LastIndex(s, "\"") > arrStart {
			return strings.TrimRight(s[arrStart:], " \n\t,") + "]"
		}
	}

	if arrStart != -1 && objStart > arrStart {
		if end := matchBracket(s, objStart, '{', '}'); end != -1 {
			return s[objStart : end+1]
		}
	}

	return s
}

// matchBracket returns the index of the bracket closing the one at start,
// ignoring brackets inside string literals. Returns -1 when unbalanced.
func matchBracket(s string, start int, open, close rune) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		ch := rune(s[i])
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// SanitizeJSON escapes raw newlines inside string values, the most common
// way a model breaks its own JSON when the payload contains article text.
func SanitizeJSON(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if escaped {
			out.WriteByte(ch)
			escaped = false
			continue
		}
		switch {
		case ch == '\\':
			out.WriteByte(ch)
			escaped = true
		case ch == '"':
			out.WriteByte(ch)
			inString = !inString
		case inString && (ch == '\n' || ch == '\r'):
			out.WriteString("\\n")
			if ch == '\r' && i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		default:
			out.WriteByte(ch)
		}
	}
	return out.String()
}
