package llm

import (
	"strings"
)

// StripCodeFences removes a leading/trailing markdown code fence (```json,
// ```, ...) that models wrap around replies despite instructions not to.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

// FindFirstJSON returns the first brace-balanced JSON object in s, or "".
// The scan does not track braces inside string literals, which is fine for
// recovering an object embedded in model prose.
func FindFirstJSON(s string) string {
	start := -1
	depth := 0
	for i, r := range s {
		switch r {
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start != -1 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
