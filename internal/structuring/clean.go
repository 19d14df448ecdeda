package structuring

import (
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("```(?:json|JSON)?\\s*([\\s\\S]*?)\\s*```")

// cleanResponse strips an optional fenced code block and any prose around the
// first balanced JSON object. It returns "" when no object is found.
func cleanResponse(text string) string {
	s := strings.TrimSpace(text)
	if strings.Contains(s, "```") {
		if m := fencedBlock.FindStringSubmatch(s); m != nil {
			s = strings.TrimSpace(m[1])
		}
	}
	return firstObject(s)
}

// firstObject returns the first {...} span with balanced braces, ignoring
// braces inside string literals.
func firstObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
