package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Decode parses an oracle response into T. Models wrap JSON in markdown
// fences or prose more often than they should, so decoding is two-phase:
// strip fences, then extract the first balanced JSON object if the whole
// string still fails to parse. A response with no decodable object is an
// error; the caller supplies its documented fallback.
func Decode[T any](raw string) (T, error) {
	var out T

	cleaned := stripFences(raw)
	if cleaned == "" {
		return out, fmt.Errorf("oracle: empty response")
	}

	if err := json.Unmarshal([]byte(cleaned), &out); err == nil {
		return out, nil
	}

	embedded, ok := extractObject(cleaned)
	if !ok {
		return out, fmt.Errorf("oracle: no JSON object in response")
	}
	if err := json.Unmarshal([]byte(embedded), &out); err != nil {
		return out, fmt.Errorf("oracle: decode response: %w", err)
	}
	return out, nil
}

// stripFences removes a surrounding ```json ... ``` (or plain ```) block.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		first := strings.TrimSpace(s[:idx])
		if len(first) <= 8 {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// extractObject returns the first balanced top-level {...} substring.
// Brace counting ignores braces inside JSON strings.
func extractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
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
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
