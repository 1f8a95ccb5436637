package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// DecodeLenient decodes a backend JSON body that may not be strictly valid:
// - bare NaN / Infinity / -Infinity tokens (emitted by Python serializers)
// - a UTF-8 BOM
// - the object wrapped in surrounding text
// - trailing commas
func DecodeLenient(body []byte, target interface{}) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("empty body")
	}

	if err := json.Unmarshal(body, target); err == nil {
		return nil
	}

	s := strings.TrimPrefix(strings.TrimSpace(string(body)), "\ufeff")
	s = replaceNonFinite(s)
	if err := json.Unmarshal([]byte(s), target); err == nil {
		return nil
	}

	if start := strings.Index(s, "{"); start >= 0 {
		if extracted := extractBalancedBraces(s[start:], '{', '}'); extracted != "" {
			s = extracted
			if err := json.Unmarshal([]byte(s), target); err == nil {
				return nil
			}
		}
	}

	s = trailingComma.ReplaceAllString(s, "$1")
	if err := json.Unmarshal([]byte(s), target); err != nil {
		return fmt.Errorf("failed to decode body %q: %w", truncateString(string(body), 100), err)
	}
	return nil
}

// replaceNonFinite turns NaN/Infinity literals outside of strings into null
func replaceNonFinite(input string) string {
	var out strings.Builder
	out.Grow(len(input))
	inString := false
	escape := false

	for i := 0; i < len(input); i++ {
		ch := input[i]
		if inString {
			out.WriteByte(ch)
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		matched := false
		for _, tok := range []string{"-Infinity", "Infinity", "NaN"} {
			if strings.HasPrefix(input[i:], tok) {
				out.WriteString("null")
				i += len(tok) - 1
				matched = true
				break
			}
		}
		if !matched {
			out.WriteByte(ch)
		}
	}
	return out.String()
}

// extractBalancedBraces extracts content with balanced braces
func extractBalancedBraces(input string, open, close rune) string {
	depth := 0
	inString := false
	escape := false
	start := 0

	for i, ch := range input {
		if escape {
			escape = false
			continue
		}
		if ch == '\\' {
			escape = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		if ch == open {
			if depth == 0 {
				start = i
			}
			depth++
		} else if ch == close {
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
		}
	}

	return ""
}

// truncateString truncates a string to maxLen bytes
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
