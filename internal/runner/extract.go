// internal/runner/extract.go
package runner

import "encoding/json"

// ExtractLastJSONArray locates the last top-level JSON array embedded in
// free-form text. The scan is string-aware: brackets inside JSON string
// literals do not count, and arrays nested inside objects or other
// arrays are not candidates. Returns false when no balanced, valid
// array exists.
func ExtractLastJSONArray(text string) ([]byte, bool) {
	var candidate []byte

	inString := false
	escaped := false
	braceDepth := 0

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			braceDepth++
		case '}':
			if braceDepth > 0 {
				braceDepth--
			}
		case '[':
			if braceDepth != 0 {
				continue
			}
			end, ok := scanBalancedArray(text, i)
			if !ok {
				continue
			}
			if raw := text[i : end+1]; json.Valid([]byte(raw)) {
				candidate = []byte(raw)
			}
			i = end
		}
	}

	if candidate == nil {
		return nil, false
	}
	return candidate, true
}

// scanBalancedArray finds the index of the bracket closing the array
// that opens at start, honoring string literals and escapes.
func scanBalancedArray(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
