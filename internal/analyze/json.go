package analyze

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON means no JSON object could be recovered from a response.
var ErrNoJSON = errors.New("analyze: no JSON object found in response")

// ExtractJSON recovers a JSON object from free-form model output. It
// tries, in order: parsing the whole text, parsing the contents of a
// fenced code block, and parsing the span between the outermost braces.
// The first strategy that yields a JSON object wins.
func ExtractJSON(text string) (map[string]any, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrNoJSON
	}

	if obj, ok := tryParse(trimmed); ok {
		return obj, nil
	}

	if fenced := fencedBlock(trimmed); fenced != "" {
		if obj, ok := tryParse(fenced); ok {
			return obj, nil
		}
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		if obj, ok := tryParse(trimmed[start : end+1]); ok {
			return obj, nil
		}
	}

	return nil, ErrNoJSON
}

func tryParse(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// fencedBlock returns the contents of the first fenced code block, or ""
// when the text has none. A "json" language tag after the opening fence
// is stripped.
func fencedBlock(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return ""
	}

	rest := text[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine == "json" || firstLine == "" {
			rest = rest[nl+1:]
		}
	}

	end := strings.Index(rest, "```")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}
