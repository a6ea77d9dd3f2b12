package classify

import (
	"encoding/json"
	"strings"
)

// ExtractJSON pulls the first JSON object out of a model completion.
// Completions arrive wrapped in code fences or surrounding prose more
// often than not, so the extraction strips fences and then parses the
// first balanced {...} span.
func ExtractJSON(text string) (map[string]any, bool) {
	text = stripFences(strings.TrimSpace(text))

	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err == nil {
		return out, true
	}

	span, ok := balancedObject(text)
	if !ok {
		return nil, false
	}
	if err := json.Unmarshal([]byte(span), &out); err != nil {
		return nil, false
	}
	return out, true
}

func stripFences(text string) string {
	if strings.HasPrefix(text, "```json") {
		text = text[len("```json"):]
	} else if strings.HasPrefix(text, "```") {
		text = text[3:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// balancedObject returns the first balanced {...} span, tracking string
// literals so braces inside values do not unbalance the scan.
func balancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
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
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
