package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/example/llm-deployer/internal/models"
)

// ParseFileSet decodes the model's answer into an ordered file set.
// Key order in the JSON object is preserved: it is the commit order.
func ParseFileSet(raw string) (models.FileSet, error) {
	text := normalizeJSONText(raw)
	if text == "" {
		return nil, errors.New("empty model response")
	}

	dec := json.NewDecoder(strings.NewReader(text))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var files models.FileSet
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON key: %w", err)
		}
		path, _ := keyTok.(string)
		var content string
		if err := dec.Decode(&content); err != nil {
			return nil, fmt.Errorf("file %q: content must be a string: %w", path, err)
		}
		if strings.TrimSpace(path) == "" {
			continue
		}
		files = append(files, models.GeneratedFile{Path: path, Content: content})
	}
	return files, nil
}

// normalizeJSONText strips markdown code fences and isolates the first
// top-level JSON object when the model wrapped it in prose.
func normalizeJSONText(s string) string {
	t := strings.TrimSpace(s)
	if strings.HasPrefix(t, "```") {
		t = strings.TrimPrefix(t, "```")
		// drop possible language hint, e.g., json
		if idx := strings.IndexByte(t, '\n'); idx != -1 {
			t = t[idx+1:]
		}
		if j := strings.LastIndex(t, "```"); j != -1 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}
	if !strings.HasPrefix(t, "{") {
		if obj := extractJSONObject(t); obj != "" {
			return obj
		}
	}
	return t
}

// extractJSONObject returns the first balanced top-level {...} in s,
// ignoring braces inside string literals.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
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
				return s[start : i+1]
			}
		}
	}
	return ""
}
