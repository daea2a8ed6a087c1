// Package structured coerces free-text model output into the structured
// mapping external consumers expect, degrading to a documented fallback shape
// when the model doesn't comply.
package structured

import (
	"encoding/json"
	"strings"
)

// Outcome is the result of coercing one model response. Exactly one branch is
// populated: Fields when the text parsed as a JSON mapping, Raw otherwise.
type Outcome struct {
	Fields map[string]any
	Raw    string
}

// IsStructured reports whether the model output parsed as a mapping.
func (o Outcome) IsStructured() bool { return o.Fields != nil }

// Payload returns the shape serialized to the caller: the parsed mapping, or
// the fallback {"unstructured": <raw text>} wrapper.
func (o Outcome) Payload() map[string]any {
	if o.Fields != nil {
		return o.Fields
	}
	return map[string]any{"unstructured": o.Raw}
}

// Coerce normalizes raw model output: trim, strip one surrounding markdown
// code-fence pair if present, then parse as a JSON mapping. Parse failure of
// any kind is a designed degradation, never an error; the fallback carries the
// exact original text. No field-level validation happens here: a parseable
// mapping passes through as-is, missing or extra fields included.
func Coerce(raw string) Outcome {
	cleaned := StripFences(raw)
	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil || fields == nil {
		return Outcome{Raw: raw}
	}
	return Outcome{Fields: fields}
}

// StripFences removes a leading ```json (or bare ```) marker and a matching
// trailing ``` from s, after trimming surrounding whitespace. Text without
// fences passes through unchanged apart from the trim; at most one marker is
// removed from each end.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
