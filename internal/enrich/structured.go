package enrich

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dpshade/promptlib/internal/models"
)

// draftSchema accepts one extracted prompt or a list of them. Fields are optional so partial
// extractions still load.
const draftSchema = `{
  "$defs": {
    "draft": {
      "type": "object",
      "properties": {
        "name":      {"type": "string"},
        "objective": {"type": "string"},
        "persona":   {"type": "string"},
        "content":   {"type": "string"},
        "category":  {"type": "string"},
        "tags":      {"type": "array", "items": {"type": "string"}}
      }
    }
  },
  "oneOf": [
    {"$ref": "#/$defs/draft"},
    {"type": "array", "items": {"$ref": "#/$defs/draft"}}
  ]
}`

var draftValidator = jsonschema.MustCompileString("draft.json", draftSchema)

// decodeDrafts recovers JSON from model output, validates it and returns the drafts it holds
func decodeDrafts(content string) ([]models.Draft, error) {
	raw, err := parseStructuredJSON(content)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if err := draftValidator.Validate(doc); err != nil {
		return nil, fmt.Errorf("structured output does not match schema: %w", err)
	}

	if _, isList := doc.([]any); isList {
		var drafts []models.Draft
		if err := json.Unmarshal(raw, &drafts); err != nil {
			return nil, err
		}
		return drafts, nil
	}

	var d models.Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return []models.Draft{d}, nil
}

// parseStructuredJSON parses JSON from model output, recovering from markdown code fences
// and surrounding prose.
func parseStructuredJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty structured output")
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONCandidate(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	for _, candidate := range candidates {
		var parsed any
		if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
			return json.Marshal(parsed)
		}
	}
	return nil, fmt.Errorf("failed to parse structured JSON")
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractJSONCandidate cuts from the first opening bracket to its last matching closer
func extractJSONCandidate(content string) string {
	objectStart := strings.Index(content, "{")
	arrayStart := strings.Index(content, "[")

	start, closer := -1, ""
	switch {
	case objectStart >= 0 && (arrayStart < 0 || objectStart < arrayStart):
		start, closer = objectStart, "}"
	case arrayStart >= 0:
		start, closer = arrayStart, "]"
	default:
		return ""
	}

	end := strings.LastIndex(content, closer)
	if end < start {
		return ""
	}
	return strings.TrimSpace(content[start : end+1])
}

// splitTags parses a comma separated tag list
func splitTags(text string) []string {
	text = strings.Trim(strings.TrimSpace(text), `"'`)
	var tags []string
	for _, part := range strings.Split(text, ",") {
		tag := strings.Trim(strings.TrimSpace(part), `"'.`)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
