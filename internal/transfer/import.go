package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
)

const backupSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "name"],
    "properties": {
      "id":            {"type": "string", "minLength": 1, "pattern": "\\S"},
      "name":          {"type": "string", "minLength": 1, "pattern": "\\S"},
      "category":      {"type": ["string", "null"]},
      "objective":     {"type": ["string", "null"]},
      "inputType":     {"type": ["string", "null"]},
      "persona":       {"type": ["string", "null"]},
      "recommendedAi": {"type": ["string", "null"]},
      "description":   {"type": ["string", "null"]},
      "content":       {"type": ["string", "null"]},
      "usageExamples": {"type": ["string", "null"]},
      "variables":     {"type": ["array", "null"], "items": {"type": "string"}},
      "tags":          {"type": ["array", "null"], "items": {"type": "string"}}
    }
  }
}`

var backupValidator = jsonschema.MustCompileString("backup.json", backupSchema)

// ParseBackup decodes and validates a backup file. It accepts JSON or YAML and either returns
// every record or fails as a whole; a partially valid file yields no records.
func ParseBackup(data []byte) ([]models.Prompt, error) {
	raw, err := toJSON(data)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.InvalidFormatError("Backup file is not valid JSON", err)
	}
	if err := backupValidator.Validate(doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "Backup file failed validation").
			WithDetails("expected a list of prompts, each with an id and a name")
	}

	var prompts []models.Prompt
	if err := json.Unmarshal(raw, &prompts); err != nil {
		return nil, errors.InvalidFormatError("Backup file has unexpected field types", err)
	}

	seen := make(map[string]int, len(prompts))
	for i := range prompts {
		id := prompts[i].ID
		if first, dup := seen[id]; dup {
			return nil, errors.ValidationError(fmt.Sprintf("Backup contains duplicate id %q", id)).
				WithDetails(fmt.Sprintf("entries %d and %d", first+1, i+1)).
				WithContext("id", id)
		}
		seen[id] = i
		prompts[i].Normalize()
	}
	return prompts, nil
}

// toJSON returns data as JSON. Input starting with '[' or '{' must already be JSON; anything
// else is read as YAML.
func toJSON(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if len(trimmed) == 0 {
		return nil, errors.InvalidFormatError("Backup file is empty", nil)
	}

	if trimmed[0] == '[' || trimmed[0] == '{' {
		if !json.Valid(trimmed) {
			return nil, errors.NewAppError(errors.ErrCodeInvalidFormat, "Backup file is not valid JSON")
		}
		return trimmed, nil
	}

	var doc any
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, errors.InvalidFormatError("Backup file is neither JSON nor YAML", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.InvalidFormatError("Backup YAML cannot be represented as JSON", err)
	}
	return raw, nil
}
