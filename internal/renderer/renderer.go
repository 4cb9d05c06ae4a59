package renderer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
)

var placeholder = regexp.MustCompile(`\[(.*?)\]`)

// Renderer fills the [Variable] placeholders of a prompt
type Renderer struct {
	prompt models.Prompt
	// Strict makes missing variables an error instead of leaving the placeholder in place
	Strict bool
}

// NewRenderer creates a new renderer instance
func NewRenderer(prompt models.Prompt) *Renderer {
	return &Renderer{prompt: prompt}
}

// Missing lists the placeholders of the prompt that vars does not fill, in order
func (r *Renderer) Missing(vars map[string]string) []string {
	var missing []string
	for _, name := range models.ExtractVariables(r.prompt.Content) {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// RenderText substitutes every placeholder found in vars. Unknown placeholders are kept
// verbatim unless Strict is set.
func (r *Renderer) RenderText(vars map[string]string) (string, error) {
	if r.Strict {
		if missing := r.Missing(vars); len(missing) > 0 {
			return "", errors.NewAppError(errors.ErrCodeMissingField, "Missing prompt variables").
				WithDetails(strings.Join(missing, ", ")).
				WithContext("missing", missing)
		}
	}

	return placeholder.ReplaceAllStringFunc(r.prompt.Content, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := vars[name]; ok {
			return v
		}
		return m
	}), nil
}

// Message represents a chat message for LLM APIs
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RenderJSON renders the prompt as a JSON message array for LLM APIs. The persona, when
// set, becomes the system message.
func (r *Renderer) RenderJSON(vars map[string]string) (string, error) {
	text, err := r.RenderText(vars)
	if err != nil {
		return "", err
	}

	var messages []Message
	if persona := strings.TrimSpace(r.prompt.Persona); persona != "" {
		messages = append(messages, Message{Role: "system", Content: persona})
	}
	messages = append(messages, Message{Role: "user", Content: text})

	jsonBytes, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	return string(jsonBytes), nil
}

// ParseVars turns name=value pairs into a variable map
func ParseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.NewAppError(errors.ErrCodeInvalidInput, fmt.Sprintf("invalid variable %q", pair)).
				WithDetails("use Name=value")
		}
		vars[name] = value
	}
	return vars, nil
}
