package models

import (
	"regexp"
	"strings"
)

// Category is the grouping label of a prompt. The constants form the built-in set;
// any other string is accepted for records created by older versions or imports.
type Category string

const (
	CategoryMarketing    Category = "Marketing y Contenido"
	CategoryProductivity Category = "Productividad y Organización"
	CategoryCreativity   Category = "Creatividad y Generación de Ideas"
	CategoryAnalysis     Category = "Análisis de Data"
	CategoryDevelopment  Category = "Desarrollo y Código"
	CategoryOther        Category = "Otros"
)

// Categories returns the built-in categories in display order
func Categories() []Category {
	return []Category{
		CategoryMarketing,
		CategoryProductivity,
		CategoryCreativity,
		CategoryAnalysis,
		CategoryDevelopment,
		CategoryOther,
	}
}

// IsBuiltin reports whether c is one of the built-in categories
func (c Category) IsBuiltin() bool {
	for _, b := range Categories() {
		if b == c {
			return true
		}
	}
	return false
}

// AIModel names the engine a prompt was written for. Display metadata only.
type AIModel string

const (
	AIModelChatGPT    AIModel = "ChatGPT"
	AIModelGemini     AIModel = "Gemini 2.5 Flash"
	AIModelGeminiLite AIModel = "Gemini Flash Lite"
	AIModelGeminiPro  AIModel = "Gemini 3 Pro (Thinking)"
	AIModelClaude     AIModel = "Claude"
	AIModelOther      AIModel = "Other"
)

// Prompt is a single entry of the prompt library. The whole slice of prompts is the
// unit of persistence; ID is the only identity key.
type Prompt struct {
	ID            string   `json:"id" yaml:"id" db:"id"`
	Category      Category `json:"category" yaml:"category" db:"category"`
	Name          string   `json:"name" yaml:"name" db:"name"`
	Objective     string   `json:"objective" yaml:"objective" db:"objective"`
	InputType     string   `json:"inputType" yaml:"inputType" db:"input_type"`
	Persona       string   `json:"persona" yaml:"persona" db:"persona"`
	RecommendedAI AIModel  `json:"recommendedAi" yaml:"recommendedAi" db:"recommended_ai"`
	Description   string   `json:"description" yaml:"description" db:"description"`
	Content       string   `json:"content" yaml:"content" db:"content"`
	Variables     []string `json:"variables" yaml:"variables" db:"variables"`
	UsageExamples string   `json:"usageExamples" yaml:"usageExamples" db:"usage_examples"`
	Tags          []string `json:"tags" yaml:"tags" db:"tags"`
}

// Clone returns a deep copy of the prompt
func (p Prompt) Clone() Prompt {
	c := p
	if p.Variables != nil {
		c.Variables = append([]string(nil), p.Variables...)
	}
	if p.Tags != nil {
		c.Tags = append([]string(nil), p.Tags...)
	}
	return c
}

// CloneAll deep-copies a collection. A nil input yields an empty, non-nil slice.
func CloneAll(prompts []Prompt) []Prompt {
	out := make([]Prompt, len(prompts))
	for i, p := range prompts {
		out[i] = p.Clone()
	}
	return out
}

// Normalize fills nil slices so serialized records always carry arrays
func (p *Prompt) Normalize() {
	if p.Variables == nil {
		p.Variables = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
}

var variablePattern = regexp.MustCompile(`\[(.*?)\]`)

// ExtractVariables returns the placeholder names found between square brackets in
// content, in order of first appearance and without duplicates.
func ExtractVariables(content string) []string {
	matches := variablePattern.FindAllStringSubmatch(content, -1)
	seen := make(map[string]bool, len(matches))
	vars := make([]string, 0, len(matches))
	for _, m := range matches {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		vars = append(vars, m[1])
	}
	return vars
}

// FilterValue is the text matched by interactive list filtering
func (p Prompt) FilterValue() string {
	return cleanString(p.Name + " " + p.Objective + " " + strings.Join(p.Tags, " "))
}

// DisplayTitle is the single-line name shown in lists
func (p Prompt) DisplayTitle() string {
	if p.Name != "" {
		return cleanString(p.Name)
	}
	return cleanString(p.ID)
}

// Summary is the single-line category, objective and tags line shown under the title
func (p Prompt) Summary() string {
	var parts []string

	if p.Category != "" {
		parts = append(parts, string(p.Category))
	}

	if p.Objective != "" {
		objective := cleanString(p.Objective)
		maxObjectiveLength := 60
		if len([]rune(objective)) > maxObjectiveLength {
			objective = string([]rune(objective)[:maxObjectiveLength-3]) + "..."
		}
		parts = append(parts, objective)
	}

	if len(p.Tags) > 0 {
		parts = append(parts, "Tags: "+strings.Join(p.Tags, ", "))
	}

	result := strings.Join(parts, " • ")

	// Leave space for list indicator and margins
	maxTotalLength := 100
	if len([]rune(result)) > maxTotalLength {
		result = string([]rune(result)[:maxTotalLength-3]) + "..."
	}

	return cleanString(result)
}

// cleanString removes characters that break single-line rendering
func cleanString(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			b.WriteRune(' ')
		} else if r >= 32 && r != 127 {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
