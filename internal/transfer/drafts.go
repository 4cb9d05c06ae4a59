package transfer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dpshade/promptlib/internal/models"
)

const (
	defaultDraftName = "Untitled Batch Import"
	defaultInputType = "Texto"
	batchDescription = "Importado en lote"
)

// FromDrafts completes extracted drafts into prompts with fresh ids. A single draft records
// the source it came from in its description; a batch gets the batch description.
func FromDrafts(drafts []models.Draft, source string) []models.Prompt {
	description := batchDescription
	if len(drafts) == 1 && source != "" {
		description = fmt.Sprintf("Importado de %s", source)
	}

	prompts := make([]models.Prompt, 0, len(drafts))
	for _, d := range drafts {
		p := models.Prompt{
			ID:            uuid.NewString(),
			Category:      models.CategoryOther,
			Name:          strings.TrimSpace(d.Name),
			Objective:     d.Objective,
			InputType:     defaultInputType,
			Persona:       d.Persona,
			RecommendedAI: models.AIModelChatGPT,
			Description:   description,
			Content:       d.Content,
			Variables:     models.ExtractVariables(d.Content),
			Tags:          cleanTags(d.Tags),
		}
		if p.Name == "" {
			p.Name = defaultDraftName
		}
		if d.Category != "" {
			p.Category = d.Category
		}
		prompts = append(prompts, p)
	}
	return prompts
}

// cleanTags removes empty and duplicate tags
func cleanTags(tags []string) []string {
	seen := make(map[string]bool)
	result := []string{}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" && !seen[tag] {
			seen[tag] = true
			result = append(result, tag)
		}
	}
	return result
}
