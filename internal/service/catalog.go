package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/dpshade/promptlib/internal/models"
)

// AllCategories matches every category in Search
const AllCategories models.Category = "All"

// Stats summarizes the collection
type Stats struct {
	Total      int
	Categories map[models.Category]int
	Models     map[models.AIModel]int
	Tags       map[string]int
}

// Search filters the collection by a case-insensitive substring of name, objective or
// any tag, and by category. An empty query or category matches everything.
func (s *Service) Search(query string, category models.Category) []models.Prompt {
	q := strings.ToLower(strings.TrimSpace(query))

	var results []models.Prompt
	for _, p := range s.Prompts() {
		if category != "" && category != AllCategories && p.Category != category {
			continue
		}
		if q != "" && !matchesText(p, q) {
			continue
		}
		results = append(results, p)
	}
	return results
}

func matchesText(p models.Prompt, q string) bool {
	if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Objective), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// FuzzySearch ranks the collection against query, best match first
func (s *Service) FuzzySearch(query string) []models.Prompt {
	prompts := s.Prompts()
	if strings.TrimSpace(query) == "" {
		return prompts
	}

	var searchStrings []string
	for _, p := range prompts {
		searchStrings = append(searchStrings, fmt.Sprintf("%s %s %s %s",
			p.Name,
			p.Objective,
			p.Category,
			strings.Join(p.Tags, " ")))
	}

	var results []models.Prompt
	for _, match := range fuzzy.Find(query, searchStrings) {
		results = append(results, prompts[match.Index])
	}
	return results
}

// FilterByTags returns the prompts whose tags satisfy expr
func (s *Service) FilterByTags(expr *models.TagExpr) []models.Prompt {
	var results []models.Prompt
	for _, p := range s.Prompts() {
		if expr.Match(p.Tags) {
			results = append(results, p)
		}
	}
	return results
}

// Categories lists the built-in categories followed by any custom ones in use
func (s *Service) Categories() []models.Category {
	cats := models.Categories()
	seen := make(map[models.Category]bool, len(cats))
	for _, c := range cats {
		seen[c] = true
	}

	var custom []models.Category
	for _, p := range s.Prompts() {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			custom = append(custom, p.Category)
		}
	}
	sort.Slice(custom, func(i, j int) bool { return custom[i] < custom[j] })
	return append(cats, custom...)
}

// GroupByCategory buckets the collection by category, keeping collection order inside
// each bucket
func (s *Service) GroupByCategory() map[models.Category][]models.Prompt {
	groups := make(map[models.Category][]models.Prompt)
	for _, p := range s.Prompts() {
		groups[p.Category] = append(groups[p.Category], p)
	}
	return groups
}

// Stats counts prompts per category, model and tag
func (s *Service) Stats() Stats {
	st := Stats{
		Categories: map[models.Category]int{},
		Models:     map[models.AIModel]int{},
		Tags:       map[string]int{},
	}
	for _, p := range s.Prompts() {
		st.Total++
		st.Categories[p.Category]++
		if p.RecommendedAI != "" {
			st.Models[p.RecommendedAI]++
		}
		for _, tag := range p.Tags {
			st.Tags[tag]++
		}
	}
	return st
}
