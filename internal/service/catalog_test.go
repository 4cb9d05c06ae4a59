package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/promptlib/internal/models"
)

func catalogService(t *testing.T) *Service {
	t.Helper()
	local := &fakeLocal{prompts: []models.Prompt{
		{ID: "a", Name: "Blog outline", Objective: "Plan a post", Category: models.CategoryMarketing, RecommendedAI: models.AIModelChatGPT, Tags: []string{"seo", "writing"}},
		{ID: "b", Name: "Refactor helper", Objective: "Clean up code", Category: models.CategoryDevelopment, RecommendedAI: models.AIModelClaude, Tags: []string{"code"}},
		{ID: "c", Name: "Weekly review", Objective: "Summarize the week", Category: "Personal", Tags: []string{"writing"}},
	}}
	s := newTestService(t, local, nil, nil)
	require.NoError(t, s.Start(context.Background()))
	return s
}

func TestSearch(t *testing.T) {
	s := catalogService(t)

	assert.Equal(t, []string{"a", "b", "c"}, ids(s.Search("", "")))
	assert.Equal(t, []string{"a", "b", "c"}, ids(s.Search("", AllCategories)))
	assert.Equal(t, []string{"b"}, ids(s.Search("CODE", "")))
	assert.Equal(t, []string{"a", "c"}, ids(s.Search("writing", "")))
	assert.Equal(t, []string{"c"}, ids(s.Search("writing", "Personal")))
	assert.Empty(t, s.Search("nothing matches", ""))
}

func TestFuzzySearch(t *testing.T) {
	s := catalogService(t)

	got := s.FuzzySearch("refac")
	require.NotEmpty(t, got)
	assert.Equal(t, "b", got[0].ID)
	assert.Len(t, s.FuzzySearch(""), 3)
}

func TestFilterByTags(t *testing.T) {
	s := catalogService(t)

	expr, err := models.ParseTagExpr("writing AND NOT seo")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids(s.FilterByTags(expr)))
	assert.Len(t, s.FilterByTags(nil), 3)
}

func TestCategoriesAppendsCustom(t *testing.T) {
	s := catalogService(t)

	cats := s.Categories()
	assert.Equal(t, models.Categories(), cats[:len(models.Categories())])
	assert.Equal(t, models.Category("Personal"), cats[len(cats)-1])
}

func TestGroupByCategoryAndStats(t *testing.T) {
	s := catalogService(t)

	groups := s.GroupByCategory()
	assert.Len(t, groups[models.CategoryMarketing], 1)
	assert.Len(t, groups["Personal"], 1)

	st := s.Stats()
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 1, st.Models[models.AIModelClaude])
	assert.Equal(t, 2, st.Tags["writing"])
	assert.Equal(t, 1, st.Categories[models.CategoryDevelopment])
}
