// services/prompt_service.go
package services

import (
	"fmt"
	"strings"

	"github.com/brandlens/brandlens-workflows/internal/config"
	"github.com/brandlens/brandlens-workflows/internal/models"
	"github.com/google/uuid"
)

type promptService struct {
	cfg *config.Config
}

// NewPromptService creates the prompt generator.
func NewPromptService(cfg *config.Config) PromptService {
	return &promptService{cfg: cfg}
}

// GeneratePrompts builds one prompt per category from the company profile,
// capped at the configured maximum. Prompts never name the brand: the
// point is to see whether providers surface it unprompted.
func (s *promptService) GeneratePrompts(company models.Company) []models.Prompt {
	subject := s.subjectFor(company)

	candidates := []models.Prompt{
		{
			Text:     fmt.Sprintf("What are the best %s available today? Please rank the top options.", subject),
			Category: models.PromptCategoryRanking,
		},
		{
			Text:     fmt.Sprintf("Compare the leading %s. Which one would you choose and why?", subject),
			Category: models.PromptCategoryComparison,
		},
		{
			Text:     fmt.Sprintf("What are some good alternatives when looking for %s?", subject),
			Category: models.PromptCategoryAlternatives,
		},
		{
			Text:     fmt.Sprintf("I need a recommendation for %s. What should I go with?", subject),
			Category: models.PromptCategoryRecommendations,
		},
	}

	max := s.cfg.Pipeline.MaxPrompts
	if max > 0 && len(candidates) > max {
		candidates = candidates[:max]
	}

	prompts := make([]models.Prompt, 0, len(candidates))
	for _, candidate := range candidates {
		candidate.ID = uuid.New().String()
		prompts = append(prompts, candidate)
	}
	return prompts
}

// WrapCustomPrompts turns caller-supplied prompt texts into Prompt records.
// Blank entries are dropped; no cap applies to explicit prompts.
func (s *promptService) WrapCustomPrompts(texts []string) []models.Prompt {
	var prompts []models.Prompt
	for _, text := range texts {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}
		prompts = append(prompts, models.Prompt{
			ID:       uuid.New().String(),
			Text:     trimmed,
			Category: models.PromptCategoryCustom,
		})
	}
	return prompts
}

// subjectFor picks the most specific noun phrase the profile offers:
// products first, then keywords, then industry, then a generic fallback.
func (s *promptService) subjectFor(company models.Company) string {
	if company.ScrapedData != nil {
		if len(company.ScrapedData.MainProducts) > 0 {
			return strings.ToLower(strings.TrimSpace(company.ScrapedData.MainProducts[0]))
		}
		if len(company.ScrapedData.Keywords) > 0 {
			return strings.ToLower(strings.TrimSpace(company.ScrapedData.Keywords[0])) + " solutions"
		}
	}
	if company.Industry != "" {
		return strings.ToLower(strings.TrimSpace(company.Industry)) + " companies"
	}
	return "companies in this space"
}
