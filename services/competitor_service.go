// services/competitor_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brandlens/brandlens-workflows/internal/config"
	"github.com/brandlens/brandlens-workflows/internal/models"
	"github.com/brandlens/brandlens-workflows/internal/providers"
)

// genericRetailers are marketplaces and platforms that show up in almost
// any product question without being real competitors. They are filtered
// out unless the analyzed company is itself one.
var genericRetailers = map[string]bool{
	"amazon":     true,
	"walmart":    true,
	"ebay":       true,
	"target":     true,
	"costco":     true,
	"alibaba":    true,
	"aliexpress": true,
	"etsy":       true,
	"temu":       true,
	"shein":      true,
	"wish":       true,
}

var marketplaceIndustryTerms = []string{"retail", "marketplace", "e-commerce", "ecommerce", "platform"}

type competitorService struct {
	cfg      *config.Config
	registry *providers.Registry
}

// NewCompetitorService creates the AI-backed competitor identifier.
func NewCompetitorService(cfg *config.Config, registry *providers.Registry) CompetitorService {
	return &competitorService{cfg: cfg, registry: registry}
}

// IdentifyCompetitors asks a provider for the company's direct
// competitors. The identification asks for a JSON array, so a
// structured-output-capable provider is preferred; any usable provider
// serves as fallback. Scraped competitors from the company profile are
// used as seed context when present.
func (s *competitorService) IdentifyCompetitors(ctx context.Context, company models.Company) ([]string, error) {
	provider := s.registry.FirstStructured()
	if provider == nil {
		provider = s.registry.First()
	}
	handle := providers.HandleFor(provider, "")
	if handle == nil {
		return nil, fmt.Errorf("no provider available for competitor identification")
	}

	fmt.Printf("[CompetitorService] 🔍 Identifying competitors for %s via %s\n", company.Name, provider.Name())

	generation, err := handle.Generate(ctx, s.buildIdentificationPrompt(company), providers.GenerateOptions{
		SystemPrompt: "You are a market research analyst. Respond with a single JSON array of company names and nothing else.",
		Temperature:  0.3,
		MaxTokens:    500,
	})
	if err != nil {
		return nil, fmt.Errorf("competitor identification failed: %w", err)
	}

	names, err := parseNameArray(generation.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse competitor list: %w", err)
	}

	filtered := s.filterCompetitors(names, company)
	if max := s.cfg.Pipeline.MaxCompetitors; max > 0 && len(filtered) > max {
		filtered = filtered[:max]
	}
	fmt.Printf("[CompetitorService] ✅ Found %d competitors\n", len(filtered))
	return filtered, nil
}

func (s *competitorService) buildIdentificationPrompt(company models.Company) string {
	var context []string
	if company.Industry != "" {
		context = append(context, "Industry: "+company.Industry)
	}
	if company.Description != "" {
		context = append(context, "Description: "+company.Description)
	}
	if company.ScrapedData != nil {
		if len(company.ScrapedData.MainProducts) > 0 {
			context = append(context, "Main products: "+strings.Join(company.ScrapedData.MainProducts, ", "))
		}
		if len(company.ScrapedData.Competitors) > 0 {
			context = append(context, "Known competitors: "+strings.Join(company.ScrapedData.Competitors, ", "))
		}
	}

	return fmt.Sprintf(`List the direct competitors of the company below. Return ONLY a JSON array of competitor company names, most significant first.

Company: %s (%s)
%s`, company.Name, company.URL, strings.Join(context, "\n"))
}

// filterCompetitors drops blanks, duplicates, the brand itself, and
// generic retailers (unless the company is a marketplace).
func (s *competitorService) filterCompetitors(names []string, company models.Company) []string {
	isMarketplace := false
	industry := strings.ToLower(company.Industry)
	for _, term := range marketplaceIndustryTerms {
		if strings.Contains(industry, term) {
			isMarketplace = true
			break
		}
	}

	var out []string
	seen := make(map[string]bool)
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		key := strings.ToLower(trimmed)
		if trimmed == "" || seen[key] {
			continue
		}
		if strings.EqualFold(trimmed, company.Name) {
			continue
		}
		if genericRetailers[key] && !isMarketplace {
			continue
		}
		seen[key] = true
		out = append(out, trimmed)
	}
	return out
}

// parseNameArray reads a JSON string array out of model text, tolerating
// markdown fences and surrounding prose.
func parseNameArray(text string) ([]string, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array found")
	}
	var names []string
	if err := json.Unmarshal([]byte(text[start:end+1]), &names); err != nil {
		return nil, err
	}
	return names, nil
}
