// services/analyzer_service.go
package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	"github.com/brandlens/brandlens-workflows/internal/citations"
	"github.com/brandlens/brandlens-workflows/internal/config"
	"github.com/brandlens/brandlens-workflows/internal/matcher"
	"github.com/brandlens/brandlens-workflows/internal/models"
	"github.com/brandlens/brandlens-workflows/internal/providers"
)

type analyzerService struct {
	cfg        *config.Config
	extraction ExtractionService
}

// NewAnalyzerService creates the per-task analyzer. It owns the full path
// from one provider call to one structured AIResponse.
func NewAnalyzerService(cfg *config.Config, extraction ExtractionService) ResponseAnalyzer {
	return &analyzerService{cfg: cfg, extraction: extraction}
}

func (s *analyzerService) Analyze(ctx context.Context, req AnalyzeRequest) (*models.AIResponse, error) {
	if req.UseMockMode {
		return s.mockResponse(req), nil
	}

	handle := providers.HandleFor(req.Provider, "")
	if handle == nil {
		// Disabled or unconfigured provider. Skip, not fail.
		return nil, nil
	}

	generation, err := handle.Generate(ctx, req.PromptText, providers.GenerateOptions{
		WebSearch:    req.UseWebSearch,
		SystemPrompt: "You are a knowledgeable assistant helping users choose products and services. Answer naturally and mention specific companies and products where relevant.",
		Temperature:  0.7,
		MaxTokens:    2000,
	})
	if err != nil {
		return nil, fmt.Errorf("%s generation failed: %w", req.Provider.Name(), err)
	}

	extracted, err := s.extraction.Extract(ctx, req.PromptText, generation.Text, req.BrandName, req.Competitors)
	if err != nil {
		return nil, fmt.Errorf("extraction failed for %s: %w", req.Provider.Name(), err)
	}

	opts := matcher.DefaultOptions()
	brandResult := matcher.Detect(generation.Text, req.BrandName, opts)
	competitorResults := matcher.DetectMultiple(generation.Text, req.Competitors, opts)

	response := &models.AIResponse{
		Provider:       req.Provider.Name(),
		Prompt:         req.PromptText,
		Response:       generation.Text,
		Rankings:       extracted.Rankings,
		Competitors:    s.confirmedCompetitors(req, extracted, competitorResults),
		BrandMentioned: unionMentionSignals(extracted.BrandMentioned, brandResult.Mentioned),
		BrandPosition:  extracted.BrandPosition,
		Sentiment:      extracted.Sentiment,
		Confidence:     extracted.Confidence,
		Citations:      s.collectCitations(generation, req.CompanyURL),
		BrandMatches:   toModelMatches(brandResult.Matches),
		Timestamp:      time.Now().UTC(),
	}
	if response.Competitors == nil {
		response.Competitors = []string{}
	}
	for _, name := range req.Competitors {
		if result, ok := competitorResults[name]; ok && result.Mentioned {
			response.CompMatches = append(response.CompMatches, models.CompetitorMatch{
				Name:    name,
				Matches: toModelMatches(result.Matches),
			})
		}
	}
	return response, nil
}

// unionMentionSignals merges the two mention sources: the AI extraction
// reads context the matcher cannot, the matcher catches mentions the
// extraction misses. Either one saying "mentioned" counts.
func unionMentionSignals(aiReported, matcherConfirmed bool) bool {
	return aiReported || matcherConfirmed
}

// confirmedCompetitors maps both signal sources onto the tracked
// competitor list, in tracked casing, brand excluded.
func (s *analyzerService) confirmedCompetitors(req AnalyzeRequest, extracted *ExtractedAnalysis, matcherResults map[string]matcher.Result) []string {
	reported := make(map[string]bool, len(extracted.Competitors))
	for _, name := range extracted.Competitors {
		reported[strings.ToLower(strings.TrimSpace(name))] = true
	}

	var out []string
	for _, name := range req.Competitors {
		if strings.EqualFold(name, req.BrandName) {
			continue
		}
		matcherHit := false
		if result, ok := matcherResults[name]; ok {
			matcherHit = result.Mentioned
		}
		if unionMentionSignals(reported[strings.ToLower(name)], matcherHit) {
			out = append(out, name)
		}
	}
	return out
}

// collectCitations merges URLs the provider returned natively with URLs
// found in the response text.
func (s *analyzerService) collectCitations(generation *providers.Generation, companyURL string) []models.Citation {
	found := citations.Extract(generation.Text, companyURL)
	if len(generation.Citations) > 0 {
		native := citations.Extract(strings.Join(generation.Citations, "\n"), companyURL)
		seen := make(map[string]bool, len(found))
		for _, c := range found {
			seen[c.URL] = true
		}
		for _, c := range native {
			if !seen[c.URL] {
				seen[c.URL] = true
				found = append(found, c)
			}
		}
	}
	return found
}

func toModelMatches(matches []matcher.Match) []models.Match {
	out := make([]models.Match, 0, len(matches))
	for _, m := range matches {
		out = append(out, models.Match{Text: m.Text, Index: m.Index, Confidence: m.Confidence})
	}
	return out
}

// mockResponse fabricates a plausible deterministic response for demo runs
// with no provider credentials. The same (prompt, provider) pair always
// produces the same output.
func (s *analyzerService) mockResponse(req AnalyzeRequest) *models.AIResponse {
	seed := fnv.New64a()
	seed.Write([]byte(req.PromptText + "|" + req.Provider.Name()))
	rng := rand.New(rand.NewSource(int64(seed.Sum64())))

	names := append([]string{req.BrandName}, req.Competitors...)
	rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })
	count := len(names)
	if count > 5 {
		count = 5
	}

	var rankings []models.Ranking
	var brandPosition *int
	lines := []string{fmt.Sprintf("Considering %q, here are the top options:", req.PromptText)}
	sentiments := []models.Sentiment{models.SentimentPositive, models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative}
	for i := 0; i < count; i++ {
		sentiment := sentiments[rng.Intn(len(sentiments))]
		rankings = append(rankings, models.Ranking{
			Position:  i + 1,
			Company:   names[i],
			Reason:    "Strong option in this category",
			Sentiment: sentiment,
		})
		if strings.EqualFold(names[i], req.BrandName) {
			p := i + 1
			brandPosition = &p
		}
		lines = append(lines, fmt.Sprintf("%d. %s is a strong option in this category.", i+1, names[i]))
	}

	brandMentioned := brandPosition != nil || rng.Float64() < 0.3
	overall := models.SentimentNeutral
	if brandPosition != nil {
		if *brandPosition <= 2 {
			overall = models.SentimentPositive
		}
	}

	var competitors []string
	for _, r := range rankings {
		if !strings.EqualFold(r.Company, req.BrandName) {
			competitors = append(competitors, r.Company)
		}
	}
	if competitors == nil {
		competitors = []string{}
	}

	return &models.AIResponse{
		Provider:       req.Provider.Name(),
		Prompt:         req.PromptText,
		Response:       strings.Join(lines, "\n"),
		Rankings:       rankings,
		Competitors:    competitors,
		BrandMentioned: brandMentioned,
		BrandPosition:  brandPosition,
		Sentiment:      overall,
		Confidence:     0.95,
		Timestamp:      time.Now().UTC(),
	}
}
