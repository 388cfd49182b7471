// services/interfaces.go
package services

import (
	"context"

	"github.com/brandlens/brandlens-workflows/internal/models"
	"github.com/brandlens/brandlens-workflows/internal/providers"
	"github.com/invopop/jsonschema"
)

// PromptService produces the prompt set for one analysis run.
type PromptService interface {
	GeneratePrompts(company models.Company) []models.Prompt
	WrapCustomPrompts(texts []string) []models.Prompt
}

// CompetitorService resolves the competitor list when the caller did not
// supply one.
type CompetitorService interface {
	IdentifyCompetitors(ctx context.Context, company models.Company) ([]string, error)
}

// AnalyzeRequest is the input for one (prompt, provider) task.
type AnalyzeRequest struct {
	PromptText   string
	Provider     providers.Provider
	BrandName    string
	Competitors  []string
	CompanyURL   string
	UseMockMode  bool
	UseWebSearch bool
}

// ResponseAnalyzer turns one provider call into a structured AIResponse.
// A (nil, nil) return means the provider is unusable (disabled or missing
// credentials); the task is skipped, not failed.
type ResponseAnalyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*models.AIResponse, error)
}

// ExtractedAnalysis is the structured reading of one raw response,
// whichever extraction strategy produced it.
type ExtractedAnalysis struct {
	Rankings       []models.Ranking
	BrandMentioned bool
	BrandPosition  *int
	Competitors    []string
	Sentiment      models.Sentiment
	Confidence     float64
	Strategy       string
}

// ExtractionService runs the structured-extraction ladder over raw model
// text. It degrades through its strategies internally and only fails when
// every strategy fails, which the final heuristic never does.
type ExtractionService interface {
	Extract(ctx context.Context, promptText, rawResponse, brandName string, competitors []string) (*ExtractedAnalysis, error)
}

// Aggregator is the pure scoring stage over a completed response set.
type Aggregator interface {
	CalculateRankings(brandName string, competitors []string, responses []models.AIResponse) []models.CompetitorRanking
	CalculateScores(brandName string, rankings []models.CompetitorRanking, totalResponses int) models.Scores
	ProviderBreakdown(brandName string, competitors []string, responses []models.AIResponse) (map[string][]models.CompetitorRanking, []models.ProviderComparison)
	ApplyWeekOverWeek(rankings []models.CompetitorRanking, previous []models.CompetitorRanking)
}

// AnalysisRequest is the inbound trigger for a full run.
type AnalysisRequest struct {
	Company      models.Company `json:"company"`
	Prompts      []string       `json:"prompts,omitempty"`
	Competitors  []string       `json:"competitors,omitempty"`
	UseWebSearch bool           `json:"useWebSearch,omitempty"`
	UseMockMode  bool           `json:"useMockMode,omitempty"`
}

// EventSink receives lifecycle events during a run. The orchestrator
// serializes calls; sinks need no locking of their own.
type EventSink func(models.ProgressEvent)

// Orchestrator drives the full prompt×provider grid to completion.
type Orchestrator interface {
	Run(ctx context.Context, req AnalysisRequest, emit EventSink) (*models.AnalysisResult, error)
}

// GenerateSchema generates a JSON schema for structured outputs.
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	var zero T
	schema := reflector.Reflect(zero)

	// Convert to the format expected by OpenAI
	result := map[string]interface{}{
		"type":       "object",
		"properties": schema.Properties,
		"required":   schema.Required,
	}

	if schema.AdditionalProperties != nil {
		result["additionalProperties"] = false
	}

	return result
}
