// services/orchestrator_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/brandlens/brandlens-workflows/internal/config"
	"github.com/brandlens/brandlens-workflows/internal/models"
	"github.com/brandlens/brandlens-workflows/internal/providers"
)

type orchestratorService struct {
	cfg         *config.Config
	registry    *providers.Registry
	prompts     PromptService
	competitors CompetitorService
	analyzer    ResponseAnalyzer
	aggregator  Aggregator
}

// NewOrchestratorService wires the full pipeline. The provider set comes
// in as data; the orchestrator never consults global state.
func NewOrchestratorService(cfg *config.Config, registry *providers.Registry, prompts PromptService, competitors CompetitorService, analyzer ResponseAnalyzer, aggregator Aggregator) Orchestrator {
	return &orchestratorService{
		cfg:         cfg,
		registry:    registry,
		prompts:     prompts,
		competitors: competitors,
		analyzer:    analyzer,
		aggregator:  aggregator,
	}
}

// Run executes the analysis end to end, emitting lifecycle events as it
// goes. Individual task failures degrade the result; only "no providers",
// "no prompts", and cancellation are terminal.
func (s *orchestratorService) Run(ctx context.Context, req AnalysisRequest, emit EventSink) (*models.AnalysisResult, error) {
	if emit == nil {
		emit = func(models.ProgressEvent) {}
	}
	var emitMu sync.Mutex
	send := func(event models.ProgressEvent) {
		emitMu.Lock()
		defer emitMu.Unlock()
		event.Timestamp = time.Now().UTC()
		emit(event)
	}
	stage := func(name models.Stage) {
		send(models.ProgressEvent{Type: models.EventStage, Stage: name})
	}
	fail := func(stageName models.Stage, err error) (*models.AnalysisResult, error) {
		send(models.ProgressEvent{
			Type:  models.EventError,
			Stage: stageName,
			Data:  map[string]string{"message": err.Error()},
		})
		return nil, err
	}

	send(models.ProgressEvent{
		Type:  models.EventStart,
		Stage: models.StageInitializing,
		Data:  map[string]string{"company": req.Company.Name},
	})

	providerSet := s.selectProviders(req)
	if len(providerSet) == 0 {
		return fail(models.StageInitializing, fmt.Errorf("no AI providers configured"))
	}
	fmt.Printf("[Orchestrator] 🚀 Starting analysis for %s with %d providers\n", req.Company.Name, len(providerSet))

	var runErrors []string
	var errorsMu sync.Mutex
	recordError := func(message string) {
		errorsMu.Lock()
		defer errorsMu.Unlock()
		runErrors = append(runErrors, message)
	}

	stage(models.StageIdentifyingCompetitors)
	competitors := s.resolveCompetitors(ctx, req, recordError)
	for _, name := range competitors {
		send(models.ProgressEvent{
			Type:  models.EventCompetitorFound,
			Stage: models.StageIdentifyingCompetitors,
			Data:  map[string]string{"name": name},
		})
	}

	stage(models.StageGeneratingPrompts)
	var prompts []models.Prompt
	if len(req.Prompts) > 0 {
		prompts = s.prompts.WrapCustomPrompts(req.Prompts)
	} else {
		prompts = s.prompts.GeneratePrompts(req.Company)
	}
	if len(prompts) == 0 {
		return fail(models.StageGeneratingPrompts, fmt.Errorf("no prompts to analyze"))
	}
	for _, prompt := range prompts {
		send(models.ProgressEvent{
			Type:  models.EventPromptGenerated,
			Stage: models.StageGeneratingPrompts,
			Data:  prompt,
		})
	}

	stage(models.StageAnalyzingPrompts)
	responses, err := s.runTaskGrid(ctx, req, prompts, providerSet, competitors, send, recordError)
	if err != nil {
		return fail(models.StageAnalyzingPrompts, err)
	}

	stage(models.StageCalculatingScores)
	rankings := s.aggregator.CalculateRankings(req.Company.Name, competitors, responses)
	scores := s.aggregator.CalculateScores(req.Company.Name, rankings, len(responses))
	providerRankings, comparison := s.aggregator.ProviderBreakdown(req.Company.Name, competitors, responses)

	stage(models.StageFinalizing)
	result := &models.AnalysisResult{
		Company:            req.Company,
		KnownCompetitors:   competitors,
		Prompts:            prompts,
		Responses:          responses,
		Competitors:        rankings,
		ProviderRankings:   providerRankings,
		ProviderComparison: comparison,
		Scores:             scores,
		Errors:             runErrors,
		CreatedAt:          time.Now().UTC(),
	}

	send(models.ProgressEvent{
		Type:  models.EventComplete,
		Stage: models.StageFinalizing,
		Data:  result,
	})
	fmt.Printf("[Orchestrator] ✅ Analysis complete: %d responses, overall score %.1f\n", len(responses), scores.OverallScore)
	return result, nil
}

// runTaskGrid runs the prompt×provider grid in prompt batches. All tasks
// of a batch run concurrently; cancellation is honored between batches.
func (s *orchestratorService) runTaskGrid(ctx context.Context, req AnalysisRequest, prompts []models.Prompt, providerSet []providers.Provider, competitors []string, send EventSink, recordError func(string)) ([]models.AIResponse, error) {
	batchSize := s.cfg.Pipeline.BatchSize
	if batchSize <= 0 {
		batchSize = 3
	}

	total := len(prompts) * len(providerSet)
	completed := 0
	var responses []models.AIResponse
	var mu sync.Mutex

	settle := func(response *models.AIResponse) {
		mu.Lock()
		defer mu.Unlock()
		if response != nil {
			responses = append(responses, *response)
		}
		completed++
		send(models.ProgressEvent{
			Type:  models.EventProgress,
			Stage: models.StageAnalyzingPrompts,
			Data: models.ProgressData{
				Completed:  completed,
				Total:      total,
				Percentage: round1(100 * float64(completed) / float64(total)),
			},
		})
	}

	for start := 0; start < len(prompts); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analysis canceled: %w", err)
		}

		end := start + batchSize
		if end > len(prompts) {
			end = len(prompts)
		}
		batch := prompts[start:end]
		fmt.Printf("[Orchestrator] Processing prompt batch %d-%d of %d\n", start+1, end, len(prompts))

		var wg sync.WaitGroup
		for _, prompt := range batch {
			for _, provider := range providerSet {
				wg.Add(1)
				go func(prompt models.Prompt, provider providers.Provider) {
					defer wg.Done()
					s.runTask(ctx, req, prompt, provider, competitors, send, recordError, settle)
				}(prompt, provider)
			}
		}
		wg.Wait()
	}

	return responses, nil
}

// runTask executes one (prompt, provider) cell, keeping that task's event
// sequence strictly ordered.
func (s *orchestratorService) runTask(ctx context.Context, req AnalysisRequest, prompt models.Prompt, provider providers.Provider, competitors []string, send EventSink, recordError func(string), settle func(*models.AIResponse)) {
	send(models.ProgressEvent{
		Type:  models.EventAnalysisStart,
		Stage: models.StageAnalyzingPrompts,
		Data: models.TaskEventData{
			Prompt:   prompt.Text,
			Provider: provider.Name(),
			Status:   models.TaskStatusRunning,
		},
	})

	response, err := s.analyzer.Analyze(ctx, AnalyzeRequest{
		PromptText:   prompt.Text,
		Provider:     provider,
		BrandName:    req.Company.Name,
		Competitors:  competitors,
		CompanyURL:   req.Company.URL,
		UseMockMode:  req.UseMockMode,
		UseWebSearch: req.UseWebSearch,
	})

	status := models.TaskStatusCompleted
	switch {
	case err != nil:
		status = models.TaskStatusFailed
		recordError(fmt.Sprintf("%s: %v", provider.Name(), err))
		fmt.Printf("[Orchestrator] ❌ Task failed (%s): %v\n", provider.Name(), err)
	case response == nil:
		// Provider became unusable after selection. Skipped, not an error.
		status = models.TaskStatusFailed
	default:
		send(models.ProgressEvent{
			Type:  models.EventPartialResult,
			Stage: models.StageAnalyzingPrompts,
			Data: models.PartialResultData{
				Prompt:   prompt.Text,
				Provider: provider.Name(),
				Response: *response,
			},
		})
	}

	send(models.ProgressEvent{
		Type:  models.EventAnalysisComplete,
		Stage: models.StageAnalyzingPrompts,
		Data: models.TaskEventData{
			Prompt:   prompt.Text,
			Provider: provider.Name(),
			Status:   status,
		},
	})
	settle(response)
}

// selectProviders picks the run's provider set. Mock mode only needs the
// enabled set since no credentials are exercised.
func (s *orchestratorService) selectProviders(req AnalysisRequest) []providers.Provider {
	if req.UseMockMode {
		var enabled []providers.Provider
		for _, p := range s.registry.All() {
			if p.Enabled() {
				enabled = append(enabled, p)
			}
		}
		if len(enabled) > 0 {
			return enabled
		}
		return s.registry.All()
	}
	return s.registry.Configured()
}

// resolveCompetitors prefers the caller-supplied list and falls back to AI
// identification. Identification failure degrades to an empty list.
func (s *orchestratorService) resolveCompetitors(ctx context.Context, req AnalysisRequest, recordError func(string)) []string {
	if len(req.Competitors) > 0 {
		return dedupeNames(req.Competitors)
	}
	if req.UseMockMode {
		if req.Company.ScrapedData != nil {
			return dedupeNames(req.Company.ScrapedData.Competitors)
		}
		return nil
	}

	identified, err := s.competitors.IdentifyCompetitors(ctx, req.Company)
	if err != nil {
		recordError(fmt.Sprintf("competitor identification: %v", err))
		fmt.Printf("[Orchestrator] ⚠️ Competitor identification failed: %v\n", err)
		return nil
	}
	var out []string
	for _, name := range identified {
		if !strings.EqualFold(name, req.Company.Name) {
			out = append(out, name)
		}
	}
	return out
}
