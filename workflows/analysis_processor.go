// workflows/analysis_processor.go
package workflows

import (
	"context"
	"fmt"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"

	"github.com/brandlens/brandlens-workflows/internal/config"
	"github.com/brandlens/brandlens-workflows/internal/models"
	"github.com/brandlens/brandlens-workflows/internal/store"
	"github.com/brandlens/brandlens-workflows/services"
)

// AnalysisRequestedEvent is the payload of the "analysis.requested" event.
type AnalysisRequestedEvent struct {
	Company      models.Company `json:"company"`
	Prompts      []string       `json:"prompts,omitempty"`
	Competitors  []string       `json:"competitors,omitempty"`
	UseWebSearch bool           `json:"useWebSearch,omitempty"`
	UseMockMode  bool           `json:"useMockMode,omitempty"`
	TriggeredBy  string         `json:"triggeredBy,omitempty"`
}

type AnalysisProcessor struct {
	orchestrator services.Orchestrator
	aggregator   services.Aggregator
	resultStore  *store.Store
	client       inngestgo.Client
	cfg          *config.Config
}

// NewAnalysisProcessor creates the background analysis workflow. The store
// may be nil; history steps are skipped then.
func NewAnalysisProcessor(orchestrator services.Orchestrator, aggregator services.Aggregator, resultStore *store.Store, cfg *config.Config) *AnalysisProcessor {
	return &AnalysisProcessor{
		orchestrator: orchestrator,
		aggregator:   aggregator,
		resultStore:  resultStore,
		cfg:          cfg,
	}
}

func (p *AnalysisProcessor) SetClient(client inngestgo.Client) {
	p.client = client
}

// ProcessAnalysis runs the full pipeline for one "analysis.requested"
// event: analyze, annotate against history, persist.
func (p *AnalysisProcessor) ProcessAnalysis() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:      "process-analysis",
			Name:    "Process Brand Visibility Analysis",
			Retries: inngestgo.IntPtr(3),
		},
		inngestgo.EventTrigger("analysis.requested", nil),
		func(ctx context.Context, input inngestgo.Input[AnalysisRequestedEvent]) (any, error) {
			event := input.Event.Data
			fmt.Printf("[ProcessAnalysis] Starting background analysis for %s (triggered by %s)\n", event.Company.Name, event.TriggeredBy)

			// Step 1: run the full pipeline. Background runs have no
			// stream consumer, so events are dropped.
			result, err := step.Run(ctx, "run-analysis-pipeline", func(ctx context.Context) (*models.AnalysisResult, error) {
				return p.orchestrator.Run(ctx, services.AnalysisRequest{
					Company:      event.Company,
					Prompts:      event.Prompts,
					Competitors:  event.Competitors,
					UseWebSearch: event.UseWebSearch,
					UseMockMode:  event.UseMockMode,
				}, nil)
			})
			if err != nil {
				return nil, fmt.Errorf("step 1 failed: %w", err)
			}

			// Step 2: annotate rankings with the week-over-week change
			// against the newest stored run.
			if p.resultStore != nil {
				result, err = step.Run(ctx, "apply-week-over-week", func(ctx context.Context) (*models.AnalysisResult, error) {
					previous, err := p.resultStore.LatestBefore(ctx, result.Company.URL, result.CreatedAt)
					if err != nil {
						return nil, fmt.Errorf("failed to load previous result: %w", err)
					}
					if previous != nil {
						p.aggregator.ApplyWeekOverWeek(result.Competitors, previous.Competitors)
					}
					return result, nil
				})
				if err != nil {
					return nil, fmt.Errorf("step 2 failed: %w", err)
				}

				// Step 3: persist for the next delta and the weekly refresh.
				if _, err := step.Run(ctx, "persist-result", func(ctx context.Context) (any, error) {
					return nil, p.resultStore.SaveResult(ctx, result)
				}); err != nil {
					return nil, fmt.Errorf("step 3 failed: %w", err)
				}
			}

			return map[string]interface{}{
				"company":       result.Company.Name,
				"responses":     len(result.Responses),
				"competitors":   len(result.Competitors),
				"overall_score": result.Scores.OverallScore,
				"errors":        len(result.Errors),
			}, nil
		},
	)

	if err != nil {
		fmt.Printf("Failed to create process-analysis function: %v\n", err)
	}

	return fn
}
