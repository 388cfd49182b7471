// workflows/scheduled_processor.go
package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"

	"github.com/brandlens/brandlens-workflows/internal/models"
	"github.com/brandlens/brandlens-workflows/internal/store"
)

// activeWindow bounds how far back the weekly refresh looks for companies
// worth re-analyzing.
const activeWindow = 30 * 24 * time.Hour

type ScheduledProcessor struct {
	resultStore *store.Store
	client      inngestgo.Client
}

func NewScheduledProcessor(resultStore *store.Store) *ScheduledProcessor {
	return &ScheduledProcessor{
		resultStore: resultStore,
	}
}

func (p *ScheduledProcessor) SetClient(client inngestgo.Client) {
	p.client = client
}

// WeeklyRefresh re-runs the analysis for every recently analyzed company,
// so week-over-week deltas stay populated without manual triggers.
func (p *ScheduledProcessor) WeeklyRefresh() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:   "weekly-analysis-refresh",
			Name: "Weekly Brand Visibility Refresh",
		},
		inngestgo.CronTrigger("0 3 * * 1"), // Every Monday at 3 AM UTC
		func(ctx context.Context, input inngestgo.Input[any]) (any, error) {
			now := time.Now()

			// Step 1: find the companies analyzed inside the active window
			companies, err := step.Run(ctx, "get-active-companies", func(ctx context.Context) ([]models.Company, error) {
				return p.resultStore.ActiveCompanies(ctx, now.Add(-activeWindow))
			})
			if err != nil {
				return nil, fmt.Errorf("failed to get active companies: %w", err)
			}

			if len(companies) == 0 {
				return map[string]interface{}{
					"execution_date":  now.Format("2006-01-02"),
					"companies_found": 0,
					"message":         "No active companies to refresh",
				}, nil
			}

			// Step 2: trigger one idempotent analysis event per company.
			// A failed send retries alone without re-sending the others.
			for _, company := range companies {
				stepName := fmt.Sprintf("trigger-analysis-%s", company.URL)
				_, err := step.Run(ctx, stepName, func(ctx context.Context) (interface{}, error) {
					evt := inngestgo.Event{
						Name: "analysis.requested",
						Data: map[string]interface{}{
							"company":     company,
							"triggeredBy": "weekly_refresh",
						},
					}
					return p.client.Send(ctx, evt)
				})
				if err != nil {
					// Keep refreshing the remaining companies
					fmt.Printf("Warning: Failed to send event for %s: %v\n", company.URL, err)
				}
			}

			return map[string]interface{}{
				"execution_date":  now.Format("2006-01-02"),
				"companies_found": len(companies),
				"message":         fmt.Sprintf("Triggered %d analysis refreshes", len(companies)),
			}, nil
		},
	)

	if err != nil {
		fmt.Printf("Failed to create weekly refresh function: %v\n", err)
	}

	return fn
}
