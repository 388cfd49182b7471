// internal/providers/cost.go
package providers

import "strings"

// Per-million-token prices. Close enough for relative cost tracking; the
// pipeline only surfaces these numbers, it never bills from them.
var modelCosts = map[string]struct{ input, output float64 }{
	"gpt-4.1":          {2.00, 8.00},
	"gpt-4.1-mini":     {0.40, 1.60},
	"gpt-4o":           {2.50, 10.00},
	"claude-sonnet-4":  {3.00, 15.00},
	"claude-haiku-3-5": {0.80, 4.00},
	"sonar":            {1.00, 1.00},
	"gemini-2.0-flash": {0.10, 0.40},
}

const webSearchSurcharge = 0.01 // flat per-call

// calculateCost estimates the dollar cost of one call.
func calculateCost(model string, inputTokens, outputTokens int, webSearch bool) float64 {
	var cost float64
	longest := 0
	for prefix, price := range modelCosts {
		// Longest matching prefix wins so "gpt-4.1-mini" never prices as "gpt-4.1"
		if strings.HasPrefix(strings.ToLower(model), prefix) && len(prefix) > longest {
			longest = len(prefix)
			cost = float64(inputTokens)/1e6*price.input + float64(outputTokens)/1e6*price.output
		}
	}
	if webSearch {
		cost += webSearchSurcharge
	}
	return cost
}
