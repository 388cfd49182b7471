// services/analyzer_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/brandlens/brandlens-workflows/internal/config"
	"github.com/brandlens/brandlens-workflows/internal/providers/testutil"
)

func offlineAnalyzer() ResponseAnalyzer {
	cfg := &config.Config{
		Pipeline: config.PipelineConfig{ExtractionModel: "gpt-4.1-mini"},
	}
	return NewAnalyzerService(cfg, NewExtractionService(cfg))
}

func TestAnalyzeOfflinePipeline(t *testing.T) {
	provider := testutil.NewFakeProvider("ProvA", `The strongest options are:
1. Acme - excellent all around (see https://acme.com/reviews)
2. Globex - solid but pricier (https://example.org/globex-review)`)

	response, err := offlineAnalyzer().Analyze(context.Background(), AnalyzeRequest{
		PromptText:  "best widgets?",
		Provider:    provider,
		BrandName:   "Acme",
		Competitors: []string{"Globex", "Initech"},
		CompanyURL:  "https://acme.com",
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if response.Provider != "ProvA" || response.Prompt != "best widgets?" {
		t.Errorf("response identity: provider=%s prompt=%q", response.Provider, response.Prompt)
	}
	if !response.BrandMentioned {
		t.Error("expected brand mentioned")
	}
	if len(response.BrandMatches) == 0 {
		t.Error("expected matcher hits for the brand")
	}
	if len(response.Competitors) != 1 || response.Competitors[0] != "Globex" {
		t.Errorf("expected only Globex confirmed, got %v", response.Competitors)
	}
	if len(response.CompMatches) != 1 || response.CompMatches[0].Name != "Globex" {
		t.Errorf("competitor matches: %+v", response.CompMatches)
	}

	if len(response.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %v", response.Citations)
	}
	types := map[string]string{}
	for _, citation := range response.Citations {
		types[citation.URL] = citation.Type
	}
	if types["https://acme.com/reviews"] != "primary" {
		t.Errorf("company-domain URL should be primary: %v", types)
	}
	if types["https://example.org/globex-review"] != "secondary" {
		t.Errorf("third-party URL should be secondary: %v", types)
	}
}

func TestAnalyzeSkipsUnusableProvider(t *testing.T) {
	provider := testutil.NewFakeProvider("ProvA", "ignored")
	provider.ConfiguredFlag = false

	response, err := offlineAnalyzer().Analyze(context.Background(), AnalyzeRequest{
		PromptText: "best widgets?",
		Provider:   provider,
		BrandName:  "Acme",
	})
	if err != nil {
		t.Fatalf("unusable provider should not error: %v", err)
	}
	if response != nil {
		t.Fatal("unusable provider should yield nil response")
	}
	if len(provider.Calls) != 0 {
		t.Errorf("provider should never be called, saw %d calls", len(provider.Calls))
	}
}

func TestAnalyzeMockModeDeterministic(t *testing.T) {
	provider := testutil.NewFakeProvider("ProvA", "ignored")
	analyzer := offlineAnalyzer()

	req := AnalyzeRequest{
		PromptText:  "best widgets?",
		Provider:    provider,
		BrandName:   "Acme",
		Competitors: []string{"Globex", "Initech", "Umbrella"},
		UseMockMode: true,
	}

	first, err := analyzer.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("mock analyze failed: %v", err)
	}
	second, err := analyzer.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("mock analyze failed: %v", err)
	}

	if len(provider.Calls) != 0 {
		t.Error("mock mode must not call the provider")
	}
	if first.Response != second.Response {
		t.Error("mock responses should be deterministic per (prompt, provider)")
	}
	if first.BrandMentioned != second.BrandMentioned {
		t.Error("mock mention flag should be deterministic")
	}
	if len(first.Rankings) == 0 {
		t.Error("mock response should carry rankings")
	}

	other := req
	other.PromptText = "top widget brands?"
	third, err := analyzer.Analyze(context.Background(), other)
	if err != nil {
		t.Fatalf("mock analyze failed: %v", err)
	}
	if third.Response == first.Response {
		t.Error("different prompts should vary the mock output")
	}
}

func TestUnionMentionSignals(t *testing.T) {
	tests := []struct {
		ai, matcher, want bool
	}{
		{false, false, false},
		{true, false, true},
		{false, true, true},
		{true, true, true},
	}
	for _, tt := range tests {
		if got := unionMentionSignals(tt.ai, tt.matcher); got != tt.want {
			t.Errorf("unionMentionSignals(%v, %v) = %v, want %v", tt.ai, tt.matcher, got, tt.want)
		}
	}
}
