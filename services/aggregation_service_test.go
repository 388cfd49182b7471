// services/aggregation_service_test.go
package services

import (
	"math"
	"testing"

	"github.com/brandlens/brandlens-workflows/internal/models"
)

func intPtr(v int) *int { return &v }

func TestCalculateRankingsCountsEachResponseOnce(t *testing.T) {
	agg := NewAggregationService()

	// Acme appears twice in the rankings and once in the competitor list
	// of the same response. That is still one mention.
	responses := []models.AIResponse{
		{
			Provider: "OpenAI",
			Rankings: []models.Ranking{
				{Position: 1, Company: "Acme", Sentiment: models.SentimentPositive},
				{Position: 4, Company: "Acme", Sentiment: models.SentimentPositive},
			},
			Competitors:    []string{"Acme"},
			BrandMentioned: true,
		},
	}

	rankings := agg.CalculateRankings("Acme", []string{"Globex"}, responses)
	if rankings[0].Name != "Acme" {
		t.Fatalf("expected Acme first, got %s", rankings[0].Name)
	}
	if rankings[0].Mentions != 1 {
		t.Errorf("expected 1 mention, got %d", rankings[0].Mentions)
	}
}

func TestCalculateRankingsScenario(t *testing.T) {
	agg := NewAggregationService()

	responses := []models.AIResponse{
		{
			Provider: "OpenAI",
			Rankings: []models.Ranking{
				{Position: 1, Company: "Acme", Sentiment: models.SentimentPositive},
				{Position: 2, Company: "Globex", Sentiment: models.SentimentNeutral},
			},
			Competitors:    []string{"Globex"},
			BrandMentioned: true,
			BrandPosition:  intPtr(1),
			Sentiment:      models.SentimentPositive,
		},
		{
			Provider:       "Anthropic",
			BrandMentioned: true,
			BrandPosition:  intPtr(3),
			Sentiment:      models.SentimentNeutral,
		},
	}

	rankings := agg.CalculateRankings("Acme", []string{"Globex", "Initech"}, responses)
	if len(rankings) != 3 {
		t.Fatalf("expected 3 rankings, got %d", len(rankings))
	}

	acme, globex, initech := rankings[0], rankings[1], rankings[2]
	if acme.Name != "Acme" || globex.Name != "Globex" || initech.Name != "Initech" {
		t.Fatalf("unexpected order: %s, %s, %s", acme.Name, globex.Name, initech.Name)
	}

	if !acme.IsOwnBrand {
		t.Error("expected Acme flagged as own brand")
	}
	if acme.Mentions != 2 || acme.VisibilityScore != 100 {
		t.Errorf("Acme: mentions=%d visibility=%v", acme.Mentions, acme.VisibilityScore)
	}
	if acme.AveragePosition != 2 {
		t.Errorf("expected Acme average position 2, got %v", acme.AveragePosition)
	}
	if acme.ShareOfVoice != 66.7 {
		t.Errorf("expected Acme share of voice 66.7, got %v", acme.ShareOfVoice)
	}
	if acme.SentimentScore != 83.3 || acme.Sentiment != models.SentimentPositive {
		t.Errorf("Acme sentiment: score=%v dominant=%s", acme.SentimentScore, acme.Sentiment)
	}

	if globex.Mentions != 1 || globex.VisibilityScore != 50 || globex.ShareOfVoice != 33.3 {
		t.Errorf("Globex: mentions=%d visibility=%v sov=%v", globex.Mentions, globex.VisibilityScore, globex.ShareOfVoice)
	}
	if globex.AveragePosition != 2 || globex.Sentiment != models.SentimentNeutral {
		t.Errorf("Globex: avgPos=%v sentiment=%s", globex.AveragePosition, globex.Sentiment)
	}

	if initech.Mentions != 0 || initech.VisibilityScore != 0 || initech.ShareOfVoice != 0 {
		t.Errorf("Initech should be all zero, got %+v", initech)
	}
	if initech.AveragePosition != 99 {
		t.Errorf("expected unranked sentinel 99, got %v", initech.AveragePosition)
	}
	if initech.SentimentScore != 50 {
		t.Errorf("expected default sentiment score 50, got %v", initech.SentimentScore)
	}

	// Share of voice partitions 100 across mentioned companies
	sovSum := acme.ShareOfVoice + globex.ShareOfVoice + initech.ShareOfVoice
	if math.Abs(sovSum-100) > 0.2 {
		t.Errorf("share of voice should sum to ~100, got %v", sovSum)
	}
}

func TestCalculateScores(t *testing.T) {
	agg := NewAggregationService()

	tests := []struct {
		name  string
		brand models.CompetitorRanking
		want  models.Scores
	}{
		{
			name: "ranked brand",
			brand: models.CompetitorRanking{
				Name: "Acme", IsOwnBrand: true,
				VisibilityScore: 100, SentimentScore: 83.3, ShareOfVoice: 66.7, AveragePosition: 2,
			},
			// 0.3*100 + 0.2*83.3 + 0.3*66.7 + 0.2*90
			want: models.Scores{VisibilityScore: 100, SentimentScore: 83.3, ShareOfVoice: 66.7, AveragePosition: 2, OverallScore: 84.7},
		},
		{
			name: "never ranked zeroes position score",
			brand: models.CompetitorRanking{
				Name: "Acme", IsOwnBrand: true,
				VisibilityScore: 50, SentimentScore: 50, ShareOfVoice: 50, AveragePosition: 99,
			},
			// 0.3*50 + 0.2*50 + 0.3*50 + 0.2*0
			want: models.Scores{VisibilityScore: 50, SentimentScore: 50, ShareOfVoice: 50, AveragePosition: 99, OverallScore: 40},
		},
		{
			name: "position just past the linear band",
			brand: models.CompetitorRanking{
				Name: "Acme", IsOwnBrand: true,
				VisibilityScore: 0, SentimentScore: 0, ShareOfVoice: 0, AveragePosition: 12,
			},
			// max(0, 100-24) = 76 -> 0.2*76
			want: models.Scores{AveragePosition: 12, OverallScore: 15.2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := agg.CalculateScores("Acme", []models.CompetitorRanking{tt.brand}, 4)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCalculateScoresEmptyRun(t *testing.T) {
	agg := NewAggregationService()

	if got := agg.CalculateScores("Acme", nil, 0); got != (models.Scores{}) {
		t.Errorf("empty run should score all zeros, got %+v", got)
	}

	// Responses without a brand row score all zeros too
	rankings := []models.CompetitorRanking{{Name: "Globex", Mentions: 1}}
	if got := agg.CalculateScores("Acme", rankings, 2); got != (models.Scores{}) {
		t.Errorf("run without a brand row should score all zeros, got %+v", got)
	}
}

func TestOverallScoreBounds(t *testing.T) {
	agg := NewAggregationService()
	best := models.CompetitorRanking{
		Name: "Acme", IsOwnBrand: true,
		VisibilityScore: 100, SentimentScore: 100, ShareOfVoice: 100, AveragePosition: 1,
	}
	got := agg.CalculateScores("Acme", []models.CompetitorRanking{best}, 1)
	if got.OverallScore != 100 {
		t.Errorf("perfect inputs should score 100, got %v", got.OverallScore)
	}
}

func TestDominantSentiment(t *testing.T) {
	tests := []struct {
		name       string
		sentiments []models.Sentiment
		want       models.Sentiment
	}{
		{"empty defaults neutral", nil, models.SentimentNeutral},
		{"clear positive", []models.Sentiment{models.SentimentPositive, models.SentimentPositive, models.SentimentNegative}, models.SentimentPositive},
		{"clear negative", []models.Sentiment{models.SentimentNegative, models.SentimentNegative, models.SentimentNeutral}, models.SentimentNegative},
		{"tie falls back to neutral", []models.Sentiment{models.SentimentPositive, models.SentimentNegative}, models.SentimentNeutral},
		{"positive-neutral tie is neutral", []models.Sentiment{models.SentimentPositive, models.SentimentNeutral}, models.SentimentNeutral},
		{
			"positive plurality without majority is neutral",
			[]models.Sentiment{
				models.SentimentPositive, models.SentimentPositive, models.SentimentPositive,
				models.SentimentNegative, models.SentimentNegative,
				models.SentimentNeutral, models.SentimentNeutral,
			},
			models.SentimentNeutral,
		},
		{
			"positive strict majority wins",
			[]models.Sentiment{
				models.SentimentPositive, models.SentimentPositive, models.SentimentPositive,
				models.SentimentNegative, models.SentimentNeutral,
			},
			models.SentimentPositive,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dominantSentiment(tt.sentiments); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestProviderBreakdown(t *testing.T) {
	agg := NewAggregationService()

	responses := []models.AIResponse{
		{Provider: "OpenAI", BrandMentioned: true, Sentiment: models.SentimentPositive},
		{Provider: "OpenAI", Competitors: []string{"Globex"}},
		{Provider: "Anthropic", BrandMentioned: true, Sentiment: models.SentimentNeutral},
	}

	providerRankings, comparison := agg.ProviderBreakdown("Acme", []string{"Globex"}, responses)

	if len(providerRankings) != 2 {
		t.Fatalf("expected 2 provider slices, got %d", len(providerRankings))
	}
	openai := providerRankings["OpenAI"]
	if openai[0].Name != "Acme" || openai[0].VisibilityScore != 50 {
		t.Errorf("OpenAI slice: %+v", openai[0])
	}

	if len(comparison) != 2 {
		t.Fatalf("expected 2 comparison rows, got %d", len(comparison))
	}
	var acmeRow *models.ProviderComparison
	for i := range comparison {
		if comparison[i].Company == "Acme" {
			acmeRow = &comparison[i]
		}
	}
	if acmeRow == nil {
		t.Fatal("Acme missing from comparison matrix")
	}
	if !acmeRow.IsOwnBrand {
		t.Error("Acme row should be flagged as own brand")
	}
	if acmeRow.Providers["OpenAI"] != 50 || acmeRow.Providers["Anthropic"] != 100 {
		t.Errorf("Acme per-provider visibility: %+v", acmeRow.Providers)
	}
	// Acme averages higher than Globex, so it sorts first
	if comparison[0].Company != "Acme" {
		t.Errorf("expected Acme first in comparison, got %s", comparison[0].Company)
	}
}

func TestApplyWeekOverWeek(t *testing.T) {
	agg := NewAggregationService()

	current := []models.CompetitorRanking{
		{Name: "Acme", VisibilityScore: 75},
		{Name: "Globex", VisibilityScore: 40},
		{Name: "Newcomer", VisibilityScore: 10},
	}
	previous := []models.CompetitorRanking{
		{Name: "acme", VisibilityScore: 50},
		{Name: "Globex", VisibilityScore: 60},
	}

	agg.ApplyWeekOverWeek(current, previous)

	if current[0].ChangeFromLastWeek == nil || *current[0].ChangeFromLastWeek != 25 {
		t.Errorf("Acme delta: %v", current[0].ChangeFromLastWeek)
	}
	if current[1].ChangeFromLastWeek == nil || *current[1].ChangeFromLastWeek != -20 {
		t.Errorf("Globex delta: %v", current[1].ChangeFromLastWeek)
	}
	if current[2].ChangeFromLastWeek != nil {
		t.Errorf("companies without history should keep nil delta, got %v", *current[2].ChangeFromLastWeek)
	}
}

func TestRankingsSortedByVisibility(t *testing.T) {
	agg := NewAggregationService()

	responses := []models.AIResponse{
		{Provider: "OpenAI", Competitors: []string{"Globex", "Initech"}},
		{Provider: "OpenAI", Competitors: []string{"Globex"}},
	}

	rankings := agg.CalculateRankings("Acme", []string{"Initech", "Globex"}, responses)
	if rankings[0].Name != "Globex" || rankings[1].Name != "Initech" || rankings[2].Name != "Acme" {
		t.Errorf("unexpected order: %s, %s, %s", rankings[0].Name, rankings[1].Name, rankings[2].Name)
	}
}
