// services/aggregation_service.go
package services

import (
	"math"
	"sort"
	"strings"

	"github.com/brandlens/brandlens-workflows/internal/models"
)

// unrankedPosition is the sentinel average position for a company that was
// never ranked. It sorts last and zeroes the position score.
const unrankedPosition = 99.0

type aggregationService struct{}

// NewAggregationService creates the scoring stage. It is pure computation:
// no configuration, no I/O, no randomness.
func NewAggregationService() Aggregator {
	return &aggregationService{}
}

// companyTally accumulates the per-company observations across a response
// set before scoring.
type companyTally struct {
	name       string
	isOwnBrand bool
	mentions   int
	positions  []int
	sentiments []models.Sentiment
}

// CalculateRankings folds a response set into one aggregate row per
// tracked company. Each response counts a company at most once, however
// many times it appears inside.
func (s *aggregationService) CalculateRankings(brandName string, competitors []string, responses []models.AIResponse) []models.CompetitorRanking {
	tallies, order := s.tally(brandName, competitors, responses)

	totalMentions := 0
	for _, t := range tallies {
		totalMentions += t.mentions
	}
	totalResponses := len(responses)

	rankings := make([]models.CompetitorRanking, 0, len(order))
	for _, key := range order {
		t := tallies[key]

		visibility := 0.0
		if totalResponses > 0 {
			visibility = round1(100 * float64(t.mentions) / float64(totalResponses))
		}
		shareOfVoice := 0.0
		if totalMentions > 0 {
			shareOfVoice = round1(100 * float64(t.mentions) / float64(totalMentions))
		}

		rankings = append(rankings, models.CompetitorRanking{
			Name:            t.name,
			Mentions:        t.mentions,
			AveragePosition: round1(averagePosition(t.positions)),
			Sentiment:       dominantSentiment(t.sentiments),
			SentimentScore:  round1(sentimentScore(t.sentiments)),
			ShareOfVoice:    shareOfVoice,
			VisibilityScore: visibility,
			IsOwnBrand:      t.isOwnBrand,
		})
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		if rankings[i].VisibilityScore != rankings[j].VisibilityScore {
			return rankings[i].VisibilityScore > rankings[j].VisibilityScore
		}
		if rankings[i].Mentions != rankings[j].Mentions {
			return rankings[i].Mentions > rankings[j].Mentions
		}
		return rankings[i].Name < rankings[j].Name
	})
	return rankings
}

// CalculateScores derives the brand's run-level scores from its aggregate
// row. An empty run, or one with no brand row, yields the all-zero struct;
// the 99 unranked sentinel only ever arrives through the brand's row.
func (s *aggregationService) CalculateScores(brandName string, rankings []models.CompetitorRanking, totalResponses int) models.Scores {
	if totalResponses == 0 {
		return models.Scores{}
	}

	var brand *models.CompetitorRanking
	for i := range rankings {
		if rankings[i].IsOwnBrand {
			brand = &rankings[i]
			break
		}
	}
	if brand == nil {
		return models.Scores{}
	}

	positionScore := 0.0
	if brand.AveragePosition <= 10 {
		positionScore = (11 - brand.AveragePosition) * 10
	} else {
		positionScore = math.Max(0, 100-2*brand.AveragePosition)
	}

	overall := 0.3*brand.VisibilityScore +
		0.2*brand.SentimentScore +
		0.3*brand.ShareOfVoice +
		0.2*positionScore

	return models.Scores{
		VisibilityScore: brand.VisibilityScore,
		SentimentScore:  brand.SentimentScore,
		ShareOfVoice:    brand.ShareOfVoice,
		OverallScore:    round1(overall),
		AveragePosition: brand.AveragePosition,
	}
}

// ProviderBreakdown recomputes the rankings per provider slice and builds
// the company×provider visibility matrix.
func (s *aggregationService) ProviderBreakdown(brandName string, competitors []string, responses []models.AIResponse) (map[string][]models.CompetitorRanking, []models.ProviderComparison) {
	byProvider := make(map[string][]models.AIResponse)
	var providerOrder []string
	for _, response := range responses {
		if _, ok := byProvider[response.Provider]; !ok {
			providerOrder = append(providerOrder, response.Provider)
		}
		byProvider[response.Provider] = append(byProvider[response.Provider], response)
	}

	providerRankings := make(map[string][]models.CompetitorRanking, len(byProvider))
	for provider, slice := range byProvider {
		providerRankings[provider] = s.CalculateRankings(brandName, competitors, slice)
	}

	visibility := make(map[string]map[string]float64)
	isOwn := make(map[string]bool)
	var companyOrder []string
	seen := make(map[string]bool)
	for _, provider := range providerOrder {
		for _, ranking := range providerRankings[provider] {
			if !seen[ranking.Name] {
				seen[ranking.Name] = true
				companyOrder = append(companyOrder, ranking.Name)
				visibility[ranking.Name] = make(map[string]float64)
			}
			visibility[ranking.Name][provider] = ranking.VisibilityScore
			isOwn[ranking.Name] = isOwn[ranking.Name] || ranking.IsOwnBrand
		}
	}

	comparison := make([]models.ProviderComparison, 0, len(companyOrder))
	for _, company := range companyOrder {
		row := models.ProviderComparison{
			Company:    company,
			Providers:  make(map[string]float64, len(providerOrder)),
			IsOwnBrand: isOwn[company],
		}
		for _, provider := range providerOrder {
			if score, ok := visibility[company][provider]; ok {
				row.Providers[provider] = score
			} else {
				row.Providers[provider] = 0
			}
		}
		comparison = append(comparison, row)
	}

	sort.SliceStable(comparison, func(i, j int) bool {
		return averageVisibility(comparison[i].Providers) > averageVisibility(comparison[j].Providers)
	})
	return providerRankings, comparison
}

// ApplyWeekOverWeek annotates current rankings with the visibility delta
// against a previous run. Companies absent from the previous run keep a
// nil delta.
func (s *aggregationService) ApplyWeekOverWeek(rankings []models.CompetitorRanking, previous []models.CompetitorRanking) {
	prior := make(map[string]float64, len(previous))
	for _, p := range previous {
		prior[strings.ToLower(p.Name)] = p.VisibilityScore
	}
	for i := range rankings {
		if before, ok := prior[strings.ToLower(rankings[i].Name)]; ok {
			delta := round1(rankings[i].VisibilityScore - before)
			rankings[i].ChangeFromLastWeek = &delta
		}
	}
}

// tally builds the per-company observation sets. The returned order is
// brand first, then competitors as given.
func (s *aggregationService) tally(brandName string, competitors []string, responses []models.AIResponse) (map[string]*companyTally, []string) {
	tallies := make(map[string]*companyTally)
	var order []string

	add := func(name string, isOwnBrand bool) string {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := tallies[key]; !ok {
			tallies[key] = &companyTally{name: strings.TrimSpace(name), isOwnBrand: isOwnBrand}
			order = append(order, key)
		}
		return key
	}

	brandKey := add(brandName, true)
	for _, competitor := range competitors {
		if !strings.EqualFold(competitor, brandName) {
			add(competitor, false)
		}
	}

	for _, response := range responses {
		counted := make(map[string]bool)

		for _, ranking := range response.Rankings {
			key := strings.ToLower(strings.TrimSpace(ranking.Company))
			t, tracked := tallies[key]
			if !tracked {
				continue
			}
			if !counted[key] {
				counted[key] = true
				t.mentions++
			}
			if ranking.Position > 0 {
				t.positions = append(t.positions, ranking.Position)
			}
			if ranking.Sentiment != "" {
				t.sentiments = append(t.sentiments, ranking.Sentiment)
			}
		}

		for _, competitor := range response.Competitors {
			key := strings.ToLower(strings.TrimSpace(competitor))
			if t, tracked := tallies[key]; tracked && !counted[key] {
				counted[key] = true
				t.mentions++
			}
		}

		if response.BrandMentioned {
			brand := tallies[brandKey]
			if !counted[brandKey] {
				counted[brandKey] = true
				brand.mentions++
			}
			if response.BrandPosition != nil && !hasRankingFor(response.Rankings, brandName) {
				brand.positions = append(brand.positions, *response.BrandPosition)
			}
			if response.Sentiment != "" {
				brand.sentiments = append(brand.sentiments, response.Sentiment)
			}
		}
	}

	return tallies, order
}

func hasRankingFor(rankings []models.Ranking, name string) bool {
	for _, r := range rankings {
		if strings.EqualFold(strings.TrimSpace(r.Company), name) {
			return true
		}
	}
	return false
}

func averagePosition(positions []int) float64 {
	if len(positions) == 0 {
		return unrankedPosition
	}
	sum := 0
	for _, p := range positions {
		sum += p
	}
	return float64(sum) / float64(len(positions))
}

func sentimentScore(sentiments []models.Sentiment) float64 {
	if len(sentiments) == 0 {
		return 50
	}
	sum := 0.0
	for _, sentiment := range sentiments {
		switch sentiment {
		case models.SentimentPositive:
			sum += 100
		case models.SentimentNeutral:
			sum += 50
		case models.SentimentNegative:
			sum += 0
		default:
			sum += 50
		}
	}
	return sum / float64(len(sentiments))
}

// dominantSentiment picks the majority sentiment. Positive needs a strict
// majority of all observations; negative needs a strict plurality over
// both others; ties and everything else land on neutral.
func dominantSentiment(sentiments []models.Sentiment) models.Sentiment {
	if len(sentiments) == 0 {
		return models.SentimentNeutral
	}
	counts := make(map[models.Sentiment]int)
	for _, sentiment := range sentiments {
		switch sentiment {
		case models.SentimentPositive, models.SentimentNegative:
			counts[sentiment]++
		default:
			counts[models.SentimentNeutral]++
		}
	}
	if counts[models.SentimentPositive]*2 > len(sentiments) {
		return models.SentimentPositive
	}
	if counts[models.SentimentNegative] > counts[models.SentimentNeutral] &&
		counts[models.SentimentNegative] > counts[models.SentimentPositive] {
		return models.SentimentNegative
	}
	return models.SentimentNeutral
}

func averageVisibility(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, score := range scores {
		sum += score
	}
	return sum / float64(len(scores))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
