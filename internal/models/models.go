// internal/models/models.go
package models

import (
	"strings"
	"time"
)

// Company is the analysis subject. It is assembled by the caller (usually
// from the company resolver) and treated as read-only by the pipeline.
type Company struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	URL         string       `json:"url"`
	Description string       `json:"description,omitempty"`
	Industry    string       `json:"industry,omitempty"`
	Logo        string       `json:"logo,omitempty"`
	Favicon     string       `json:"favicon,omitempty"`
	ScrapedData *ScrapedData `json:"scrapedData,omitempty"`
}

// ScrapedData is the optional metadata supplied by the company resolver.
type ScrapedData struct {
	Keywords     []string `json:"keywords,omitempty"`
	MainProducts []string `json:"mainProducts,omitempty"`
	Competitors  []string `json:"competitors,omitempty"`
	RawText      string   `json:"rawText,omitempty"`
}

// PromptCategory classifies how a prompt probes brand visibility.
type PromptCategory string

const (
	PromptCategoryRanking         PromptCategory = "ranking"
	PromptCategoryComparison      PromptCategory = "comparison"
	PromptCategoryAlternatives    PromptCategory = "alternatives"
	PromptCategoryRecommendations PromptCategory = "recommendations"
	PromptCategoryCustom          PromptCategory = "custom"
)

// Prompt is one natural-language question put to every provider.
type Prompt struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Category PromptCategory `json:"category"`
}

// Sentiment is the normalized polarity of a mention.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// NormalizeSentiment maps arbitrary model output onto the sentiment enum,
// defaulting to neutral for anything unrecognized.
func NormalizeSentiment(s string) Sentiment {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "positive":
		return SentimentPositive
	case "negative":
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// Ranking is one entry of the ranked-company list extracted from a response.
type Ranking struct {
	Position  int       `json:"position"`
	Company   string    `json:"company"`
	Reason    string    `json:"reason,omitempty"`
	Sentiment Sentiment `json:"sentiment,omitempty"`
}

// Match is a single matcher hit inside the raw response text.
type Match struct {
	Text       string  `json:"text"`
	Index      int     `json:"index"`
	Confidence float64 `json:"confidence"`
}

// CompetitorMatch pairs a competitor name with its matcher hits.
type CompetitorMatch struct {
	Name    string  `json:"name"`
	Matches []Match `json:"matches"`
}

// Citation is a cleaned URL found in a provider response, classified as
// primary (company's own domain) or secondary.
type Citation struct {
	URL  string `json:"url"`
	Type string `json:"type"` // "primary" or "secondary"
}

// AIResponse is the full record of one (prompt, provider) task: the raw
// provider text plus the structured analysis derived from it.
type AIResponse struct {
	Provider       string            `json:"provider"`
	Prompt         string            `json:"prompt"`
	Response       string            `json:"response"`
	Rankings       []Ranking         `json:"rankings,omitempty"`
	Competitors    []string          `json:"competitors"`
	BrandMentioned bool              `json:"brandMentioned"`
	BrandPosition  *int              `json:"brandPosition,omitempty"`
	Sentiment      Sentiment         `json:"sentiment"`
	Confidence     float64           `json:"confidence"`
	Citations      []Citation        `json:"citations,omitempty"`
	BrandMatches   []Match           `json:"brandMatches,omitempty"`
	CompMatches    []CompetitorMatch `json:"competitorMatches,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
}

// CompetitorRanking is the per-company aggregate across a run (or across
// one provider's slice of a run).
type CompetitorRanking struct {
	Name               string    `json:"name"`
	Mentions           int       `json:"mentions"`
	AveragePosition    float64   `json:"averagePosition"` // sentinel 99 when never ranked
	Sentiment          Sentiment `json:"sentiment"`
	SentimentScore     float64   `json:"sentimentScore"`
	ShareOfVoice       float64   `json:"shareOfVoice"`
	VisibilityScore    float64   `json:"visibilityScore"`
	ChangeFromLastWeek *float64  `json:"weekOverWeekChange,omitempty"`
	IsOwnBrand         bool      `json:"isOwnBrand"`
}

// ProviderComparison is one row of the company×provider comparison matrix.
type ProviderComparison struct {
	Company    string             `json:"company"`
	Providers  map[string]float64 `json:"providers"` // provider -> visibility score
	IsOwnBrand bool               `json:"isOwnBrand"`
}

// Scores are the brand's aggregate scores for a run.
type Scores struct {
	VisibilityScore float64 `json:"visibilityScore"`
	SentimentScore  float64 `json:"sentimentScore"`
	ShareOfVoice    float64 `json:"shareOfVoice"`
	OverallScore    float64 `json:"overallScore"`
	AveragePosition float64 `json:"averagePosition"`
}

// AnalysisResult is the immutable top-level output of a run.
type AnalysisResult struct {
	Company            Company                        `json:"company"`
	KnownCompetitors   []string                       `json:"knownCompetitors"`
	Prompts            []Prompt                       `json:"prompts"`
	Responses          []AIResponse                   `json:"responses"`
	Competitors        []CompetitorRanking            `json:"competitors"`
	ProviderRankings   map[string][]CompetitorRanking `json:"providerRankings"`
	ProviderComparison []ProviderComparison           `json:"providerComparison"`
	Scores             Scores                         `json:"scores"`
	Errors             []string                       `json:"errors,omitempty"`
	CreatedAt          time.Time                      `json:"createdAt"`
}

// Stage names for the orchestrator lifecycle, in order.
type Stage string

const (
	StageInitializing           Stage = "initializing"
	StageIdentifyingCompetitors Stage = "identifying-competitors"
	StageGeneratingPrompts      Stage = "generating-prompts"
	StageAnalyzingPrompts       Stage = "analyzing-prompts"
	StageCalculatingScores      Stage = "calculating-scores"
	StageFinalizing             Stage = "finalizing"
)

// ProgressEvent tags.
type EventType string

const (
	EventStart            EventType = "start"
	EventStage            EventType = "stage"
	EventCompetitorFound  EventType = "competitor-found"
	EventPromptGenerated  EventType = "prompt-generated"
	EventAnalysisStart    EventType = "analysis-start"
	EventPartialResult    EventType = "partial-result"
	EventAnalysisComplete EventType = "analysis-complete"
	EventProgress         EventType = "progress"
	EventComplete         EventType = "complete"
	EventError            EventType = "error"
)

// ProgressEvent is the tagged record broadcast while a run executes.
// Events for one task are strictly ordered; events across tasks interleave.
type ProgressEvent struct {
	Type      EventType   `json:"type"`
	Stage     Stage       `json:"stage"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Task status values carried on analysis-start / analysis-complete events.
const (
	TaskStatusRunning   = "running"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

// TaskEventData identifies one (prompt, provider) task in the event stream.
type TaskEventData struct {
	Prompt   string `json:"prompt"`
	Provider string `json:"provider"`
	Status   string `json:"status"`
}

// PartialResultData carries a finished task's response on the stream.
type PartialResultData struct {
	Prompt   string     `json:"prompt"`
	Provider string     `json:"provider"`
	Response AIResponse `json:"response"`
}

// ProgressData carries the run completion percentage.
type ProgressData struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}
