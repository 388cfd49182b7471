// services/extraction_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/brandlens/brandlens-workflows/internal/config"
	"github.com/brandlens/brandlens-workflows/internal/matcher"
	"github.com/brandlens/brandlens-workflows/internal/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// rankingEntryPayload is one extracted ranking entry in the structured
// output schema.
type rankingEntryPayload struct {
	Position  int    `json:"position" jsonschema_description:"1-based position in the ranked list"`
	Company   string `json:"company" jsonschema_description:"Company or product name exactly as it appears"`
	Reason    string `json:"reason" jsonschema_description:"Short reason the response gives for this placement, empty if none"`
	Sentiment string `json:"sentiment" jsonschema:"enum=positive,enum=neutral,enum=negative" jsonschema_description:"Sentiment toward this company in the response"`
}

// rankingExtractionPayload is the full structured output schema for one
// response analysis.
type rankingExtractionPayload struct {
	Rankings         []rankingEntryPayload `json:"rankings" jsonschema_description:"Every company the response ranks or lists, in order"`
	BrandMentioned   bool                  `json:"brand_mentioned" jsonschema_description:"True if the target brand is mentioned anywhere in the response"`
	BrandPosition    int                   `json:"brand_position" jsonschema_description:"1-based position of the target brand in the ranking, 0 when the brand is not ranked"`
	Competitors      []string              `json:"competitors" jsonschema_description:"Competitor company names mentioned in the response"`
	OverallSentiment string                `json:"overall_sentiment" jsonschema:"enum=positive,enum=neutral,enum=negative" jsonschema_description:"Overall sentiment toward the target brand"`
	Confidence       float64               `json:"confidence" jsonschema_description:"Extraction confidence between 0 and 1"`
}

var rankingExtractionSchema = GenerateSchema[rankingExtractionPayload]()

// extractionStrategy is one rung of the fallback ladder. Strategies run in
// declaration order; the first success wins.
type extractionStrategy struct {
	name string
	run  func(ctx context.Context, promptText, rawResponse, brandName string, competitors []string) (*ExtractedAnalysis, error)
}

type extractionService struct {
	cfg          *config.Config
	openAIClient openai.Client
	strategies   []extractionStrategy
}

// NewExtractionService creates the structured-extraction service. The
// ladder is fixed at construction: strict structured output, then a
// lenient JSON ask, then a deterministic text heuristic that cannot fail.
func NewExtractionService(cfg *config.Config) ExtractionService {
	s := &extractionService{
		cfg: cfg,
		openAIClient: openai.NewClient(
			option.WithAPIKey(cfg.OpenAIAPIKey),
		),
	}
	s.strategies = []extractionStrategy{
		{name: "structured-output", run: s.extractStructured},
		{name: "lenient-json", run: s.extractLenientJSON},
		{name: "heuristic", run: s.extractHeuristic},
	}
	return s
}

func (s *extractionService) Extract(ctx context.Context, promptText, rawResponse, brandName string, competitors []string) (*ExtractedAnalysis, error) {
	var lastErr error
	for _, strategy := range s.strategies {
		extracted, err := strategy.run(ctx, promptText, rawResponse, brandName, competitors)
		if err != nil {
			fmt.Printf("[ExtractionService] ⚠️ Strategy %s failed: %v\n", strategy.name, err)
			lastErr = err
			continue
		}
		extracted.Strategy = strategy.name
		return extracted, nil
	}
	return nil, fmt.Errorf("all extraction strategies failed: %w", lastErr)
}

// extractStructured asks the extraction model for a strict-schema reading
// of the response.
func (s *extractionService) extractStructured(ctx context.Context, promptText, rawResponse, brandName string, competitors []string) (*ExtractedAnalysis, error) {
	if s.cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("no OpenAI API key for structured extraction")
	}

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "brand_visibility_extraction",
		Description: openai.String("Extract brand rankings, mentions, and sentiment from an AI response"),
		Schema:      rankingExtractionSchema,
		Strict:      openai.Bool(true),
	}

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are an expert brand analyst. Extract company rankings, brand mentions, competitors, and sentiment from AI-generated text accurately. Only report companies the text actually names."),
			openai.UserMessage(s.buildExtractionPrompt(promptText, rawResponse, brandName, competitors)),
		},
		Model: openai.ChatModel(s.cfg.Pipeline.ExtractionModel),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
		},
		Temperature: openai.Float(0.1),
	}

	chatResponse, err := s.openAIClient.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("structured extraction call failed: %w", err)
	}
	if len(chatResponse.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned from OpenAI")
	}

	var payload rankingExtractionPayload
	if err := json.Unmarshal([]byte(chatResponse.Choices[0].Message.Content), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse structured extraction: %w", err)
	}
	return s.fromPayload(&payload), nil
}

// extractLenientJSON retries without a strict schema: a plain ask for JSON,
// parsed leniently. Some responses that break strict mode parse fine here.
func (s *extractionService) extractLenientJSON(ctx context.Context, promptText, rawResponse, brandName string, competitors []string) (*ExtractedAnalysis, error) {
	if s.cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("no OpenAI API key for lenient extraction")
	}

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You extract structured facts from text. Respond with a single JSON object and nothing else."),
			openai.UserMessage(s.buildExtractionPrompt(promptText, rawResponse, brandName, competitors) + `

Respond with JSON of this exact shape:
{"rankings":[{"position":1,"company":"...","reason":"...","sentiment":"positive|neutral|negative"}],"brand_mentioned":true,"brand_position":0,"competitors":["..."],"overall_sentiment":"positive|neutral|negative","confidence":0.8}`),
		},
		Model:       openai.ChatModel(s.cfg.Pipeline.ExtractionModel),
		Temperature: openai.Float(0.1),
	}

	chatResponse, err := s.openAIClient.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("lenient extraction call failed: %w", err)
	}
	if len(chatResponse.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned from OpenAI")
	}

	jsonText := extractJSONObject(chatResponse.Choices[0].Message.Content)
	if jsonText == "" {
		return nil, fmt.Errorf("no JSON object found in lenient extraction response")
	}
	var payload rankingExtractionPayload
	if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse lenient extraction: %w", err)
	}
	return s.fromPayload(&payload), nil
}

var numberedListLine = regexp.MustCompile(`(?m)^\s*(\d{1,2})[.):\-]\s+(.+)$`)

// extractHeuristic reads the response with no AI at all: matcher hits for
// the mention bits and a numbered-list scan for positions. It is the floor
// of the ladder and never returns an error.
func (s *extractionService) extractHeuristic(ctx context.Context, promptText, rawResponse, brandName string, competitors []string) (*ExtractedAnalysis, error) {
	opts := matcher.DefaultOptions()
	brandResult := matcher.Detect(rawResponse, brandName, opts)
	competitorResults := matcher.DetectMultiple(rawResponse, competitors, opts)

	extracted := &ExtractedAnalysis{
		BrandMentioned: brandResult.Mentioned,
		Sentiment:      models.SentimentNeutral,
		Confidence:     0.3,
	}
	if brandResult.Mentioned {
		extracted.Confidence = brandResult.Confidence * 0.5
	}
	for _, name := range competitors {
		if result, ok := competitorResults[name]; ok && result.Mentioned {
			extracted.Competitors = append(extracted.Competitors, name)
		}
	}

	tracked := append([]string{brandName}, competitors...)
	for _, line := range numberedListLine.FindAllStringSubmatch(rawResponse, -1) {
		position := 0
		fmt.Sscanf(line[1], "%d", &position)
		if position == 0 {
			continue
		}
		for _, name := range tracked {
			if matcher.Detect(line[2], name, opts).Mentioned {
				extracted.Rankings = append(extracted.Rankings, models.Ranking{
					Position:  position,
					Company:   name,
					Sentiment: models.SentimentNeutral,
				})
				if strings.EqualFold(name, brandName) && extracted.BrandPosition == nil {
					p := position
					extracted.BrandPosition = &p
				}
				break
			}
		}
	}

	return extracted, nil
}

func (s *extractionService) buildExtractionPrompt(promptText, rawResponse, brandName string, competitors []string) string {
	return fmt.Sprintf(`A user asked an AI assistant the following question:

Question: %s

The assistant answered:

---
%s
---

The target brand is: %s
Known competitors: %s

Extract from the answer:
1. Every company the answer ranks or lists, with its 1-based position, the reason given, and the sentiment toward it.
2. Whether the target brand is mentioned anywhere, and its position if it is ranked (0 if not ranked).
3. Every competitor company the answer mentions.
4. The overall sentiment toward the target brand.
5. Your confidence in this extraction from 0 to 1.`,
		promptText, rawResponse, brandName, strings.Join(competitors, ", "))
}

// fromPayload normalizes the wire payload into the service result.
func (s *extractionService) fromPayload(payload *rankingExtractionPayload) *ExtractedAnalysis {
	extracted := &ExtractedAnalysis{
		BrandMentioned: payload.BrandMentioned,
		Competitors:    dedupeNames(payload.Competitors),
		Sentiment:      models.NormalizeSentiment(payload.OverallSentiment),
		Confidence:     clamp01(payload.Confidence),
	}
	if payload.BrandPosition > 0 {
		p := payload.BrandPosition
		extracted.BrandPosition = &p
	}
	for _, entry := range payload.Rankings {
		name := strings.TrimSpace(entry.Company)
		if name == "" || entry.Position <= 0 {
			continue
		}
		extracted.Rankings = append(extracted.Rankings, models.Ranking{
			Position:  entry.Position,
			Company:   name,
			Reason:    strings.TrimSpace(entry.Reason),
			Sentiment: models.NormalizeSentiment(entry.Sentiment),
		})
	}
	return extracted
}

// extractJSONObject pulls the outermost {...} out of text that may wrap it
// in markdown fences or prose.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func dedupeNames(names []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		key := strings.ToLower(trimmed)
		if trimmed == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, trimmed)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
