// internal/providers/gemini.go
package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/brandlens/brandlens-workflows/internal/config"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type geminiProvider struct {
	apiKey  string
	enabled bool
}

// NewGeminiProvider wires the Gemini backend. The genai client needs a
// context to construct, so it is created per call rather than held.
func NewGeminiProvider(cfg *config.Config) Provider {
	return &geminiProvider{
		apiKey:  cfg.GeminiAPIKey,
		enabled: cfg.Providers.GeminiEnabled,
	}
}

func (p *geminiProvider) Name() string         { return "Gemini" }
func (p *geminiProvider) DefaultModel() string { return "gemini-2.0-flash" }
func (p *geminiProvider) Enabled() bool        { return p.enabled }
func (p *geminiProvider) Configured() bool     { return p.apiKey != "" }

func (p *geminiProvider) Capabilities() Capabilities {
	return Capabilities{WebSearch: false, StructuredOutput: false, FunctionCalling: true}
}

func (p *geminiProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Generation, error) {
	if opts.Model == "" {
		opts.Model = p.DefaultModel()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(opts.Model)
	if opts.Temperature > 0 {
		model.SetTemperature(float32(opts.Temperature))
	}
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	if opts.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(opts.SystemPrompt)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("no text parts in response")
	}

	generation := &Generation{Text: strings.Join(parts, "")}
	if resp.UsageMetadata != nil {
		generation.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		generation.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		generation.Cost = calculateCost(opts.Model, generation.InputTokens, generation.OutputTokens, false)
	}
	return generation, nil
}
