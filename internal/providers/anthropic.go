// internal/providers/anthropic.go
package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/brandlens/brandlens-workflows/internal/config"
)

type anthropicProvider struct {
	client  anthropic.Client
	apiKey  string
	enabled bool
}

func NewAnthropicProvider(cfg *config.Config) Provider {
	return &anthropicProvider{
		client:  anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey)),
		apiKey:  cfg.AnthropicAPIKey,
		enabled: cfg.Providers.AnthropicEnabled,
	}
}

func (p *anthropicProvider) Name() string         { return "Anthropic" }
func (p *anthropicProvider) DefaultModel() string { return "claude-sonnet-4-20250514" }
func (p *anthropicProvider) Enabled() bool        { return p.enabled }
func (p *anthropicProvider) Configured() bool     { return p.apiKey != "" }

func (p *anthropicProvider) Capabilities() Capabilities {
	// Structured output happens through JSON prompting rather than a
	// schema parameter, so the flag stays off and the extraction layer
	// routes schema calls elsewhere.
	return Capabilities{WebSearch: false, StructuredOutput: false, FunctionCalling: true}
}

func (p *anthropicProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Generation, error) {
	if opts.Model == "" {
		opts.Model = p.DefaultModel()
	}
	maxTokens := int64(2000)
	if opts.MaxTokens > 0 {
		maxTokens = int64(opts.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(opts.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: prompt},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	}
	if opts.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: opts.SystemPrompt}}
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}

	response, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("message creation failed: %w", err)
	}

	var textParts []string
	for _, block := range response.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			textParts = append(textParts, variant.Text)
		}
	}

	inputTokens := int(response.Usage.InputTokens)
	outputTokens := int(response.Usage.OutputTokens)
	return &Generation{
		Text:         strings.Join(textParts, ""),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         calculateCost(opts.Model, inputTokens, outputTokens, false),
	}, nil
}
