// internal/providers/perplexity.go
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/brandlens/brandlens-workflows/internal/config"
)

// Perplexity speaks an OpenAI-compatible chat API but carries citations in
// a top-level field the SDK does not model, so the calls go over plain
// HTTP.
type perplexityProvider struct {
	apiKey     string
	baseURL    string
	enabled    bool
	httpClient *http.Client
}

func NewPerplexityProvider(cfg *config.Config) Provider {
	return &perplexityProvider{
		apiKey:  cfg.PerplexityAPIKey,
		baseURL: "https://api.perplexity.ai",
		enabled: cfg.Providers.PerplexityEnabled,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

func (p *perplexityProvider) Name() string         { return "Perplexity" }
func (p *perplexityProvider) DefaultModel() string { return "sonar" }
func (p *perplexityProvider) Enabled() bool        { return p.enabled }
func (p *perplexityProvider) Configured() bool     { return p.apiKey != "" }

func (p *perplexityProvider) Capabilities() Capabilities {
	// Every Perplexity answer is web-grounded; the WebSearch flag is a
	// no-op rather than a mode switch.
	return Capabilities{WebSearch: true, StructuredOutput: false, FunctionCalling: false}
}

type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityRequest struct {
	Model       string              `json:"model"`
	Messages    []perplexityMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type perplexityResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
	Usage     struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (p *perplexityProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Generation, error) {
	if opts.Model == "" {
		opts.Model = p.DefaultModel()
	}

	messages := []perplexityMessage{}
	if opts.SystemPrompt != "" {
		messages = append(messages, perplexityMessage{Role: "system", Content: opts.SystemPrompt})
	}
	messages = append(messages, perplexityMessage{Role: "user", Content: prompt})

	requestBody := perplexityRequest{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perplexity request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("perplexity API returned status %d", resp.StatusCode)
	}

	var apiResp perplexityResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode perplexity response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	return &Generation{
		Text:         apiResp.Choices[0].Message.Content,
		Citations:    apiResp.Citations,
		InputTokens:  apiResp.Usage.PromptTokens,
		OutputTokens: apiResp.Usage.CompletionTokens,
		Cost:         calculateCost(opts.Model, apiResp.Usage.PromptTokens, apiResp.Usage.CompletionTokens, true),
	}, nil
}
