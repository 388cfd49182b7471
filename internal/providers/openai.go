// internal/providers/openai.go
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/brandlens/brandlens-workflows/internal/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openAIProvider struct {
	client  openai.Client
	apiKey  string
	enabled bool
}

// NewOpenAIProvider wires the OpenAI backend. The SDK covers plain chat
// completions; web search goes through the responses API directly.
func NewOpenAIProvider(cfg *config.Config) Provider {
	return &openAIProvider{
		client:  openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey)),
		apiKey:  cfg.OpenAIAPIKey,
		enabled: cfg.Providers.OpenAIEnabled,
	}
}

func (p *openAIProvider) Name() string         { return "OpenAI" }
func (p *openAIProvider) DefaultModel() string { return "gpt-4.1" }
func (p *openAIProvider) Enabled() bool        { return p.enabled }
func (p *openAIProvider) Configured() bool     { return p.apiKey != "" }

func (p *openAIProvider) Capabilities() Capabilities {
	return Capabilities{WebSearch: true, StructuredOutput: true, FunctionCalling: true}
}

func (p *openAIProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Generation, error) {
	if opts.Model == "" {
		opts.Model = p.DefaultModel()
	}
	if opts.WebSearch {
		return p.generateWithWebSearch(ctx, prompt, opts)
	}

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(opts.Model),
	}
	if opts.SystemPrompt != "" {
		params.Messages = append([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(opts.SystemPrompt),
		}, params.Messages...)
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}

	response, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	inputTokens := int(response.Usage.PromptTokens)
	outputTokens := int(response.Usage.CompletionTokens)
	return &Generation{
		Text:         response.Choices[0].Message.Content,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         calculateCost(opts.Model, inputTokens, outputTokens, false),
	}, nil
}

// Responses API request/response shapes for web search.
type webSearchRequest struct {
	Model string          `json:"model"`
	Tools []webSearchTool `json:"tools"`
	Input string          `json:"input"`
}

type webSearchTool struct {
	Type string `json:"type"`
}

type webSearchResponse struct {
	Output []webSearchOutputItem `json:"output"`
	Usage  struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type webSearchOutputItem struct {
	Type    string `json:"type"`
	Content []struct {
		Type        string `json:"type"`
		Text        string `json:"text,omitempty"`
		Annotations []struct {
			Type string `json:"type"`
			URL  string `json:"url,omitempty"`
		} `json:"annotations,omitempty"`
	} `json:"content,omitempty"`
}

// generateWithWebSearch calls the OpenAI responses API with the web search
// tool enabled, collecting citation URLs from the output annotations.
func (p *openAIProvider) generateWithWebSearch(ctx context.Context, prompt string, opts GenerateOptions) (*Generation, error) {
	requestBody := webSearchRequest{
		Model: opts.Model,
		Tools: []webSearchTool{{Type: "web_search_preview"}},
		Input: prompt,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/responses", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search API returned status %d", resp.StatusCode)
	}

	var searchResp webSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode web search response: %w", err)
	}

	responseText := ""
	var citations []string
	for _, output := range searchResp.Output {
		if output.Type != "message" {
			continue
		}
		for _, content := range output.Content {
			if content.Type != "output_text" {
				continue
			}
			if responseText == "" {
				responseText = content.Text
			}
			for _, annotation := range content.Annotations {
				if annotation.Type == "url_citation" && annotation.URL != "" {
					citations = append(citations, annotation.URL)
				}
			}
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no message content found in web search response")
	}

	return &Generation{
		Text:         responseText,
		Citations:    citations,
		InputTokens:  searchResp.Usage.InputTokens,
		OutputTokens: searchResp.Usage.OutputTokens,
		Cost:         calculateCost(opts.Model, searchResp.Usage.InputTokens, searchResp.Usage.OutputTokens, true),
	}, nil
}
