// internal/providers/testutil/mocks.go
package testutil

import (
	"context"
	"fmt"

	"github.com/brandlens/brandlens-workflows/internal/config"
	"github.com/brandlens/brandlens-workflows/internal/providers"
)

// FakeProvider is a configurable in-memory provider for tests.
type FakeProvider struct {
	ProviderName   string
	Model          string
	Caps           providers.Capabilities
	EnabledFlag    bool
	ConfiguredFlag bool
	GenerateFunc   func(ctx context.Context, prompt string, opts providers.GenerateOptions) (*providers.Generation, error)

	// Calls records every prompt passed to Generate.
	Calls []string
}

func (f *FakeProvider) Name() string                        { return f.ProviderName }
func (f *FakeProvider) DefaultModel() string                { return f.Model }
func (f *FakeProvider) Capabilities() providers.Capabilities { return f.Caps }
func (f *FakeProvider) Enabled() bool                       { return f.EnabledFlag }
func (f *FakeProvider) Configured() bool                    { return f.ConfiguredFlag }

func (f *FakeProvider) Generate(ctx context.Context, prompt string, opts providers.GenerateOptions) (*providers.Generation, error) {
	f.Calls = append(f.Calls, prompt)
	if f.GenerateFunc != nil {
		return f.GenerateFunc(ctx, prompt, opts)
	}
	return &providers.Generation{Text: fmt.Sprintf("canned response from %s", f.ProviderName)}, nil
}

// NewFakeProvider returns a usable provider that answers with fixed text.
func NewFakeProvider(name, text string) *FakeProvider {
	return &FakeProvider{
		ProviderName:   name,
		Model:          "fake-1",
		EnabledFlag:    true,
		ConfiguredFlag: true,
		GenerateFunc: func(ctx context.Context, prompt string, opts providers.GenerateOptions) (*providers.Generation, error) {
			return &providers.Generation{Text: text}, nil
		},
	}
}

// SampleConfig returns a config with all providers credentialed, suitable
// for registry tests that never hit the network.
func SampleConfig() *config.Config {
	return &config.Config{
		OpenAIAPIKey:     "test-openai-key",
		AnthropicAPIKey:  "test-anthropic-key",
		PerplexityAPIKey: "test-perplexity-key",
		GeminiAPIKey:     "test-gemini-key",
		Providers: config.ProvidersConfig{
			OpenAIEnabled:     true,
			AnthropicEnabled:  true,
			PerplexityEnabled: true,
			GeminiEnabled:     true,
			MockEnabled:       false,
		},
		Pipeline: config.PipelineConfig{
			BatchSize:       3,
			MaxPrompts:      4,
			MaxCompetitors:  9,
			ExtractionModel: "gpt-4.1-mini",
		},
	}
}
