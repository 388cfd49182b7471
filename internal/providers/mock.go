// internal/providers/mock.go
package providers

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/brandlens/brandlens-workflows/internal/config"
)

type mockProvider struct {
	enabled bool
}

// NewMockProvider returns the credential-free demo backend. Output is
// deterministic per prompt so demo runs are reproducible.
func NewMockProvider(cfg *config.Config) Provider {
	return &mockProvider{enabled: cfg.Providers.MockEnabled}
}

func (p *mockProvider) Name() string         { return "Mock" }
func (p *mockProvider) DefaultModel() string { return "mock-1" }
func (p *mockProvider) Enabled() bool        { return p.enabled }
func (p *mockProvider) Configured() bool     { return true }

func (p *mockProvider) Capabilities() Capabilities {
	return Capabilities{WebSearch: false, StructuredOutput: false, FunctionCalling: false}
}

func (p *mockProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Generation, error) {
	h := fnv.New64a()
	h.Write([]byte(prompt))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	subjects := []string{"market leaders", "popular picks", "well-reviewed options", "widely used tools"}
	text := fmt.Sprintf(
		"Based on current %s, here is a quick overview in response to %q. "+
			"Several providers stand out for reliability and value, though the right choice depends on scale and budget.",
		subjects[rng.Intn(len(subjects))], prompt,
	)

	return &Generation{
		Text:         text,
		InputTokens:  len(prompt) / 4,
		OutputTokens: len(text) / 4,
	}, nil
}
