// internal/providers/provider.go
//
// Package providers presents every configured text-generation backend
// behind a uniform interface. Providers are data plus a strategy, not an
// inheritance tree: each one declares its identity, capability flags, and
// a Generate call; the registry owns selection and ordering.
package providers

import (
	"context"
)

// Capabilities are the static feature flags of a backend.
type Capabilities struct {
	WebSearch        bool
	StructuredOutput bool
	FunctionCalling  bool
}

// GenerateOptions modify a single generate call. Providers that do not
// support web search silently ignore the flag.
type GenerateOptions struct {
	Model        string
	WebSearch    bool
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// Generation is the raw output of one provider call.
type Generation struct {
	Text         string
	Citations    []string
	InputTokens  int
	OutputTokens int
	Cost         float64
}

// Provider is one configured text-generation backend.
type Provider interface {
	// Name returns the canonical display name, e.g. "OpenAI".
	Name() string
	DefaultModel() string
	Capabilities() Capabilities
	// Enabled is the static config toggle, independent of credentials.
	Enabled() bool
	// Configured reports whether a usable credential is present.
	Configured() bool
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Generation, error)
}

// ModelHandle binds a provider to a resolved model id.
type ModelHandle struct {
	Provider Provider
	Model    string
}

// HandleFor returns a generation handle for the provider, or nil when the
// provider is disabled or unconfigured. A nil handle means "skip this
// provider", never an error.
func HandleFor(p Provider, model string) *ModelHandle {
	if p == nil || !p.Enabled() || !p.Configured() {
		return nil
	}
	if model == "" {
		model = p.DefaultModel()
	}
	return &ModelHandle{Provider: p, Model: model}
}

// Generate runs the bound provider, dropping the web-search flag when the
// backend does not support it.
func (h *ModelHandle) Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Generation, error) {
	opts.Model = h.Model
	if opts.WebSearch && !h.Provider.Capabilities().WebSearch {
		opts.WebSearch = false
	}
	return h.Provider.Generate(ctx, prompt, opts)
}
