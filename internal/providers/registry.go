// internal/providers/registry.go
package providers

import (
	"strings"

	"github.com/brandlens/brandlens-workflows/internal/config"
)

// canonicalNames maps every accepted spelling to the display casing used
// across the pipeline, so "openai" and "OpenAI" always join up downstream.
var canonicalNames = map[string]string{
	"openai":     "OpenAI",
	"anthropic":  "Anthropic",
	"claude":     "Anthropic",
	"perplexity": "Perplexity",
	"gemini":     "Gemini",
	"google":     "Gemini",
	"mock":       "Mock",
}

// CanonicalName normalizes a provider display name. Unknown names pass
// through trimmed but otherwise untouched.
func CanonicalName(name string) string {
	if canonical, ok := canonicalNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return canonical
	}
	return strings.TrimSpace(name)
}

// Registry holds the provider set in a stable order. The order governs
// batch composition and "first available provider" selection.
type Registry struct {
	providers []Provider
}

// NewRegistry builds the production provider set from config. The registry
// is read-only after construction; enable/disable state lives in the
// config snapshot, not in process-global tables.
func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{
		providers: []Provider{
			NewOpenAIProvider(cfg),
			NewAnthropicProvider(cfg),
			NewPerplexityProvider(cfg),
			NewGeminiProvider(cfg),
			NewMockProvider(cfg),
		},
	}
}

// NewRegistryWith builds a registry from an explicit provider list, in the
// given order. Used by tests and mock-mode runs.
func NewRegistryWith(providers ...Provider) *Registry {
	return &Registry{providers: providers}
}

// All returns every registered provider, usable or not.
func (r *Registry) All() []Provider {
	return r.providers
}

// Configured returns the enabled-and-credentialed subset in registry
// order.
func (r *Registry) Configured() []Provider {
	var out []Provider
	for _, p := range r.providers {
		if p.Enabled() && p.Configured() {
			out = append(out, p)
		}
	}
	return out
}

// First returns the first usable provider, or nil when none are
// configured. Auxiliary features (competitor identification, prompt
// generation) use this.
func (r *Registry) First() Provider {
	configured := r.Configured()
	if len(configured) == 0 {
		return nil
	}
	return configured[0]
}

// FirstStructured returns the first usable provider that supports
// structured output, or nil.
func (r *Registry) FirstStructured() Provider {
	for _, p := range r.Configured() {
		if p.Capabilities().StructuredOutput {
			return p
		}
	}
	return nil
}

// Get looks a provider up by name, accepting any casing.
func (r *Registry) Get(name string) Provider {
	canonical := CanonicalName(name)
	for _, p := range r.providers {
		if p.Name() == canonical {
			return p
		}
	}
	return nil
}
