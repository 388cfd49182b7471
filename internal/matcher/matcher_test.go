package matcher

import (
	"strings"
	"testing"
)

func TestDetectAbsentBrand(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		brand string
	}{
		{"unrelated text", "The quick brown fox jumps over the lazy dog", "Senso"},
		{"empty text", "", "Senso"},
		{"empty brand", "Some text about companies", ""},
		{"substring but not word", "The consensus was clear", "Senso"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Detect(tt.text, tt.brand, DefaultOptions())
			if result.Mentioned {
				t.Errorf("Expected mentioned=false, got true")
			}
			if len(result.Matches) != 0 {
				t.Errorf("Expected no matches, got %d", len(result.Matches))
			}
			if result.Confidence != 0 {
				t.Errorf("Expected confidence 0, got %f", result.Confidence)
			}
		})
	}
}

func TestDetectVariantInvariance(t *testing.T) {
	// Every common written form of "Open AI" must be found with
	// confidence of at least 0.7.
	tests := []struct {
		name string
		text string
	}{
		{"collapsed", "I think OpenAI makes the best models"},
		{"hyphenated", "I think open-ai makes the best models"},
		{"dotted", "I think open.ai makes the best models"},
		{"possessive", "Open AI's models are the best"},
		{"exact", "Open AI is the market leader"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Detect(tt.text, "Open AI", DefaultOptions())
			if !result.Mentioned {
				t.Fatalf("Expected mention in %q", tt.text)
			}
			if result.Confidence < 0.7 {
				t.Errorf("Expected confidence >= 0.7, got %f", result.Confidence)
			}
		})
	}
}

func TestDetectConfidenceLadder(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		brand string
		want  float64
	}{
		{"exact match", "Acme is great", "Acme", 1.0},
		{"legal suffix", "Acme Inc is great", "Acme", 1.0}, // the bare name also matches exactly
		{"variation only", "openai is great", "Open AI", 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Detect(tt.text, tt.brand, DefaultOptions())
			if !result.Mentioned {
				t.Fatalf("Expected mention in %q", tt.text)
			}
			if result.Confidence != tt.want {
				t.Errorf("Expected confidence %f, got %f", tt.want, result.Confidence)
			}
		})
	}
}

func TestDetectNegativeContext(t *testing.T) {
	text := "I would avoid BrandX for this use case"

	opts := DefaultOptions()
	opts.ExcludeNegativeContext = true
	result := Detect(text, "BrandX", opts)
	if result.Mentioned {
		t.Errorf("Expected mention suppressed in negative context")
	}

	opts.ExcludeNegativeContext = false
	result = Detect(text, "BrandX", opts)
	if !result.Mentioned {
		t.Errorf("Expected mention found when negative context is not excluded")
	}
}

func TestDetectNegativeContextOnlyNearby(t *testing.T) {
	// The negative phrase is far outside the ±50 character window, so the
	// mention survives.
	text := "You should avoid cheap knockoffs at all costs. " +
		strings.Repeat("Lots of filler text here. ", 5) +
		"BrandX is a solid choice overall."

	opts := DefaultOptions()
	opts.ExcludeNegativeContext = true
	result := Detect(text, "BrandX", opts)
	if !result.Mentioned {
		t.Errorf("Expected distant negative phrase not to suppress the mention")
	}
}

func TestDetectCustomVariations(t *testing.T) {
	opts := DefaultOptions()
	opts.CustomVariations = []string{"The Big A"}

	result := Detect("Everyone calls it The Big A around here", "Acme", opts)
	if !result.Mentioned {
		t.Errorf("Expected custom variation to match")
	}
}

func TestDetectCaseSensitive(t *testing.T) {
	opts := DefaultOptions()
	opts.CaseSensitive = true
	opts.IncludeVariations = false

	if Detect("acme is fine", "Acme", opts).Mentioned {
		t.Errorf("Expected case-sensitive detection to miss lowercase form")
	}
	if !Detect("Acme is fine", "Acme", opts).Mentioned {
		t.Errorf("Expected case-sensitive detection to find exact form")
	}
}

func TestDetectDeduplicatesOverlaps(t *testing.T) {
	// "Acme" at one offset is matched by several patterns; only one match
	// per offset survives, with the highest confidence.
	result := Detect("Acme makes widgets", "Acme", DefaultOptions())
	if len(result.Matches) != 1 {
		t.Fatalf("Expected 1 deduplicated match, got %d", len(result.Matches))
	}
	if result.Matches[0].Confidence != 1.0 {
		t.Errorf("Expected the highest-confidence hit to survive, got %f", result.Matches[0].Confidence)
	}
}

func TestDetectMultiple(t *testing.T) {
	text := "Acme beats Widgetly, but nobody talks about Gizmo Corp"
	results := DetectMultiple(text, []string{"Acme", "Widgetly", "Gizmo Corp", "Nonexistent"}, DefaultOptions())

	if len(results) != 4 {
		t.Fatalf("Expected a result per brand, got %d", len(results))
	}
	for _, brand := range []string{"Acme", "Widgetly", "Gizmo Corp"} {
		if !results[brand].Mentioned {
			t.Errorf("Expected %s to be mentioned", brand)
		}
	}
	if results["Nonexistent"].Mentioned {
		t.Errorf("Expected Nonexistent to be absent")
	}
}

func TestGenerateVariations(t *testing.T) {
	tests := []struct {
		brand    string
		expected []string
	}{
		{"Open AI", []string{"Open AI", "OpenAI", "Open-AI", "Open.AI"}},
		{"SunLife", []string{"SunLife", "Sun Life"}},
		{"Acme Inc", []string{"Acme Inc", "Acme"}},
		{"B&B", []string{"B&B", "BandB"}},
		{"senso.ai", []string{"senso.ai", "senso"}},
	}

	for _, tt := range tests {
		t.Run(tt.brand, func(t *testing.T) {
			variations := GenerateVariations(tt.brand)
			lower := make(map[string]bool, len(variations))
			for _, v := range variations {
				lower[strings.ToLower(v)] = true
			}
			for _, want := range tt.expected {
				if !lower[strings.ToLower(want)] {
					t.Errorf("Expected variation %q for brand %q, got %v", want, tt.brand, variations)
				}
			}
		})
	}
}
