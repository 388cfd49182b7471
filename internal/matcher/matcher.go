// internal/matcher/matcher.go
//
// Package matcher decides whether a brand name is mentioned in arbitrary
// text. It is the deterministic safety net under the AI self-analysis:
// a preliminary variation generator expands the brand name into the forms
// a company realistically uses (spacing, separators, case, abbreviations,
// legal suffixes, possessives), and every variation is matched with
// word-boundary regular expressions, each hit carrying a confidence score.
package matcher

import (
	"regexp"
	"sort"
	"strings"
)

// Options control a single detection pass.
type Options struct {
	CaseSensitive          bool
	WholeWordOnly          bool
	IncludeVariations      bool
	CustomVariations       []string
	ExcludeNegativeContext bool
}

// DefaultOptions matches the production defaults: case-insensitive,
// whole-word, variation-aware, negative context kept.
func DefaultOptions() Options {
	return Options{
		CaseSensitive:          false,
		WholeWordOnly:          true,
		IncludeVariations:      true,
		CustomVariations:       nil,
		ExcludeNegativeContext: false,
	}
}

// Match is a single surviving hit in the text.
type Match struct {
	Text       string
	Index      int
	Confidence float64
}

// Result is the outcome of one detection pass. Absence of the brand yields
// the zero result, never an error.
type Result struct {
	Mentioned  bool
	Matches    []Match
	Confidence float64
}

// negativeContextPatterns flag phrasing that advises against a brand. A
// match inside a ±negativeWindow character window of one of these is
// discarded when ExcludeNegativeContext is set.
var negativeContextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bnot\s+recommended\b`),
	regexp.MustCompile(`(?i)\bavoid(?:ing)?\b`),
	regexp.MustCompile(`(?i)\bstay\s+away\s+from\b`),
	regexp.MustCompile(`(?i)\bworse\s+than\b`),
	regexp.MustCompile(`(?i)\binferior\s+to\b`),
	regexp.MustCompile(`(?i)\bdon'?t\s+(?:use|buy|recommend)\b`),
	regexp.MustCompile(`(?i)\bwould\s+not\s+(?:use|buy|recommend)\b`),
	regexp.MustCompile(`(?i)\bsteer\s+clear\b`),
	regexp.MustCompile(`(?i)\bdisappointed\s+(?:by|with|in)\b`),
}

const negativeWindow = 50

// Detect reports whether brandName appears in text.
func Detect(text, brandName string, opts Options) Result {
	brandName = strings.TrimSpace(brandName)
	if text == "" || brandName == "" {
		return Result{}
	}

	variations := []string{brandName}
	if opts.IncludeVariations {
		variations = GenerateVariations(brandName)
	}
	variations = append(variations, opts.CustomVariations...)

	matchesByIndex := make(map[int]Match)
	for _, variation := range variations {
		if variation == "" {
			continue
		}
		for _, pattern := range buildPatterns(variation, opts) {
			for _, loc := range pattern.FindAllStringIndex(text, -1) {
				matched := text[loc[0]:loc[1]]
				confidence := scoreMatch(matched, brandName)
				// Keep the highest-confidence hit per offset
				if existing, ok := matchesByIndex[loc[0]]; !ok || confidence > existing.Confidence {
					matchesByIndex[loc[0]] = Match{
						Text:       matched,
						Index:      loc[0],
						Confidence: confidence,
					}
				}
			}
		}
	}

	var matches []Match
	for _, m := range matchesByIndex {
		if opts.ExcludeNegativeContext && inNegativeContext(text, m.Index, len(m.Text)) {
			continue
		}
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Index < matches[j].Index })

	result := Result{Matches: matches}
	for _, m := range matches {
		if m.Confidence > result.Confidence {
			result.Confidence = m.Confidence
		}
	}
	result.Mentioned = len(matches) > 0
	return result
}

// DetectMultiple runs Detect once per brand. There is no cross-brand
// interaction; the map always contains an entry per input brand.
func DetectMultiple(text string, brands []string, opts Options) map[string]Result {
	results := make(map[string]Result, len(brands))
	for _, brand := range brands {
		results[brand] = Detect(text, brand, opts)
	}
	return results
}

// buildPatterns compiles the word-boundary regexp family for one variation:
// the plain form, a hyphen-compound form, the possessive form, and a
// legal-suffix-tolerant form.
func buildPatterns(variation string, opts Options) []*regexp.Regexp {
	escaped := regexp.QuoteMeta(variation)
	flags := "(?i)"
	if opts.CaseSensitive {
		flags = ""
	}

	boundary := `\b`
	if !opts.WholeWordOnly {
		boundary = ""
	}

	raw := []string{
		flags + boundary + escaped + boundary,
		flags + boundary + escaped + `(?:-\w+)` + boundary,
		flags + boundary + escaped + `'s` + boundary,
		flags + boundary + escaped + `\s+(?:Inc|LLC|Ltd|Corp|Co)\.?` + boundary,
	}

	patterns := make([]*regexp.Regexp, 0, len(raw))
	for _, r := range raw {
		if p, err := regexp.Compile(r); err == nil {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// scoreMatch assigns the confidence ladder: 1.0 for an exact
// case-insensitive match of the original name, 0.9 when the exact name is
// followed by more text in the matched span (possessive, legal suffix),
// 0.7 for any variation match, 0.5 floor.
func scoreMatch(matched, brandName string) float64 {
	lower := strings.ToLower(matched)
	brandLower := strings.ToLower(brandName)
	switch {
	case lower == brandLower:
		return 1.0
	case strings.HasPrefix(lower, brandLower+" ") || strings.HasPrefix(lower, brandLower+"'"):
		return 0.9
	case matched != "":
		return 0.7
	default:
		return 0.5
	}
}

// inNegativeContext scans the window around a match for advisory-negative
// phrasing.
func inNegativeContext(text string, index, length int) bool {
	start := index - negativeWindow
	if start < 0 {
		start = 0
	}
	end := index + length + negativeWindow
	if end > len(text) {
		end = len(text)
	}
	window := text[start:end]

	for _, pattern := range negativeContextPatterns {
		if pattern.MatchString(window) {
			return true
		}
	}
	return false
}
