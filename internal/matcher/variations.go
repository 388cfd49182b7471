// internal/matcher/variations.go
package matcher

import (
	"regexp"
	"strings"
)

// legalSuffixes are stripped from the end of a brand name before variation
// generation. "Senso Inc" and "Senso" are the same brand.
var legalSuffixes = []string{
	"inc", "inc.", "llc", "llc.", "ltd", "ltd.", "corp", "corp.", "co", "co.",
	"company", "corporation", "limited", "gmbh", "plc",
}

// abbreviationExpansions maps common shorthand both ways.
var abbreviationExpansions = map[string][]string{
	"tech":  {"technology", "technologies"},
	"intl":  {"international"},
	"mgmt":  {"management"},
	"labs":  {"laboratories"},
	"mfg":   {"manufacturing"},
	"sys":   {"systems"},
	"svcs":  {"services"},
	"grp":   {"group"},
	"assoc": {"associates", "association"},
}

// numberWords substitutes digits for their written forms and back.
var numberWords = map[string]string{
	"0": "zero", "1": "one", "2": "two", "3": "three", "4": "four",
	"5": "five", "6": "six", "7": "seven", "8": "eight", "9": "nine",
}

// commonTLDs are appended to bare single-word names ("senso" -> "senso.ai")
// since companies are routinely referred to by their domain.
var commonTLDs = []string{".com", ".io", ".ai", ".co"}

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// GenerateVariations expands a brand name into the realistic forms it
// appears under in model output. The original name is always included.
func GenerateVariations(brandName string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		key := strings.ToLower(v)
		if !seen[key] {
			seen[key] = true
			out = append(out, v)
		}
	}

	add(brandName)

	base := stripLegalSuffix(brandName)
	add(base)

	// Separator variants: spaces, hyphens, underscores, dots, collapsed
	for _, root := range []string{base, spaceCamelCase(base)} {
		add(root)
		if strings.ContainsAny(root, " -_.") {
			words := splitWords(root)
			add(strings.Join(words, " "))
			add(strings.Join(words, "-"))
			add(strings.Join(words, "_"))
			add(strings.Join(words, "."))
			add(strings.Join(words, ""))
		}
	}

	// & / + substitutions
	if strings.Contains(base, "&") {
		add(strings.ReplaceAll(base, "&", "and"))
		add(strings.ReplaceAll(base, "&", "+"))
	}
	if strings.Contains(base, " and ") {
		add(strings.ReplaceAll(base, " and ", " & "))
	}
	if strings.Contains(base, "+") {
		add(strings.ReplaceAll(base, "+", "plus"))
		add(strings.ReplaceAll(base, "+", "and"))
	}

	// Digit <-> word substitutions
	for digit, word := range numberWords {
		if strings.Contains(base, digit) {
			add(strings.ReplaceAll(base, digit, word))
		}
		if strings.Contains(strings.ToLower(base), word) {
			re := regexp.MustCompile(`(?i)` + word)
			add(re.ReplaceAllString(base, digit))
		}
	}

	// Abbreviation expansions, both directions
	lowerBase := strings.ToLower(base)
	for abbr, expansions := range abbreviationExpansions {
		for _, expansion := range expansions {
			if containsWord(lowerBase, abbr) {
				add(replaceWord(base, abbr, expansion))
			}
			if containsWord(lowerBase, expansion) {
				add(replaceWord(base, expansion, abbr))
			}
		}
	}

	// Domain-style variants for bare single-token names
	if !strings.ContainsAny(base, " .") && len(base) > 2 {
		for _, tld := range commonTLDs {
			add(base + tld)
		}
	}
	// And the reverse: strip a TLD that is part of the name
	if idx := strings.LastIndex(base, "."); idx > 0 {
		add(base[:idx])
	}

	return out
}

func stripLegalSuffix(name string) string {
	trimmed := strings.TrimSpace(name)
	lower := strings.ToLower(trimmed)
	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(lower, " "+suffix) {
			return strings.TrimSpace(trimmed[:len(trimmed)-len(suffix)-1])
		}
	}
	return trimmed
}

// spaceCamelCase turns "OpenAI" into "Open AI" and "TotalExpert" into
// "Total Expert"; names without an internal case boundary pass through.
func spaceCamelCase(name string) string {
	return camelBoundary.ReplaceAllString(name, "$1 $2")
}

func splitWords(name string) []string {
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '.'
	})
	var words []string
	for _, f := range fields {
		if f != "" {
			words = append(words, f)
		}
	}
	return words
}

func containsWord(haystack, word string) bool {
	for _, w := range splitWords(haystack) {
		if strings.EqualFold(w, word) {
			return true
		}
	}
	return false
}

func replaceWord(name, old, repl string) string {
	words := splitWords(name)
	for i, w := range words {
		if strings.EqualFold(w, old) {
			words[i] = repl
		}
	}
	return strings.Join(words, " ")
}
