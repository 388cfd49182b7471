// internal/citations/citations_test.go
package citations

import (
	"testing"
)

func TestExtractClassifiesDomains(t *testing.T) {
	text := `Acme is well reviewed (https://www.acme.com/reviews) and their blog
at https://blog.acme.com/2024/report backs it up. A third party wrote
https://example.org/acme-analysis as well.`

	citations := Extract(text, "https://acme.com")
	if len(citations) != 3 {
		t.Fatalf("expected 3 citations, got %v", citations)
	}

	types := map[string]string{}
	for _, citation := range citations {
		types[citation.URL] = citation.Type
	}
	if types["https://acme.com/reviews"] != "primary" {
		t.Errorf("www-stripped company URL should be primary: %v", types)
	}
	if types["https://blog.acme.com/2024/report"] != "primary" {
		t.Errorf("subdomain should match the registrable domain: %v", types)
	}
	if types["https://example.org/acme-analysis"] != "secondary" {
		t.Errorf("third-party URL should be secondary: %v", types)
	}
}

func TestExtractCleansURLs(t *testing.T) {
	text := `Sources: https://example.org/page?utm_source=chat&utm_campaign=x&id=7
and https://example.org/page?id=7&utm_medium=y plus an image
https://example.org/chart.png here.`

	citations := Extract(text, "")
	if len(citations) != 1 {
		t.Fatalf("expected tracking params stripped, duplicates merged, and images dropped, got %v", citations)
	}
	if citations[0].URL != "https://example.org/page?id=7" {
		t.Errorf("cleaned URL = %q", citations[0].URL)
	}
	if citations[0].Type != "secondary" {
		t.Errorf("no company URL means secondary, got %s", citations[0].Type)
	}
}

func TestExtractNoURLs(t *testing.T) {
	if got := Extract("No links in this text at all.", "https://acme.com"); len(got) != 0 {
		t.Errorf("expected no citations, got %v", got)
	}
}

func TestSameRegistrableDomain(t *testing.T) {
	tests := []struct {
		name     string
		citation string
		company  string
		want     bool
	}{
		{"exact", "https://acme.com/x", "https://acme.com", true},
		{"subdomain", "https://docs.acme.com/x", "https://acme.com", true},
		{"scheme-less company", "https://acme.com/x", "acme.com", true},
		{"suffix attack", "https://acme.com.evil.com/x", "https://acme.com", false},
		{"different domain", "https://example.org/x", "https://acme.com", false},
		{"empty company", "https://acme.com/x", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sameRegistrableDomain(tt.citation, tt.company); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
