// internal/citations/citations.go
//
// Package citations pulls source URLs out of raw model text and classifies
// them against the analyzed company's own domain.
package citations

import (
	"net/url"
	"strings"

	"github.com/brandlens/brandlens-workflows/internal/models"
	"golang.org/x/net/publicsuffix"
	"mvdan.cc/xurls/v2"
)

var imageExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".bmp", ".svg", ".webp",
}

// Extract finds, cleans, and deduplicates the URLs in text. A URL on the
// company's own registrable domain is classified "primary"; everything
// else is "secondary".
func Extract(text, companyURL string) []models.Citation {
	var citations []models.Citation
	seenURLs := make(map[string]bool)

	matches := xurls.Strict().FindAllString(text, -1)
	for _, match := range matches {
		cleaned, ok := cleanURL(match)
		if !ok || seenURLs[cleaned] {
			continue
		}
		seenURLs[cleaned] = true

		citationType := "secondary"
		if sameRegistrableDomain(cleaned, companyURL) {
			citationType = "primary"
		}
		citations = append(citations, models.Citation{URL: cleaned, Type: citationType})
	}

	return citations
}

// cleanURL normalizes one raw match: scheme check, www. strip, utm_*
// removal, trailing-slash trim, image-link rejection.
func cleanURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}

	u.Host = strings.TrimPrefix(u.Hostname(), "www.")

	q := u.Query()
	for param := range q {
		if strings.HasPrefix(strings.ToLower(param), "utm_") {
			q.Del(param)
		}
	}
	u.RawQuery = q.Encode()

	pathLower := strings.ToLower(u.Path)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(pathLower, ext) {
			return "", false
		}
	}

	finalURL := strings.TrimRight(u.String(), "/")
	if finalURL == "" {
		return "", false
	}
	return finalURL, true
}

// sameRegistrableDomain compares the eTLD+1 of both URLs, so
// blog.acme.com counts as acme.com but acme.com.evil.com does not.
func sameRegistrableDomain(citationURL, companyURL string) bool {
	if companyURL == "" {
		return false
	}
	if !strings.Contains(companyURL, "://") {
		companyURL = "https://" + companyURL
	}

	a, err := url.Parse(citationURL)
	if err != nil {
		return false
	}
	b, err := url.Parse(companyURL)
	if err != nil {
		return false
	}

	domainA, err := publicsuffix.EffectiveTLDPlusOne(strings.TrimPrefix(a.Hostname(), "www."))
	if err != nil {
		return false
	}
	domainB, err := publicsuffix.EffectiveTLDPlusOne(strings.TrimPrefix(b.Hostname(), "www."))
	if err != nil {
		return false
	}
	return strings.EqualFold(domainA, domainB)
}
