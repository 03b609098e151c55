package parser

import (
	"net/url"
	"strings"

	"github.com/snackwatch/konbini-crawler/internal/models"
)

// ListingParser extracts product records from a brand's listing page.
// Extraction is best-effort: records may come back with partial fields
// and are cleaned up downstream.
type ListingParser interface {
	ParseListing(html, baseURL string) ([]models.RawProduct, error)
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif"}

// resolveURL makes a possibly-relative href absolute against the page
// URL. Malformed hrefs come back unchanged; the ingestion side treats
// the URL as an opaque identity anyway.
func resolveURL(baseURL, href string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// normalizeImageURL trims trailing slashes and rejects URLs without a
// recognized image extension. The chain sites occasionally emit tracker
// pixels and svg sprites in the card markup.
func normalizeImageURL(raw string) (string, bool) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "", false
	}

	lower := strings.ToLower(raw)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}

	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return raw, true
		}
	}

	return "", false
}
