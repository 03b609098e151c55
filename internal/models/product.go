package models

import (
	"encoding/json"
	"time"
)

// RawProduct is one scraped listing item as produced by the scraper or
// the AI parser. Every field except SourceURL may be missing or partial;
// upstream extraction and translation are best-effort.
type RawProduct struct {
	OriginalName   string                     `json:"original_name"`
	TranslatedName string                     `json:"translated_name,omitempty"`
	SourceURL      string                     `json:"source_url"`
	ImageURLs      []string                   `json:"image_urls,omitempty"`
	Price          Price                      `json:"price"`
	IsNew          bool                       `json:"is_new"`
	ReleaseDate    string                     `json:"release_date,omitempty"`
	Allergens      []string                   `json:"allergens,omitempty"`
	Extra          map[string]json.RawMessage `json:"extra,omitempty"`
}

type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// BrandInfo identifies the brand a scrape run belongs to. Only Name is
// used for resolution; the rest is carried for reporting.
type BrandInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	URL         string `json:"url,omitempty"`
	Category    string `json:"category,omitempty"`
}

// ScraperResult is the unit of ingestion: one brand's scrape output.
type ScraperResult struct {
	Brand         BrandInfo    `json:"brand"`
	Products      []RawProduct `json:"products"`
	ScrapedAt     time.Time    `json:"scraped_at"`
	ExecutionTime int64        `json:"execution_time"`
	ProductsCount int          `json:"products_count"`
}

// SaveOutcome reports the result of one ingestion batch. A batch either
// completes or is reported failed as a whole; there is no per-record
// breakdown.
type SaveOutcome struct {
	Success  bool   `json:"success"`
	Inserted int    `json:"inserted,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ClearOutcome reports the result of clearing one brand's products.
type ClearOutcome struct {
	Success      bool   `json:"success"`
	DeletedCount int64  `json:"deleted_count,omitempty"`
	Error        string `json:"error,omitempty"`
}

func (p *RawProduct) HasSourceURL() bool {
	return p.SourceURL != ""
}
