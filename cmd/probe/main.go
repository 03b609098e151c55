package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/snackwatch/konbini-crawler/internal/browser"
	"github.com/snackwatch/konbini-crawler/internal/config"
	"github.com/snackwatch/konbini-crawler/internal/parser"
)

// Exploration probe for new chain sites: renders a listing page, reports
// how the known card selectors match, and optionally dumps the HTML so a
// new selector can be worked out offline.
func main() {
	var (
		url      = flag.String("url", "", "listing page URL to probe (required)")
		dumpPath = flag.String("dump", "", "write rendered HTML to this file")
		selector = flag.String("selector", "", "extra CSS selector to count")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *url == "" {
		logger.Error("-url is required")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	b, err := browser.New(&browser.Options{
		Headless:       cfg.Browser.Headless,
		Timeout:        cfg.Browser.Timeout,
		UserAgent:      cfg.Scraper.UserAgent,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		TimezoneID:     cfg.Browser.TimezoneID,
		Locale:         cfg.Browser.Locale,
	})
	if err != nil {
		logger.Error("failed to initialize browser", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	html, err := b.FetchHTML(*url, cfg.Scraper.MaxRetries)
	if err != nil {
		logger.Error("failed to fetch page", "error", err, "url", *url)
		os.Exit(1)
	}

	if *dumpPath != "" {
		if err := os.WriteFile(*dumpPath, []byte(html), 0o644); err != nil {
			logger.Error("failed to write dump", "error", err)
		} else {
			fmt.Printf("dumped %d bytes to %s\n", len(html), *dumpPath)
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Error("failed to parse HTML", "error", err)
		os.Exit(1)
	}

	probeSelectors := []string{
		"li.ly-mod-infoset",
		"div.ly-goods-list-item",
		"ul.heightLineParent > li",
		"li.product-item",
		"article.product",
	}
	if *selector != "" {
		probeSelectors = append(probeSelectors, *selector)
	}

	fmt.Printf("probe of %s\n", *url)
	for _, sel := range probeSelectors {
		fmt.Printf("  %-28s %d matches\n", sel, doc.Find(sel).Length())
	}

	products, err := parser.NewKonbiniParser().ParseListing(html, *url)
	if err != nil {
		logger.Error("parser failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("parser extracted %d products\n", len(products))
	for i, p := range products {
		if i >= 5 {
			fmt.Printf("  ... and %d more\n", len(products)-5)
			break
		}
		fmt.Printf("  %q price=%.0f new=%v url=%s\n", p.OriginalName, p.Price.Amount, p.IsNew, p.SourceURL)
	}
}
