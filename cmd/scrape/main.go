package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/snackwatch/konbini-crawler/internal/aiparser"
	"github.com/snackwatch/konbini-crawler/internal/browser"
	"github.com/snackwatch/konbini-crawler/internal/config"
	"github.com/snackwatch/konbini-crawler/internal/database"
	"github.com/snackwatch/konbini-crawler/internal/ingest"
	"github.com/snackwatch/konbini-crawler/internal/models"
	"github.com/snackwatch/konbini-crawler/internal/parser"
	"github.com/snackwatch/konbini-crawler/internal/ratelimit"
)

// One-shot crawl of a brand's new-product listing pages. Meant for cron;
// the long-running server ingests over HTTP instead.
func main() {
	var (
		brandName = flag.String("brand", "", "brand name or slug (required)")
		urls      = flag.String("urls", "", "comma-separated listing page URLs (required)")
		translate = flag.Bool("translate", false, "translate product names via OpenAI")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *brandName == "" || *urls == "" {
		logger.Error("both -brand and -urls are required")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	db, err := database.New(ctx, database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Name,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

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

	var ai aiparser.Service
	if *translate {
		if cfg.AI.OpenAIKey == "" {
			logger.Error("OPENAI_API_KEY is required with -translate")
			os.Exit(1)
		}
		ai = aiparser.NewOpenAIService(cfg.AI.OpenAIKey, cfg.AI.Model, logger)
	}

	limiter := ratelimit.NewAdaptiveLimiter(cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax)
	listingParser := parser.NewKonbiniParser()

	started := time.Now()
	var products []models.RawProduct

	for _, url := range strings.Split(*urls, ",") {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			logger.Error("crawl cancelled", "error", err)
			os.Exit(1)
		}

		html, err := b.FetchHTML(url, cfg.Scraper.MaxRetries)
		if err != nil {
			logger.Error("failed to fetch listing page", "error", err, "url", url)
			limiter.RecordError()
			continue
		}
		limiter.RecordSuccess()

		page, err := listingParser.ParseListing(html, url)
		if err != nil {
			logger.Error("failed to parse listing page", "error", err, "url", url)
			continue
		}

		logger.Info("parsed listing page", "url", url, "products", len(page))
		products = append(products, page...)
	}

	if ai != nil {
		for i := range products {
			if products[i].OriginalName == "" {
				continue
			}
			translated, err := ai.TranslateToTraditionalChinese(ctx, products[i].OriginalName)
			if err != nil {
				logger.Warn("translation failed", "error", err, "name", products[i].OriginalName)
				continue
			}
			products[i].TranslatedName = translated
		}
	}

	service := ingest.NewService(db, nil, logger)
	outcome := service.SaveScraperResult(ctx, &models.ScraperResult{
		Brand:         models.BrandInfo{Name: *brandName},
		Products:      products,
		ScrapedAt:     time.Now().UTC(),
		ExecutionTime: time.Since(started).Milliseconds(),
		ProductsCount: len(products),
	})

	if !outcome.Success {
		logger.Error("ingestion failed", "error", outcome.Error, "brand", *brandName)
		os.Exit(1)
	}

	logger.Info("crawl complete",
		"brand", *brandName,
		"scraped", len(products),
		"inserted", outcome.Inserted,
		"duration_ms", time.Since(started).Milliseconds())
}
