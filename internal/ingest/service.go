package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/snackwatch/konbini-crawler/internal/database"
	"github.com/snackwatch/konbini-crawler/internal/dedup"
	"github.com/snackwatch/konbini-crawler/internal/events"
	"github.com/snackwatch/konbini-crawler/internal/models"
	"github.com/snackwatch/konbini-crawler/internal/observability"
)

// Store is the storage surface the gateway needs. *database.DB
// satisfies it; tests inject a mock.
type Store interface {
	GetBrandByName(ctx context.Context, name string) (*database.Brand, error)
	GetBrandBySlug(ctx context.Context, slug string) (*database.Brand, error)
	UpsertProduct(ctx context.Context, p *database.Product) (bool, error)
	DeleteProductsByBrand(ctx context.Context, brandID uuid.UUID) (int64, error)
	InsertCrawlerRun(ctx context.Context, run *database.CrawlerRun) error
	DeleteRunsOlderThan(ctx context.Context, brandID uuid.UUID, cutoff time.Time) (int64, error)
}

// Publisher emits notifications for newly inserted products. May be nil
// when no downstream consumers are wired (one-off runs, tests).
type Publisher interface {
	PublishProductIngested(ctx context.Context, payload *events.ProductIngestedPayload) error
}

// Service is the persistence gateway: it turns one brand's scrape
// result into durable storage state, idempotently, and records an
// audit row per attempt.
type Service struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
}

func NewService(store Store, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger.With("component", "ingest"),
	}
}

// SaveScraperResult ingests one batch. The batch is deduplicated before
// persistence, malformed records are filtered rather than failing the
// batch, and every invocation leaves exactly one CrawlerRun row behind,
// including batches rejected for an unknown brand. On a mid-batch
// storage fault the batch is reported failed as a whole; rows already
// upserted stay written (no batch transaction).
func (s *Service) SaveScraperResult(ctx context.Context, result *models.ScraperResult) models.SaveOutcome {
	brand, err := s.resolveBrand(ctx, result.Brand.Name)
	if err != nil {
		s.logger.Warn("batch rejected",
			"brand", result.Brand.Name,
			"error", err)

		s.recordRun(ctx, &database.CrawlerRun{
			BrandName:       result.Brand.Name,
			ScrapedAt:       result.ScrapedAt,
			ExecutionTimeMs: result.ExecutionTime,
			ProductsCount:   result.ProductsCount,
			Success:         false,
			Error:           err.Error(),
		})

		observability.IngestBatchesTotal.WithLabelValues(result.Brand.Name, "rejected").Inc()
		return models.SaveOutcome{Success: false, Error: err.Error()}
	}

	deduped := dedup.Dedupe(result.Products)
	if dropped := len(result.Products) - len(deduped); dropped > 0 {
		s.logger.Info("dropped duplicate records",
			"brand", brand.Slug,
			"count", dropped)
		observability.DuplicatesDroppedTotal.WithLabelValues(brand.Slug).Add(float64(dropped))
	}

	valid := deduped[:0:0]
	for _, p := range deduped {
		if !p.HasSourceURL() {
			s.logger.Warn("dropping malformed record",
				"brand", brand.Slug,
				"original_name", p.OriginalName)
			observability.MalformedDroppedTotal.WithLabelValues(brand.Slug).Inc()
			continue
		}
		valid = append(valid, p)
	}

	inserted := 0
	for _, raw := range valid {
		row, err := toProductRow(brand.ID, raw, result.ScrapedAt)
		if err != nil {
			s.logger.Warn("dropping unencodable record",
				"brand", brand.Slug,
				"source_url", raw.SourceURL,
				"error", err)
			observability.MalformedDroppedTotal.WithLabelValues(brand.Slug).Inc()
			continue
		}

		isNew, err := s.store.UpsertProduct(ctx, row)
		if err != nil {
			s.logger.Error("batch failed",
				"brand", brand.Slug,
				"source_url", raw.SourceURL,
				"error", err)

			s.recordRun(ctx, &database.CrawlerRun{
				BrandID:         &brand.ID,
				BrandName:       result.Brand.Name,
				ScrapedAt:       result.ScrapedAt,
				ExecutionTimeMs: result.ExecutionTime,
				ProductsCount:   result.ProductsCount,
				Success:         false,
				Error:           err.Error(),
			})

			observability.IngestBatchesTotal.WithLabelValues(brand.Slug, "failed").Inc()
			return models.SaveOutcome{Success: false, Error: err.Error()}
		}

		if isNew {
			inserted++
			s.notifyIngested(ctx, brand.Slug, raw, result.ScrapedAt)
		}
	}

	s.recordRun(ctx, &database.CrawlerRun{
		BrandID:         &brand.ID,
		BrandName:       result.Brand.Name,
		ScrapedAt:       result.ScrapedAt,
		ExecutionTimeMs: result.ExecutionTime,
		ProductsCount:   result.ProductsCount,
		Success:         true,
	})

	observability.IngestBatchesTotal.WithLabelValues(brand.Slug, "success").Inc()
	observability.ProductsInsertedTotal.WithLabelValues(brand.Slug).Add(float64(inserted))

	s.logger.Info("batch saved",
		"brand", brand.Slug,
		"received", len(result.Products),
		"persisted", len(valid),
		"inserted", inserted)

	return models.SaveOutcome{Success: true, Inserted: inserted}
}

// ClearBrandProducts deletes every product belonging to the brand. An
// unknown brand is a soft failure: callers treat "nothing to clear" as
// a legitimate outcome. The brand row itself is never deleted.
func (s *Service) ClearBrandProducts(ctx context.Context, nameOrSlug string) models.ClearOutcome {
	brand, err := s.resolveBrand(ctx, nameOrSlug)
	if err != nil {
		if errors.Is(err, database.ErrBrandNotFound) {
			return models.ClearOutcome{Success: false, Error: "brand not found"}
		}
		return models.ClearOutcome{Success: false, Error: err.Error()}
	}

	count, err := s.store.DeleteProductsByBrand(ctx, brand.ID)
	if err != nil {
		s.logger.Error("failed to clear brand products",
			"brand", brand.Slug,
			"error", err)
		return models.ClearOutcome{Success: false, Error: err.Error()}
	}

	s.logger.Info("cleared brand products",
		"brand", brand.Slug,
		"deleted", count)

	return models.ClearOutcome{Success: true, DeletedCount: count}
}

// CleanupOldRecords applies the audit retention policy: CrawlerRun rows
// older than daysAgo days are removed for the brand. Product rows are
// never touched.
func (s *Service) CleanupOldRecords(ctx context.Context, brandName string, daysAgo int) bool {
	brand, err := s.resolveBrand(ctx, brandName)
	if err != nil {
		s.logger.Warn("cleanup skipped",
			"brand", brandName,
			"error", err)
		return false
	}

	cutoff := time.Now().AddDate(0, 0, -daysAgo)
	count, err := s.store.DeleteRunsOlderThan(ctx, brand.ID, cutoff)
	if err != nil {
		s.logger.Error("failed to clean up crawler runs",
			"brand", brand.Slug,
			"error", err)
		return false
	}

	s.logger.Info("cleaned up crawler runs",
		"brand", brand.Slug,
		"deleted", count,
		"older_than_days", daysAgo)

	return true
}

// resolveBrand tries an exact name match first and falls back to the
// slug derived from the identifier. Brands are never created here.
func (s *Service) resolveBrand(ctx context.Context, identifier string) (*database.Brand, error) {
	brand, err := s.store.GetBrandByName(ctx, identifier)
	if err == nil {
		return brand, nil
	}
	if !errors.Is(err, database.ErrBrandNotFound) {
		return nil, err
	}

	return s.store.GetBrandBySlug(ctx, database.Slugify(identifier))
}

// recordRun appends the audit row. Audit failures are logged but never
// override the batch outcome.
func (s *Service) recordRun(ctx context.Context, run *database.CrawlerRun) {
	if err := s.store.InsertCrawlerRun(ctx, run); err != nil {
		s.logger.Error("failed to record crawler run",
			"brand", run.BrandName,
			"error", err)
	}
}

func (s *Service) notifyIngested(ctx context.Context, brandSlug string, raw models.RawProduct, scrapedAt time.Time) {
	if s.publisher == nil {
		return
	}

	payload := &events.ProductIngestedPayload{
		BrandSlug:      brandSlug,
		OriginalName:   raw.OriginalName,
		TranslatedName: raw.TranslatedName,
		SourceURL:      raw.SourceURL,
		ImageURLs:      raw.ImageURLs,
		Price:          &raw.Price,
		IsNew:          raw.IsNew,
		ReleaseDate:    raw.ReleaseDate,
		ScrapedAt:      scrapedAt,
	}

	if err := s.publisher.PublishProductIngested(ctx, payload); err != nil {
		s.logger.Error("failed to publish product event",
			"brand", brandSlug,
			"source_url", raw.SourceURL,
			"error", err)
	}
}

func toProductRow(brandID uuid.UUID, raw models.RawProduct, scrapedAt time.Time) (*database.Product, error) {
	imageURLs, err := json.Marshal(raw.ImageURLs)
	if err != nil {
		return nil, err
	}
	allergens, err := json.Marshal(raw.Allergens)
	if err != nil {
		return nil, err
	}
	extra, err := json.Marshal(raw.Extra)
	if err != nil {
		return nil, err
	}

	return &database.Product{
		BrandID:        brandID,
		OriginalName:   raw.OriginalName,
		TranslatedName: raw.TranslatedName,
		SourceURL:      raw.SourceURL,
		ImageURLs:      imageURLs,
		PriceAmount:    raw.Price.Amount,
		PriceCurrency:  raw.Price.Currency,
		IsNew:          raw.IsNew,
		ReleaseDate:    raw.ReleaseDate,
		Allergens:      allergens,
		Extra:          extra,
		ScrapedAt:      scrapedAt,
	}, nil
}
