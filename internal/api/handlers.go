package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/snackwatch/konbini-crawler/internal/database"
	"github.com/snackwatch/konbini-crawler/internal/models"
)

// IngestService is the slice of the ingestion gateway the API needs.
type IngestService interface {
	SaveScraperResult(ctx context.Context, result *models.ScraperResult) models.SaveOutcome
	ClearBrandProducts(ctx context.Context, nameOrSlug string) models.ClearOutcome
	CleanupOldRecords(ctx context.Context, brandName string, daysAgo int) bool
}

// Directory exposes the read-side queries backing the listing endpoints.
type Directory interface {
	ListBrands(ctx context.Context) ([]*database.Brand, error)
	GetBrandByNameOrSlug(ctx context.Context, identifier string) (*database.Brand, error)
	GetRecentRuns(ctx context.Context, brandID uuid.UUID, limit int) ([]*database.CrawlerRun, error)
	CountProductsByBrand(ctx context.Context, brandID uuid.UUID) (int64, error)
}

type Handlers struct {
	ingest    IngestService
	directory Directory
	logger    *slog.Logger
}

func NewHandlers(ingest IngestService, directory Directory, logger *slog.Logger) *Handlers {
	return &Handlers{
		ingest:    ingest,
		directory: directory,
		logger:    logger,
	}
}

// IngestResponse reports the outcome of a scraper batch submission.
type IngestResponse struct {
	Success  bool   `json:"success"`
	Inserted int    `json:"inserted"`
	Error    string `json:"error,omitempty"`
}

// IngestResult accepts a complete scraper batch and persists it.
func (h *Handlers) IngestResult(w http.ResponseWriter, r *http.Request) {
	var result models.ScraperResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if result.Brand.Name == "" {
		h.respondError(w, http.StatusBadRequest, "brand.name is required")
		return
	}

	outcome := h.ingest.SaveScraperResult(r.Context(), &result)

	// Persistence failures are reported in-band; the batch itself was
	// well-formed and the run was recorded either way.
	h.respondJSON(w, http.StatusOK, IngestResponse{
		Success:  outcome.Success,
		Inserted: outcome.Inserted,
		Error:    outcome.Error,
	})
}

// ClearResponse reports the outcome of a brand-wide product purge.
type ClearResponse struct {
	Success      bool   `json:"success"`
	DeletedCount int64  `json:"deleted_count"`
	Error        string `json:"error,omitempty"`
}

// ClearBrandProducts deletes every product row belonging to a brand.
func (h *Handlers) ClearBrandProducts(w http.ResponseWriter, r *http.Request) {
	brand := chi.URLParam(r, "brand")
	if brand == "" {
		h.respondError(w, http.StatusBadRequest, "brand is required")
		return
	}

	outcome := h.ingest.ClearBrandProducts(r.Context(), brand)

	h.respondJSON(w, http.StatusOK, ClearResponse{
		Success:      outcome.Success,
		DeletedCount: outcome.DeletedCount,
		Error:        outcome.Error,
	})
}

// CleanupRequest configures the retention window for old crawler runs.
type CleanupRequest struct {
	DaysAgo int `json:"days_ago"`
}

// CleanupBrand prunes crawler run history older than the retention window.
func (h *Handlers) CleanupBrand(w http.ResponseWriter, r *http.Request) {
	brand := chi.URLParam(r, "brand")
	if brand == "" {
		h.respondError(w, http.StatusBadRequest, "brand is required")
		return
	}

	req := CleanupRequest{DaysAgo: 30}
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if req.DaysAgo <= 0 {
		h.respondError(w, http.StatusBadRequest, "days_ago must be positive")
		return
	}

	ok := h.ingest.CleanupOldRecords(r.Context(), brand, req.DaysAgo)

	h.respondJSON(w, http.StatusOK, map[string]bool{"success": ok})
}

// ListBrands returns every configured brand.
func (h *Handlers) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.directory.ListBrands(r.Context())
	if err != nil {
		h.logger.Error("failed to list brands", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list brands")
		return
	}

	h.respondJSON(w, http.StatusOK, brands)
}

// BrandStatusResponse summarizes a brand's stored products and recent runs.
type BrandStatusResponse struct {
	Brand        *database.Brand        `json:"brand"`
	ProductCount int64                  `json:"product_count"`
	RecentRuns   []*database.CrawlerRun `json:"recent_runs"`
}

// GetBrandStatus returns a brand's product count and recent crawl history.
func (h *Handlers) GetBrandStatus(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "brand")
	if identifier == "" {
		h.respondError(w, http.StatusBadRequest, "brand is required")
		return
	}

	brand, err := h.directory.GetBrandByNameOrSlug(r.Context(), identifier)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "brand not found")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	count, err := h.directory.CountProductsByBrand(r.Context(), brand.ID)
	if err != nil {
		h.logger.Error("failed to count products", "error", err, "brand", brand.Slug)
		h.respondError(w, http.StatusInternalServerError, "failed to load brand status")
		return
	}

	runs, err := h.directory.GetRecentRuns(r.Context(), brand.ID, limit)
	if err != nil {
		h.logger.Error("failed to load recent runs", "error", err, "brand", brand.Slug)
		h.respondError(w, http.StatusInternalServerError, "failed to load brand status")
		return
	}

	h.respondJSON(w, http.StatusOK, BrandStatusResponse{
		Brand:        brand,
		ProductCount: count,
		RecentRuns:   runs,
	})
}

// Helper methods
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
