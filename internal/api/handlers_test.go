package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/snackwatch/konbini-crawler/internal/database"
	"github.com/snackwatch/konbini-crawler/internal/models"
)

type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) SaveScraperResult(ctx context.Context, result *models.ScraperResult) models.SaveOutcome {
	args := m.Called(ctx, result)
	return args.Get(0).(models.SaveOutcome)
}

func (m *MockIngestService) ClearBrandProducts(ctx context.Context, nameOrSlug string) models.ClearOutcome {
	args := m.Called(ctx, nameOrSlug)
	return args.Get(0).(models.ClearOutcome)
}

func (m *MockIngestService) CleanupOldRecords(ctx context.Context, brandName string, daysAgo int) bool {
	args := m.Called(ctx, brandName, daysAgo)
	return args.Bool(0)
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) ListBrands(ctx context.Context) ([]*database.Brand, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*database.Brand), args.Error(1)
}

func (m *MockDirectory) GetBrandByNameOrSlug(ctx context.Context, identifier string) (*database.Brand, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Brand), args.Error(1)
}

func (m *MockDirectory) GetRecentRuns(ctx context.Context, brandID uuid.UUID, limit int) ([]*database.CrawlerRun, error) {
	args := m.Called(ctx, brandID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*database.CrawlerRun), args.Error(1)
}

func (m *MockDirectory) CountProductsByBrand(ctx context.Context, brandID uuid.UUID) (int64, error) {
	args := m.Called(ctx, brandID)
	return args.Get(0).(int64), args.Error(1)
}

func newTestRouter(ingest IngestService, directory Directory) *chi.Mux {
	h := NewHandlers(ingest, directory, slog.Default())

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/ingest", h.IngestResult)
		r.Get("/brands", h.ListBrands)
		r.Get("/brands/{brand}", h.GetBrandStatus)
		r.Delete("/brands/{brand}/products", h.ClearBrandProducts)
		r.Post("/brands/{brand}/cleanup", h.CleanupBrand)
	})
	return r
}

func TestIngestResult(t *testing.T) {
	t.Run("accepts a batch and reports the outcome", func(t *testing.T) {
		ingest := new(MockIngestService)
		ingest.On("SaveScraperResult", mock.Anything, mock.MatchedBy(func(r *models.ScraperResult) bool {
			return r.Brand.Name == "Seven Eleven" && len(r.Products) == 1
		})).Return(models.SaveOutcome{Success: true, Inserted: 1})

		body, err := json.Marshal(models.ScraperResult{
			Brand: models.BrandInfo{Name: "Seven Eleven"},
			Products: []models.RawProduct{
				{OriginalName: "明太子おにぎり", SourceURL: "https://www.sej.co.jp/i/100123"},
			},
			ScrapedAt:     time.Now(),
			ProductsCount: 1,
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		newTestRouter(ingest, new(MockDirectory)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp IngestResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, 1, resp.Inserted)
		ingest.AssertExpectations(t)
	})

	t.Run("rejects a body without a brand name", func(t *testing.T) {
		ingest := new(MockIngestService)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", bytes.NewReader([]byte(`{"products":[]}`)))
		rec := httptest.NewRecorder()
		newTestRouter(ingest, new(MockDirectory)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		ingest.AssertNotCalled(t, "SaveScraperResult", mock.Anything, mock.Anything)
	})

	t.Run("reports persistence failures in-band with 200", func(t *testing.T) {
		ingest := new(MockIngestService)
		ingest.On("SaveScraperResult", mock.Anything, mock.Anything).
			Return(models.SaveOutcome{Success: false, Error: "brand not found"})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest",
			bytes.NewReader([]byte(`{"brand":{"name":"Nobody Mart"},"products":[]}`)))
		rec := httptest.NewRecorder()
		newTestRouter(ingest, new(MockDirectory)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp IngestResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, "brand not found", resp.Error)
	})
}

func TestClearBrandProducts(t *testing.T) {
	ingest := new(MockIngestService)
	ingest.On("ClearBrandProducts", mock.Anything, "seven-eleven").
		Return(models.ClearOutcome{Success: true, DeletedCount: 37})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/brands/seven-eleven/products", nil)
	rec := httptest.NewRecorder()
	newTestRouter(ingest, new(MockDirectory)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ClearResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(37), resp.DeletedCount)
	ingest.AssertExpectations(t)
}

func TestCleanupBrand(t *testing.T) {
	t.Run("uses the default retention window without a body", func(t *testing.T) {
		ingest := new(MockIngestService)
		ingest.On("CleanupOldRecords", mock.Anything, "mos-burger", 30).Return(true)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/brands/mos-burger/cleanup", nil)
		rec := httptest.NewRecorder()
		newTestRouter(ingest, new(MockDirectory)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		ingest.AssertExpectations(t)
	})

	t.Run("honors a custom retention window", func(t *testing.T) {
		ingest := new(MockIngestService)
		ingest.On("CleanupOldRecords", mock.Anything, "lawson", 90).Return(true)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/brands/lawson/cleanup",
			bytes.NewReader([]byte(`{"days_ago":90}`)))
		rec := httptest.NewRecorder()
		newTestRouter(ingest, new(MockDirectory)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		ingest.AssertExpectations(t)
	})

	t.Run("rejects a non-positive window", func(t *testing.T) {
		ingest := new(MockIngestService)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/brands/lawson/cleanup",
			bytes.NewReader([]byte(`{"days_ago":-1}`)))
		rec := httptest.NewRecorder()
		newTestRouter(ingest, new(MockDirectory)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		ingest.AssertNotCalled(t, "CleanupOldRecords", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetBrandStatus(t *testing.T) {
	brand := &database.Brand{
		ID:   uuid.New(),
		Name: "Seven Eleven",
		Slug: "seven-eleven",
	}

	t.Run("returns count and recent runs", func(t *testing.T) {
		directory := new(MockDirectory)
		directory.On("GetBrandByNameOrSlug", mock.Anything, "seven-eleven").Return(brand, nil)
		directory.On("CountProductsByBrand", mock.Anything, brand.ID).Return(int64(12), nil)
		directory.On("GetRecentRuns", mock.Anything, brand.ID, 10).
			Return([]*database.CrawlerRun{{BrandName: "Seven Eleven", Success: true}}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/brands/seven-eleven", nil)
		rec := httptest.NewRecorder()
		newTestRouter(new(MockIngestService), directory).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp BrandStatusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(12), resp.ProductCount)
		require.Len(t, resp.RecentRuns, 1)
		assert.True(t, resp.RecentRuns[0].Success)
	})

	t.Run("404 on unknown brand", func(t *testing.T) {
		directory := new(MockDirectory)
		directory.On("GetBrandByNameOrSlug", mock.Anything, "nobody-mart").
			Return(nil, database.ErrBrandNotFound)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/brands/nobody-mart", nil)
		rec := httptest.NewRecorder()
		newTestRouter(new(MockIngestService), directory).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
