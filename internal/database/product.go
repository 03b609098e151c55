package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Product is a persisted listing item, scoped to exactly one brand.
// (brand_id, source_url) carries a unique constraint in storage; the
// constraint, not application locking, guarantees at-most-one row per
// product identity under concurrent writers.
type Product struct {
	ID             uuid.UUID       `db:"id"`
	BrandID        uuid.UUID       `db:"brand_id"`
	OriginalName   string          `db:"original_name"`
	TranslatedName string          `db:"translated_name"`
	SourceURL      string          `db:"source_url"`
	ImageURLs      json.RawMessage `db:"image_urls"`
	PriceAmount    float64         `db:"price_amount"`
	PriceCurrency  string          `db:"price_currency"`
	IsNew          bool            `db:"is_new"`
	ReleaseDate    string          `db:"release_date"`
	Allergens      json.RawMessage `db:"allergens"`
	Extra          json.RawMessage `db:"extra"`
	ScrapedAt      time.Time       `db:"scraped_at"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// UpsertProduct inserts or updates a product keyed on
// (brand_id, source_url). Timestamps follow the batch's scrape time
// rather than the wall clock at write time, so staleness queries stay
// meaningful even when persistence is delayed: an insert sets
// created_at = scrapedAt, an update rewrites everything except
// created_at and sets updated_at = scrapedAt.
//
// The returned bool is true when the row was newly inserted
// (xmax = 0 only holds for rows created by the current transaction).
func (db *DB) UpsertProduct(ctx context.Context, p *Product) (bool, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	query := `
		INSERT INTO products (
			id, brand_id, original_name, translated_name, source_url,
			image_urls, price_amount, price_currency, is_new,
			release_date, allergens, extra, scraped_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13, $13
		)
		ON CONFLICT (brand_id, source_url) DO UPDATE SET
			original_name = EXCLUDED.original_name,
			translated_name = EXCLUDED.translated_name,
			image_urls = EXCLUDED.image_urls,
			price_amount = EXCLUDED.price_amount,
			price_currency = EXCLUDED.price_currency,
			is_new = EXCLUDED.is_new,
			release_date = EXCLUDED.release_date,
			allergens = EXCLUDED.allergens,
			extra = EXCLUDED.extra,
			scraped_at = EXCLUDED.scraped_at,
			updated_at = EXCLUDED.scraped_at
		RETURNING id, created_at, updated_at, (xmax = 0) AS inserted`

	var inserted bool
	err := db.pool.QueryRow(ctx, query,
		p.ID, p.BrandID, p.OriginalName, p.TranslatedName, p.SourceURL,
		p.ImageURLs, p.PriceAmount, p.PriceCurrency, p.IsNew,
		p.ReleaseDate, p.Allergens, p.Extra, p.ScrapedAt,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &inserted)

	if err != nil {
		return false, fmt.Errorf("failed to upsert product: %w", err)
	}

	return inserted, nil
}

// GetProductBySourceURL retrieves one product within a brand. Returns
// nil when absent.
func (db *DB) GetProductBySourceURL(ctx context.Context, brandID uuid.UUID, sourceURL string) (*Product, error) {
	query := `
		SELECT id, brand_id, original_name, translated_name, source_url,
		       image_urls, price_amount, price_currency, is_new,
		       release_date, allergens, extra, scraped_at, created_at, updated_at
		FROM products
		WHERE brand_id = $1 AND source_url = $2`

	p := &Product{}
	err := db.pool.QueryRow(ctx, query, brandID, sourceURL).Scan(
		&p.ID, &p.BrandID, &p.OriginalName, &p.TranslatedName, &p.SourceURL,
		&p.ImageURLs, &p.PriceAmount, &p.PriceCurrency, &p.IsNew,
		&p.ReleaseDate, &p.Allergens, &p.Extra, &p.ScrapedAt, &p.CreatedAt, &p.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return p, nil
}

// DeleteProductsByBrand removes every product for the brand and returns
// the count. The brand row itself is never touched.
func (db *DB) DeleteProductsByBrand(ctx context.Context, brandID uuid.UUID) (int64, error) {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM products WHERE brand_id = $1`, brandID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete brand products: %w", err)
	}

	return result.RowsAffected(), nil
}

// CountProductsByBrand returns the number of products stored for a brand.
func (db *DB) CountProductsByBrand(ctx context.Context, brandID uuid.UUID) (int64, error) {
	var count int64
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE brand_id = $1`, brandID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}

	return count, nil
}
