package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CrawlerRun is the append-only audit record of one ingestion batch.
// Rows are never mutated after creation. BrandID is nullable because
// batches rejected with an unknown brand must still be auditable; the
// attempted brand name is always recorded.
type CrawlerRun struct {
	ID              uuid.UUID  `db:"id"`
	BrandID         *uuid.UUID `db:"brand_id"`
	BrandName       string     `db:"brand_name"`
	ScrapedAt       time.Time  `db:"scraped_at"`
	ExecutionTimeMs int64      `db:"execution_time_ms"`
	ProductsCount   int        `db:"products_count"`
	Success         bool       `db:"success"`
	Error           string     `db:"error"`
	CreatedAt       time.Time  `db:"created_at"`
}

// InsertCrawlerRun appends one audit row.
func (db *DB) InsertCrawlerRun(ctx context.Context, run *CrawlerRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	query := `
		INSERT INTO crawler_runs (
			id, brand_id, brand_name, scraped_at,
			execution_time_ms, products_count, success, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := db.pool.QueryRow(ctx, query,
		run.ID, run.BrandID, run.BrandName, run.ScrapedAt,
		run.ExecutionTimeMs, run.ProductsCount, run.Success, run.Error,
	).Scan(&run.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert crawler run: %w", err)
	}

	return nil
}

// DeleteRunsOlderThan applies the audit retention policy for one brand:
// runs recorded before the cutoff are removed. Product rows are never
// touched here.
func (db *DB) DeleteRunsOlderThan(ctx context.Context, brandID uuid.UUID, cutoff time.Time) (int64, error) {
	result, err := db.pool.Exec(ctx, `
		DELETE FROM crawler_runs
		WHERE brand_id = $1 AND created_at < $2`, brandID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old crawler runs: %w", err)
	}

	return result.RowsAffected(), nil
}

// GetRecentRuns returns the most recent audit rows for a brand.
func (db *DB) GetRecentRuns(ctx context.Context, brandID uuid.UUID, limit int) ([]*CrawlerRun, error) {
	query := `
		SELECT id, brand_id, brand_name, scraped_at,
		       execution_time_ms, products_count, success, error, created_at
		FROM crawler_runs
		WHERE brand_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := db.pool.Query(ctx, query, brandID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query crawler runs: %w", err)
	}
	defer rows.Close()

	var runs []*CrawlerRun
	for rows.Next() {
		run := &CrawlerRun{}
		err := rows.Scan(
			&run.ID, &run.BrandID, &run.BrandName, &run.ScrapedAt,
			&run.ExecutionTimeMs, &run.ProductsCount, &run.Success,
			&run.Error, &run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crawler run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
