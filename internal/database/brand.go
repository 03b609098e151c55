package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrBrandNotFound is returned when an identifier matches neither a
// brand name nor a derived slug. Ingestion never creates brands, so a
// miss is a hard failure on that path.
var ErrBrandNotFound = errors.New("brand not found")

// Brand is the tenant-like scoping entity. Every product belongs to
// exactly one brand; brands are provisioned by separate setup
// utilities, never implicitly during ingestion.
type Brand struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	Slug        string    `db:"slug"`
	DisplayName string    `db:"display_name"`
	Category    string    `db:"category"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slugify derives the alternate lookup key from a human-provided brand
// name: lowercased, whitespace runs collapsed to single hyphens.
func Slugify(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// GetBrandByName retrieves a brand by exact name match.
func (db *DB) GetBrandByName(ctx context.Context, name string) (*Brand, error) {
	return db.getBrand(ctx, "name", name)
}

// GetBrandBySlug retrieves a brand by its slug.
func (db *DB) GetBrandBySlug(ctx context.Context, slug string) (*Brand, error) {
	return db.getBrand(ctx, "slug", slug)
}

// GetBrandByNameOrSlug resolves a human-provided identifier: exact name
// match first, then the slug derived from the identifier. No fuzzy or
// partial matching.
func (db *DB) GetBrandByNameOrSlug(ctx context.Context, identifier string) (*Brand, error) {
	brand, err := db.GetBrandByName(ctx, identifier)
	if err == nil {
		return brand, nil
	}
	if !errors.Is(err, ErrBrandNotFound) {
		return nil, err
	}

	return db.GetBrandBySlug(ctx, Slugify(identifier))
}

func (db *DB) getBrand(ctx context.Context, column, value string) (*Brand, error) {
	query := fmt.Sprintf(`
		SELECT id, name, slug, display_name, category, created_at, updated_at
		FROM brands
		WHERE %s = $1`, column)

	b := &Brand{}
	err := db.pool.QueryRow(ctx, query, value).Scan(
		&b.ID, &b.Name, &b.Slug, &b.DisplayName, &b.Category,
		&b.CreatedAt, &b.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, ErrBrandNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brand: %w", err)
	}

	return b, nil
}

// InsertBrand creates a brand row. Used by setup utilities only; the
// ingestion path never calls this.
func (db *DB) InsertBrand(ctx context.Context, b *Brand) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Slug == "" {
		b.Slug = Slugify(b.Name)
	}

	query := `
		INSERT INTO brands (id, name, slug, display_name, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := db.pool.QueryRow(ctx, query,
		b.ID, b.Name, b.Slug, b.DisplayName, b.Category,
	).Scan(&b.CreatedAt, &b.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert brand: %w", err)
	}

	return nil
}

// ListBrands returns all brands ordered by name.
func (db *DB) ListBrands(ctx context.Context) ([]*Brand, error) {
	query := `
		SELECT id, name, slug, display_name, category, created_at, updated_at
		FROM brands
		ORDER BY name ASC`

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	defer rows.Close()

	var brands []*Brand
	for rows.Next() {
		b := &Brand{}
		err := rows.Scan(
			&b.ID, &b.Name, &b.Slug, &b.DisplayName, &b.Category,
			&b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, b)
	}

	return brands, rows.Err()
}
