// Package postgres implements the search backend directly against the
// catalog's PostgreSQL tables. Predicate sets render to one shared WHERE
// clause; facet counts are plain GROUP BY queries over the same clause.
package postgres

import (
	"context"
	"fmt"

	"github.com/luanvuhlu/compmarket/internal/domain"
	"github.com/luanvuhlu/compmarket/internal/search/backend"
	"github.com/luanvuhlu/compmarket/internal/search/predicate"
	"github.com/luanvuhlu/compmarket/pkg/database"
)

// Backend executes compiled predicate sets against PostgreSQL.
type Backend struct {
	db database.DBTX
}

// New creates a PostgreSQL search backend on the given pool.
func New(db database.DBTX) *Backend {
	return &Backend{db: db}
}

const productColumns = `p.id, p.category_id, c.name, p.name, p.description, p.sku,
		p.price, p.discount_price, p.stock_quantity, p.brand, p.model, p.is_active,
		p.images, p.created_at, p.updated_at`

// Count returns the number of active products matching the set.
func (b *Backend) Count(ctx context.Context, set predicate.Set) (int64, error) {
	where, args := whereClause(set)
	query := fmt.Sprintf("SELECT COUNT(*) FROM products p WHERE %s", where)

	var count int64
	if err := b.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// FetchPage returns one page of matching products.
func (b *Backend) FetchPage(ctx context.Context, set predicate.Set, st domain.Sort, offset, limit int) ([]domain.Product, error) {
	where, args := whereClause(set)
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		productColumns, where, orderBy(st), len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := b.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch product page: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, limit)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.CategoryID, &p.CategoryName, &p.Name, &p.Description, &p.SKU,
			&p.Price, &p.DiscountPrice, &p.StockQuantity, &p.Brand, &p.Model, &p.IsActive,
			&p.Images, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// CategoryCounts returns per-category match counts for the set.
func (b *Backend) CategoryCounts(ctx context.Context, set predicate.Set) ([]domain.CategoryFacet, error) {
	where, args := whereClause(set)
	query := fmt.Sprintf(`
		SELECT p.category_id, c.name, COUNT(*)
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE %s
		GROUP BY p.category_id, c.name
		ORDER BY COUNT(*) DESC, c.name ASC`, where)

	rows, err := b.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("category counts: %w", err)
	}
	defer rows.Close()

	var facets []domain.CategoryFacet
	for rows.Next() {
		var f domain.CategoryFacet
		if err := rows.Scan(&f.CategoryID, &f.CategoryName, &f.Count); err != nil {
			return nil, fmt.Errorf("scan category facet: %w", err)
		}
		facets = append(facets, f)
	}
	return facets, rows.Err()
}

// BrandCounts returns per-brand match counts for the set.
func (b *Backend) BrandCounts(ctx context.Context, set predicate.Set) ([]domain.BrandFacet, error) {
	where, args := whereClause(set)
	query := fmt.Sprintf(`
		SELECT p.brand, COUNT(*)
		FROM products p
		WHERE %s AND p.brand IS NOT NULL AND p.brand <> ''
		GROUP BY p.brand
		ORDER BY COUNT(*) DESC, p.brand ASC`, where)

	rows, err := b.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("brand counts: %w", err)
	}
	defer rows.Close()

	var facets []domain.BrandFacet
	for rows.Next() {
		var f domain.BrandFacet
		if err := rows.Scan(&f.Brand, &f.Count); err != nil {
			return nil, fmt.Errorf("scan brand facet: %w", err)
		}
		facets = append(facets, f)
	}
	return facets, rows.Err()
}

// SpecificationCounts returns per-value counts of filterable attributes.
// A window function caps each attribute at limit values, ranked by count.
func (b *Backend) SpecificationCounts(ctx context.Context, set predicate.Set, limit int) ([]backend.SpecValueCount, error) {
	where, args := whereClause(set)
	query := fmt.Sprintf(`
		SELECT name, display_name, value, cnt FROM (
			SELECT ad.name AS name, ad.display_name AS display_name,
				COALESCE(ps.value_string, trim_scale(ps.value_numeric)::text, ps.value_boolean::text) AS value,
				COUNT(DISTINCT p.id) AS cnt,
				ROW_NUMBER() OVER (
					PARTITION BY ad.name
					ORDER BY COUNT(DISTINCT p.id) DESC,
						COALESCE(ps.value_string, trim_scale(ps.value_numeric)::text, ps.value_boolean::text) ASC
				) AS rn
			FROM products p
			JOIN product_specifications ps ON ps.product_id = p.id
			JOIN attribute_definitions ad ON ad.id = ps.attribute_id
			WHERE %s AND ad.is_filterable = TRUE
			GROUP BY ad.name, ad.display_name, value
		) ranked
		WHERE rn <= $%d
		ORDER BY name ASC, cnt DESC, value ASC`, where, len(args)+1)
	args = append(args, limit)

	rows, err := b.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("specification counts: %w", err)
	}
	defer rows.Close()

	var counts []backend.SpecValueCount
	for rows.Next() {
		var c backend.SpecValueCount
		if err := rows.Scan(&c.Attribute, &c.DisplayName, &c.Value, &c.Count); err != nil {
			return nil, fmt.Errorf("scan specification count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
