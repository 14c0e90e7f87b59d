// Package postgres implements the catalog repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/luanvuhlu/compmarket/internal/domain"
	"github.com/luanvuhlu/compmarket/pkg/database"
	apperrors "github.com/luanvuhlu/compmarket/pkg/errors"
)

// Repository implements catalog.Repository using PostgreSQL.
type Repository struct {
	db database.DBTX
}

// New creates a PostgreSQL-backed catalog repository.
func New(db database.DBTX) *Repository {
	return &Repository{db: db}
}

// CreateProduct inserts a new product.
func (r *Repository) CreateProduct(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, category_id, name, description, sku, price, discount_price,
			stock_quantity, brand, model, is_active, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(ctx, query,
		p.ID, p.CategoryID, p.Name, p.Description, p.SKU, p.Price, p.DiscountPrice,
		p.StockQuantity, p.Brand, p.Model, p.IsActive, p.Images, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "sku", p.SKU)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetProduct retrieves a product with its specification rows. Inactive
// products are returned too; callers decide whether they are visible.
func (r *Repository) GetProduct(ctx context.Context, id string) (*domain.ProductDetail, error) {
	query := `
		SELECT p.id, p.category_id, c.name, p.name, p.description, p.sku, p.price,
			p.discount_price, p.stock_quantity, p.brand, p.model, p.is_active,
			p.images, p.created_at, p.updated_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`

	var d domain.ProductDetail
	err := r.db.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.CategoryID, &d.CategoryName, &d.Name, &d.Description, &d.SKU, &d.Price,
		&d.DiscountPrice, &d.StockQuantity, &d.Brand, &d.Model, &d.IsActive,
		&d.Images, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	specs, err := r.productSpecifications(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Specifications = specs
	return &d, nil
}

func (r *Repository) productSpecifications(ctx context.Context, productID string) ([]domain.ProductSpecification, error) {
	query := `
		SELECT ps.id, ps.product_id, ps.attribute_id, ad.name, ad.display_name,
			ad.data_type, ad.unit, ad.is_filterable,
			ps.value_string, ps.value_numeric, ps.value_boolean
		FROM product_specifications ps
		JOIN attribute_definitions ad ON ad.id = ps.attribute_id
		WHERE ps.product_id = $1
		ORDER BY ad.sort_order ASC, ad.name ASC`

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("get product specifications: %w", err)
	}
	defer rows.Close()

	specs := make([]domain.ProductSpecification, 0)
	for rows.Next() {
		var s domain.ProductSpecification
		if err := rows.Scan(
			&s.ID, &s.ProductID, &s.AttributeID, &s.Attribute, &s.DisplayName,
			&s.DataType, &s.Unit, &s.IsFilterable,
			&s.ValueString, &s.ValueNumeric, &s.ValueBoolean,
		); err != nil {
			return nil, fmt.Errorf("scan specification: %w", err)
		}
		specs = append(specs, s)
	}
	return specs, rows.Err()
}

// UpdateProduct updates all mutable product fields.
func (r *Repository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	query := `
		UPDATE products
		SET category_id = $2, name = $3, description = $4, sku = $5, price = $6,
			discount_price = $7, stock_quantity = $8, brand = $9, model = $10,
			is_active = $11, images = $12, updated_at = $13
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		p.ID, p.CategoryID, p.Name, p.Description, p.SKU, p.Price,
		p.DiscountPrice, p.StockQuantity, p.Brand, p.Model,
		p.IsActive, p.Images, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "sku", p.SKU)
		}
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}
	return nil
}

// DeleteProduct soft-deletes a product.
func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE products SET is_active = FALSE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// ReplaceSpecifications swaps a product's specification rows in one
// transaction.
func (r *Repository) ReplaceSpecifications(ctx context.Context, productID string, specs []domain.ProductSpecification) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace specifications: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM product_specifications WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("clear specifications: %w", err)
	}

	for i := range specs {
		s := &specs[i]
		if _, err := tx.Exec(ctx, `
			INSERT INTO product_specifications (id, product_id, attribute_id, value_string, value_numeric, value_boolean)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			s.ID, productID, s.AttributeID, s.ValueString, s.ValueNumeric, s.ValueBoolean,
		); err != nil {
			return fmt.Errorf("insert specification: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace specifications: %w", err)
	}
	return nil
}

// ListProducts returns one stable batch of products with their
// specification rows, ordered by id. Inactive products are included;
// reindexing decides what to do with them.
func (r *Repository) ListProducts(ctx context.Context, offset, limit int) ([]domain.ProductDetail, error) {
	query := `
		SELECT p.id, p.category_id, c.name, p.name, p.description, p.sku, p.price,
			p.discount_price, p.stock_quantity, p.brand, p.model, p.is_active,
			p.images, p.created_at, p.updated_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		ORDER BY p.id ASC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	details := make([]domain.ProductDetail, 0, limit)
	for rows.Next() {
		var d domain.ProductDetail
		if err := rows.Scan(
			&d.ID, &d.CategoryID, &d.CategoryName, &d.Name, &d.Description, &d.SKU, &d.Price,
			&d.DiscountPrice, &d.StockQuantity, &d.Brand, &d.Model, &d.IsActive,
			&d.Images, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range details {
		specs, err := r.productSpecifications(ctx, details[i].ID)
		if err != nil {
			return nil, err
		}
		details[i].Specifications = specs
	}
	return details, nil
}

// ListCategories returns the active categories.
func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	query := `
		SELECT id, name, parent_id, is_active, created_at, updated_at
		FROM categories
		WHERE is_active = TRUE
		ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateAttributeDefinition inserts a new attribute definition.
func (r *Repository) CreateAttributeDefinition(ctx context.Context, def *domain.AttributeDefinition) error {
	query := `
		INSERT INTO attribute_definitions (id, name, display_name, data_type, unit,
			is_filterable, is_searchable, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		def.ID, def.Name, def.DisplayName, def.DataType, def.Unit,
		def.IsFilterable, def.IsSearchable, def.SortOrder, def.CreatedAt, def.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("attribute definition", "name", def.Name)
		}
		return fmt.Errorf("insert attribute definition: %w", err)
	}
	return nil
}

// ListAttributeDefinitions returns all attribute definitions in display
// order.
func (r *Repository) ListAttributeDefinitions(ctx context.Context) ([]domain.AttributeDefinition, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, display_name, data_type, unit, is_filterable, is_searchable,
			sort_order, created_at, updated_at
		FROM attribute_definitions
		ORDER BY sort_order ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list attribute definitions: %w", err)
	}
	defer rows.Close()

	var defs []domain.AttributeDefinition
	for rows.Next() {
		var d domain.AttributeDefinition
		if err := rows.Scan(
			&d.ID, &d.Name, &d.DisplayName, &d.DataType, &d.Unit,
			&d.IsFilterable, &d.IsSearchable, &d.SortOrder, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan attribute definition: %w", err)
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// Definitions returns all attribute definitions keyed by normalized name.
func (r *Repository) Definitions(ctx context.Context) (map[string]domain.AttributeDefinition, error) {
	defs, err := r.ListAttributeDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]domain.AttributeDefinition, len(defs))
	for _, d := range defs {
		out[domain.NormalizeAttributeName(d.Name)] = d
	}
	return out, nil
}

// isUniqueViolation checks for a PostgreSQL unique constraint violation
// (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
