// Package catalog owns the product catalog: products, categories,
// attribute definitions and per-product specification rows. It is the
// write side that the search backends read from (postgres directly,
// elasticsearch via the event consumer).
package catalog

import (
	"context"

	"github.com/luanvuhlu/compmarket/internal/domain"
)

// Repository is the persistence contract for the catalog.
type Repository interface {
	CreateProduct(ctx context.Context, p *domain.Product) error
	GetProduct(ctx context.Context, id string) (*domain.ProductDetail, error)
	UpdateProduct(ctx context.Context, p *domain.Product) error
	// DeleteProduct soft-deletes: the row stays, is_active flips off.
	DeleteProduct(ctx context.Context, id string) error

	// ReplaceSpecifications swaps a product's specification rows in one
	// transaction.
	ReplaceSpecifications(ctx context.Context, productID string, specs []domain.ProductSpecification) error

	ListCategories(ctx context.Context) ([]domain.Category, error)

	CreateAttributeDefinition(ctx context.Context, def *domain.AttributeDefinition) error
	ListAttributeDefinitions(ctx context.Context) ([]domain.AttributeDefinition, error)

	// Definitions returns all attribute definitions keyed by normalized
	// name, the shape the filter compiler consumes.
	Definitions(ctx context.Context) (map[string]domain.AttributeDefinition, error)
}
