// Package backend defines the storage-facing contract of the search
// engine. A Backend executes compiled predicate sets against one store;
// postgres, elasticsearch and memory implementations live in
// subpackages and are selected by configuration.
package backend

import (
	"context"

	"github.com/luanvuhlu/compmarket/internal/domain"
	"github.com/luanvuhlu/compmarket/internal/search/predicate"
)

// SpecValueCount is one (attribute, value) bucket from a specification
// facet query.
type SpecValueCount struct {
	Attribute   string
	DisplayName string
	Value       string
	Count       int64
}

// Backend executes predicate sets against one product store. Count and
// FetchPage are guaranteed to agree when given the same set: both render
// the same match condition, so the reported total always describes the
// same result set the page was cut from.
type Backend interface {
	// Count returns the number of active products matching the set.
	Count(ctx context.Context, set predicate.Set) (int64, error)

	// FetchPage returns one page of matching products in the given order.
	// Ordering is total: equal sort keys are tie-broken by product ID so
	// pagination never duplicates or drops rows across pages.
	FetchPage(ctx context.Context, set predicate.Set, sort domain.Sort, offset, limit int) ([]domain.Product, error)

	// CategoryCounts returns per-category match counts for the set.
	CategoryCounts(ctx context.Context, set predicate.Set) ([]domain.CategoryFacet, error)

	// BrandCounts returns per-brand match counts for the set.
	BrandCounts(ctx context.Context, set predicate.Set) ([]domain.BrandFacet, error)

	// SpecificationCounts returns per-value match counts for every
	// filterable attribute, capped at limit values per attribute.
	SpecificationCounts(ctx context.Context, set predicate.Set, limit int) ([]SpecValueCount, error)
}

// Document is the denormalized form of a product handed to an Indexer.
type Document struct {
	Product domain.Product
	Specs   []domain.ProductSpecification
}

// Indexer is implemented by backends that maintain a secondary index
// (elasticsearch, memory). The postgres backend reads the tables the
// catalog writes and needs no indexer.
type Indexer interface {
	Index(ctx context.Context, doc Document) error
	BulkIndex(ctx context.Context, docs []Document) error
	Delete(ctx context.Context, productID string) error
}
