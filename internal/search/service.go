// Package search implements the faceted product search service: it
// compiles filter requests into predicate sets, runs them against the
// configured backend, and aggregates facet counts alongside each result
// page.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/luanvuhlu/compmarket/internal/domain"
	"github.com/luanvuhlu/compmarket/internal/search/backend"
	"github.com/luanvuhlu/compmarket/internal/search/predicate"
	apperrors "github.com/luanvuhlu/compmarket/pkg/errors"
	"github.com/luanvuhlu/compmarket/pkg/logger"
	"github.com/luanvuhlu/compmarket/pkg/pagination"
)

// AttributeSource supplies the attribute definitions the filter compiler
// resolves filter names against. The catalog repository implements it;
// a caching decorator usually sits in front.
type AttributeSource interface {
	Definitions(ctx context.Context) (map[string]domain.AttributeDefinition, error)
}

// ProductSource looks up single products, used to anchor similarity
// queries.
type ProductSource interface {
	GetProduct(ctx context.Context, id string) (*domain.ProductDetail, error)
}

// Service orchestrates search, autocomplete and similarity lookups over
// one backend.
type Service struct {
	backend  backend.Backend
	attrs    AttributeSource
	products ProductSource
	logger   *slog.Logger
}

// NewService creates a search service on the given backend.
func NewService(b backend.Backend, attrs AttributeSource, products ProductSource, log *slog.Logger) *Service {
	return &Service{
		backend:  b,
		attrs:    attrs,
		products: products,
		logger:   log,
	}
}

// Search runs one faceted search: compile the request, count and fetch
// the page against the same predicate set, and aggregate facets with the
// per-dimension exclusion applied. The count and the page always describe
// the same result set because both render from the same set.
func (s *Service) Search(ctx context.Context, req *domain.SearchRequest, page pagination.Params) (*domain.SearchResponse, error) {
	start := time.Now()
	page = page.Normalize()

	defs, err := s.attrs.Definitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load attribute definitions: %w", err)
	}

	set := predicate.Compile(req, defs)

	total, err := s.backend.Count(ctx, set)
	if err != nil {
		return nil, fmt.Errorf("count results: %w", err)
	}

	products := []domain.Product{}
	if total > 0 && int64(page.Offset) < total {
		products, err = s.backend.FetchPage(ctx, set, req.Sort(), page.Offset, page.Size)
		if err != nil {
			return nil, fmt.Errorf("fetch result page: %w", err)
		}
	}

	facets := s.aggregateFacets(ctx, set)

	resp := &domain.SearchResponse{
		Products: domain.NewProductPage(products, page.Page, page.Size, total),
		Facets:   facets,
		TookMs:   time.Since(start).Milliseconds(),
	}

	logger.WithContext(ctx, s.logger).Debug("search executed",
		"query", req.Query,
		"predicates", set.Len(),
		"total", total,
		"took_ms", resp.TookMs,
	)
	return resp, nil
}

// Autocomplete returns up to limit distinct product names matching the
// prefix. Brands that match are suggested ahead of product names.
func (s *Service) Autocomplete(ctx context.Context, prefix string, limit int) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	set := predicate.NewSet(predicate.Text{Query: prefix})

	// Overfetch: several products may share a brand or name.
	products, err := s.backend.FetchPage(ctx, set, domain.Sort{}, 0, limit*3)
	if err != nil {
		return nil, fmt.Errorf("autocomplete: %w", err)
	}

	lower := strings.ToLower(prefix)
	seen := make(map[string]struct{})
	suggestions := []string{}

	add := func(v string) {
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup || len(suggestions) >= limit {
			return
		}
		seen[key] = struct{}{}
		suggestions = append(suggestions, v)
	}

	for _, p := range products {
		if p.Brand != nil && strings.Contains(strings.ToLower(*p.Brand), lower) {
			add(*p.Brand)
		}
	}
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), lower) {
			add(p.Name)
		}
	}
	return suggestions, nil
}

// MoreLikeThis returns up to limit products from the anchor product's
// category, excluding the anchor itself. An unknown anchor returns a
// not-found error.
func (s *Service) MoreLikeThis(ctx context.Context, productID string, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 10
	}

	anchor, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !anchor.IsActive {
		return nil, apperrors.NotFound("product", productID)
	}

	set := predicate.NewSet(predicate.Category{IDs: []string{anchor.CategoryID}})

	// Fetch one extra so the anchor can be dropped without shorting the page.
	products, err := s.backend.FetchPage(ctx, set, domain.Sort{By: domain.SortByNewest}, 0, limit+1)
	if err != nil {
		return nil, fmt.Errorf("more like this: %w", err)
	}

	out := make([]domain.Product, 0, limit)
	for _, p := range products {
		if p.ID == anchor.ID {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
