package search

import (
	"context"
	"sync"

	"github.com/luanvuhlu/compmarket/internal/domain"
	"github.com/luanvuhlu/compmarket/internal/search/predicate"
	"github.com/luanvuhlu/compmarket/pkg/logger"
)

// maxSpecFacetValues caps how many distinct values each attribute facet
// carries.
const maxSpecFacetValues = 10

// priceBucket is one fixed price facet bucket. Bounds are in minor
// currency units; Min inclusive, Max exclusive (nil for the open top).
type priceBucket struct {
	min   int64
	max   *int64
	label string
}

func priceBuckets() []priceBucket {
	cents := func(dollars int64) *int64 {
		v := dollars * 100
		return &v
	}
	return []priceBucket{
		{min: 0, max: cents(100), label: "Under $100"},
		{min: 100 * 100, max: cents(500), label: "$100 - $500"},
		{min: 500 * 100, max: cents(1000), label: "$500 - $1000"},
		{min: 1000 * 100, max: cents(2000), label: "$1000 - $2000"},
		{min: 2000 * 100, max: nil, label: "$2000+"},
	}
}

// aggregateFacets computes all four facet families concurrently. Each
// family is independent: its counts are taken with its own filter
// dimension removed from the set, so a shopper sees what picking a
// different value would yield. A family that fails is logged and comes
// back empty; the others are unaffected.
func (s *Service) aggregateFacets(ctx context.Context, set predicate.Set) domain.SearchFacets {
	log := logger.WithContext(ctx, s.logger)

	facets := domain.SearchFacets{
		Categories:     []domain.CategoryFacet{},
		Brands:         []domain.BrandFacet{},
		PriceRanges:    []domain.PriceRangeFacet{},
		Specifications: []domain.SpecificationFacet{},
	}

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		counts, err := s.backend.CategoryCounts(ctx, set.Without(predicate.DimCategory))
		if err != nil {
			log.Warn("category facet failed", "error", err)
			return
		}
		if counts != nil {
			facets.Categories = counts
		}
	}()

	go func() {
		defer wg.Done()
		counts, err := s.backend.BrandCounts(ctx, set.Without(predicate.DimBrand))
		if err != nil {
			log.Warn("brand facet failed", "error", err)
			return
		}
		if counts != nil {
			facets.Brands = counts
		}
	}()

	go func() {
		defer wg.Done()
		ranges, err := s.priceRangeFacets(ctx, set)
		if err != nil {
			log.Warn("price facet failed", "error", err)
			return
		}
		facets.PriceRanges = ranges
	}()

	go func() {
		defer wg.Done()
		specs, err := s.specificationFacets(ctx, set)
		if err != nil {
			log.Warn("specification facet failed", "error", err)
			return
		}
		facets.Specifications = specs
	}()

	wg.Wait()
	return facets
}

// priceRangeFacets counts matches per fixed bucket. The shopper's own
// price bounds are removed first so every bucket stays visible while one
// is selected; empty buckets are dropped.
func (s *Service) priceRangeFacets(ctx context.Context, set predicate.Set) ([]domain.PriceRangeFacet, error) {
	base := set.Without(predicate.DimPrice)

	out := []domain.PriceRangeFacet{}
	for _, bucket := range priceBuckets() {
		min := bucket.min
		bucketed := base.With(predicate.PriceRange{Min: &min, Max: bucket.max})
		count, err := s.backend.Count(ctx, bucketed)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			continue
		}
		out = append(out, domain.PriceRangeFacet{
			Min:   bucket.min,
			Max:   bucket.max,
			Label: bucket.label,
			Count: count,
		})
	}
	return out, nil
}

// specificationFacets groups the backend's flat (attribute, value, count)
// rows into per-attribute facets, preserving the backend's value ranking.
func (s *Service) specificationFacets(ctx context.Context, set predicate.Set) ([]domain.SpecificationFacet, error) {
	rows, err := s.backend.SpecificationCounts(ctx, set.Without(predicate.DimSpecification), maxSpecFacetValues)
	if err != nil {
		return nil, err
	}

	out := []domain.SpecificationFacet{}
	index := make(map[string]int)
	for _, row := range rows {
		if row.Count == 0 {
			continue
		}
		i, ok := index[row.Attribute]
		if !ok {
			i = len(out)
			index[row.Attribute] = i
			out = append(out, domain.SpecificationFacet{
				AttributeName:        row.Attribute,
				AttributeDisplayName: row.DisplayName,
			})
		}
		out[i].Values = append(out[i].Values, domain.SpecificationValue{
			Value: row.Value,
			Count: row.Count,
		})
	}
	return out, nil
}
