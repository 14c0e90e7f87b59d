// Package memory provides an in-memory search backend. It evaluates
// predicate sets by linear scan over an indexed document map and is
// meant for local development and tests; behavior mirrors the postgres
// backend. Thread-safe via sync.RWMutex.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/luanvuhlu/compmarket/internal/domain"
	"github.com/luanvuhlu/compmarket/internal/search/backend"
	"github.com/luanvuhlu/compmarket/internal/search/predicate"
)

// Backend is the in-memory implementation of backend.Backend and
// backend.Indexer.
type Backend struct {
	mu   sync.RWMutex
	docs map[string]backend.Document
}

// New creates an empty in-memory backend.
func New() *Backend {
	return &Backend{docs: make(map[string]backend.Document)}
}

// Index adds or replaces one document.
func (b *Backend) Index(_ context.Context, doc backend.Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.docs[doc.Product.ID] = doc
	return nil
}

// BulkIndex adds or replaces multiple documents.
func (b *Backend) BulkIndex(_ context.Context, docs []backend.Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range docs {
		b.docs[docs[i].Product.ID] = docs[i]
	}
	return nil
}

// Delete removes a document by product ID.
func (b *Backend) Delete(_ context.Context, productID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.docs, productID)
	return nil
}

// Count returns the number of active products matching the set.
func (b *Backend) Count(_ context.Context, set predicate.Set) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var n int64
	for _, doc := range b.docs {
		if matches(doc, set) {
			n++
		}
	}
	return n, nil
}

// FetchPage returns one page of matching products in the given order.
func (b *Backend) FetchPage(_ context.Context, set predicate.Set, st domain.Sort, offset, limit int) ([]domain.Product, error) {
	b.mu.RLock()
	matched := b.collect(set)
	b.mu.RUnlock()

	sortProducts(matched, st)

	if offset >= len(matched) {
		return []domain.Product{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

// CategoryCounts returns per-category match counts for the set.
func (b *Backend) CategoryCounts(_ context.Context, set predicate.Set) ([]domain.CategoryFacet, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make(map[string]string)
	counts := make(map[string]int64)
	for _, doc := range b.docs {
		if !matches(doc, set) {
			continue
		}
		counts[doc.Product.CategoryID]++
		names[doc.Product.CategoryID] = doc.Product.CategoryName
	}

	out := make([]domain.CategoryFacet, 0, len(counts))
	for id, n := range counts {
		out = append(out, domain.CategoryFacet{CategoryID: id, CategoryName: names[id], Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].CategoryName < out[j].CategoryName
	})
	return out, nil
}

// BrandCounts returns per-brand match counts for the set.
func (b *Backend) BrandCounts(_ context.Context, set predicate.Set) ([]domain.BrandFacet, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	counts := make(map[string]int64)
	for _, doc := range b.docs {
		if !matches(doc, set) {
			continue
		}
		if doc.Product.Brand == nil || *doc.Product.Brand == "" {
			continue
		}
		counts[*doc.Product.Brand]++
	}

	out := make([]domain.BrandFacet, 0, len(counts))
	for brand, n := range counts {
		out = append(out, domain.BrandFacet{Brand: brand, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Brand < out[j].Brand
	})
	return out, nil
}

// SpecificationCounts returns per-value counts of filterable attributes,
// capped at limit values per attribute.
func (b *Backend) SpecificationCounts(_ context.Context, set predicate.Set, limit int) ([]backend.SpecValueCount, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	type key struct{ attr, value string }
	display := make(map[string]string)
	counts := make(map[key]int64)

	for _, doc := range b.docs {
		if !matches(doc, set) {
			continue
		}
		// A product counts at most once per (attribute, value) even if it
		// somehow carries duplicate rows.
		seen := make(map[key]bool)
		for _, spec := range doc.Specs {
			if !spec.IsFilterable {
				continue
			}
			v := spec.RenderValue()
			if v == "" {
				continue
			}
			k := key{spec.Attribute, v}
			if seen[k] {
				continue
			}
			seen[k] = true
			counts[k]++
			display[spec.Attribute] = spec.DisplayName
		}
	}

	out := make([]backend.SpecValueCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, backend.SpecValueCount{
			Attribute:   k.attr,
			DisplayName: display[k.attr],
			Value:       k.value,
			Count:       n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Attribute != out[j].Attribute {
			return out[i].Attribute < out[j].Attribute
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})

	if limit > 0 {
		out = capPerAttribute(out, limit)
	}
	return out, nil
}

func (b *Backend) collect(set predicate.Set) []domain.Product {
	matched := make([]domain.Product, 0)
	for _, doc := range b.docs {
		if matches(doc, set) {
			matched = append(matched, doc.Product)
		}
	}
	return matched
}

// matches evaluates every predicate of the set against one document.
// Inactive products never match, regardless of filters.
func matches(doc backend.Document, set predicate.Set) bool {
	if !doc.Product.IsActive {
		return false
	}
	for _, p := range set.Predicates() {
		if !matchOne(doc, p) {
			return false
		}
	}
	return true
}

func matchOne(doc backend.Document, p predicate.Predicate) bool {
	switch pred := p.(type) {
	case predicate.Text:
		q := strings.ToLower(pred.Query)
		if strings.Contains(strings.ToLower(doc.Product.Name), q) ||
			strings.Contains(strings.ToLower(doc.Product.Description), q) {
			return true
		}
		return doc.Product.Brand != nil && strings.Contains(strings.ToLower(*doc.Product.Brand), q)
	case predicate.Category:
		for _, id := range pred.IDs {
			if doc.Product.CategoryID == id {
				return true
			}
		}
		return false
	case predicate.Brand:
		if doc.Product.Brand == nil {
			return false
		}
		for _, name := range pred.Names {
			if *doc.Product.Brand == name {
				return true
			}
		}
		return false
	case predicate.PriceRange:
		return pred.Contains(doc.Product.EffectivePrice())
	case predicate.InStock:
		return doc.Product.StockQuantity > 0
	case predicate.Specification:
		// Existence test over the document's spec rows: one matching row
		// for this attribute is enough.
		for _, spec := range doc.Specs {
			if spec.Attribute != pred.Attribute {
				continue
			}
			if pred.Matches(spec.ValueString, spec.ValueNumeric, spec.ValueBoolean) {
				return true
			}
		}
		return false
	}
	return false
}

func sortProducts(products []domain.Product, st domain.Sort) {
	st = st.Normalize()
	asc := st.Order == domain.SortAsc

	less := func(i, j int) bool { return products[i].Name < products[j].Name }
	switch st.By {
	case domain.SortByPrice:
		less = func(i, j int) bool {
			pi, pj := products[i].EffectivePrice(), products[j].EffectivePrice()
			if pi != pj {
				if asc {
					return pi < pj
				}
				return pi > pj
			}
			return products[i].ID < products[j].ID
		}
	case domain.SortByName:
		less = func(i, j int) bool {
			ni, nj := strings.ToLower(products[i].Name), strings.ToLower(products[j].Name)
			if ni != nj {
				if asc {
					return ni < nj
				}
				return ni > nj
			}
			return products[i].ID < products[j].ID
		}
	case domain.SortByNewest:
		less = func(i, j int) bool {
			if !products[i].CreatedAt.Equal(products[j].CreatedAt) {
				if asc {
					return products[i].CreatedAt.Before(products[j].CreatedAt)
				}
				return products[i].CreatedAt.After(products[j].CreatedAt)
			}
			return products[i].ID < products[j].ID
		}
	default:
		// Relevance has no scoring here; fall back to a stable name order
		// so pages never shift between requests.
		less = func(i, j int) bool {
			ni, nj := strings.ToLower(products[i].Name), strings.ToLower(products[j].Name)
			if ni != nj {
				return ni < nj
			}
			return products[i].ID < products[j].ID
		}
	}
	sort.Slice(products, less)
}

// capPerAttribute keeps only the first limit entries of each attribute,
// relying on the caller having sorted entries attribute-first.
func capPerAttribute(in []backend.SpecValueCount, limit int) []backend.SpecValueCount {
	out := make([]backend.SpecValueCount, 0, len(in))
	var attr string
	var kept int
	for _, e := range in {
		if e.Attribute != attr {
			attr = e.Attribute
			kept = 0
		}
		if kept < limit {
			out = append(out, e)
			kept++
		}
	}
	return out
}
