package elasticsearch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luanvuhlu/compmarket/internal/domain"
	"github.com/luanvuhlu/compmarket/internal/search/backend"
	"github.com/luanvuhlu/compmarket/internal/search/predicate"
)

func queryJSON(t *testing.T, set predicate.Set) string {
	t.Helper()
	data, err := json.Marshal(buildBoolQuery(set))
	require.NoError(t, err)
	return string(data)
}

func TestBuildBoolQuery_AlwaysFiltersActive(t *testing.T) {
	q := queryJSON(t, predicate.Set{})

	assert.Contains(t, q, `"is_active":true`)
}

func TestBuildBoolQuery_TextGoesIntoMust(t *testing.T) {
	q := queryJSON(t, predicate.NewSet(predicate.Text{Query: "laptop"}))

	assert.Contains(t, q, `"multi_match"`)
	assert.Contains(t, q, `"must"`)
	assert.Contains(t, q, `"query":"laptop"`)
}

func TestBuildBoolQuery_FilterClauses(t *testing.T) {
	min := int64(50000)
	set := predicate.NewSet(
		predicate.Category{IDs: []string{"cat-1"}},
		predicate.Brand{Names: []string{"Dell"}},
		predicate.PriceRange{Min: &min},
		predicate.InStock{},
	)

	q := queryJSON(t, set)

	assert.Contains(t, q, `"category_id":["cat-1"]`)
	assert.Contains(t, q, `"brand.keyword":["Dell"]`)
	assert.Contains(t, q, `"effective_price":{"gte":50000}`)
	assert.Contains(t, q, `"stock_quantity":{"gt":0}`)
}

func TestBuildBoolQuery_PriceMaxIsExclusive(t *testing.T) {
	max := int64(100000)
	q := queryJSON(t, predicate.NewSet(predicate.PriceRange{Max: &max}))

	assert.Contains(t, q, `"lt":100000`)
	assert.NotContains(t, q, `"lte"`)
}

func TestBuildBoolQuery_SpecificationNested(t *testing.T) {
	set := predicate.NewSet(predicate.Specification{
		Attribute: "ram_size",
		DataType:  domain.DataTypeNumeric,
		Known:     true,
		Coerced:   true,
		Numeric:   16,
	})

	q := queryJSON(t, set)

	assert.Contains(t, q, `"nested"`)
	assert.Contains(t, q, `"path":"specifications"`)
	assert.Contains(t, q, `"specifications.attribute":"ram_size"`)
	assert.Contains(t, q, `"specifications.value_numeric":16`)
}

func TestBuildBoolQuery_UnknownAttributeMatchesNone(t *testing.T) {
	q := queryJSON(t, predicate.NewSet(predicate.Specification{Attribute: "no_such"}))

	assert.Contains(t, q, `"match_none"`)
}

func TestBuildSort_AlwaysTieBreaksOnID(t *testing.T) {
	for _, by := range []string{domain.SortByRelevance, domain.SortByPrice, domain.SortByName, domain.SortByNewest} {
		clauses := buildSort(domain.Sort{By: by, Order: domain.SortAsc})
		require.Len(t, clauses, 2, "sort %s", by)
		assert.Equal(t, map[string]interface{}{"id": "asc"}, clauses[1])
	}
}

func TestBuildSort_Price(t *testing.T) {
	clauses := buildSort(domain.Sort{By: domain.SortByPrice, Order: domain.SortDesc})

	assert.Equal(t, map[string]interface{}{"effective_price": "desc"}, clauses[0])
}

func TestToDocument_ComputesEffectivePriceAndLabels(t *testing.T) {
	discount := int64(89900)
	ram := 16.0
	doc := toDocument(backend.Document{
		Product: domain.Product{ID: "p1", Price: 99900, DiscountPrice: &discount, IsActive: true},
		Specs: []domain.ProductSpecification{{
			Attribute:    "ram_size",
			DisplayName:  "RAM Size",
			DataType:     domain.DataTypeNumeric,
			ValueNumeric: &ram,
			IsFilterable: true,
		}},
	})

	assert.Equal(t, int64(89900), doc.EffectivePrice)
	require.Len(t, doc.Specifications, 1)
	assert.Equal(t, "16", doc.Specifications[0].ValueLabel)
}
