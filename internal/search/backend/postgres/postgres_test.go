package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luanvuhlu/compmarket/internal/domain"
	"github.com/luanvuhlu/compmarket/internal/search/predicate"
	"github.com/luanvuhlu/compmarket/pkg/database"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return mock
}

func strPtr(s string) *string { return &s }

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var productRowColumns = []string{
	"id", "category_id", "category_name", "name", "description", "sku",
	"price", "discount_price", "stock_quantity", "brand", "model", "is_active",
	"images", "created_at", "updated_at",
}

func productRow(p domain.Product) []any {
	return []any{
		p.ID, p.CategoryID, p.CategoryName, p.Name, p.Description, p.SKU,
		p.Price, p.DiscountPrice, p.StockQuantity, p.Brand, p.Model, p.IsActive,
		p.Images, p.CreatedAt, p.UpdatedAt,
	}
}

func sampleProduct() domain.Product {
	return domain.Product{
		ID: "p1", CategoryID: "cat-1", CategoryName: "Laptops",
		Name: "Dell XPS 13", Description: "Compact ultrabook", SKU: "DX13",
		Price: 129900, StockQuantity: 5, Brand: strPtr("Dell"),
		IsActive: true, Images: []string{"xps.jpg"}, CreatedAt: now, UpdatedAt: now,
	}
}

func TestWhereClause_EmptySet(t *testing.T) {
	where, args := whereClause(predicate.Set{})

	assert.Equal(t, "p.is_active = TRUE", where)
	assert.Empty(t, args)
}

func TestWhereClause_AllPredicates(t *testing.T) {
	min, max := int64(50000), int64(150000)
	set := predicate.NewSet(
		predicate.Text{Query: "laptop"},
		predicate.Category{IDs: []string{"cat-1"}},
		predicate.Brand{Names: []string{"Dell", "HP"}},
		predicate.PriceRange{Min: &min, Max: &max},
		predicate.InStock{},
	)

	where, args := whereClause(set)

	assert.Contains(t, where, "p.is_active = TRUE")
	assert.Contains(t, where, "p.name ILIKE $1")
	assert.Contains(t, where, "p.category_id = ANY($2)")
	assert.Contains(t, where, "p.brand = ANY($3)")
	assert.Contains(t, where, "COALESCE(p.discount_price, p.price) >= $4")
	assert.Contains(t, where, "COALESCE(p.discount_price, p.price) < $5")
	assert.Contains(t, where, "p.stock_quantity > 0")
	assert.Equal(t, []any{"%laptop%", []string{"cat-1"}, []string{"Dell", "HP"}, int64(50000), int64(150000)}, args)
}

func TestWhereClause_SpecificationExists(t *testing.T) {
	set := predicate.NewSet(predicate.Specification{
		Attribute: "ram_size",
		DataType:  domain.DataTypeNumeric,
		Known:     true,
		Coerced:   true,
		Numeric:   16,
	})

	where, args := whereClause(set)

	assert.Contains(t, where, "EXISTS (")
	assert.Contains(t, where, "ad.name = $1")
	assert.Contains(t, where, "ps.value_numeric = $2")
	assert.Equal(t, []any{"ram_size", 16.0}, args)
}

func TestWhereClause_StringSpecificationUsesILIKE(t *testing.T) {
	set := predicate.NewSet(predicate.Specification{
		Attribute: "cpu",
		DataType:  domain.DataTypeString,
		Known:     true,
		Coerced:   true,
		Raw:       "i7",
	})

	where, args := whereClause(set)

	assert.Contains(t, where, "ps.value_string ILIKE $2")
	assert.Equal(t, []any{"cpu", "%i7%"}, args)
}

func TestWhereClause_UnknownAttributeRendersFalse(t *testing.T) {
	set := predicate.NewSet(predicate.Specification{Attribute: "no_such"})

	where, args := whereClause(set)

	assert.Contains(t, where, "FALSE")
	assert.Empty(t, args)
}

// Placeholder numbering must stay dense when an unknown attribute
// contributes no arguments.
func TestWhereClause_PlaceholderNumberingAfterFalse(t *testing.T) {
	set := predicate.NewSet(
		predicate.Specification{Attribute: "no_such"},
		predicate.Brand{Names: []string{"Dell"}},
	)

	where, args := whereClause(set)

	assert.Contains(t, where, "p.brand = ANY($1)")
	assert.Len(t, args, 1)
}

func TestOrderBy(t *testing.T) {
	tests := []struct {
		name string
		sort domain.Sort
		want string
	}{
		{"price asc", domain.Sort{By: domain.SortByPrice, Order: domain.SortAsc}, "COALESCE(p.discount_price, p.price) ASC, p.id ASC"},
		{"price desc", domain.Sort{By: domain.SortByPrice, Order: domain.SortDesc}, "COALESCE(p.discount_price, p.price) DESC, p.id ASC"},
		{"name", domain.Sort{By: domain.SortByName, Order: domain.SortAsc}, "lower(p.name) ASC, p.id ASC"},
		{"newest", domain.Sort{By: domain.SortByNewest, Order: domain.SortDesc}, "p.created_at DESC, p.id ASC"},
		{"relevance ignores order", domain.Sort{By: domain.SortByRelevance, Order: domain.SortDesc}, "lower(p.name) ASC, p.id ASC"},
		{"zero value", domain.Sort{}, "lower(p.name) ASC, p.id ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orderBy(tt.sort))
		})
	}
}

func TestCount(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	b := New(mock)

	set := predicate.NewSet(predicate.Brand{Names: []string{"Dell"}})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products p WHERE p.is_active = TRUE AND p.brand = ANY($1)")).
		WithArgs([]string{"Dell"}).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	n, err := b.Count(context.Background(), set)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCount_QueryError(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	b := New(mock)

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("boom"))

	_, err := b.Count(context.Background(), predicate.Set{})

	assert.ErrorContains(t, err, "count products")
}

func TestFetchPage(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	b := New(mock)

	p := sampleProduct()
	mock.ExpectQuery("SELECT p.id, p.category_id, c.name").
		WithArgs([]string{"Dell"}, 20, 40).
		WillReturnRows(pgxmock.NewRows(productRowColumns).AddRow(productRow(p)...))

	set := predicate.NewSet(predicate.Brand{Names: []string{"Dell"}})
	products, err := b.FetchPage(context.Background(), set, domain.Sort{By: domain.SortByPrice, Order: domain.SortAsc}, 40, 20)

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, p, products[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryCounts(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	b := New(mock)

	mock.ExpectQuery("SELECT p.category_id, c.name, COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"category_id", "name", "count"}).
			AddRow("cat-1", "Laptops", int64(12)).
			AddRow("cat-2", "Monitors", int64(4)))

	facets, err := b.CategoryCounts(context.Background(), predicate.Set{})

	require.NoError(t, err)
	require.Len(t, facets, 2)
	assert.Equal(t, domain.CategoryFacet{CategoryID: "cat-1", CategoryName: "Laptops", Count: 12}, facets[0])
}

func TestBrandCounts(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	b := New(mock)

	mock.ExpectQuery("SELECT p.brand, COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"brand", "count"}).
			AddRow("Dell", int64(7)))

	facets, err := b.BrandCounts(context.Background(), predicate.Set{})

	require.NoError(t, err)
	require.Len(t, facets, 1)
	assert.Equal(t, domain.BrandFacet{Brand: "Dell", Count: 7}, facets[0])
}

func TestSpecificationCounts(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	b := New(mock)

	mock.ExpectQuery("SELECT name, display_name, value, cnt FROM").
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{"name", "display_name", "value", "cnt"}).
			AddRow("ram_size", "RAM Size", "16", int64(5)).
			AddRow("ram_size", "RAM Size", "8", int64(3)))

	counts, err := b.SpecificationCounts(context.Background(), predicate.Set{}, 10)

	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "ram_size", counts[0].Attribute)
	assert.Equal(t, int64(5), counts[0].Count)
	require.NoError(t, mock.ExpectationsWereMet())
}
