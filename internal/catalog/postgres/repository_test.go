package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luanvuhlu/compmarket/internal/domain"
	"github.com/luanvuhlu/compmarket/pkg/database"
	apperrors "github.com/luanvuhlu/compmarket/pkg/errors"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return mock
}

func strPtr(s string) *string   { return &s }
func numPtr(f float64) *float64 { return &f }

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleProduct() domain.Product {
	return domain.Product{
		ID: "p1", CategoryID: "cat-1", Name: "Dell XPS 13", Description: "Ultrabook",
		SKU: "DX13", Price: 129900, StockQuantity: 5, Brand: strPtr("Dell"),
		IsActive: true, Images: []string{"xps.jpg"}, CreatedAt: now, UpdatedAt: now,
	}
}

func TestCreateProduct(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := New(mock)

	p := sampleProduct()
	mock.ExpectExec("INSERT INTO products").
		WithArgs(p.ID, p.CategoryID, p.Name, p.Description, p.SKU, p.Price, p.DiscountPrice,
			p.StockQuantity, p.Brand, p.Model, p.IsActive, p.Images, p.CreatedAt, p.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.CreateProduct(context.Background(), &p))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProduct_DuplicateSKU(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := New(mock)

	p := sampleProduct()
	mock.ExpectExec("INSERT INTO products").
		WithArgs(p.ID, p.CategoryID, p.Name, p.Description, p.SKU, p.Price, p.DiscountPrice,
			p.StockQuantity, p.Brand, p.Model, p.IsActive, p.Images, p.CreatedAt, p.UpdatedAt).
		WillReturnError(errors.New(`duplicate key value violates unique constraint "products_sku_key" (SQLSTATE 23505)`))

	err := repo.CreateProduct(context.Background(), &p)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, apperrors.HTTPStatus(err))
}

func TestGetProduct(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := New(mock)

	p := sampleProduct()
	mock.ExpectQuery("SELECT p.id, p.category_id, c.name").
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "category_id", "category_name", "name", "description", "sku", "price",
			"discount_price", "stock_quantity", "brand", "model", "is_active",
			"images", "created_at", "updated_at",
		}).AddRow(
			p.ID, p.CategoryID, "Laptops", p.Name, p.Description, p.SKU, p.Price,
			p.DiscountPrice, p.StockQuantity, p.Brand, p.Model, p.IsActive,
			p.Images, p.CreatedAt, p.UpdatedAt,
		))

	mock.ExpectQuery("SELECT ps.id, ps.product_id, ps.attribute_id").
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "product_id", "attribute_id", "name", "display_name",
			"data_type", "unit", "is_filterable",
			"value_string", "value_numeric", "value_boolean",
		}).AddRow(
			"spec-1", "p1", "attr-1", "ram_size", "RAM Size",
			domain.DataTypeNumeric, strPtr("GB"), true,
			(*string)(nil), numPtr(16), (*bool)(nil),
		))

	detail, err := repo.GetProduct(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, "Laptops", detail.CategoryName)
	require.Len(t, detail.Specifications, 1)
	assert.Equal(t, "ram_size", detail.Specifications[0].Attribute)
	assert.Equal(t, "16", detail.Specifications[0].RenderValue())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProduct_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := New(mock)

	mock.ExpectQuery("SELECT p.id, p.category_id, c.name").
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetProduct(context.Background(), "nope")

	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestListProducts(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := New(mock)

	p := sampleProduct()
	mock.ExpectQuery("SELECT p.id, p.category_id, c.name").
		WithArgs(2, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "category_id", "category_name", "name", "description", "sku", "price",
			"discount_price", "stock_quantity", "brand", "model", "is_active",
			"images", "created_at", "updated_at",
		}).AddRow(
			p.ID, p.CategoryID, "Laptops", p.Name, p.Description, p.SKU, p.Price,
			p.DiscountPrice, p.StockQuantity, p.Brand, p.Model, p.IsActive,
			p.Images, p.CreatedAt, p.UpdatedAt,
		).AddRow(
			"p2", p.CategoryID, "Laptops", "ThinkPad X1", "Business laptop", "TX1", int64(159900),
			(*int64)(nil), 3, strPtr("Lenovo"), "", true,
			[]string{}, p.CreatedAt, p.UpdatedAt,
		))

	mock.ExpectQuery("SELECT ps.id, ps.product_id, ps.attribute_id").
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "product_id", "attribute_id", "name", "display_name",
			"data_type", "unit", "is_filterable",
			"value_string", "value_numeric", "value_boolean",
		}).AddRow(
			"spec-1", "p1", "attr-1", "ram_size", "RAM Size",
			domain.DataTypeNumeric, strPtr("GB"), true,
			(*string)(nil), numPtr(16), (*bool)(nil),
		))
	mock.ExpectQuery("SELECT ps.id, ps.product_id, ps.attribute_id").
		WithArgs("p2").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "product_id", "attribute_id", "name", "display_name",
			"data_type", "unit", "is_filterable",
			"value_string", "value_numeric", "value_boolean",
		}))

	details, err := repo.ListProducts(context.Background(), 0, 2)

	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "p1", details[0].ID)
	require.Len(t, details[0].Specifications, 1)
	assert.Equal(t, "ram_size", details[0].Specifications[0].Attribute)
	assert.Equal(t, "p2", details[1].ID)
	assert.Empty(t, details[1].Specifications)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProduct_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := New(mock)

	p := sampleProduct()
	mock.ExpectExec("UPDATE products").
		WithArgs(p.ID, p.CategoryID, p.Name, p.Description, p.SKU, p.Price,
			p.DiscountPrice, p.StockQuantity, p.Brand, p.Model,
			p.IsActive, p.Images, p.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateProduct(context.Background(), &p)

	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestDeleteProduct_SoftDelete(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := New(mock)

	mock.ExpectExec("UPDATE products SET is_active = FALSE").
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.DeleteProduct(context.Background(), "p1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceSpecifications(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := New(mock)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM product_specifications").
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec("INSERT INTO product_specifications").
		WithArgs("spec-1", "p1", "attr-1", (*string)(nil), numPtr(16), (*bool)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	specs := []domain.ProductSpecification{{
		ID: "spec-1", ProductID: "p1", AttributeID: "attr-1", ValueNumeric: numPtr(16),
	}}
	require.NoError(t, repo.ReplaceSpecifications(context.Background(), "p1", specs))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceSpecifications_RollbackOnError(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := New(mock)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM product_specifications").
		WithArgs("p1").
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.ReplaceSpecifications(context.Background(), "p1", nil)

	assert.ErrorContains(t, err, "clear specifications")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAttributeDefinition(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := New(mock)

	def := domain.AttributeDefinition{
		ID: "attr-1", Name: "ram_size", DisplayName: "RAM Size",
		DataType: domain.DataTypeNumeric, Unit: strPtr("GB"),
		IsFilterable: true, SortOrder: 1, CreatedAt: now, UpdatedAt: now,
	}
	mock.ExpectExec("INSERT INTO attribute_definitions").
		WithArgs(def.ID, def.Name, def.DisplayName, def.DataType, def.Unit,
			def.IsFilterable, def.IsSearchable, def.SortOrder, def.CreatedAt, def.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.CreateAttributeDefinition(context.Background(), &def))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDefinitions_KeyedByNormalizedName(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := New(mock)

	mock.ExpectQuery("SELECT id, name, display_name, data_type").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "display_name", "data_type", "unit", "is_filterable",
			"is_searchable", "sort_order", "created_at", "updated_at",
		}).AddRow(
			"attr-1", "RAM_Size", "RAM Size", domain.DataTypeNumeric, strPtr("GB"), true,
			false, 1, now, now,
		))

	defs, err := repo.Definitions(context.Background())

	require.NoError(t, err)
	require.Len(t, defs, 1)
	_, ok := defs["ram_size"]
	assert.True(t, ok, "keyed by normalized name")
}

func TestListCategories(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := New(mock)

	mock.ExpectQuery("SELECT id, name, parent_id").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "parent_id", "is_active", "created_at", "updated_at",
		}).AddRow("cat-1", "Laptops", (*string)(nil), true, now, now))

	categories, err := repo.ListCategories(context.Background())

	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Laptops", categories[0].Name)
}
